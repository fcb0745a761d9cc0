package randomness

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"go.uber.org/zap"
)

// CallbackFunc consumes a randomness delivery the way the webhook endpoint
// would. The local source invokes it instead of a network round trip.
type CallbackFunc func(ctx context.Context, cb raffle.RandomnessCallback) error

// wordCeiling is 2^256, matching the range of a VRF output word
var wordCeiling = new(big.Int).Lsh(big.NewInt(1), 256)

// LocalSource fabricates entropy in-process for development and tests.
// RequestRandomness returns immediately and delivers the callback from a
// goroutine after a short delay, mimicking the oracle's async contract.
type LocalSource struct {
	callback CallbackFunc
	delay    time.Duration
	logger   *zap.Logger
}

// NewLocalSource creates a local randomness source
func NewLocalSource(callback CallbackFunc, delay time.Duration, logger *zap.Logger) *LocalSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalSource{
		callback: callback,
		delay:    delay,
		logger:   logger,
	}
}

// RequestRandomness generates a request ID and schedules the callback
func (s *LocalSource) RequestRandomness(_ context.Context, raffleID uuid.UUID) (string, error) {
	word, err := rand.Int(rand.Reader, wordCeiling)
	if err != nil {
		return "", fmt.Errorf("failed to generate random word: %w", err)
	}
	requestID := "local-" + uuid.NewString()

	go func() {
		time.Sleep(s.delay)
		cb := raffle.RandomnessCallback{
			RequestID:   requestID,
			RandomWords: []string{word.String()},
			ReceivedAt:  time.Now(),
		}
		// Deliveries run outside the request that triggered them
		if err := s.callback(context.Background(), cb); err != nil {
			s.logger.Error("local randomness callback failed",
				zap.String("raffle_id", raffleID.String()),
				zap.String("request_id", requestID),
				zap.Error(err),
			)
		}
	}()

	s.logger.Info("local randomness scheduled",
		zap.String("raffle_id", raffleID.String()),
		zap.String("request_id", requestID),
	)

	return requestID, nil
}

// Ensure LocalSource implements RandomnessSource
var _ raffle.RandomnessSource = (*LocalSource)(nil)
