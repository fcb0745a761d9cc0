package randomness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/rafflehub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// HTTPOracleSource requests verifiable randomness from an external oracle
// service over HTTP. The oracle acknowledges with a request ID and later
// delivers the random words to the configured callback URL.
type HTTPOracleSource struct {
	baseURL     string
	apiKey      string
	callbackURL string
	client      *http.Client
	logger      *zap.Logger
}

// NewHTTPOracleSource creates a new oracle-backed randomness source
func NewHTTPOracleSource(cfg config.OracleConfig, logger *zap.Logger) *HTTPOracleSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPOracleSource{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		callbackURL: cfg.CallbackURL,
		client:      &http.Client{Timeout: cfg.RequestTimeout},
		logger:      logger,
	}
}

type randomnessRequest struct {
	SubjectID   string `json:"subject_id"`
	CallbackURL string `json:"callback_url"`
}

type randomnessResponse struct {
	RequestID string `json:"request_id"`
}

// RequestRandomness asks the oracle for entropy tied to the raffle.
// Returns the oracle's request ID used to correlate the async callback.
func (s *HTTPOracleSource) RequestRandomness(ctx context.Context, raffleID uuid.UUID) (string, error) {
	body, err := json.Marshal(randomnessRequest{
		SubjectID:   raffleID.String(),
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode randomness request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/randomness/requests", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build randomness request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, payload)
	}

	var parsed randomnessResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode oracle response: %w", err)
	}
	if parsed.RequestID == "" {
		return "", fmt.Errorf("oracle response carried no request id")
	}

	s.logger.Info("randomness requested",
		zap.String("raffle_id", raffleID.String()),
		zap.String("request_id", parsed.RequestID),
	)

	return parsed.RequestID, nil
}

// Ensure HTTPOracleSource implements RandomnessSource
var _ raffle.RandomnessSource = (*HTTPOracleSource)(nil)
