package raffle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/shared"
)

// RandomnessSource abstracts the external verifiable-random oracle.
// RequestRandomness returns a request ID synchronously; the random words
// arrive later on a callback carrying the same ID.
type RandomnessSource interface {
	RequestRandomness(ctx context.Context, raffleID uuid.UUID) (requestID string, err error)
}

// RandomnessCallback is the inbound oracle callback payload.
// Random words are decimal strings because oracle words routinely exceed 64 bits.
type RandomnessCallback struct {
	RequestID   string
	RandomWords []string
	ReceivedAt  time.Time
}

// WinnerIndex maps a random word onto a 1-based ticket number:
// (word mod totalTickets) + 1. The result always lies in [1, totalTickets]
// for any non-negative word, and the function is pure so auditors can
// reproduce the winner from the published word. Only the first oracle word
// participates in winner selection; additional words are stored for audit.
func WinnerIndex(randomWord string, totalTickets int) (int, error) {
	if totalTickets < 1 {
		return 0, shared.NewDomainError("INVALID_TOTAL_TICKETS", "Total tickets must be at least 1")
	}

	word, ok := new(big.Int).SetString(randomWord, 10)
	if !ok {
		return 0, shared.NewDomainError("INVALID_RANDOMNESS",
			fmt.Sprintf("Random word %q is not a decimal integer", randomWord))
	}
	if word.Sign() < 0 {
		return 0, shared.NewDomainError("INVALID_RANDOMNESS", "Random word cannot be negative")
	}

	mod := new(big.Int).Mod(word, big.NewInt(int64(totalTickets)))
	return int(mod.Int64()) + 1, nil
}
