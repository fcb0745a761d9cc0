package raffle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/shared"
)

// DrawStatus represents the status of a draw execution
type DrawStatus string

const (
	DrawStatusRequested DrawStatus = "REQUESTED"
	DrawStatusPending   DrawStatus = "PENDING"
	DrawStatusCompleted DrawStatus = "COMPLETED"
	DrawStatusFailed    DrawStatus = "FAILED"
)

// IsValid checks if the status is a valid DrawStatus
func (s DrawStatus) IsValid() bool {
	switch s {
	case DrawStatusRequested, DrawStatusPending, DrawStatusCompleted, DrawStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true for states the callback handler must not touch again
func (s DrawStatus) IsTerminal() bool {
	return s == DrawStatusCompleted || s == DrawStatusFailed
}

// Draw is one execution of the winner-selection process for a raffle,
// keyed by the randomness request ID of the oracle round trip.
type Draw struct {
	shared.BaseEntity
	RaffleID            uuid.UUID `gorm:"type:uuid;not null;index"`
	RandomnessRequestID string    `gorm:"size:128;not null;uniqueIndex"`
	RandomWords         []string  `gorm:"serializer:json"`
	WinnerTicketNumber  *int
	Status              DrawStatus `gorm:"size:20;not null;index"`
	ExecutedBy          uuid.UUID  `gorm:"type:uuid;not null"`
	FailureReason       string     `gorm:"size:500"`
}

// NewDraw creates a draw in REQUESTED status
func NewDraw(raffleID uuid.UUID, randomnessRequestID string, executedBy uuid.UUID) (*Draw, error) {
	if raffleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RAFFLE", "Raffle ID cannot be empty")
	}
	if randomnessRequestID == "" {
		return nil, shared.NewDomainError("INVALID_REQUEST_ID", "Randomness request ID cannot be empty")
	}
	if executedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Draw executor ID cannot be empty")
	}

	return &Draw{
		BaseEntity:          shared.NewBaseEntity(),
		RaffleID:            raffleID,
		RandomnessRequestID: randomnessRequestID,
		Status:              DrawStatusRequested,
		ExecutedBy:          executedBy,
	}, nil
}

// MarkPending records that the oracle accepted the request
func (d *Draw) MarkPending() error {
	if d.Status != DrawStatusRequested {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot mark %s draw as pending", d.Status))
	}
	d.Status = DrawStatusPending
	d.UpdatedAt = time.Now()
	return nil
}

// Complete stores the oracle's random words and the resolved winner number
func (d *Draw) Complete(randomWords []string, winnerTicketNumber int) error {
	if d.Status != DrawStatusRequested && d.Status != DrawStatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot complete %s draw", d.Status))
	}
	if len(randomWords) == 0 {
		return shared.NewDomainError("INVALID_RANDOMNESS", "Draw requires at least one random word")
	}

	d.RandomWords = randomWords
	d.WinnerTicketNumber = &winnerTicketNumber
	d.Status = DrawStatusCompleted
	d.UpdatedAt = time.Now()
	return nil
}

// Fail records a diagnostic reason and moves the draw to FAILED.
// Failed draws are never retried automatically; re-running a draw changes
// the outcome and is an explicit, audited operator decision.
func (d *Draw) Fail(reason string) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot fail %s draw", d.Status))
	}
	d.FailureReason = reason
	d.Status = DrawStatusFailed
	d.UpdatedAt = time.Now()
	return nil
}
