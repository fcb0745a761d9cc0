package raffle

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxTotalTickets bounds the size of a single raffle
const MaxTotalTickets = 1_000_000

// RaffleStatus represents the lifecycle status of a raffle
type RaffleStatus string

const (
	RaffleStatusDraft     RaffleStatus = "DRAFT"
	RaffleStatusActive    RaffleStatus = "ACTIVE"
	RaffleStatusSoldOut   RaffleStatus = "SOLD_OUT"
	RaffleStatusDrawing   RaffleStatus = "DRAWING"
	RaffleStatusCompleted RaffleStatus = "COMPLETED"
	RaffleStatusCancelled RaffleStatus = "CANCELLED"
)

// IsValid checks if the status is a valid RaffleStatus
func (s RaffleStatus) IsValid() bool {
	switch s {
	case RaffleStatusDraft, RaffleStatusActive, RaffleStatusSoldOut,
		RaffleStatusDrawing, RaffleStatusCompleted, RaffleStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of RaffleStatus
func (s RaffleStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s RaffleStatus) CanTransitionTo(target RaffleStatus) bool {
	switch s {
	case RaffleStatusDraft:
		return target == RaffleStatusActive || target == RaffleStatusCancelled
	case RaffleStatusActive:
		return target == RaffleStatusSoldOut || target == RaffleStatusDrawing || target == RaffleStatusCancelled
	case RaffleStatusSoldOut:
		return target == RaffleStatusDrawing || target == RaffleStatusCancelled
	case RaffleStatusDrawing:
		// DRAWING reverts to ACTIVE or SOLD_OUT when a draw fails and is resumed
		return target == RaffleStatusCompleted || target == RaffleStatusActive ||
			target == RaffleStatusSoldOut || target == RaffleStatusCancelled
	case RaffleStatusCompleted, RaffleStatusCancelled:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for states no transition leaves
func (s RaffleStatus) IsTerminal() bool {
	return s == RaffleStatusCompleted || s == RaffleStatusCancelled
}

// Raffle is the aggregate root for a prize drawing sold as numbered tickets.
// Winner fields are set if and only if the raffle is COMPLETED.
type Raffle struct {
	shared.BaseAggregateRoot
	Title                 string            `gorm:"size:200;not null"`
	Description           string            `gorm:"type:text"`
	ImageURL              string            `gorm:"size:500"`
	Terms                 string            `gorm:"type:text"`
	Metadata              map[string]string `gorm:"serializer:json"`
	TicketPrice           decimal.Decimal   `gorm:"type:decimal(15,2);not null"`
	TotalTickets          int               `gorm:"not null"`
	MaxTicketsPerCustomer int               `gorm:"not null;default:0"` // 0 = unlimited
	StartsAt              *time.Time
	EndsAt                *time.Time
	DrawAt                *time.Time
	Status                RaffleStatus `gorm:"size:20;not null;index"`
	WinnerTicketNumber    *int
	WinnerCustomerID      *uuid.UUID `gorm:"type:uuid"`
	PublishedAt           *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time
	CancelReason          string `gorm:"size:500"`
}

// NewRaffle creates a new raffle in DRAFT status
func NewRaffle(title string, ticketPrice decimal.Decimal, totalTickets, maxTicketsPerCustomer int) (*Raffle, error) {
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Raffle title cannot be empty")
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Raffle title cannot exceed 200 characters")
	}
	if ticketPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Ticket price cannot be negative")
	}
	if totalTickets < 1 {
		return nil, shared.NewDomainError("INVALID_TOTAL_TICKETS", "Total tickets must be at least 1")
	}
	if totalTickets > MaxTotalTickets {
		return nil, shared.NewDomainError("INVALID_TOTAL_TICKETS",
			fmt.Sprintf("Total tickets cannot exceed %d", MaxTotalTickets))
	}
	if maxTicketsPerCustomer < 0 {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_LIMIT", "Per-customer ticket limit cannot be negative")
	}

	r := &Raffle{
		BaseAggregateRoot:     shared.NewBaseAggregateRoot(),
		Title:                 title,
		TicketPrice:           ticketPrice,
		TotalTickets:          totalTickets,
		MaxTicketsPerCustomer: maxTicketsPerCustomer,
		Status:                RaffleStatusDraft,
	}

	r.AddDomainEvent(NewRaffleCreatedEvent(r))

	return r, nil
}

// SetSchedule sets the sale window and planned draw time
func (r *Raffle) SetSchedule(startsAt, endsAt, drawAt *time.Time) error {
	if startsAt != nil && endsAt != nil && !startsAt.Before(*endsAt) {
		return shared.NewDomainError("INVALID_SCHEDULE", "Sale start must be before sale end")
	}
	if endsAt != nil && drawAt != nil && drawAt.Before(*endsAt) {
		return shared.NewDomainError("INVALID_SCHEDULE", "Draw time cannot be before sale end")
	}
	r.StartsAt = startsAt
	r.EndsAt = endsAt
	r.DrawAt = drawAt
	r.UpdatedAt = time.Now()
	return nil
}

// Publish transitions the raffle from DRAFT to ACTIVE, opening ticket sales
func (r *Raffle) Publish() error {
	if !r.Status.CanTransitionTo(RaffleStatusActive) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot publish raffle in %s status", r.Status))
	}

	now := time.Now()
	r.Status = RaffleStatusActive
	r.PublishedAt = &now
	r.UpdatedAt = now

	r.AddDomainEvent(NewRafflePublishedEvent(r))

	return nil
}

// MarkSoldOut transitions the raffle to SOLD_OUT once every ticket is allocated
func (r *Raffle) MarkSoldOut() error {
	if !r.Status.CanTransitionTo(RaffleStatusSoldOut) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot mark raffle sold out in %s status", r.Status))
	}

	r.Status = RaffleStatusSoldOut
	r.UpdatedAt = time.Now()

	r.AddDomainEvent(NewRaffleSoldOutEvent(r))

	return nil
}

// StartDraw transitions the raffle to DRAWING.
// Requires the raffle to be ACTIVE or SOLD_OUT with at least one ticket sold.
func (r *Raffle) StartDraw(soldTickets int64) error {
	if r.Status != RaffleStatusActive && r.Status != RaffleStatusSoldOut {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot start draw for raffle in %s status", r.Status))
	}
	if soldTickets < 1 {
		return shared.NewDomainError("EMPTY_RAFFLE", "Cannot draw a raffle with no tickets sold")
	}

	r.Status = RaffleStatusDrawing
	r.UpdatedAt = time.Now()

	return nil
}

// RevertDrawing returns a DRAWING raffle to its pre-draw status.
// Used as draw saga compensation and by operators resuming after a failed draw.
func (r *Raffle) RevertDrawing(to RaffleStatus) error {
	if r.Status != RaffleStatusDrawing {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot revert raffle in %s status", r.Status))
	}
	if to != RaffleStatusActive && to != RaffleStatusSoldOut {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot revert drawing raffle to %s", to))
	}

	r.Status = to
	r.UpdatedAt = time.Now()

	return nil
}

// CompleteDraw transitions the raffle from DRAWING to COMPLETED and stamps
// the winner fields.
func (r *Raffle) CompleteDraw(winnerTicketNumber int, winnerCustomerID uuid.UUID) error {
	if !r.Status.CanTransitionTo(RaffleStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot complete draw for raffle in %s status", r.Status))
	}
	if winnerTicketNumber < 1 || winnerTicketNumber > r.TotalTickets {
		return shared.NewDomainError("INVALID_WINNER",
			fmt.Sprintf("Winner ticket number %d is out of range [1,%d]", winnerTicketNumber, r.TotalTickets))
	}
	if winnerCustomerID == uuid.Nil {
		return shared.NewDomainError("INVALID_WINNER", "Winner customer ID cannot be empty")
	}

	now := time.Now()
	r.Status = RaffleStatusCompleted
	r.WinnerTicketNumber = &winnerTicketNumber
	r.WinnerCustomerID = &winnerCustomerID
	r.CompletedAt = &now
	r.UpdatedAt = now

	return nil
}

// Cancel cancels the raffle. Illegal from terminal states.
func (r *Raffle) Cancel(reason string) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("ALREADY_FINAL",
			fmt.Sprintf("Cannot cancel raffle in %s status", r.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	r.Status = RaffleStatusCancelled
	r.CancelledAt = &now
	r.CancelReason = reason
	r.UpdatedAt = now

	r.AddDomainEvent(NewRaffleCancelledEvent(r))

	return nil
}

// RaffleUpdate carries a partial update. Nil fields are left unchanged.
type RaffleUpdate struct {
	Title                 *string
	Description           *string
	ImageURL              *string
	Terms                 *string
	Metadata              *map[string]string
	TicketPrice           *decimal.Decimal
	TotalTickets          *int
	MaxTicketsPerCustomer *int
	StartsAt              *time.Time
	EndsAt                *time.Time
	DrawAt                *time.Time
}

// restrictedFields returns the names of non-cosmetic fields set in the update.
// Only description, image, terms and metadata may change outside DRAFT.
func (u RaffleUpdate) restrictedFields() []string {
	var fields []string
	if u.Title != nil {
		fields = append(fields, "title")
	}
	if u.TicketPrice != nil {
		fields = append(fields, "ticket_price")
	}
	if u.TotalTickets != nil {
		fields = append(fields, "total_tickets")
	}
	if u.MaxTicketsPerCustomer != nil {
		fields = append(fields, "max_tickets_per_customer")
	}
	if u.StartsAt != nil {
		fields = append(fields, "starts_at")
	}
	if u.EndsAt != nil {
		fields = append(fields, "ends_at")
	}
	if u.DrawAt != nil {
		fields = append(fields, "draw_at")
	}
	sort.Strings(fields)
	return fields
}

// ApplyUpdate applies a partial update. In DRAFT every field may change;
// outside DRAFT only the cosmetic allow-list is writable and any other field
// fails with IMMUTABLE_FIELD_VIOLATION naming the offending fields.
func (r *Raffle) ApplyUpdate(u RaffleUpdate) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("ALREADY_FINAL",
			fmt.Sprintf("Cannot update raffle in %s status", r.Status))
	}

	if r.Status != RaffleStatusDraft {
		if restricted := u.restrictedFields(); len(restricted) > 0 {
			return shared.NewDomainError("IMMUTABLE_FIELD_VIOLATION",
				fmt.Sprintf("Fields immutable outside draft: %s", strings.Join(restricted, ", ")))
		}
	} else {
		if u.Title != nil {
			if *u.Title == "" || len(*u.Title) > 200 {
				return shared.NewDomainError("INVALID_TITLE", "Raffle title must be 1-200 characters")
			}
			r.Title = *u.Title
		}
		if u.TicketPrice != nil {
			if u.TicketPrice.IsNegative() {
				return shared.NewDomainError("INVALID_PRICE", "Ticket price cannot be negative")
			}
			r.TicketPrice = *u.TicketPrice
		}
		if u.TotalTickets != nil {
			if *u.TotalTickets < 1 || *u.TotalTickets > MaxTotalTickets {
				return shared.NewDomainError("INVALID_TOTAL_TICKETS",
					fmt.Sprintf("Total tickets must be in [1,%d]", MaxTotalTickets))
			}
			r.TotalTickets = *u.TotalTickets
		}
		if u.MaxTicketsPerCustomer != nil {
			if *u.MaxTicketsPerCustomer < 0 {
				return shared.NewDomainError("INVALID_CUSTOMER_LIMIT", "Per-customer ticket limit cannot be negative")
			}
			r.MaxTicketsPerCustomer = *u.MaxTicketsPerCustomer
		}
		if u.StartsAt != nil || u.EndsAt != nil || u.DrawAt != nil {
			startsAt, endsAt, drawAt := r.StartsAt, r.EndsAt, r.DrawAt
			if u.StartsAt != nil {
				startsAt = u.StartsAt
			}
			if u.EndsAt != nil {
				endsAt = u.EndsAt
			}
			if u.DrawAt != nil {
				drawAt = u.DrawAt
			}
			if err := r.SetSchedule(startsAt, endsAt, drawAt); err != nil {
				return err
			}
		}
	}

	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.ImageURL != nil {
		r.ImageURL = *u.ImageURL
	}
	if u.Terms != nil {
		r.Terms = *u.Terms
	}
	if u.Metadata != nil {
		r.Metadata = *u.Metadata
	}
	r.UpdatedAt = time.Now()

	return nil
}

// IsOpenForPurchase returns true if new tickets may be sold.
// SOLD_OUT is closed: no new tickets once the ceiling is reached.
func (r *Raffle) IsOpenForPurchase() bool {
	return r.Status == RaffleStatusActive
}

// IsDraft returns true if the raffle is in draft status
func (r *Raffle) IsDraft() bool {
	return r.Status == RaffleStatusDraft
}

// IsDrawing returns true if a draw is in progress
func (r *Raffle) IsDrawing() bool {
	return r.Status == RaffleStatusDrawing
}

// IsCompleted returns true if the raffle has a winner
func (r *Raffle) IsCompleted() bool {
	return r.Status == RaffleStatusCompleted
}

// IsCancelled returns true if the raffle was cancelled
func (r *Raffle) IsCancelled() bool {
	return r.Status == RaffleStatusCancelled
}

// ShortID returns the 8-character prefix of the raffle ID used in ticket codes
func (r *Raffle) ShortID() string {
	return strings.SplitN(r.ID.String(), "-", 2)[0]
}
