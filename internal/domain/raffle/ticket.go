package raffle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/shared"
)

// TicketStatus represents the status of a raffle ticket
type TicketStatus string

const (
	TicketStatusReserved TicketStatus = "RESERVED"
	TicketStatusPaid     TicketStatus = "PAID"
	TicketStatusMinted   TicketStatus = "MINTED"
	TicketStatusWinner   TicketStatus = "WINNER"
)

// IsValid checks if the status is a valid TicketStatus
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusReserved, TicketStatusPaid, TicketStatusMinted, TicketStatusWinner:
		return true
	}
	return false
}

// Ticket is one numbered, uniquely coded entry in a raffle.
// Ticket numbers are unique per raffle and never change after creation.
type Ticket struct {
	shared.BaseEntity
	RaffleID     uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:ux_tickets_raffle_number,priority:1"`
	TicketNumber int          `gorm:"not null;uniqueIndex:ux_tickets_raffle_number,priority:2"`
	TicketCode   string       `gorm:"size:40;not null;uniqueIndex"`
	CustomerID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	OrderID      uuid.UUID    `gorm:"type:uuid;not null;index"`
	Status       TicketStatus `gorm:"size:20;not null;index"`
	IsWinner     bool         `gorm:"not null;default:false"`
}

// TicketCode derives the human-readable code for a ticket number:
// RF<year>-<raffle-short-id>-<zero-padded-number>. The year is the raffle's
// creation year so the code is stable for the life of the raffle.
func TicketCode(r *Raffle, number int) string {
	return fmt.Sprintf("RF%d-%s-%06d", r.CreatedAt.Year(), r.ShortID(), number)
}

// AllocateBatch produces quantity new reserved tickets with strictly
// increasing, gapless numbers starting at nextNumber. It enforces the
// capacity ceiling and the per-customer limit; callers must invoke it under
// the per-raffle serialization that makes nextNumber and heldByCustomer
// trustworthy.
func AllocateBatch(r *Raffle, customerID, orderID uuid.UUID, quantity, nextNumber int, heldByCustomer int64) ([]Ticket, error) {
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}

	lastNumber := nextNumber + quantity - 1
	if lastNumber > r.TotalTickets {
		return nil, shared.NewDomainError("CAPACITY_EXCEEDED",
			fmt.Sprintf("Raffle has %d of %d tickets assigned, cannot allocate %d more",
				nextNumber-1, r.TotalTickets, quantity))
	}
	if r.MaxTicketsPerCustomer > 0 && heldByCustomer+int64(quantity) > int64(r.MaxTicketsPerCustomer) {
		return nil, shared.NewDomainError("PER_CUSTOMER_LIMIT_EXCEEDED",
			fmt.Sprintf("Customer already holds %d tickets, limit is %d per customer",
				heldByCustomer, r.MaxTicketsPerCustomer))
	}

	now := time.Now()
	tickets := make([]Ticket, 0, quantity)
	for n := nextNumber; n <= lastNumber; n++ {
		tickets = append(tickets, Ticket{
			BaseEntity: shared.BaseEntity{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			RaffleID:     r.ID,
			TicketNumber: n,
			TicketCode:   TicketCode(r, n),
			CustomerID:   customerID,
			OrderID:      orderID,
			Status:       TicketStatusReserved,
		})
	}
	return tickets, nil
}

// MarkPaid marks a reserved ticket as paid after payment capture
func (t *Ticket) MarkPaid() error {
	if t.Status != TicketStatusReserved {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot mark %s ticket as paid", t.Status))
	}
	t.Status = TicketStatusPaid
	t.UpdatedAt = time.Now()
	return nil
}

// MarkMinted records that the ticket was minted on-chain
func (t *Ticket) MarkMinted() error {
	if t.Status != TicketStatusPaid {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot mint %s ticket", t.Status))
	}
	t.Status = TicketStatusMinted
	t.UpdatedAt = time.Now()
	return nil
}

// MarkWinner flags the ticket as the raffle winner
func (t *Ticket) MarkWinner() {
	t.Status = TicketStatusWinner
	t.IsWinner = true
	t.UpdatedAt = time.Now()
}
