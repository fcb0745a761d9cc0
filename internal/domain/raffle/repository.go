package raffle

import (
	"context"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/shared"
)

// RaffleRepository defines the interface for raffle persistence
type RaffleRepository interface {
	// FindByID finds a raffle by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Raffle, error)

	// FindAll finds raffles with filtering (status, pagination)
	FindAll(ctx context.Context, filter shared.Filter) ([]Raffle, error)

	// Count counts raffles matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a raffle
	Save(ctx context.Context, r *Raffle) error

	// SaveWithLock saves with optimistic locking (version check).
	// Every state-machine transition goes through this as a single atomic
	// update; returns shared.ErrConcurrencyConflict on a stale version.
	SaveWithLock(ctx context.Context, r *Raffle) error
}

// TicketRepository defines the interface for ticket persistence.
// All mutation of ticket numbers goes through AllocateTickets; nothing else
// may write ticket_number.
type TicketRepository interface {
	// AllocateTickets assigns the next quantity ticket numbers for the raffle
	// and persists the batch in RESERVED status, all in one transaction.
	// Implementations must serialize allocations per raffle (row-level lock on
	// the raffle record) so concurrent calls never produce overlapping ranges.
	// Fails with CAPACITY_EXCEEDED or PER_CUSTOMER_LIMIT_EXCEEDED without
	// consuming numbers.
	AllocateTickets(ctx context.Context, raffleID, customerID, orderID uuid.UUID, quantity int) ([]Ticket, error)

	// ReleaseTickets deletes reserved tickets; purchase saga compensation
	ReleaseTickets(ctx context.Context, ticketIDs []uuid.UUID) error

	// FindByID finds a ticket by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error)

	// FindByNumber finds the ticket holding a number within a raffle
	FindByNumber(ctx context.Context, raffleID uuid.UUID, number int) (*Ticket, error)

	// FindByRaffle lists tickets of a raffle with filtering
	FindByRaffle(ctx context.Context, raffleID uuid.UUID, filter shared.Filter) ([]Ticket, error)

	// FindByOrder lists the tickets of a purchase order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Ticket, error)

	// MarkPaidByOrder marks an order's reserved tickets as paid and returns
	// how many rows changed
	MarkPaidByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)

	// Save updates a single ticket (status/winner flags; never the number)
	Save(ctx context.Context, t *Ticket) error

	// CountByRaffle counts the tickets allocated in a raffle
	CountByRaffle(ctx context.Context, raffleID uuid.UUID) (int64, error)

	// CountByCustomer counts a customer's tickets within a raffle
	CountByCustomer(ctx context.Context, raffleID, customerID uuid.UUID) (int64, error)
}

// DrawRepository defines the interface for draw persistence
type DrawRepository interface {
	// FindByID finds a draw by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Draw, error)

	// FindByRequestID finds a draw by its randomness request ID.
	// This is the idempotency lookup for oracle callbacks.
	FindByRequestID(ctx context.Context, requestID string) (*Draw, error)

	// FindByRaffle lists the draws of a raffle, newest first
	FindByRaffle(ctx context.Context, raffleID uuid.UUID) ([]Draw, error)

	// HasNonFailedDraw reports whether the raffle has a draw in
	// REQUESTED, PENDING or COMPLETED. At most one such draw may exist.
	HasNonFailedDraw(ctx context.Context, raffleID uuid.UUID) (bool, error)

	// ClaimForSettlement atomically moves the draw from REQUESTED to
	// PENDING. Exactly one of several concurrent deliveries of the same
	// callback wins the claim; the rest get ErrConcurrencyConflict.
	ClaimForSettlement(ctx context.Context, d *Draw) error

	// Save creates or updates a draw
	Save(ctx context.Context, d *Draw) error

	// Delete removes a draw row; draw saga compensation
	Delete(ctx context.Context, id uuid.UUID) error
}
