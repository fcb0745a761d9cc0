package raffle

import (
	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeRaffle = "Raffle"
	AggregateTypeDraw   = "Draw"
)

// Event type constants. These names are the outbound contract consumed by
// payment capture, winner notification and shipping subscribers.
const (
	EventTypeRaffleCreated    = "raffle.created"
	EventTypeRafflePublished  = "raffle.published"
	EventTypeRaffleSoldOut    = "raffle.sold_out"
	EventTypeRaffleCancelled  = "raffle.cancelled"
	EventTypeTicketsPurchased = "raffle.tickets_purchased"
	EventTypeDrawStarted      = "raffle.draw_started"
	EventTypeDrawCompleted    = "raffle.draw_completed"
	EventTypeDrawFailed       = "raffle.draw_failed"
	EventTypeWinnerAnnounced  = "raffle.winner_announced"
)

// RaffleCreatedEvent is raised when a new raffle is created
type RaffleCreatedEvent struct {
	shared.BaseDomainEvent
	RaffleID     uuid.UUID `json:"raffle_id"`
	Title        string    `json:"title"`
	TotalTickets int       `json:"total_tickets"`
}

// NewRaffleCreatedEvent creates a new RaffleCreatedEvent
func NewRaffleCreatedEvent(r *Raffle) *RaffleCreatedEvent {
	return &RaffleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRaffleCreated, AggregateTypeRaffle, r.ID),
		RaffleID:        r.ID,
		Title:           r.Title,
		TotalTickets:    r.TotalTickets,
	}
}

// EventType returns the event type name
func (e *RaffleCreatedEvent) EventType() string {
	return EventTypeRaffleCreated
}

// RafflePublishedEvent is raised when a raffle opens for ticket sales
type RafflePublishedEvent struct {
	shared.BaseDomainEvent
	RaffleID uuid.UUID `json:"raffle_id"`
	Title    string    `json:"title"`
}

// NewRafflePublishedEvent creates a new RafflePublishedEvent
func NewRafflePublishedEvent(r *Raffle) *RafflePublishedEvent {
	return &RafflePublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRafflePublished, AggregateTypeRaffle, r.ID),
		RaffleID:        r.ID,
		Title:           r.Title,
	}
}

// EventType returns the event type name
func (e *RafflePublishedEvent) EventType() string {
	return EventTypeRafflePublished
}

// RaffleSoldOutEvent is raised when every ticket of a raffle is allocated
type RaffleSoldOutEvent struct {
	shared.BaseDomainEvent
	RaffleID     uuid.UUID `json:"raffle_id"`
	TotalTickets int       `json:"total_tickets"`
}

// NewRaffleSoldOutEvent creates a new RaffleSoldOutEvent
func NewRaffleSoldOutEvent(r *Raffle) *RaffleSoldOutEvent {
	return &RaffleSoldOutEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRaffleSoldOut, AggregateTypeRaffle, r.ID),
		RaffleID:        r.ID,
		TotalTickets:    r.TotalTickets,
	}
}

// EventType returns the event type name
func (e *RaffleSoldOutEvent) EventType() string {
	return EventTypeRaffleSoldOut
}

// RaffleCancelledEvent is raised when a raffle is cancelled
type RaffleCancelledEvent struct {
	shared.BaseDomainEvent
	RaffleID uuid.UUID `json:"raffle_id"`
	Reason   string    `json:"reason"`
}

// NewRaffleCancelledEvent creates a new RaffleCancelledEvent
func NewRaffleCancelledEvent(r *Raffle) *RaffleCancelledEvent {
	return &RaffleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRaffleCancelled, AggregateTypeRaffle, r.ID),
		RaffleID:        r.ID,
		Reason:          r.CancelReason,
	}
}

// EventType returns the event type name
func (e *RaffleCancelledEvent) EventType() string {
	return EventTypeRaffleCancelled
}

// TicketsPurchasedEvent is raised after a purchase saga commits its tickets.
// Downstream payment capture is driven from this event; it carries enough to
// re-derive the purchase without reading back the tickets.
type TicketsPurchasedEvent struct {
	shared.BaseDomainEvent
	RaffleID   uuid.UUID   `json:"raffle_id"`
	TicketIDs  []uuid.UUID `json:"ticket_ids"`
	CustomerID uuid.UUID   `json:"customer_id"`
	OrderID    uuid.UUID   `json:"order_id"`
	Quantity   int         `json:"quantity"`
}

// NewTicketsPurchasedEvent creates a new TicketsPurchasedEvent
func NewTicketsPurchasedEvent(raffleID, customerID, orderID uuid.UUID, tickets []Ticket) *TicketsPurchasedEvent {
	ids := make([]uuid.UUID, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}
	return &TicketsPurchasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketsPurchased, AggregateTypeRaffle, raffleID),
		RaffleID:        raffleID,
		TicketIDs:       ids,
		CustomerID:      customerID,
		OrderID:         orderID,
		Quantity:        len(tickets),
	}
}

// EventType returns the event type name
func (e *TicketsPurchasedEvent) EventType() string {
	return EventTypeTicketsPurchased
}

// DrawStartedEvent is raised when entropy has been requested for a draw
type DrawStartedEvent struct {
	shared.BaseDomainEvent
	RaffleID  uuid.UUID `json:"raffle_id"`
	DrawID    uuid.UUID `json:"draw_id"`
	RequestID string    `json:"request_id"`
}

// NewDrawStartedEvent creates a new DrawStartedEvent
func NewDrawStartedEvent(d *Draw) *DrawStartedEvent {
	return &DrawStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDrawStarted, AggregateTypeDraw, d.ID),
		RaffleID:        d.RaffleID,
		DrawID:          d.ID,
		RequestID:       d.RandomnessRequestID,
	}
}

// EventType returns the event type name
func (e *DrawStartedEvent) EventType() string {
	return EventTypeDrawStarted
}

// DrawCompletedEvent is raised when the winner ticket is resolved
type DrawCompletedEvent struct {
	shared.BaseDomainEvent
	RaffleID       uuid.UUID `json:"raffle_id"`
	DrawID         uuid.UUID `json:"draw_id"`
	WinnerTicketID uuid.UUID `json:"winner_ticket_id"`
}

// NewDrawCompletedEvent creates a new DrawCompletedEvent
func NewDrawCompletedEvent(d *Draw, winnerTicketID uuid.UUID) *DrawCompletedEvent {
	return &DrawCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDrawCompleted, AggregateTypeDraw, d.ID),
		RaffleID:        d.RaffleID,
		DrawID:          d.ID,
		WinnerTicketID:  winnerTicketID,
	}
}

// EventType returns the event type name
func (e *DrawCompletedEvent) EventType() string {
	return EventTypeDrawCompleted
}

// DrawFailedEvent is raised when a draw fails and needs operator attention
type DrawFailedEvent struct {
	shared.BaseDomainEvent
	RaffleID uuid.UUID `json:"raffle_id"`
	DrawID   uuid.UUID `json:"draw_id"`
	Reason   string    `json:"reason"`
}

// NewDrawFailedEvent creates a new DrawFailedEvent
func NewDrawFailedEvent(d *Draw) *DrawFailedEvent {
	return &DrawFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDrawFailed, AggregateTypeDraw, d.ID),
		RaffleID:        d.RaffleID,
		DrawID:          d.ID,
		Reason:          d.FailureReason,
	}
}

// EventType returns the event type name
func (e *DrawFailedEvent) EventType() string {
	return EventTypeDrawFailed
}

// WinnerAnnouncedEvent is raised after a raffle completes with a winner
type WinnerAnnouncedEvent struct {
	shared.BaseDomainEvent
	RaffleID           uuid.UUID `json:"raffle_id"`
	WinnerTicketNumber int       `json:"winner_ticket_number"`
	WinnerCustomerID   uuid.UUID `json:"winner_customer_id"`
}

// NewWinnerAnnouncedEvent creates a new WinnerAnnouncedEvent
func NewWinnerAnnouncedEvent(raffleID uuid.UUID, winnerTicketNumber int, winnerCustomerID uuid.UUID) *WinnerAnnouncedEvent {
	return &WinnerAnnouncedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeWinnerAnnounced, AggregateTypeRaffle, raffleID),
		RaffleID:           raffleID,
		WinnerTicketNumber: winnerTicketNumber,
		WinnerCustomerID:   winnerCustomerID,
	}
}

// EventType returns the event type name
func (e *WinnerAnnouncedEvent) EventType() string {
	return EventTypeWinnerAnnounced
}
