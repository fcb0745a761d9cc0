package raffle

import (
	"time"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/shopspring/decimal"
)

// MaxTicketsPerPurchase caps a single purchase request
const MaxTicketsPerPurchase = 100

// CreateRaffleRequest represents a request to create a raffle
type CreateRaffleRequest struct {
	Title                 string
	Description           string
	ImageURL              string
	Terms                 string
	Metadata              map[string]string
	TicketPrice           decimal.Decimal
	TotalTickets          int
	MaxTicketsPerCustomer int
	StartsAt              *time.Time
	EndsAt                *time.Time
	DrawAt                *time.Time
}

// UpdateRaffleRequest represents a partial raffle update
type UpdateRaffleRequest struct {
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

// RaffleListFilter represents raffle list filtering options
type RaffleListFilter struct {
	Status   *raffle.RaffleStatus
	Page     int
	PageSize int
}

// TicketListFilter represents ticket list filtering options
type TicketListFilter struct {
	Status     *raffle.TicketStatus
	CustomerID *uuid.UUID
	Page       int
	PageSize   int
}

// PurchaseRequest represents a ticket purchase
type PurchaseRequest struct {
	RaffleID   uuid.UUID
	CustomerID uuid.UUID
	OrderID    uuid.UUID
	Quantity   int
}

// RaffleResponse represents a raffle in API responses
type RaffleResponse struct {
	ID                    string            `json:"id"`
	Title                 string            `json:"title"`
	Description           string            `json:"description,omitempty"`
	ImageURL              string            `json:"image_url,omitempty"`
	Terms                 string            `json:"terms,omitempty"`
	Metadata              map[string]string `json:"metadata,omitempty"`
	TicketPrice           string            `json:"ticket_price"`
	TotalTickets          int               `json:"total_tickets"`
	MaxTicketsPerCustomer int               `json:"max_tickets_per_customer"`
	Status                string            `json:"status"`
	WinnerTicketNumber    *int              `json:"winner_ticket_number,omitempty"`
	WinnerCustomerID      *string           `json:"winner_customer_id,omitempty"`
	StartsAt              *time.Time        `json:"starts_at,omitempty"`
	EndsAt                *time.Time        `json:"ends_at,omitempty"`
	DrawAt                *time.Time        `json:"draw_at,omitempty"`
	PublishedAt           *time.Time        `json:"published_at,omitempty"`
	CompletedAt           *time.Time        `json:"completed_at,omitempty"`
	CancelledAt           *time.Time        `json:"cancelled_at,omitempty"`
	CancelReason          string            `json:"cancel_reason,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
	Version               int               `json:"version"`
}

// ToRaffleResponse maps a raffle aggregate to its response representation
func ToRaffleResponse(r *raffle.Raffle) RaffleResponse {
	resp := RaffleResponse{
		ID:                    r.ID.String(),
		Title:                 r.Title,
		Description:           r.Description,
		ImageURL:              r.ImageURL,
		Terms:                 r.Terms,
		Metadata:              r.Metadata,
		TicketPrice:           r.TicketPrice.String(),
		TotalTickets:          r.TotalTickets,
		MaxTicketsPerCustomer: r.MaxTicketsPerCustomer,
		Status:                r.Status.String(),
		WinnerTicketNumber:    r.WinnerTicketNumber,
		StartsAt:              r.StartsAt,
		EndsAt:                r.EndsAt,
		DrawAt:                r.DrawAt,
		PublishedAt:           r.PublishedAt,
		CompletedAt:           r.CompletedAt,
		CancelledAt:           r.CancelledAt,
		CancelReason:          r.CancelReason,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
		Version:               r.Version,
	}
	if r.WinnerCustomerID != nil {
		id := r.WinnerCustomerID.String()
		resp.WinnerCustomerID = &id
	}
	return resp
}

// TicketResponse represents a ticket in API responses
type TicketResponse struct {
	ID           string    `json:"id"`
	RaffleID     string    `json:"raffle_id"`
	TicketNumber int       `json:"ticket_number"`
	TicketCode   string    `json:"ticket_code"`
	CustomerID   string    `json:"customer_id"`
	OrderID      string    `json:"order_id"`
	Status       string    `json:"status"`
	IsWinner     bool      `json:"is_winner"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToTicketResponse maps a ticket entity to its response representation
func ToTicketResponse(t *raffle.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID.String(),
		RaffleID:     t.RaffleID.String(),
		TicketNumber: t.TicketNumber,
		TicketCode:   t.TicketCode,
		CustomerID:   t.CustomerID.String(),
		OrderID:      t.OrderID.String(),
		Status:       string(t.Status),
		IsWinner:     t.IsWinner,
		CreatedAt:    t.CreatedAt,
	}
}

// ToTicketResponses maps a ticket slice
func ToTicketResponses(tickets []raffle.Ticket) []TicketResponse {
	out := make([]TicketResponse, len(tickets))
	for i := range tickets {
		out[i] = ToTicketResponse(&tickets[i])
	}
	return out
}

// PurchaseResponse represents the outcome of a ticket purchase
type PurchaseResponse struct {
	RaffleID string           `json:"raffle_id"`
	OrderID  string           `json:"order_id"`
	Quantity int              `json:"quantity"`
	Tickets  []TicketResponse `json:"tickets"`
}

// DrawResponse represents a draw in API responses
type DrawResponse struct {
	ID                  string    `json:"id"`
	RaffleID            string    `json:"raffle_id"`
	RandomnessRequestID string    `json:"randomness_request_id"`
	RandomWords         []string  `json:"random_words,omitempty"`
	WinnerTicketNumber  *int      `json:"winner_ticket_number,omitempty"`
	Status              string    `json:"status"`
	ExecutedBy          string    `json:"executed_by"`
	FailureReason       string    `json:"failure_reason,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ToDrawResponse maps a draw entity to its response representation
func ToDrawResponse(d *raffle.Draw) DrawResponse {
	return DrawResponse{
		ID:                  d.ID.String(),
		RaffleID:            d.RaffleID.String(),
		RandomnessRequestID: d.RandomnessRequestID,
		RandomWords:         d.RandomWords,
		WinnerTicketNumber:  d.WinnerTicketNumber,
		Status:              string(d.Status),
		ExecutedBy:          d.ExecutedBy.String(),
		FailureReason:       d.FailureReason,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}
