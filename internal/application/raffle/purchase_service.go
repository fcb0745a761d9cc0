package raffle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/rafflehub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PurchaseService runs the ticket purchase saga. A purchase either commits
// every ticket of the order or leaves no trace: allocation failures release
// nothing (numbers are assigned transactionally) and failures after
// allocation release the reserved batch.
type PurchaseService struct {
	raffleRepo raffle.RaffleRepository
	ticketRepo raffle.TicketRepository
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	raffleRepo raffle.RaffleRepository,
	ticketRepo raffle.TicketRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		raffleRepo: raffleRepo,
		ticketRepo: ticketRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// Purchase reserves quantity tickets of a raffle for a customer's order.
// Tickets come back RESERVED; payment capture flips them to PAID.
func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResponse, error) {
	if req.Quantity < 1 || req.Quantity > MaxTicketsPerPurchase {
		return nil, shared.NewDomainError("INVALID_QUANTITY",
			fmt.Sprintf("Quantity must be between 1 and %d", MaxTicketsPerPurchase))
	}
	if req.CustomerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer ID is required")
	}
	if req.OrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order ID is required")
	}

	r, err := s.raffleRepo.FindByID(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}
	if !r.IsOpenForPurchase() {
		if r.Status == raffle.RaffleStatusSoldOut {
			return nil, shared.NewDomainError("SOLD_OUT", "Raffle is sold out")
		}
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Raffle in %s status is not open for purchase", r.Status))
	}

	var tickets []raffle.Ticket

	saga := shared.NewSaga("ticket_purchase", s.logger).
		AddStep(shared.SagaStep{
			Name: "allocate_tickets",
			Action: func(ctx context.Context) error {
				var err error
				tickets, err = s.ticketRepo.AllocateTickets(ctx, req.RaffleID, req.CustomerID, req.OrderID, req.Quantity)
				return err
			},
			Compensate: func(ctx context.Context) error {
				ids := make([]uuid.UUID, len(tickets))
				for i, t := range tickets {
					ids[i] = t.ID
				}
				return s.ticketRepo.ReleaseTickets(ctx, ids)
			},
		}).
		AddStep(shared.SagaStep{
			Name: "publish_purchase_event",
			Action: func(ctx context.Context) error {
				event := raffle.NewTicketsPurchasedEvent(req.RaffleID, req.CustomerID, req.OrderID, tickets)
				if err := s.publisher.Publish(ctx, event); err != nil {
					// Delivery is fire-and-forget; the reserved tickets stand
					// and capture can be re-driven from persisted state.
					s.logger.Error("failed to publish tickets purchased event",
						zap.String("order_id", req.OrderID.String()),
						zap.Error(err),
					)
				}
				return nil
			},
		})

	if err := saga.Execute(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("tickets purchased",
		zap.String("raffle_id", req.RaffleID.String()),
		zap.String("order_id", req.OrderID.String()),
		zap.Int("quantity", len(tickets)),
		zap.Int("first_number", tickets[0].TicketNumber),
	)

	return &PurchaseResponse{
		RaffleID: req.RaffleID.String(),
		OrderID:  req.OrderID.String(),
		Quantity: len(tickets),
		Tickets:  ToTicketResponses(tickets),
	}, nil
}
