package raffle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/rafflehub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EventTypePaymentCaptured is the inbound integration event from the payment
// provider signalling that an order's payment settled.
const EventTypePaymentCaptured = "order.payment_captured"

// paymentEventTTL bounds how long processed payment event IDs are remembered
const paymentEventTTL = 72 * time.Hour

// PaymentCapturedEvent carries a settled payment for a ticket order
type PaymentCapturedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
}

// NewPaymentCapturedEvent creates a new PaymentCapturedEvent
func NewPaymentCapturedEvent(orderID uuid.UUID) *PaymentCapturedEvent {
	return &PaymentCapturedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCaptured, "Order", orderID),
		OrderID:         orderID,
	}
}

// EventType returns the event type name
func (e *PaymentCapturedEvent) EventType() string {
	return EventTypePaymentCaptured
}

// PaymentCapturedHandler flips an order's reserved tickets to PAID when the
// payment settles, then marks the raffle SOLD_OUT once the last ticket is
// paid for. Payment webhooks arrive at-least-once; duplicates are dropped
// via the idempotency store.
type PaymentCapturedHandler struct {
	raffleRepo  raffle.RaffleRepository
	ticketRepo  raffle.TicketRepository
	publisher   shared.EventPublisher
	idempotency shared.IdempotencyStore
	logger      *zap.Logger
}

// NewPaymentCapturedHandler creates a new payment captured handler
func NewPaymentCapturedHandler(
	raffleRepo raffle.RaffleRepository,
	ticketRepo raffle.TicketRepository,
	publisher shared.EventPublisher,
	idempotency shared.IdempotencyStore,
	logger *zap.Logger,
) *PaymentCapturedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentCapturedHandler{
		raffleRepo:  raffleRepo,
		ticketRepo:  ticketRepo,
		publisher:   publisher,
		idempotency: idempotency,
		logger:      logger,
	}
}

// EventTypes returns the event types this handler subscribes to
func (h *PaymentCapturedHandler) EventTypes() []string {
	return []string{EventTypePaymentCaptured}
}

// Handle processes a payment captured event from the bus
func (h *PaymentCapturedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	captured, ok := event.(*PaymentCapturedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T for %s", event, event.EventType())
	}

	fresh, err := h.idempotency.MarkProcessed(ctx, event.EventID().String(), paymentEventTTL)
	if err != nil {
		return fmt.Errorf("idempotency check failed: %w", err)
	}
	if !fresh {
		h.logger.Info("skipping duplicate payment captured event",
			zap.String("event_id", event.EventID().String()),
			zap.String("order_id", captured.OrderID.String()),
		)
		return nil
	}

	return h.HandlePaymentCaptured(ctx, captured.OrderID)
}

// HandlePaymentCaptured marks the order's tickets paid and runs the
// sold-out check on the affected raffle.
func (h *PaymentCapturedHandler) HandlePaymentCaptured(ctx context.Context, orderID uuid.UUID) error {
	changed, err := h.ticketRepo.MarkPaidByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to mark tickets paid: %w", err)
	}
	if changed == 0 {
		// Nothing reserved under this order: either already paid or unknown.
		h.logger.Warn("payment captured for order with no reserved tickets",
			zap.String("order_id", orderID.String()),
		)
		return nil
	}

	tickets, err := h.ticketRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order tickets: %w", err)
	}
	if len(tickets) == 0 {
		return nil
	}
	raffleID := tickets[0].RaffleID

	h.logger.Info("tickets marked paid",
		zap.String("order_id", orderID.String()),
		zap.String("raffle_id", raffleID.String()),
		zap.Int64("count", changed),
	)

	return h.checkSoldOut(ctx, raffleID)
}

// checkSoldOut marks the raffle SOLD_OUT when every ticket is allocated
func (h *PaymentCapturedHandler) checkSoldOut(ctx context.Context, raffleID uuid.UUID) error {
	r, err := h.raffleRepo.FindByID(ctx, raffleID)
	if err != nil {
		return err
	}
	if r.Status != raffle.RaffleStatusActive {
		return nil
	}

	allocated, err := h.ticketRepo.CountByRaffle(ctx, raffleID)
	if err != nil {
		return fmt.Errorf("failed to count tickets: %w", err)
	}
	if allocated < int64(r.TotalTickets) {
		return nil
	}

	if err := r.MarkSoldOut(); err != nil {
		return err
	}
	if err := h.raffleRepo.SaveWithLock(ctx, r); err != nil {
		return fmt.Errorf("failed to mark raffle sold out: %w", err)
	}

	if err := h.publisher.Publish(ctx, r.GetDomainEvents()...); err != nil {
		h.logger.Error("failed to publish sold out event",
			zap.String("raffle_id", raffleID.String()),
			zap.Error(err),
		)
	}
	r.ClearDomainEvents()

	h.logger.Info("raffle sold out", zap.String("raffle_id", raffleID.String()))
	return nil
}
