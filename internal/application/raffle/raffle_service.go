package raffle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/rafflehub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RaffleService handles raffle lifecycle operations
type RaffleService struct {
	raffleRepo raffle.RaffleRepository
	ticketRepo raffle.TicketRepository
	drawRepo   raffle.DrawRepository
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewRaffleService creates a new raffle service
func NewRaffleService(
	raffleRepo raffle.RaffleRepository,
	ticketRepo raffle.TicketRepository,
	drawRepo raffle.DrawRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *RaffleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RaffleService{
		raffleRepo: raffleRepo,
		ticketRepo: ticketRepo,
		drawRepo:   drawRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// Create creates a new raffle in DRAFT status
func (s *RaffleService) Create(ctx context.Context, req CreateRaffleRequest) (*RaffleResponse, error) {
	r, err := raffle.NewRaffle(req.Title, req.TicketPrice, req.TotalTickets, req.MaxTicketsPerCustomer)
	if err != nil {
		return nil, err
	}

	r.Description = req.Description
	r.ImageURL = req.ImageURL
	r.Terms = req.Terms
	r.Metadata = req.Metadata

	if req.StartsAt != nil || req.EndsAt != nil || req.DrawAt != nil {
		if err := r.SetSchedule(req.StartsAt, req.EndsAt, req.DrawAt); err != nil {
			return nil, err
		}
	}

	if err := s.raffleRepo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save raffle: %w", err)
	}

	s.publishEvents(ctx, r)

	s.logger.Info("raffle created",
		zap.String("raffle_id", r.ID.String()),
		zap.String("title", r.Title),
		zap.Int("total_tickets", r.TotalTickets),
	)

	resp := ToRaffleResponse(r)
	return &resp, nil
}

// GetByID returns a single raffle
func (s *RaffleService) GetByID(ctx context.Context, id uuid.UUID) (*RaffleResponse, error) {
	r, err := s.raffleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRaffleResponse(r)
	return &resp, nil
}

// List returns raffles filtered by status with pagination
func (s *RaffleService) List(ctx context.Context, filter RaffleListFilter) (*shared.Paginated[RaffleResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != nil {
		f.Filters["status"] = filter.Status.String()
	}

	raffles, err := s.raffleRepo.FindAll(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list raffles: %w", err)
	}
	total, err := s.raffleRepo.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count raffles: %w", err)
	}

	items := make([]RaffleResponse, len(raffles))
	for i := range raffles {
		items[i] = ToRaffleResponse(&raffles[i])
	}
	result := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &result, nil
}

// Update applies a partial update to a raffle. Outside DRAFT only cosmetic
// fields may change.
func (s *RaffleService) Update(ctx context.Context, id uuid.UUID, req UpdateRaffleRequest) (*RaffleResponse, error) {
	r, err := s.raffleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update := raffle.RaffleUpdate{
		Title:                 req.Title,
		Description:           req.Description,
		ImageURL:              req.ImageURL,
		Terms:                 req.Terms,
		Metadata:              req.Metadata,
		TicketPrice:           req.TicketPrice,
		TotalTickets:          req.TotalTickets,
		MaxTicketsPerCustomer: req.MaxTicketsPerCustomer,
		StartsAt:              req.StartsAt,
		EndsAt:                req.EndsAt,
		DrawAt:                req.DrawAt,
	}
	if err := r.ApplyUpdate(update); err != nil {
		return nil, err
	}

	if err := s.raffleRepo.SaveWithLock(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update raffle: %w", err)
	}

	resp := ToRaffleResponse(r)
	return &resp, nil
}

// Publish opens a DRAFT raffle for ticket sales
func (s *RaffleService) Publish(ctx context.Context, id uuid.UUID) (*RaffleResponse, error) {
	r, err := s.raffleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.Publish(); err != nil {
		return nil, err
	}

	if err := s.raffleRepo.SaveWithLock(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to publish raffle: %w", err)
	}

	s.publishEvents(ctx, r)

	s.logger.Info("raffle published", zap.String("raffle_id", r.ID.String()))

	resp := ToRaffleResponse(r)
	return &resp, nil
}

// Cancel cancels a raffle with a reason. Illegal once the raffle is final.
func (s *RaffleService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*RaffleResponse, error) {
	r, err := s.raffleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.Cancel(reason); err != nil {
		return nil, err
	}

	if err := s.raffleRepo.SaveWithLock(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to cancel raffle: %w", err)
	}

	s.publishEvents(ctx, r)

	s.logger.Info("raffle cancelled",
		zap.String("raffle_id", r.ID.String()),
		zap.String("reason", reason),
	)

	resp := ToRaffleResponse(r)
	return &resp, nil
}

// Resume returns a raffle stuck in DRAWING after a failed draw to sales.
// It reverts to SOLD_OUT when every ticket is allocated, ACTIVE otherwise.
func (s *RaffleService) Resume(ctx context.Context, id uuid.UUID) (*RaffleResponse, error) {
	r, err := s.raffleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inFlight, err := s.drawRepo.HasNonFailedDraw(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check draws: %w", err)
	}
	if inFlight {
		return nil, shared.NewDomainError("DRAW_IN_PROGRESS",
			"Cannot resume a raffle whose draw is still in progress")
	}

	sold, err := s.ticketRepo.CountByRaffle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}

	target := raffle.RaffleStatusActive
	if sold >= int64(r.TotalTickets) {
		target = raffle.RaffleStatusSoldOut
	}
	if err := r.RevertDrawing(target); err != nil {
		return nil, err
	}

	if err := s.raffleRepo.SaveWithLock(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to resume raffle: %w", err)
	}

	s.logger.Info("raffle resumed after failed draw",
		zap.String("raffle_id", r.ID.String()),
		zap.String("status", r.Status.String()),
	)

	resp := ToRaffleResponse(r)
	return &resp, nil
}

// ListTickets returns the tickets of a raffle with filtering
func (s *RaffleService) ListTickets(ctx context.Context, raffleID uuid.UUID, filter TicketListFilter) (*shared.Paginated[TicketResponse], error) {
	if _, err := s.raffleRepo.FindByID(ctx, raffleID); err != nil {
		return nil, err
	}

	f := shared.DefaultFilter()
	f.OrderBy = "ticket_number"
	f.OrderDir = "asc"
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != nil {
		f.Filters["status"] = string(*filter.Status)
	}
	if filter.CustomerID != nil {
		f.Filters["customer_id"] = *filter.CustomerID
	}

	tickets, err := s.ticketRepo.FindByRaffle(ctx, raffleID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	total, err := s.ticketRepo.CountByRaffle(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}

	result := shared.NewPaginated(ToTicketResponses(tickets), total, f.Page, f.Limit())
	return &result, nil
}

// GetTicket returns a single ticket
func (s *RaffleService) GetTicket(ctx context.Context, id uuid.UUID) (*TicketResponse, error) {
	t, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToTicketResponse(t)
	return &resp, nil
}

// publishEvents drains the aggregate's pending events onto the bus.
// Delivery failures are logged only; the state change is already committed.
func (s *RaffleService) publishEvents(ctx context.Context, r *raffle.Raffle) {
	events := r.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish raffle events",
			zap.String("raffle_id", r.ID.String()),
			zap.Error(err),
		)
	}
	r.ClearDomainEvents()
}

// IsNotFound reports whether the error is the shared not-found error
func IsNotFound(err error) bool {
	var derr *shared.DomainError
	return errors.As(err, &derr) && derr.Code == "NOT_FOUND"
}
