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

// DrawService orchestrates winner selection. Starting a draw requests
// entropy from the randomness source and parks the raffle in DRAWING;
// the oracle callback resolves the winner. Callbacks are idempotent on
// the randomness request ID.
type DrawService struct {
	raffleRepo raffle.RaffleRepository
	ticketRepo raffle.TicketRepository
	drawRepo   raffle.DrawRepository
	randomness raffle.RandomnessSource
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewDrawService creates a new draw service
func NewDrawService(
	raffleRepo raffle.RaffleRepository,
	ticketRepo raffle.TicketRepository,
	drawRepo raffle.DrawRepository,
	randomness raffle.RandomnessSource,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *DrawService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DrawService{
		raffleRepo: raffleRepo,
		ticketRepo: ticketRepo,
		drawRepo:   drawRepo,
		randomness: randomness,
		publisher:  publisher,
		logger:     logger,
	}
}

// StartDraw begins winner selection for a raffle. The raffle must be ACTIVE
// or SOLD_OUT with at least one ticket sold and no draw already underway.
// On any failure after the raffle enters DRAWING the saga reverts it.
func (s *DrawService) StartDraw(ctx context.Context, raffleID, executedBy uuid.UUID) (*DrawResponse, error) {
	r, err := s.raffleRepo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	inFlight, err := s.drawRepo.HasNonFailedDraw(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing draws: %w", err)
	}
	if inFlight {
		return nil, shared.NewDomainError("DRAW_ALREADY_IN_PROGRESS",
			"Raffle already has a draw in progress or completed")
	}

	sold, err := s.ticketRepo.CountByRaffle(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}

	priorStatus := r.Status
	var draw *raffle.Draw

	// The optimistic lock on the raffle row linearizes concurrent StartDraw
	// calls: both read the same version, only the first save wins.
	saga := shared.NewSaga("raffle_draw", s.logger).
		AddStep(shared.SagaStep{
			Name: "transition_raffle_to_drawing",
			Action: func(ctx context.Context) error {
				if err := r.StartDraw(sold); err != nil {
					return err
				}
				return s.raffleRepo.SaveWithLock(ctx, r)
			},
			Compensate: func(ctx context.Context) error {
				if err := r.RevertDrawing(priorStatus); err != nil {
					return err
				}
				return s.raffleRepo.SaveWithLock(ctx, r)
			},
		}).
		AddStep(shared.SagaStep{
			Name: "request_randomness",
			Action: func(ctx context.Context) error {
				requestID, err := s.randomness.RequestRandomness(ctx, raffleID)
				if err != nil {
					return fmt.Errorf("randomness request failed: %w", err)
				}
				draw, err = raffle.NewDraw(raffleID, requestID, executedBy)
				if err != nil {
					return err
				}
				return s.drawRepo.Save(ctx, draw)
			},
			Compensate: func(ctx context.Context) error {
				if draw == nil {
					return nil
				}
				return s.drawRepo.Delete(ctx, draw.ID)
			},
		}).
		AddStep(shared.SagaStep{
			Name: "publish_draw_started",
			Action: func(ctx context.Context) error {
				if err := s.publisher.Publish(ctx, raffle.NewDrawStartedEvent(draw)); err != nil {
					s.logger.Error("failed to publish draw started event",
						zap.String("draw_id", draw.ID.String()),
						zap.Error(err),
					)
				}
				return nil
			},
		})

	if err := saga.Execute(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("draw started",
		zap.String("raffle_id", raffleID.String()),
		zap.String("draw_id", draw.ID.String()),
		zap.String("request_id", draw.RandomnessRequestID),
		zap.Int64("sold_tickets", sold),
	)

	resp := ToDrawResponse(draw)
	return &resp, nil
}

// HandleRandomnessCallback consumes an entropy delivery from the randomness
// source. Callbacks for terminal draws are acknowledged without effect, and
// concurrent deliveries of the same callback race for a settlement claim on
// the draw row, so at-least-once oracle delivery never double-awards. A
// missing winner ticket fails the draw and leaves the raffle in DRAWING for
// operator review.
func (s *DrawService) HandleRandomnessCallback(ctx context.Context, cb raffle.RandomnessCallback) error {
	draw, err := s.drawRepo.FindByRequestID(ctx, cb.RequestID)
	if err != nil {
		if IsNotFound(err) {
			return shared.NewDomainError("UNKNOWN_REQUEST",
				fmt.Sprintf("No draw found for randomness request %s", cb.RequestID))
		}
		return err
	}

	if draw.Status.IsTerminal() {
		s.logger.Info("ignoring callback for terminal draw",
			zap.String("draw_id", draw.ID.String()),
			zap.String("request_id", cb.RequestID),
			zap.String("status", string(draw.Status)),
		)
		return nil
	}

	// Claim the settlement before touching any state. Exactly one delivery
	// of this callback proceeds past this point; losers are acknowledged
	// and the winning delivery's outcome stands untouched.
	if err := s.drawRepo.ClaimForSettlement(ctx, draw); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.logger.Info("callback already being settled by a concurrent delivery",
				zap.String("draw_id", draw.ID.String()),
				zap.String("request_id", cb.RequestID),
			)
			return nil
		}
		return err
	}

	if err := s.settleDraw(ctx, draw, cb); err != nil {
		// Return the claim so a later delivery of this callback can retry.
		draw.Status = raffle.DrawStatusRequested
		draw.RandomWords = nil
		draw.WinnerTicketNumber = nil
		if saveErr := s.drawRepo.Save(ctx, draw); saveErr != nil {
			s.logger.Error("failed to release settlement claim",
				zap.String("draw_id", draw.ID.String()),
				zap.Error(saveErr),
			)
		}
		return err
	}
	return nil
}

// settleDraw resolves the winner for a claimed draw. The caller holds the
// settlement claim; any returned error releases it.
func (s *DrawService) settleDraw(ctx context.Context, draw *raffle.Draw, cb raffle.RandomnessCallback) error {
	r, err := s.raffleRepo.FindByID(ctx, draw.RaffleID)
	if err != nil {
		return err
	}

	if !r.IsDrawing() {
		// Cancelled (or otherwise moved on) while waiting for entropy.
		return s.failDraw(ctx, draw,
			fmt.Sprintf("raffle is %s, not DRAWING", r.Status))
	}

	if len(cb.RandomWords) == 0 {
		return s.failDraw(ctx, draw, "callback carried no random words")
	}

	winnerNumber, err := raffle.WinnerIndex(cb.RandomWords[0], r.TotalTickets)
	if err != nil {
		return s.failDraw(ctx, draw, fmt.Sprintf("invalid random word: %v", err))
	}

	ticket, err := s.ticketRepo.FindByNumber(ctx, draw.RaffleID, winnerNumber)
	if err != nil {
		if IsNotFound(err) {
			// The winning number was never sold. The draw fails and the
			// raffle stays DRAWING until an operator resumes or cancels it.
			return s.failDraw(ctx, draw,
				fmt.Sprintf("winner ticket %d not allocated in raffle %s", winnerNumber, draw.RaffleID))
		}
		return err
	}

	priorTicketStatus := ticket.Status

	saga := shared.NewSaga("draw_settlement", s.logger).
		AddStep(shared.SagaStep{
			Name: "mark_winner_ticket",
			Action: func(ctx context.Context) error {
				ticket.MarkWinner()
				return s.ticketRepo.Save(ctx, ticket)
			},
			Compensate: func(ctx context.Context) error {
				ticket.Status = priorTicketStatus
				ticket.IsWinner = false
				return s.ticketRepo.Save(ctx, ticket)
			},
		}).
		AddStep(shared.SagaStep{
			Name: "complete_raffle",
			Action: func(ctx context.Context) error {
				if err := r.CompleteDraw(winnerNumber, ticket.CustomerID); err != nil {
					return err
				}
				return s.raffleRepo.SaveWithLock(ctx, r)
			},
		}).
		AddStep(shared.SagaStep{
			Name: "complete_draw",
			Action: func(ctx context.Context) error {
				if err := draw.Complete(cb.RandomWords, winnerNumber); err != nil {
					return err
				}
				return s.drawRepo.Save(ctx, draw)
			},
		})

	if err := saga.Execute(ctx); err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx,
		raffle.NewDrawCompletedEvent(draw, ticket.ID),
		raffle.NewWinnerAnnouncedEvent(r.ID, winnerNumber, ticket.CustomerID),
	); err != nil {
		s.logger.Error("failed to publish draw completion events",
			zap.String("draw_id", draw.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("draw completed",
		zap.String("raffle_id", r.ID.String()),
		zap.String("draw_id", draw.ID.String()),
		zap.Int("winner_ticket_number", winnerNumber),
		zap.String("winner_customer_id", ticket.CustomerID.String()),
	)

	return nil
}

// GetDraw returns a single draw
func (s *DrawService) GetDraw(ctx context.Context, id uuid.UUID) (*DrawResponse, error) {
	d, err := s.drawRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToDrawResponse(d)
	return &resp, nil
}

// ListDraws returns the draws of a raffle, newest first
func (s *DrawService) ListDraws(ctx context.Context, raffleID uuid.UUID) ([]DrawResponse, error) {
	draws, err := s.drawRepo.FindByRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	out := make([]DrawResponse, len(draws))
	for i := range draws {
		out[i] = ToDrawResponse(&draws[i])
	}
	return out, nil
}

// failDraw marks the draw FAILED with a diagnostic reason and emits the
// failure event. The raffle status is not touched here.
func (s *DrawService) failDraw(ctx context.Context, draw *raffle.Draw, reason string) error {
	if draw.Status.IsTerminal() {
		return nil
	}
	if err := draw.Fail(reason); err != nil {
		return err
	}
	if err := s.drawRepo.Save(ctx, draw); err != nil {
		return fmt.Errorf("failed to save failed draw: %w", err)
	}

	if err := s.publisher.Publish(ctx, raffle.NewDrawFailedEvent(draw)); err != nil {
		s.logger.Error("failed to publish draw failed event",
			zap.String("draw_id", draw.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Warn("draw failed",
		zap.String("raffle_id", draw.RaffleID.String()),
		zap.String("draw_id", draw.ID.String()),
		zap.String("reason", reason),
	)
	return nil
}
