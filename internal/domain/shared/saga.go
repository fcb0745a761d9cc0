package shared

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SagaStep is one unit of a multi-step operation. Action performs the step,
// Compensate undoes it when a later step fails. Compensate may be nil for
// steps that need no undo (e.g. event emission, which is re-drivable from
// persisted state).
type SagaStep struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga executes an ordered list of steps with compensation semantics:
// when step N fails, the compensations of steps N-1..0 run in reverse order
// and the original step error is returned to the caller. Compensation
// failures are logged but never mask the original error.
type Saga struct {
	name   string
	steps  []SagaStep
	logger *zap.Logger
}

// NewSaga creates a saga with the given name
func NewSaga(name string, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{name: name, logger: logger}
}

// AddStep appends a step to the saga
func (s *Saga) AddStep(step SagaStep) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs all steps in order. On failure it compensates the already
// completed steps in reverse order and returns the failing step's error.
func (s *Saga) Execute(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Action(ctx); err != nil {
			s.logger.Warn("saga step failed, compensating",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			s.compensate(ctx, i-1)
			return fmt.Errorf("saga %s step %s: %w", s.name, step.Name, err)
		}
	}
	return nil
}

// compensate runs compensations for steps [from..0] in reverse order
func (s *Saga) compensate(ctx context.Context, from int) {
	for i := from; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			// The saga surfaces the original error; a failed compensation
			// leaves state for operator intervention and is only logged.
			s.logger.Error("saga compensation failed",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
		}
	}
}
