package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSaga_ExecutesStepsInOrder(t *testing.T) {
	var order []string
	saga := NewSaga("test", zap.NewNop()).
		AddStep(SagaStep{
			Name:   "first",
			Action: func(ctx context.Context) error { order = append(order, "first"); return nil },
		}).
		AddStep(SagaStep{
			Name:   "second",
			Action: func(ctx context.Context) error { order = append(order, "second"); return nil },
		})

	err := saga.Execute(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSaga_CompensatesInReverseOrderOnFailure(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	saga := NewSaga("test", zap.NewNop()).
		AddStep(SagaStep{
			Name:       "first",
			Action:     func(ctx context.Context) error { order = append(order, "first"); return nil },
			Compensate: func(ctx context.Context) error { order = append(order, "undo-first"); return nil },
		}).
		AddStep(SagaStep{
			Name:       "second",
			Action:     func(ctx context.Context) error { order = append(order, "second"); return nil },
			Compensate: func(ctx context.Context) error { order = append(order, "undo-second"); return nil },
		}).
		AddStep(SagaStep{
			Name:   "third",
			Action: func(ctx context.Context) error { return boom },
		})

	err := saga.Execute(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second", "undo-second", "undo-first"}, order)
}

func TestSaga_FirstStepFailureCompensatesNothing(t *testing.T) {
	compensated := false
	saga := NewSaga("test", zap.NewNop()).
		AddStep(SagaStep{
			Name:       "only",
			Action:     func(ctx context.Context) error { return errors.New("fail") },
			Compensate: func(ctx context.Context) error { compensated = true; return nil },
		})

	err := saga.Execute(context.Background())

	assert.Error(t, err)
	assert.False(t, compensated)
}

func TestSaga_CompensationFailureDoesNotMaskOriginalError(t *testing.T) {
	boom := errors.New("boom")
	saga := NewSaga("test", zap.NewNop()).
		AddStep(SagaStep{
			Name:       "first",
			Action:     func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { return errors.New("compensation failed") },
		}).
		AddStep(SagaStep{
			Name:   "second",
			Action: func(ctx context.Context) error { return boom },
		})

	err := saga.Execute(context.Background())

	assert.ErrorIs(t, err, boom)
}

func TestSaga_NilCompensationIsSkipped(t *testing.T) {
	saga := NewSaga("test", zap.NewNop()).
		AddStep(SagaStep{
			Name:   "no-undo",
			Action: func(ctx context.Context) error { return nil },
		}).
		AddStep(SagaStep{
			Name:   "fails",
			Action: func(ctx context.Context) error { return errors.New("fail") },
		})

	assert.Error(t, saga.Execute(context.Background()))
}
