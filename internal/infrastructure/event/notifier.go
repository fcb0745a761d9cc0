package event

import (
	"context"

	"github.com/rafflehub/backend/internal/domain/shared"
	"github.com/rafflehub/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LoggingNotifier records every published domain event as a structured log
// line. It subscribes as a wildcard handler and forms the audit trail for
// raffle lifecycle changes; downstream notification channels (mail, push)
// hang off the same bus without touching the publishing side.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier creates a notifier writing to the given logger
func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingNotifier{logger: logger.Named("events")}
}

// EventTypes returns nil, subscribing the notifier to every event
func (n *LoggingNotifier) EventTypes() []string {
	return nil
}

// Handle logs the event, enriched with the request id and trace of the
// context the event was published under
func (n *LoggingNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	logger.WithLogger(ctx, n.logger).Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// Ensure LoggingNotifier implements EventHandler
var _ shared.EventHandler = (*LoggingNotifier)(nil)
