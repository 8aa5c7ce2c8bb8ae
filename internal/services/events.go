package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/you/gymdesk/domain"
)

// publish sends an audit event. Failures are logged and otherwise ignored.
func publish(ctx context.Context, pub domain.EventPublisher, log *zap.Logger, ev *domain.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn("failed to publish event", zap.String("event_type", string(ev.Type)), zap.Error(err))
	}
}
