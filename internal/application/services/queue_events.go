package services

import (
	"context"

	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/providers"
	"github.com/zatekoja/patientflow/internal/infrastructure/observability"
)

// publishQueueEvent sends an event to its department channel and to the global channel.
// A nil bus is a no-op; publish failures are logged and never fail the mutation.
func publishQueueEvent(ctx context.Context, bus providers.EventBus, event *entities.QueueEvent) {
	if bus == nil || event == nil {
		return
	}
	logger := observability.LoggerFromContext(ctx)

	if event.Department != "" {
		if err := bus.Publish(ctx, providers.GetDepartmentChannel(event.Department), event); err != nil {
			logger.Warn().Err(err).Str("department", event.Department).Str("event_type", string(event.EventType)).
				Msg("Failed to publish department event")
		}
	}
	if err := bus.Publish(ctx, providers.EventChannelQueueUpdates, event); err != nil {
		logger.Warn().Err(err).Str("event_type", string(event.EventType)).Msg("Failed to publish queue event")
	}
}
