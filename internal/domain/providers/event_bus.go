package providers

import (
	"context"
	"strings"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to queue events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.QueueEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelQueueUpdates carries every department's events
	EventChannelQueueUpdates = "queue:updates"

	// EventChannelDepartmentPrefix is the prefix for department-specific channels
	EventChannelDepartmentPrefix = "queue:department:"
)

// GetDepartmentChannel returns the channel name for a department
func GetDepartmentChannel(department string) string {
	return EventChannelDepartmentPrefix + strings.ToLower(department)
}
