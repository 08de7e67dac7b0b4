package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/providers"
	"github.com/zatekoja/patientflow/internal/infrastructure/observability"
)

// DepartmentRefresher reloads the open boards of a department
type DepartmentRefresher interface {
	RefreshDepartment(ctx context.Context, department string) error
}

// QueueEventRelay keeps boards and cached snapshots in step with queue events published
// by any instance: the department's cached snapshots are dropped and its open boards refetched.
type QueueEventRelay struct {
	cache     providers.CacheProvider
	eventBus  providers.EventBus
	refresher DepartmentRefresher
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	done      chan struct{}
}

// NewQueueEventRelay creates a new queue event relay. cache may be nil.
func NewQueueEventRelay(cache providers.CacheProvider, eventBus providers.EventBus, refresher DepartmentRefresher) *QueueEventRelay {
	ctx, cancel := context.WithCancel(context.Background())
	return &QueueEventRelay{
		cache:     cache,
		eventBus:  eventBus,
		refresher: refresher,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start begins listening for queue events
func (s *QueueEventRelay) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelQueueUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to queue updates: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	observability.GetLogger().Info().Msg("Queue event relay started")
	return nil
}

// Stop stops the relay and waits for the event loop to exit
func (s *QueueEventRelay) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	observability.GetLogger().Info().Msg("Queue event relay stopped")
}

func (s *QueueEventRelay) processEvents(eventChan <-chan *entities.QueueEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *QueueEventRelay) handleEvent(event *entities.QueueEvent) {
	if event.Department == "" {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	logger := observability.GetLogger()
	logger.Debug().Str("event_id", event.ID).Str("department", event.Department).
		Str("event_type", string(event.EventType)).Msg("Relaying queue event")

	if err := s.InvalidateDepartment(ctx, event.Department); err != nil {
		logger.Warn().Err(err).Str("department", event.Department).Msg("Failed to invalidate board snapshots")
	}
	if s.refresher != nil {
		if err := s.refresher.RefreshDepartment(ctx, event.Department); err != nil {
			logger.Warn().Err(err).Str("department", event.Department).Msg("Failed to refresh boards")
		}
	}
}

// InvalidateDepartment drops every cached board snapshot of a department
func (s *QueueEventRelay) InvalidateDepartment(ctx context.Context, department string) error {
	if s.cache == nil {
		return nil
	}
	pattern := fmt.Sprintf("flow:board:%s:*", strings.ToLower(strings.TrimSpace(department)))
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", pattern, err)
	}
	return nil
}
