package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/queue"
	"github.com/zatekoja/patientflow/internal/domain/repositories"
	"github.com/zatekoja/patientflow/internal/infrastructure/observability"
)

// WaitTimeService reorders a doctor's active queue and persists the resulting waiting times
type WaitTimeService struct {
	appointments repositories.AppointmentRepository
	now          func() time.Time
}

// NewWaitTimeService creates a new wait time service
func NewWaitTimeService(appointments repositories.AppointmentRepository) *WaitTimeService {
	return &WaitTimeService{appointments: appointments, now: time.Now}
}

// DoctorQueue returns a doctor's active queue in optimized order without persisting anything.
func (s *WaitTimeService) DoctorQueue(ctx context.Context, doctorID string) ([]queue.Slot, error) {
	appts, err := s.appointments.ListActiveByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	values := lo.Map(appts, func(a *entities.Appointment, _ int) entities.Appointment { return *a })
	return queue.Optimize(values, s.now()), nil
}

// Recalculate optimizes one doctor's queue and saves waiting minutes, service estimates and priority.
func (s *WaitTimeService) Recalculate(ctx context.Context, doctorID string) ([]queue.Slot, error) {
	slots, err := s.DoctorQueue(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if err := s.appointments.SaveQueueMetrics(ctx, queue.Metrics(slots)); err != nil {
		return nil, err
	}
	return slots, nil
}

// RecalculateAll refreshes every doctor with an active queue. It keeps going past
// individual failures and returns how many doctors were updated.
func (s *WaitTimeService) RecalculateAll(ctx context.Context) (int, error) {
	logger := observability.LoggerFromContext(ctx)

	doctorIDs, err := s.appointments.ListDoctorsWithActiveQueues(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	updated := 0
	for _, id := range doctorIDs {
		if _, err := s.Recalculate(ctx, id); err != nil {
			logger.Warn().Err(err).Str("doctor_id", id).Msg("Failed to recalculate waiting times")
			errs = append(errs, fmt.Errorf("doctor %s: %w", id, err))
			continue
		}
		updated++
	}

	logger.Info().Int("doctors", len(doctorIDs)).Int("updated", updated).Msg("Waiting times recalculated")
	return updated, errors.Join(errs...)
}
