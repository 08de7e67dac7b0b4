package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data operations
type AppointmentRepository interface {
	// List retrieves appointments matching the filter
	List(ctx context.Context, filter AppointmentFilter) ([]*entities.Appointment, error)

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// Create stores a new appointment and fills in its ID
	Create(ctx context.Context, appointment *entities.Appointment) error

	// Update applies a staff edit to an appointment
	Update(ctx context.Context, id string, update entities.AppointmentUpdate) error

	// UpdateStatus moves an appointment through its lifecycle
	UpdateStatus(ctx context.Context, id string, status entities.AppointmentStatus) error

	// ListActiveByDoctor retrieves a doctor's scheduled, waiting and in-progress appointments
	ListActiveByDoctor(ctx context.Context, doctorID string) ([]*entities.Appointment, error)

	// ListDoctorsWithActiveQueues returns every doctor that has at least one active appointment
	ListDoctorsWithActiveQueues(ctx context.Context) ([]string, error)

	// SaveQueueMetrics persists recomputed waiting and service times
	SaveQueueMetrics(ctx context.Context, metrics []entities.QueueMetrics) error

	// ListHyperEmergencies retrieves active hyper-emergencies and those resolved since the given time
	ListHyperEmergencies(ctx context.Context, resolvedSince time.Time, limit int) ([]*entities.Appointment, error)

	// Stats computes hospital-wide flow statistics
	Stats(ctx context.Context) (*entities.FlowStats, error)
}

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	Department string
	Statuses   []entities.AppointmentStatus
	DoctorID   string
	Limit      int
	Offset     int
}
