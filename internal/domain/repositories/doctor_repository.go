package repositories

import (
	"context"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// DoctorRepository defines the interface for roster data operations
type DoctorRepository interface {
	// ListByShift retrieves the roster for a shift, with each doctor's active patient count
	ListByShift(ctx context.Context, shift entities.Shift) ([]*entities.Doctor, error)

	// GetByID retrieves a doctor by ID
	GetByID(ctx context.Context, id string) (*entities.Doctor, error)

	// GetByIDs retrieves several doctors in one round trip
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error)

	// Create adds a doctor to the roster and schedules them for today
	Create(ctx context.Context, doctor *entities.Doctor) error

	// UpdateStatus persists an availability change for the doctor and today's schedule
	UpdateStatus(ctx context.Context, id string, status entities.DoctorStatus) error

	// RankForDepartment lists active doctors by current load, then by experience
	RankForDepartment(ctx context.Context, department string) ([]entities.RankedDoctor, error)
}
