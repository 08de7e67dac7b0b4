package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/patientflow/internal/application/services"
	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/queue"
)

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Board(ctx context.Context, key services.BoardKey) (*services.Board, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Board), args.Error(1)
}

func (m *MockDashboardService) Refresh(ctx context.Context, key services.BoardKey) (*services.Board, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Board), args.Error(1)
}

func (m *MockDashboardService) Stats(ctx context.Context) (*entities.FlowStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.FlowStats), args.Error(1)
}

type MockDoctorService struct {
	mock.Mock
}

func (m *MockDoctorService) ToggleDoctor(ctx context.Context, id string) (*services.PatchResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PatchResult), args.Error(1)
}

func (m *MockDoctorService) AddDoctor(ctx context.Context, doctor *entities.Doctor) (*entities.Doctor, error) {
	args := m.Called(ctx, doctor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Doctor), args.Error(1)
}

func (m *MockDoctorService) DoctorsByDepartment(ctx context.Context, shift entities.Shift) (map[string][]entities.Doctor, error) {
	args := m.Called(ctx, shift)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]entities.Doctor), args.Error(1)
}

func (m *MockDoctorService) DoctorQueue(ctx context.Context, doctorID string) ([]queue.Slot, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queue.Slot), args.Error(1)
}

type MockAppointmentService struct {
	mock.Mock
}

func (m *MockAppointmentService) AddAppointment(ctx context.Context, req services.NewAppointment) (*entities.Appointment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

func (m *MockAppointmentService) UpdateAppointment(ctx context.Context, id string, update entities.AppointmentUpdate, shift entities.Shift) (*services.PatchResult, error) {
	args := m.Called(ctx, id, update, shift)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PatchResult), args.Error(1)
}

func (m *MockAppointmentService) CompleteAppointment(ctx context.Context, id string, shift entities.Shift) (*services.PatchResult, error) {
	args := m.Called(ctx, id, shift)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PatchResult), args.Error(1)
}

func (m *MockAppointmentService) CancelAppointment(ctx context.Context, id string, shift entities.Shift) (*services.PatchResult, error) {
	args := m.Called(ctx, id, shift)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PatchResult), args.Error(1)
}

func (m *MockAppointmentService) RetryPatch(ctx context.Context, patchID string) (*services.PatchResult, error) {
	args := m.Called(ctx, patchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PatchResult), args.Error(1)
}

func (m *MockAppointmentService) DiscardPatch(ctx context.Context, patchID string) error {
	args := m.Called(ctx, patchID)
	return args.Error(0)
}

func (m *MockAppointmentService) RecalculateAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockEmergencyService struct {
	mock.Mock
}

func (m *MockEmergencyService) Triage(ctx context.Context, req entities.TriageRequest) (*entities.TriageResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TriageResult), args.Error(1)
}

func (m *MockEmergencyService) Confirm(ctx context.Context, req services.ConfirmRequest) (*entities.EmergencyCase, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EmergencyCase), args.Error(1)
}

func (m *MockEmergencyService) List(ctx context.Context) ([]*entities.EmergencyCase, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.EmergencyCase), args.Error(1)
}

func (m *MockEmergencyService) Complete(ctx context.Context, id string) (*entities.EmergencyCase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EmergencyCase), args.Error(1)
}

func (m *MockEmergencyService) Impact(ctx context.Context, id string) (*services.ImpactReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ImpactReport), args.Error(1)
}

type MockExplanationService struct {
	mock.Mock
}

func (m *MockExplanationService) Explain(ctx context.Context, eventType string, details map[string]interface{}) (string, error) {
	args := m.Called(ctx, eventType, details)
	return args.String(0), args.Error(1)
}
