package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientflow/internal/adapters/events"
	"github.com/zatekoja/patientflow/internal/application/services"
	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/providers"
	apperrors "github.com/zatekoja/patientflow/pkg/errors"
)

func newEmergencyService(classifier *MockClassifier, appts *MockAppointmentRepository, docs *MockDoctorRepository, bus providers.EventBus) *services.EmergencyService {
	return services.NewEmergencyService(classifier, appts, docs, services.NewWaitTimeService(appts), bus)
}

func hyperEmergency(id string, status entities.AppointmentStatus) *entities.Appointment {
	return &entities.Appointment{
		ID:               id,
		PatientName:      "Asha Rao",
		Age:              58,
		Department:       "Cardiology",
		ProblemText:      "crushing chest pain",
		Category:         entities.AppointmentCategoryEmergency,
		SeverityScore:    sev(10),
		Status:           status,
		AssignedDoctorID: strPtr("d1"),
		DoctorName:       "Dr. Bello",
		IsHyperEmergency: true,
	}
}

func TestEmergencyService_Triage(t *testing.T) {
	req := entities.TriageRequest{Name: "Asha", Age: 58, ProblemText: "chest pain"}

	t.Run("ranks the recommended department", func(t *testing.T) {
		classifier := new(MockClassifier)
		docs := new(MockDoctorRepository)
		classifier.On("Classify", mock.Anything, req).Return(&entities.TriageResult{
			Department:   "Cardiology",
			UrgencyLevel: entities.UrgencyHigh,
			Source:       "rule-based",
		}, nil)
		docs.On("RankForDepartment", mock.Anything, "Cardiology").Return([]entities.RankedDoctor{
			{DoctorID: "d2", Name: "Dr. Okafor", ActivePatients: 0, Rank: 1},
			{DoctorID: "d1", Name: "Dr. Bello", ActivePatients: 3, Rank: 2},
		}, nil)

		result, err := newEmergencyService(classifier, new(MockAppointmentRepository), docs, nil).Triage(context.Background(), req)
		require.NoError(t, err)

		assert.Len(t, result.RankedDoctors, 2)
		require.NotNil(t, result.RecommendedDoctor)
		assert.Equal(t, "d2", result.RecommendedDoctor.DoctorID)
	})

	t.Run("empty pool is not an error", func(t *testing.T) {
		classifier := new(MockClassifier)
		docs := new(MockDoctorRepository)
		classifier.On("Classify", mock.Anything, req).Return(&entities.TriageResult{Department: "ICU", UrgencyLevel: entities.UrgencyCritical}, nil)
		docs.On("RankForDepartment", mock.Anything, "ICU").Return(nil, nil)

		result, err := newEmergencyService(classifier, new(MockAppointmentRepository), docs, nil).Triage(context.Background(), req)
		require.NoError(t, err)

		assert.NotNil(t, result.RankedDoctors)
		assert.Empty(t, result.RankedDoctors)
		assert.Nil(t, result.RecommendedDoctor)
	})

	t.Run("ranking failure still returns the classification", func(t *testing.T) {
		classifier := new(MockClassifier)
		docs := new(MockDoctorRepository)
		classifier.On("Classify", mock.Anything, req).Return(&entities.TriageResult{Department: "ICU"}, nil)
		docs.On("RankForDepartment", mock.Anything, "ICU").Return(nil, errors.New("connection refused"))

		result, err := newEmergencyService(classifier, new(MockAppointmentRepository), docs, nil).Triage(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "ICU", result.Department)
		assert.Empty(t, result.RankedDoctors)
	})

	t.Run("classifier failure", func(t *testing.T) {
		classifier := new(MockClassifier)
		classifier.On("Classify", mock.Anything, req).Return(nil, errors.New("model offline"))

		_, err := newEmergencyService(classifier, new(MockAppointmentRepository), new(MockDoctorRepository), nil).Triage(context.Background(), req)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	})

	t.Run("negative age", func(t *testing.T) {
		classifier := new(MockClassifier)
		_, err := newEmergencyService(classifier, new(MockAppointmentRepository), new(MockDoctorRepository), nil).
			Triage(context.Background(), entities.TriageRequest{Age: -1, ProblemText: "pain"})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		classifier.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
	})
}

func TestEmergencyService_Confirm(t *testing.T) {
	appts := new(MockAppointmentRepository)
	docs := new(MockDoctorRepository)
	bus := events.NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, err := bus.Subscribe(ctx, providers.EventChannelQueueUpdates)
	require.NoError(t, err)

	docs.On("GetByID", mock.Anything, "d1").Return(&entities.Doctor{
		ID: "d1", Name: "Dr. Bello", Department: "Cardiology", Status: entities.DoctorStatusActive,
	}, nil)
	appts.On("Create", mock.Anything, mock.MatchedBy(func(a *entities.Appointment) bool {
		return a.IsHyperEmergency &&
			a.Category == entities.AppointmentCategoryEmergency &&
			a.Severity() == entities.HyperEmergencySeverity &&
			a.Status == entities.AppointmentStatusScheduled &&
			a.DoctorID() == "d1" &&
			a.Department == "Cardiology"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Appointment).ID = "e1"
	}).Return(nil)
	appts.On("ListActiveByDoctor", mock.Anything, "d1").Return([]*entities.Appointment{hyperEmergency("e1", entities.AppointmentStatusScheduled)}, nil)
	appts.On("SaveQueueMetrics", mock.Anything, mock.Anything).Return(nil)

	ec, err := newEmergencyService(new(MockClassifier), appts, docs, bus).Confirm(ctx, services.ConfirmRequest{
		Patient:  entities.EmergencyIntake{Name: "Asha Rao", Age: 58, ProblemText: "crushing chest pain"},
		DoctorID: "d1",
	})
	require.NoError(t, err)

	assert.Equal(t, "e1", ec.ID)
	assert.Equal(t, entities.UrgencyCritical, ec.UrgencyLevel)
	assert.Equal(t, "Dr. Bello", ec.DoctorName)
	assert.True(t, ec.DoctorActive)
	appts.AssertExpectations(t)

	select {
	case event := <-updates:
		assert.Equal(t, entities.QueueEventEmergencyConfirmed, event.EventType)
		assert.Equal(t, "Cardiology", event.Department)
		assert.Equal(t, "e1", event.ChangedFields["appointment_id"])
	case <-time.After(time.Second):
		t.Fatal("expected an emergency_confirmed event")
	}
}

func TestEmergencyService_Confirm_Validation(t *testing.T) {
	docs := new(MockDoctorRepository)
	svc := newEmergencyService(new(MockClassifier), new(MockAppointmentRepository), docs, nil)

	_, err := svc.Confirm(context.Background(), services.ConfirmRequest{DoctorID: "d1"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = svc.Confirm(context.Background(), services.ConfirmRequest{Patient: entities.EmergencyIntake{Name: "Asha"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	docs.On("GetByID", mock.Anything, "d9").Return(nil, apperrors.NewNotFoundError("doctor with id d9 not found"))
	_, err = svc.Confirm(context.Background(), services.ConfirmRequest{Patient: entities.EmergencyIntake{Name: "Asha"}, DoctorID: "d9"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestEmergencyService_List(t *testing.T) {
	appts := new(MockAppointmentRepository)
	docs := new(MockDoctorRepository)

	second := hyperEmergency("e2", entities.AppointmentStatusCompleted)
	second.SeverityScore = sev(8)
	second.AssignedDoctorID = strPtr("d2")
	second.DoctorName = ""

	appts.On("ListHyperEmergencies", mock.Anything, mock.AnythingOfType("time.Time"), 30).
		Return([]*entities.Appointment{hyperEmergency("e1", entities.AppointmentStatusScheduled), second}, nil)
	docs.On("GetByIDs", mock.Anything, mock.Anything).Return([]*entities.Doctor{
		{ID: "d1", Name: "Dr. Bello", Status: entities.DoctorStatusActive},
		{ID: "d2", Name: "Dr. Okafor", Status: entities.DoctorStatusInactive},
	}, nil)

	cases, err := newEmergencyService(new(MockClassifier), appts, docs, nil).List(context.Background())
	require.NoError(t, err)
	require.Len(t, cases, 2)

	assert.Equal(t, entities.UrgencyCritical, cases[0].UrgencyLevel)
	assert.True(t, cases[0].DoctorActive)
	assert.Equal(t, "Dr. Bello", cases[0].DoctorName)

	assert.Equal(t, entities.UrgencyCritical, cases[1].UrgencyLevel)
	assert.True(t, cases[1].IsResolved())
	assert.False(t, cases[1].DoctorActive)
	assert.Equal(t, "Dr. Okafor", cases[1].DoctorName)
}

func TestEmergencyService_List_Unavailable(t *testing.T) {
	appts := new(MockAppointmentRepository)
	appts.On("ListHyperEmergencies", mock.Anything, mock.Anything, 30).Return(nil, errors.New("connection refused"))

	_, err := newEmergencyService(new(MockClassifier), appts, new(MockDoctorRepository), nil).List(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
}

func TestEmergencyService_Complete(t *testing.T) {
	t.Run("resolves an active case", func(t *testing.T) {
		appts := new(MockAppointmentRepository)
		appts.On("GetByID", mock.Anything, "e1").Return(hyperEmergency("e1", entities.AppointmentStatusInProgress), nil)
		appts.On("UpdateStatus", mock.Anything, "e1", entities.AppointmentStatusCompleted).Return(nil)
		appts.On("ListActiveByDoctor", mock.Anything, "d1").Return([]*entities.Appointment{}, nil)
		appts.On("SaveQueueMetrics", mock.Anything, mock.Anything).Return(nil)

		ec, err := newEmergencyService(new(MockClassifier), appts, new(MockDoctorRepository), nil).Complete(context.Background(), "e1")
		require.NoError(t, err)
		assert.Equal(t, entities.AppointmentStatusCompleted, ec.Status)
		appts.AssertExpectations(t)
	})

	t.Run("already resolved is a no-op", func(t *testing.T) {
		appts := new(MockAppointmentRepository)
		appts.On("GetByID", mock.Anything, "e1").Return(hyperEmergency("e1", entities.AppointmentStatusCompleted), nil)

		ec, err := newEmergencyService(new(MockClassifier), appts, new(MockDoctorRepository), nil).Complete(context.Background(), "e1")
		require.NoError(t, err)
		assert.True(t, ec.IsResolved())
		appts.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("regular appointment is rejected", func(t *testing.T) {
		appts := new(MockAppointmentRepository)
		appts.On("GetByID", mock.Anything, "7").Return(&entities.Appointment{ID: "7", Status: entities.AppointmentStatusWaiting}, nil)

		_, err := newEmergencyService(new(MockClassifier), appts, new(MockDoctorRepository), nil).Complete(context.Background(), "7")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestEmergencyService_Impact(t *testing.T) {
	appts := new(MockAppointmentRepository)
	appts.On("GetByID", mock.Anything, "e1").Return(hyperEmergency("e1", entities.AppointmentStatusScheduled), nil)
	appts.On("ListActiveByDoctor", mock.Anything, "d1").Return([]*entities.Appointment{
		hyperEmergency("e1", entities.AppointmentStatusScheduled),
		{ID: "r1", PatientName: "Tunde", Age: 34, Category: entities.AppointmentCategoryRoutine, SeverityScore: sev(2), WaitingMinutes: 10},
		{ID: "x1", PatientName: "Ngozi", Age: 47, Category: entities.AppointmentCategoryEmergency, SeverityScore: sev(8), WaitingMinutes: 5},
	}, nil)

	report, err := newEmergencyService(new(MockClassifier), appts, new(MockDoctorRepository), nil).Impact(context.Background(), "e1")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.QueueLength)
	assert.Equal(t, 1, report.Summary.HighPriorityTransfers)
	assert.Equal(t, 1, report.Summary.RoutineReschedules)
	assert.Equal(t, 30, report.Summary.DisruptionMinutes)
	require.Len(t, report.Sections, 3)
	assert.Contains(t, report.Text, "Estimated disruption time: **~30 minutes**")
}

func TestEmergencyService_Impact_NoDoctor(t *testing.T) {
	appts := new(MockAppointmentRepository)
	unassigned := hyperEmergency("e1", entities.AppointmentStatusScheduled)
	unassigned.AssignedDoctorID = nil
	appts.On("GetByID", mock.Anything, "e1").Return(unassigned, nil)

	_, err := newEmergencyService(new(MockClassifier), appts, new(MockDoctorRepository), nil).Impact(context.Background(), "e1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
