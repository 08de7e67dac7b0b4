package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientflow/internal/application/services"
	"github.com/zatekoja/patientflow/internal/domain/entities"
)

func TestWaitTimeService_Recalculate(t *testing.T) {
	appts := new(MockAppointmentRepository)
	appts.On("ListActiveByDoctor", mock.Anything, "d1").Return([]*entities.Appointment{
		{ID: "1", Age: 30, Category: entities.AppointmentCategoryRoutine, SeverityScore: sev(3), Status: entities.AppointmentStatusScheduled},
		{ID: "2", Age: 4, Category: entities.AppointmentCategoryEmergency, SeverityScore: sev(8), Status: entities.AppointmentStatusScheduled},
	}, nil)
	appts.On("SaveQueueMetrics", mock.Anything, mock.MatchedBy(func(m []entities.QueueMetrics) bool {
		return len(m) == 2
	})).Return(nil)

	slots, err := services.NewWaitTimeService(appts).Recalculate(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, "2", slots[0].Appointment.ID)
	assert.Equal(t, 0, slots[0].WaitingMinutes)
	assert.Equal(t, slots[0].EstimatedMinutes, slots[1].WaitingMinutes)
	appts.AssertExpectations(t)
}

func TestWaitTimeService_Recalculate_SaveFails(t *testing.T) {
	appts := new(MockAppointmentRepository)
	appts.On("ListActiveByDoctor", mock.Anything, "d1").Return([]*entities.Appointment{}, nil)
	appts.On("SaveQueueMetrics", mock.Anything, mock.Anything).Return(errors.New("deadlock"))

	_, err := services.NewWaitTimeService(appts).Recalculate(context.Background(), "d1")
	assert.Error(t, err)
}

func TestWaitTimeService_RecalculateAll_KeepsGoingPastFailures(t *testing.T) {
	appts := new(MockAppointmentRepository)
	appts.On("ListDoctorsWithActiveQueues", mock.Anything).Return([]string{"d1", "d2", "d3"}, nil)
	appts.On("ListActiveByDoctor", mock.Anything, "d1").Return([]*entities.Appointment{}, nil)
	appts.On("ListActiveByDoctor", mock.Anything, "d2").Return(nil, errors.New("timeout"))
	appts.On("ListActiveByDoctor", mock.Anything, "d3").Return([]*entities.Appointment{}, nil)
	appts.On("SaveQueueMetrics", mock.Anything, mock.Anything).Return(nil)

	updated, err := services.NewWaitTimeService(appts).RecalculateAll(context.Background())

	assert.Equal(t, 2, updated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doctor d2")
	appts.AssertNumberOfCalls(t, "SaveQueueMetrics", 2)
}

func TestWaitTimeService_RecalculateAll_ListFails(t *testing.T) {
	appts := new(MockAppointmentRepository)
	appts.On("ListDoctorsWithActiveQueues", mock.Anything).Return(nil, errors.New("connection refused"))

	updated, err := services.NewWaitTimeService(appts).RecalculateAll(context.Background())
	assert.Zero(t, updated)
	assert.Error(t, err)
}
