package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientflow/internal/api/handlers"
	"github.com/zatekoja/patientflow/internal/application/services"
	"github.com/zatekoja/patientflow/internal/domain/entities"
	apperrors "github.com/zatekoja/patientflow/pkg/errors"
)

func TestAppointmentHandler_BookAppointment(t *testing.T) {
	t.Run("successfully books appointment", func(t *testing.T) {
		mockService := new(MockAppointmentService)
		handler := handlers.NewAppointmentHandler(mockService)

		body, _ := json.Marshal(map[string]interface{}{
			"name":             "Grace",
			"age":              70,
			"gender":           "female",
			"department":       "Cardiology",
			"appointment_type": "routine",
		})
		req := httptest.NewRequest("POST", "/api/appointments", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		mockService.On("AddAppointment", mock.Anything, mock.MatchedBy(func(r services.NewAppointment) bool {
			return r.Name == "Grace" && r.Age == 70 && r.Category == entities.AppointmentCategoryRoutine
		})).Return(&entities.Appointment{ID: "77", PatientName: "Grace", Priority: 50}, nil)

		handler.BookAppointment(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("returns bad request for invalid payload", func(t *testing.T) {
		mockService := new(MockAppointmentService)
		handler := handlers.NewAppointmentHandler(mockService)

		req := httptest.NewRequest("POST", "/api/appointments", bytes.NewBufferString("invalid-json"))
		w := httptest.NewRecorder()

		handler.BookAppointment(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "AddAppointment", mock.Anything, mock.Anything)
	})

	t.Run("returns internal error on service failure", func(t *testing.T) {
		mockService := new(MockAppointmentService)
		handler := handlers.NewAppointmentHandler(mockService)

		req := httptest.NewRequest("POST", "/api/appointments", bytes.NewBufferString(`{"name":"Grace","department":"ICU"}`))
		w := httptest.NewRecorder()

		mockService.On("AddAppointment", mock.Anything, mock.Anything).Return(nil, errors.New("service error"))

		handler.BookAppointment(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAppointmentHandler_UpdateAppointment(t *testing.T) {
	mockService := new(MockAppointmentService)
	handler := handlers.NewAppointmentHandler(mockService)

	update := entities.AppointmentUpdate{Department: "Neurology", Status: entities.AppointmentStatusWaiting}
	mockService.On("UpdateAppointment", mock.Anything, "12", update, entities.ShiftFirst).
		Return(&services.PatchResult{Patch: services.Patch{ID: "p1", State: services.PatchConfirmed}}, nil)

	body, _ := json.Marshal(update)
	req := httptest.NewRequest("PUT", "/api/appointments/12?shift=first", bytes.NewBuffer(body))
	req.SetPathValue("id", "12")
	w := httptest.NewRecorder()

	handler.UpdateAppointment(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result services.PatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "p1", result.Patch.ID)
	assert.Equal(t, services.PatchConfirmed, result.Patch.State)
}

func TestAppointmentHandler_CompleteAppointment(t *testing.T) {
	t.Run("failed write is still a success with a warning", func(t *testing.T) {
		mockService := new(MockAppointmentService)
		handler := handlers.NewAppointmentHandler(mockService)
		mockService.On("CompleteAppointment", mock.Anything, "5", entities.Shift("")).Return(&services.PatchResult{
			Patch: services.Patch{ID: "p2", State: services.PatchFailed, Error: "timeout"},
			Board: &services.Board{Warnings: []string{"Could not save complete for appointment 5: timeout. Retry or discard the change."}},
		}, nil)

		req := httptest.NewRequest("PUT", "/api/appointments/5/complete", nil)
		req.SetPathValue("id", "5")
		w := httptest.NewRecorder()

		handler.CompleteAppointment(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"state":"failed"`)
		assert.Contains(t, w.Body.String(), "Retry or discard the change.")
	})

	t.Run("unknown appointment", func(t *testing.T) {
		mockService := new(MockAppointmentService)
		handler := handlers.NewAppointmentHandler(mockService)
		mockService.On("CompleteAppointment", mock.Anything, "404", entities.Shift("")).
			Return(nil, apperrors.NewNotFoundError("appointment with id 404 not found"))

		req := httptest.NewRequest("PUT", "/api/appointments/404/complete", nil)
		req.SetPathValue("id", "404")
		w := httptest.NewRecorder()

		handler.CompleteAppointment(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAppointmentHandler_CancelAppointment(t *testing.T) {
	mockService := new(MockAppointmentService)
	handler := handlers.NewAppointmentHandler(mockService)
	mockService.On("CancelAppointment", mock.Anything, "9", entities.ShiftSecond).
		Return(&services.PatchResult{Patch: services.Patch{ID: "p3", Op: services.PatchCancel, State: services.PatchConfirmed}}, nil)

	req := httptest.NewRequest("DELETE", "/api/appointments/9?shift=second", nil)
	req.SetPathValue("id", "9")
	w := httptest.NewRecorder()

	handler.CancelAppointment(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestAppointmentHandler_Patches(t *testing.T) {
	t.Run("retry of a confirmed patch conflicts", func(t *testing.T) {
		mockService := new(MockAppointmentService)
		handler := handlers.NewAppointmentHandler(mockService)
		mockService.On("RetryPatch", mock.Anything, "p1").Return(nil, apperrors.NewConflictError("patch p1 is confirmed"))

		req := httptest.NewRequest("POST", "/api/appointments/patches/p1/retry", nil)
		req.SetPathValue("id", "p1")
		w := httptest.NewRecorder()

		handler.RetryPatch(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("discard", func(t *testing.T) {
		mockService := new(MockAppointmentService)
		handler := handlers.NewAppointmentHandler(mockService)
		mockService.On("DiscardPatch", mock.Anything, "p1").Return(nil)

		req := httptest.NewRequest("DELETE", "/api/appointments/patches/p1", nil)
		req.SetPathValue("id", "p1")
		w := httptest.NewRecorder()

		handler.DiscardPatch(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestAppointmentHandler_RecalculateAll(t *testing.T) {
	t.Run("partial failure still reports progress", func(t *testing.T) {
		mockService := new(MockAppointmentService)
		handler := handlers.NewAppointmentHandler(mockService)
		mockService.On("RecalculateAll", mock.Anything).Return(3, errors.New("doctor d2: timeout"))

		w := httptest.NewRecorder()
		handler.RecalculateAll(w, httptest.NewRequest("POST", "/api/appointments/recalculate-all", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"updated":3,"warning":"some doctors could not be recalculated"}`, w.Body.String())
	})

	t.Run("total failure", func(t *testing.T) {
		mockService := new(MockAppointmentService)
		handler := handlers.NewAppointmentHandler(mockService)
		mockService.On("RecalculateAll", mock.Anything).Return(0, apperrors.NewUnavailableError("failed", errors.New("down")))

		w := httptest.NewRecorder()
		handler.RecalculateAll(w, httptest.NewRequest("POST", "/api/appointments/recalculate-all", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
