package handlers_test

import (
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

func TestDashboardHandler_GetBoard(t *testing.T) {
	t.Run("returns the board for the requested shift", func(t *testing.T) {
		svc := new(MockDashboardService)
		handler := handlers.NewDashboardHandler(svc)

		key := services.BoardKey{Department: "Cardiology", Shift: entities.ShiftSecond}
		svc.On("Board", mock.Anything, key).Return(&services.Board{
			Department:    "Cardiology",
			Shift:         entities.ShiftSecond,
			CriticalCount: 2,
			Stale:         true,
			LoadError:     "Cannot load the latest queue. Showing the last known state.",
		}, nil)

		req := httptest.NewRequest("GET", "/api/departments/Cardiology/board?shift=second", nil)
		req.SetPathValue("name", "Cardiology")
		w := httptest.NewRecorder()

		handler.GetBoard(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Cardiology", body["department"])
		assert.Equal(t, float64(2), body["critical_count"])
		assert.Equal(t, true, body["stale"])
		svc.AssertExpectations(t)
	})

	t.Run("rejects an unknown shift", func(t *testing.T) {
		svc := new(MockDashboardService)
		handler := handlers.NewDashboardHandler(svc)

		req := httptest.NewRequest("GET", "/api/departments/Cardiology/board?shift=night", nil)
		req.SetPathValue("name", "Cardiology")
		w := httptest.NewRecorder()

		handler.GetBoard(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Board", mock.Anything, mock.Anything)
	})

	t.Run("maps validation errors", func(t *testing.T) {
		svc := new(MockDashboardService)
		handler := handlers.NewDashboardHandler(svc)
		svc.On("Board", mock.Anything, mock.Anything).Return(nil, apperrors.NewValidationError("department is required"))

		req := httptest.NewRequest("GET", "/api/departments//board", nil)
		w := httptest.NewRecorder()

		handler.GetBoard(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"department is required"}`, w.Body.String())
	})
}

func TestDashboardHandler_RefreshBoard(t *testing.T) {
	svc := new(MockDashboardService)
	handler := handlers.NewDashboardHandler(svc)
	svc.On("Refresh", mock.Anything, services.BoardKey{Department: "ICU"}).Return(&services.Board{Department: "ICU"}, nil)

	req := httptest.NewRequest("POST", "/api/departments/ICU/refresh", nil)
	req.SetPathValue("name", "ICU")
	w := httptest.NewRecorder()

	handler.RefreshBoard(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetStats(t *testing.T) {
	t.Run("returns statistics", func(t *testing.T) {
		svc := new(MockDashboardService)
		handler := handlers.NewDashboardHandler(svc)
		svc.On("Stats", mock.Anything).Return(&entities.FlowStats{
			TotalAppointments: 42,
			EmergencyCases:    3,
			ActiveDoctors:     7,
			AvgWaitTime:       120,
			Departments:       map[string]entities.DepartmentLoad{"ICU": {Queue: 4, WaitTime: 35}},
		}, nil)

		w := httptest.NewRecorder()
		handler.GetStats(w, httptest.NewRequest("GET", "/api/dashboard/stats", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t,
			`{"total_appointments":42,"emergency_cases":3,"active_doctors":7,"avg_wait_time":120,"dept_stats":{"ICU":{"queue":4,"wait_time":35}}}`,
			w.Body.String())
	})

	t.Run("store unavailable", func(t *testing.T) {
		svc := new(MockDashboardService)
		handler := handlers.NewDashboardHandler(svc)
		svc.On("Stats", mock.Anything).Return(nil, apperrors.NewUnavailableError("failed to load statistics", errors.New("dial tcp")))

		w := httptest.NewRecorder()
		handler.GetStats(w, httptest.NewRequest("GET", "/api/dashboard/stats", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		svc := new(MockDashboardService)
		handler := handlers.NewDashboardHandler(svc)
		svc.On("Stats", mock.Anything).Return(nil, apperrors.NewInternalError("failed to scan stats", errors.New("pq: column missing")))

		w := httptest.NewRecorder()
		handler.GetStats(w, httptest.NewRequest("GET", "/api/dashboard/stats", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	})
}
