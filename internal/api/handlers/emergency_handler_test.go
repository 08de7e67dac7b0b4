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
	"github.com/zatekoja/patientflow/internal/domain/impact"
	apperrors "github.com/zatekoja/patientflow/pkg/errors"
)

func TestEmergencyHandler_Triage(t *testing.T) {
	t.Run("returns department and ranked doctors", func(t *testing.T) {
		svc := new(MockEmergencyService)
		handler := handlers.NewEmergencyHandler(svc)

		req := entities.TriageRequest{Name: "Asha", Age: 58, ProblemText: "chest pain"}
		recommended := entities.RankedDoctor{DoctorID: "d2", Name: "Dr. Okafor", Rank: 1}
		svc.On("Triage", mock.Anything, req).Return(&entities.TriageResult{
			Department:        "Cardiology",
			UrgencyLevel:      entities.UrgencyHigh,
			Source:            "rule-based",
			RankedDoctors:     []entities.RankedDoctor{recommended},
			RecommendedDoctor: &recommended,
		}, nil)

		body, _ := json.Marshal(req)
		w := httptest.NewRecorder()
		handler.Triage(w, httptest.NewRequest("POST", "/api/hyper-emergency/triage", bytes.NewBuffer(body)))

		require.Equal(t, http.StatusOK, w.Code)
		var result entities.TriageResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "Cardiology", result.Department)
		require.NotNil(t, result.RecommendedDoctor)
		assert.Equal(t, "d2", result.RecommendedDoctor.DoctorID)
	})

	t.Run("classifier failure is a bad gateway", func(t *testing.T) {
		svc := new(MockEmergencyService)
		handler := handlers.NewEmergencyHandler(svc)
		svc.On("Triage", mock.Anything, mock.Anything).Return(nil, apperrors.NewExternalError("triage classification failed", errors.New("timeout")))

		w := httptest.NewRecorder()
		handler.Triage(w, httptest.NewRequest("POST", "/api/hyper-emergency/triage", bytes.NewBufferString(`{"problem_text":"pain"}`)))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestEmergencyHandler_Confirm(t *testing.T) {
	svc := new(MockEmergencyService)
	handler := handlers.NewEmergencyHandler(svc)

	svc.On("Confirm", mock.Anything, mock.MatchedBy(func(r services.ConfirmRequest) bool {
		return r.DoctorID == "d1" && r.Patient.Name == "Asha Rao" && r.Patient.Age == 58
	})).Return(&entities.EmergencyCase{ID: "e1", DoctorID: "d1", SeverityScore: 10, UrgencyLevel: entities.UrgencyCritical}, nil)

	w := httptest.NewRecorder()
	handler.Confirm(w, httptest.NewRequest("POST", "/api/hyper-emergency/confirm",
		bytes.NewBufferString(`{"patient":{"name":"Asha Rao","age":58,"problem_text":"chest pain"},"doctor_id":"d1"}`)))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"appointment_id":"e1"`)
	svc.AssertExpectations(t)
}

func TestEmergencyHandler_List(t *testing.T) {
	svc := new(MockEmergencyService)
	handler := handlers.NewEmergencyHandler(svc)
	svc.On("List", mock.Anything).Return([]*entities.EmergencyCase{
		{ID: "e1", Status: entities.AppointmentStatusScheduled},
		{ID: "e2", Status: entities.AppointmentStatusCompleted},
	}, nil)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest("GET", "/api/hyper-emergency/list", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, float64(1), body["active"])
}

func TestEmergencyHandler_Complete(t *testing.T) {
	svc := new(MockEmergencyService)
	handler := handlers.NewEmergencyHandler(svc)
	svc.On("Complete", mock.Anything, "7").Return(nil, apperrors.NewValidationError("appointment 7 is not a hyper-emergency"))

	req := httptest.NewRequest("PUT", "/api/hyper-emergency/7/complete", nil)
	req.SetPathValue("id", "7")
	w := httptest.NewRecorder()

	handler.Complete(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmergencyHandler_Impact(t *testing.T) {
	svc := new(MockEmergencyService)
	handler := handlers.NewEmergencyHandler(svc)

	narrative := impact.Narrative{
		Sections: []impact.Section{{Heading: impact.HeadingReasoning, Lines: []string{"line"}}},
		Summary:  impact.Summary{QueueLength: 2, DisruptionMinutes: 30},
	}
	svc.On("Impact", mock.Anything, "e1").Return(&services.ImpactReport{
		Emergency: &entities.EmergencyCase{ID: "e1"},
		Narrative: narrative,
		Text:      narrative.Text(),
	}, nil)

	req := httptest.NewRequest("GET", "/api/hyper-emergency/e1/impact", nil)
	req.SetPathValue("id", "e1")
	w := httptest.NewRecorder()

	handler.Impact(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "sections")
	assert.Contains(t, body, "summary")
	assert.Equal(t, "### "+impact.HeadingReasoning+"\nline", body["text"])
}
