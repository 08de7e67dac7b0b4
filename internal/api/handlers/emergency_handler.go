package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/patientflow/internal/application/services"
	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// EmergencyService defines the hyper-emergency operations
type EmergencyService interface {
	Triage(ctx context.Context, req entities.TriageRequest) (*entities.TriageResult, error)
	Confirm(ctx context.Context, req services.ConfirmRequest) (*entities.EmergencyCase, error)
	List(ctx context.Context) ([]*entities.EmergencyCase, error)
	Complete(ctx context.Context, id string) (*entities.EmergencyCase, error)
	Impact(ctx context.Context, id string) (*services.ImpactReport, error)
}

// EmergencyHandler handles hyper-emergency requests
type EmergencyHandler struct {
	service EmergencyService
}

// NewEmergencyHandler creates a new emergency handler
func NewEmergencyHandler(service EmergencyService) *EmergencyHandler {
	return &EmergencyHandler{service: service}
}

// Triage handles POST /api/hyper-emergency/triage
func (h *EmergencyHandler) Triage(w http.ResponseWriter, r *http.Request) {
	var req entities.TriageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.service.Triage(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Confirm handles POST /api/hyper-emergency/confirm
func (h *EmergencyHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req services.ConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	ec, err := h.service.Confirm(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, ec)
}

// List handles GET /api/hyper-emergency/list
func (h *EmergencyHandler) List(w http.ResponseWriter, r *http.Request) {
	cases, err := h.service.List(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	active := 0
	for _, c := range cases {
		if !c.IsResolved() {
			active++
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"emergencies": cases,
		"count":       len(cases),
		"active":      active,
	})
}

// Complete handles PUT /api/hyper-emergency/{id}/complete
func (h *EmergencyHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ec, err := h.service.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ec)
}

// Impact handles GET /api/hyper-emergency/{id}/impact
func (h *EmergencyHandler) Impact(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Impact(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}
