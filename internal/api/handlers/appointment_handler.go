package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/patientflow/internal/application/services"
	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// AppointmentService defines the queue entry operations
type AppointmentService interface {
	AddAppointment(ctx context.Context, req services.NewAppointment) (*entities.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, update entities.AppointmentUpdate, shift entities.Shift) (*services.PatchResult, error)
	CompleteAppointment(ctx context.Context, id string, shift entities.Shift) (*services.PatchResult, error)
	CancelAppointment(ctx context.Context, id string, shift entities.Shift) (*services.PatchResult, error)
	RetryPatch(ctx context.Context, patchID string) (*services.PatchResult, error)
	DiscardPatch(ctx context.Context, patchID string) error
	RecalculateAll(ctx context.Context) (int, error)
}

// AppointmentHandler handles appointment requests
type AppointmentHandler struct {
	service AppointmentService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(service AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
	}
}

// BookAppointment handles POST /api/appointments
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req services.NewAppointment
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	appointment, err := h.service.AddAppointment(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, appointment)
}

// UpdateAppointment handles PUT /api/appointments/{id}
func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	shift, err := shiftParam(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var update entities.AppointmentUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.service.UpdateAppointment(r.Context(), r.PathValue("id"), update, shift)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// CompleteAppointment handles PUT /api/appointments/{id}/complete
func (h *AppointmentHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	shift, err := shiftParam(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.service.CompleteAppointment(r.Context(), r.PathValue("id"), shift)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// CancelAppointment handles DELETE /api/appointments/{id}
func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	shift, err := shiftParam(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.service.CancelAppointment(r.Context(), r.PathValue("id"), shift)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// RetryPatch handles POST /api/appointments/patches/{id}/retry
func (h *AppointmentHandler) RetryPatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RetryPatch(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// DiscardPatch handles DELETE /api/appointments/patches/{id}
func (h *AppointmentHandler) DiscardPatch(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DiscardPatch(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecalculateAll handles POST /api/appointments/recalculate-all
func (h *AppointmentHandler) RecalculateAll(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.RecalculateAll(r.Context())
	if err != nil && updated == 0 {
		respondWithAppError(w, r, err)
		return
	}

	body := map[string]interface{}{"updated": updated}
	if err != nil {
		body["warning"] = "some doctors could not be recalculated"
	}
	respondWithJSON(w, http.StatusOK, body)
}
