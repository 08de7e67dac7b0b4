package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/patientflow/internal/application/services"
	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/queue"
)

// DoctorService defines the roster operations
type DoctorService interface {
	ToggleDoctor(ctx context.Context, id string) (*services.PatchResult, error)
	AddDoctor(ctx context.Context, doctor *entities.Doctor) (*entities.Doctor, error)
	DoctorsByDepartment(ctx context.Context, shift entities.Shift) (map[string][]entities.Doctor, error)
	DoctorQueue(ctx context.Context, doctorID string) ([]queue.Slot, error)
}

// DoctorHandler handles roster requests
type DoctorHandler struct {
	service DoctorService
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(service DoctorService) *DoctorHandler {
	return &DoctorHandler{service: service}
}

// ToggleStatus handles PUT /api/doctors/{id}/status
func (h *DoctorHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	result, err := h.service.ToggleDoctor(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// AddDoctor handles POST /api/doctors
func (h *DoctorHandler) AddDoctor(w http.ResponseWriter, r *http.Request) {
	var doctor entities.Doctor
	if err := decodeJSON(r, &doctor); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	created, err := h.service.AddDoctor(r.Context(), &doctor)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// ListByDepartment handles GET /api/doctors/by-department
func (h *DoctorHandler) ListByDepartment(w http.ResponseWriter, r *http.Request) {
	shift, err := shiftParam(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	grouped, err := h.service.DoctorsByDepartment(r.Context(), shift)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"departments": grouped,
		"count":       len(grouped),
	})
}

// GetQueue handles GET /api/doctors/{id}/queue
func (h *DoctorHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	slots, err := h.service.DoctorQueue(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"doctor_id": id,
		"queue":     slots,
		"count":     len(slots),
	})
}
