package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/patientflow/internal/application/services"
	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// DashboardService defines the board and statistics operations the dashboard needs
type DashboardService interface {
	Board(ctx context.Context, key services.BoardKey) (*services.Board, error)
	Refresh(ctx context.Context, key services.BoardKey) (*services.Board, error)
	Stats(ctx context.Context) (*entities.FlowStats, error)
}

// DashboardHandler serves department boards
type DashboardHandler struct {
	service DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func boardKey(r *http.Request) (services.BoardKey, error) {
	shift, err := shiftParam(r)
	if err != nil {
		return services.BoardKey{}, err
	}
	return services.BoardKey{Department: r.PathValue("name"), Shift: shift}, nil
}

// GetBoard handles GET /api/departments/{name}/board
func (h *DashboardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	key, err := boardKey(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	board, err := h.service.Board(r.Context(), key)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, board)
}

// RefreshBoard handles POST /api/departments/{name}/refresh
func (h *DashboardHandler) RefreshBoard(w http.ResponseWriter, r *http.Request) {
	key, err := boardKey(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	board, err := h.service.Refresh(r.Context(), key)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, board)
}

// GetStats handles GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
