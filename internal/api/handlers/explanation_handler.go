package handlers

import (
	"context"
	"net/http"
)

// ExplanationService defines the generic narrative operation
type ExplanationService interface {
	Explain(ctx context.Context, eventType string, details map[string]interface{}) (string, error)
}

// ExplainRequest is the body of POST /api/ai/explain
type ExplainRequest struct {
	EventType string                 `json:"event_type"`
	Context   map[string]interface{} `json:"context"`
}

// ExplanationHandler handles narrative requests
type ExplanationHandler struct {
	service ExplanationService
}

// NewExplanationHandler creates a new explanation handler
func NewExplanationHandler(service ExplanationService) *ExplanationHandler {
	return &ExplanationHandler{service: service}
}

// Explain handles POST /api/ai/explain
func (h *ExplanationHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var req ExplainRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	text, err := h.service.Explain(r.Context(), req.EventType, req.Context)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"event_type":  req.EventType,
		"explanation": text,
	})
}
