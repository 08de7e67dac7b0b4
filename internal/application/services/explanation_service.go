package services

import (
	"context"
	"strings"

	"github.com/zatekoja/patientflow/internal/domain/providers"
	apperrors "github.com/zatekoja/patientflow/pkg/errors"
)

// ExplanationService produces narrative text for arbitrary dashboard events
type ExplanationService struct {
	explainer providers.Explainer
}

// NewExplanationService creates a new explanation service
func NewExplanationService(explainer providers.Explainer) *ExplanationService {
	return &ExplanationService{explainer: explainer}
}

// Explain returns a narrative for eventType given its context
func (s *ExplanationService) Explain(ctx context.Context, eventType string, details map[string]interface{}) (string, error) {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return "", apperrors.NewValidationError("event_type is required")
	}
	text, err := s.explainer.Explain(ctx, eventType, details)
	if err != nil {
		return "", apperrors.NewExternalError("explanation failed", err)
	}
	return text, nil
}
