package providers

import (
	"context"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// TriageClassifier maps a free-text complaint to a department and urgency.
// Ranked doctors are filled in by the caller, not the classifier.
type TriageClassifier interface {
	Classify(ctx context.Context, req entities.TriageRequest) (*entities.TriageResult, error)
}

// Explainer produces narrative text for an arbitrary event
type Explainer interface {
	Explain(ctx context.Context, eventType string, details map[string]interface{}) (string, error)
}
