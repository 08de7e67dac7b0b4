package triage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zatekoja/patientflow/internal/domain/providers"
	"github.com/zatekoja/patientflow/internal/infrastructure/observability"
)

// FallbackExplainer serves model explanations and a fixed template when the model is unavailable.
type FallbackExplainer struct {
	primary providers.Explainer
}

// NewFallbackExplainer wraps primary, which may be nil.
func NewFallbackExplainer(primary providers.Explainer) *FallbackExplainer {
	return &FallbackExplainer{primary: primary}
}

// Explain never fails.
func (e *FallbackExplainer) Explain(ctx context.Context, eventType string, details map[string]interface{}) (string, error) {
	if e.primary != nil {
		text, err := e.primary.Explain(ctx, eventType, details)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_type", eventType).Msg("Explanation model failed, using template")
	}
	return templateExplanation(eventType, details), nil
}

func templateExplanation(eventType string, details map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "AI service unavailable. Event: %s.", eventType)

	if len(details) == 0 {
		return b.String()
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString(" Details:")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n- %s: %v", k, details[k])
	}
	return b.String()
}
