package triage

import (
	"context"
	"strings"

	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/providers"
	"github.com/zatekoja/patientflow/internal/infrastructure/observability"
)

// Chain asks the language model first and falls back to the keyword rules on any failure.
type Chain struct {
	primary  providers.TriageClassifier
	fallback *RuleClassifier
}

// NewChain builds a classifier chain. primary may be nil when no model is configured.
func NewChain(primary providers.TriageClassifier) *Chain {
	return &Chain{primary: primary, fallback: NewRuleClassifier()}
}

// Classify always returns a result with a known department and urgency.
func (c *Chain) Classify(ctx context.Context, req entities.TriageRequest) (*entities.TriageResult, error) {
	logger := observability.LoggerFromContext(ctx)

	if strings.TrimSpace(req.ProblemText) == "" {
		return c.fallbackResult(ctx, "unknown complaint", req.Age), nil
	}

	if c.primary != nil {
		result, err := c.primary.Classify(ctx, req)
		if err == nil && result != nil {
			result.Department = SanitizeDepartment(result.Department)
			result.UrgencyLevel = SanitizeUrgency(string(result.UrgencyLevel))
			if strings.TrimSpace(result.Reasoning) == "" {
				result.Reasoning = "AI triage completed."
			}
			observability.TriageSource.WithLabelValues(result.Source).Inc()
			logger.Info().Str("source", result.Source).Str("department", result.Department).
				Str("urgency", string(result.UrgencyLevel)).Msg("Triage classified")
			return result, nil
		}
		logger.Warn().Err(err).Msg("Triage model failed, switching to rule-based")
	}

	return c.fallbackResult(ctx, req.ProblemText, req.Age), nil
}

func (c *Chain) fallbackResult(ctx context.Context, complaint string, age int) *entities.TriageResult {
	result, _ := c.fallback.Classify(ctx, entities.TriageRequest{ProblemText: complaint, Age: age})
	observability.TriageSource.WithLabelValues(result.Source).Inc()
	observability.LoggerFromContext(ctx).Info().Str("source", result.Source).Str("department", result.Department).
		Str("urgency", string(result.UrgencyLevel)).Msg("Triage classified")
	return result
}
