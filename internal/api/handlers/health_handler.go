package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/patientflow/internal/infrastructure/observability"
)

const readinessTimeout = 2 * time.Second

// Pinger is anything whose connectivity can be probed
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is a probed backing store. A required dependency that is down makes
// the instance unready; an optional one only degrades it.
type Dependency struct {
	Name     string
	Pinger   Pinger
	Required bool
}

// HealthHandler reports whether the backing stores are reachable
type HealthHandler struct {
	deps []Dependency
}

// NewHealthHandler creates a readiness handler over deps, probed in order
func NewHealthHandler(deps ...Dependency) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]string, len(h.deps))

	for _, dep := range h.deps {
		if dep.Pinger == nil {
			checks[dep.Name] = "disabled"
			continue
		}
		if err := dep.Pinger.Ping(ctx); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("dependency", dep.Name).Msg("Readiness probe failed")
			checks[dep.Name] = "unreachable"
			if dep.Required {
				status = "unavailable"
				code = http.StatusServiceUnavailable
			} else if code == http.StatusOK {
				status = "degraded"
			}
			continue
		}
		checks[dep.Name] = "ok"
	}

	respondWithJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
