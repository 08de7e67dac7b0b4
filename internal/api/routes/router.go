package routes

import (
	"net/http"

	"github.com/zatekoja/patientflow/internal/adapters/loaders"
	"github.com/zatekoja/patientflow/internal/api/handlers"
	"github.com/zatekoja/patientflow/internal/api/middleware"
	"github.com/zatekoja/patientflow/internal/domain/repositories"
	"github.com/zatekoja/patientflow/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	dashboardHandler   *handlers.DashboardHandler
	doctorHandler      *handlers.DoctorHandler
	appointmentHandler *handlers.AppointmentHandler
	emergencyHandler   *handlers.EmergencyHandler
	explanationHandler *handlers.ExplanationHandler
	sseHandler         *handlers.SSEHandler
	healthHandler      *handlers.HealthHandler

	doctorRepo      repositories.DoctorRepository
	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
	allowedOrigins  []string
}

// NewRouter creates a new router
func NewRouter(
	dashboardHandler *handlers.DashboardHandler,
	doctorHandler *handlers.DoctorHandler,
	appointmentHandler *handlers.AppointmentHandler,
	emergencyHandler *handlers.EmergencyHandler,
	explanationHandler *handlers.ExplanationHandler,
	sseHandler *handlers.SSEHandler,
	healthHandler *handlers.HealthHandler,
	doctorRepo repositories.DoctorRepository,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
	allowedOrigins []string,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		dashboardHandler:   dashboardHandler,
		doctorHandler:      doctorHandler,
		appointmentHandler: appointmentHandler,
		emergencyHandler:   emergencyHandler,
		explanationHandler: explanationHandler,
		sseHandler:         sseHandler,
		healthHandler:      healthHandler,
		doctorRepo:         doctorRepo,
		cacheMiddleware:    cacheMiddleware,
		metrics:            metrics,
		allowedOrigins:     allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})
	if r.healthHandler != nil {
		r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)
	}
	r.mux.Handle("GET /metrics", observability.MetricsHandler())

	// Department boards
	r.mux.HandleFunc("GET /api/departments/{name}/board", r.dashboardHandler.GetBoard)
	r.mux.HandleFunc("POST /api/departments/{name}/refresh", r.dashboardHandler.RefreshBoard)
	r.mux.HandleFunc("GET /api/dashboard/stats", r.dashboardHandler.GetStats)

	// Roster
	r.mux.HandleFunc("POST /api/doctors", r.doctorHandler.AddDoctor)
	r.mux.HandleFunc("GET /api/doctors/by-department", r.doctorHandler.ListByDepartment)
	r.mux.HandleFunc("PUT /api/doctors/{id}/status", r.doctorHandler.ToggleStatus)
	r.mux.HandleFunc("GET /api/doctors/{id}/queue", r.doctorHandler.GetQueue)

	// Appointments
	r.mux.HandleFunc("POST /api/appointments", r.appointmentHandler.BookAppointment)
	r.mux.HandleFunc("POST /api/appointments/recalculate-all", r.appointmentHandler.RecalculateAll)
	r.mux.HandleFunc("PUT /api/appointments/{id}", r.appointmentHandler.UpdateAppointment)
	r.mux.HandleFunc("PUT /api/appointments/{id}/complete", r.appointmentHandler.CompleteAppointment)
	r.mux.HandleFunc("DELETE /api/appointments/{id}", r.appointmentHandler.CancelAppointment)
	r.mux.HandleFunc("POST /api/appointments/patches/{id}/retry", r.appointmentHandler.RetryPatch)
	r.mux.HandleFunc("DELETE /api/appointments/patches/{id}", r.appointmentHandler.DiscardPatch)

	// Hyper-emergencies
	r.mux.HandleFunc("POST /api/hyper-emergency/triage", r.emergencyHandler.Triage)
	r.mux.HandleFunc("POST /api/hyper-emergency/confirm", r.emergencyHandler.Confirm)
	r.mux.HandleFunc("GET /api/hyper-emergency/list", r.emergencyHandler.List)
	r.mux.HandleFunc("PUT /api/hyper-emergency/{id}/complete", r.emergencyHandler.Complete)
	r.mux.HandleFunc("GET /api/hyper-emergency/{id}/impact", r.emergencyHandler.Impact)

	r.mux.HandleFunc("POST /api/ai/explain", r.explanationHandler.Explain)

	// Live updates
	r.mux.HandleFunc("GET /api/stream/departments/{name}", r.sseHandler.StreamDepartmentUpdates)
	r.mux.HandleFunc("GET /api/stream/queue", r.sseHandler.StreamAllUpdates)

	// Last wrap is outermost. Nothing between the observability middleware and the mux
	// may copy the request, or the matched pattern is lost to it.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = loaders.Middleware(r.doctorRepo)(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
