package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/patientflow/internal/adapters/cache"
	"github.com/zatekoja/patientflow/internal/adapters/database"
	"github.com/zatekoja/patientflow/internal/adapters/events"
	"github.com/zatekoja/patientflow/internal/adapters/providers/triage"
	"github.com/zatekoja/patientflow/internal/api/handlers"
	"github.com/zatekoja/patientflow/internal/api/middleware"
	"github.com/zatekoja/patientflow/internal/api/routes"
	"github.com/zatekoja/patientflow/internal/application/services"
	"github.com/zatekoja/patientflow/internal/domain/providers"
	"github.com/zatekoja/patientflow/internal/infrastructure/clients/openai"
	"github.com/zatekoja/patientflow/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/patientflow/internal/infrastructure/clients/redis"
	"github.com/zatekoja/patientflow/internal/infrastructure/observability"
	"github.com/zatekoja/patientflow/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env, cfg.LogLevel)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis is optional: boards then lose their cross-restart snapshot and
	// events stay within this instance.
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisDep := handlers.Dependency{Name: "redis"}
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable; running without snapshot cache and with in-process events")
		eventBus = events.NewMemoryEventBus()
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		redisDep.Pinger = redisClient
	}

	var classifier providers.TriageClassifier
	var explainer providers.Explainer
	if cfg.OpenAI.APIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY is not set; triage and explanations use the rule-based fallback")
	} else if client, err := openai.NewClient(&cfg.OpenAI); err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize OpenAI client")
	} else {
		classifier = client
		explainer = client
	}

	appointmentRepo := database.NewAppointmentAdapter(pgClient)
	doctorRepo := database.NewDoctorAdapter(pgClient)

	waitTimeService := services.NewWaitTimeService(appointmentRepo)
	dashboardService := services.NewDashboardService(
		appointmentRepo,
		doctorRepo,
		waitTimeService,
		cacheProvider,
		eventBus,
		metrics,
		cfg.Flow,
	)
	emergencyService := services.NewEmergencyService(
		triage.NewChain(classifier),
		appointmentRepo,
		doctorRepo,
		waitTimeService,
		eventBus,
	)
	explanationService := services.NewExplanationService(triage.NewFallbackExplainer(explainer))

	relay := services.NewQueueEventRelay(cacheProvider, eventBus, dashboardService)
	if err := relay.Start(); err != nil {
		logger.Warn().Err(err).Msg("Queue event relay disabled")
	}
	go dashboardService.Run(ctx)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
	}

	router := routes.NewRouter(
		handlers.NewDashboardHandler(dashboardService),
		handlers.NewDoctorHandler(dashboardService),
		handlers.NewAppointmentHandler(dashboardService),
		handlers.NewEmergencyHandler(emergencyService),
		handlers.NewExplanationHandler(explanationService),
		handlers.NewSSEHandler(eventBus),
		handlers.NewHealthHandler(
			handlers.Dependency{Name: "postgres", Pinger: pgClient, Required: true},
			redisDep,
		),
		doctorRepo,
		cacheMiddleware,
		metrics,
		cfg.Server.AllowedOrigins,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// No write timeout: SSE streams stay open until the client leaves.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Server shutting down...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	relay.Stop()
	if err := eventBus.Close(); err != nil {
		logger.Error().Err(err).Msg("Error closing event bus")
	}
	logger.Info().Msg("Server stopped")
}
