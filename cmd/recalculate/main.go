package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/patientflow/internal/adapters/database"
	"github.com/zatekoja/patientflow/internal/application/services"
	"github.com/zatekoja/patientflow/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/patientflow/internal/infrastructure/observability"
	"github.com/zatekoja/patientflow/pkg/config"
)

// recalculate recomputes and persists waiting times outside the API server,
// for every doctor with an active queue or for a single doctor.
func main() {
	var doctorID string
	flag.StringVar(&doctorID, "doctor", "", "Single doctor ID to recalculate")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("patient-flow-recalculate", cfg.Env, cfg.LogLevel)
	logger := observability.GetLogger()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgClient.Close()

	svc := services.NewWaitTimeService(database.NewAppointmentAdapter(pgClient))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()

	if doctorID != "" {
		slots, err := svc.Recalculate(ctx, doctorID)
		if err != nil {
			logger.Fatal().Err(err).Str("doctor_id", doctorID).Msg("Recalculation failed")
		}
		logger.Info().Str("doctor_id", doctorID).Int("queue", len(slots)).Dur("took", time.Since(start)).Msg("Recalculated waiting times")
		return
	}

	updated, err := svc.RecalculateAll(ctx)
	if err != nil {
		logger.Error().Err(err).Int("updated", updated).Dur("took", time.Since(start)).Msg("Recalculation finished with errors")
		os.Exit(1)
	}
	logger.Info().Int("updated", updated).Dur("took", time.Since(start)).Msg("Recalculated waiting times")
}
