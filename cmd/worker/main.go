package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-pet-finder/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-pet-finder/internal/platform/observability"
	petactivities "github.com/Apurer/go-gin-pet-finder/internal/platform/temporal/activities/pets"
	petworkflows "github.com/Apurer/go-gin-pet-finder/internal/platform/temporal/workflows/pets"
)

func main() {
	ctx := context.Background()
	const serviceName = "petfinder-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	backend, err := api.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open pet store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer backend.Close()

	publisher, closePublisher := api.NewEventPublisher(cfg, logger)
	defer closePublisher()
	petService := api.NewPetService(backend, instruments, publisher)
	petActivities := petactivities.NewActivities(petService)

	temporalClient, err := api.DialTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, petworkflows.PetRegistrationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(petworkflows.PetRegistrationWorkflow, workflow.RegisterOptions{Name: petworkflows.PetRegistrationWorkflowName})
	w.RegisterActivityWithOptions(petActivities.RegisterPet, activity.RegisterOptions{Name: petactivities.RegisterPetActivityName})

	logger.Info("worker listening", slog.String("taskQueue", petworkflows.PetRegistrationTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
