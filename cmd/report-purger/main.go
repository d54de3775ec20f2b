package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/go-gin-pet-finder/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-pet-finder/internal/platform/observability"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	backend, err := api.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open pet store: %v", err)
	}
	defer backend.Close()

	petService := api.NewPetService(backend, &platformobservability.Instruments{Logger: logger}, nil)
	purged, err := petService.PurgeOrphanedFoundReports(ctx)
	if err != nil {
		log.Fatalf("failed to purge found reports: %v", err)
	}
	logger.Info("found report purge completed", slog.Int("purged", purged))
}
