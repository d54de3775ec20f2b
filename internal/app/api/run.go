package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	petfinderserver "github.com/Apurer/go-gin-pet-finder/go"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/persistence/kvstore"
	petsworkflows "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/workflows"
	petsports "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/ports"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/identity"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/kv"
	platformobservability "github.com/Apurer/go-gin-pet-finder/internal/platform/observability"
)

const (
	serviceName     = "petfinder-api"
	metricNamespace = "petfinder"
	shutdownTimeout = 10 * time.Second
)

// Run boots the pet finder HTTP API with observability, storage, events, and workflows wired.
// It returns when ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	backend, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open pet store: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("failed to close pet store", slog.String("error", err.Error()))
		}
	}()

	publisher, closePublisher := NewEventPublisher(cfg, logger)
	defer closePublisher()
	petService := NewPetService(backend, instruments, publisher)

	var petWorkflows petsports.WorkflowOrchestrator = petsworkflows.NewInlinePetWorkflows(petService)
	if temporalClient, err := DialTemporal(cfg, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, running inline registration", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		petWorkflows = petsworkflows.NewTemporalPetWorkflows(temporalClient, identity.ContextResolver{})
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := petfinderserver.ApiHandleFunctions{
		PetAPI: petfinderserver.NewPetAPI(petService, petWorkflows),
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(serviceName),
		petfinderserver.RequestID(),
		petfinderserver.CallerIdentity(),
		petfinderserver.RequestLogger(logger),
	)
	petfinderserver.NewRouterWithGinEngine(router, handlers)
	router.GET("/metrics", gin.WrapH(metricsHandler(backend)))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("pet finder API listening", slog.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("pet finder API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down pet finder API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func metricsHandler(backend kv.Backend) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		kv.NewCollector(metricNamespace, backend, kvstore.Segments()...),
	)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
