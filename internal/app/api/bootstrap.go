package api

import (
	"errors"
	"log/slog"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	petkafka "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/events/kafka"
	petsobs "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/observability"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/persistence/kvstore"
	petsapp "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application"
	petsports "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/ports"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/identity"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/kv"
	platformobservability "github.com/Apurer/go-gin-pet-finder/internal/platform/observability"
)

const serviceInstrumentationName = "internal.pets.application"

var errTemporalDisabled = errors.New("temporal disabled via TEMPORAL_DISABLED env")

// NewPetService builds the registry service over backend, decorated with
// tracing, metrics, and structured logging. publisher may be nil.
func NewPetService(backend kv.Backend, instruments *platformobservability.Instruments, publisher petsports.EventPublisher) petsports.Service {
	logger := instruments.Logger
	opts := []petsapp.Option{
		petsapp.WithIdentityResolver(identity.ContextResolver{}),
		petsapp.WithLogger(logger),
	}
	if publisher != nil {
		opts = append(opts, petsapp.WithEventPublisher(publisher))
	}
	core := petsapp.NewService(kvstore.NewUnitOfWork(backend), opts...)
	return petsobs.New(
		core,
		petsobs.WithLogger(logger),
		petsobs.WithTracer(instruments.Tracer(serviceInstrumentationName)),
		petsobs.WithMeter(instruments.Meter(serviceInstrumentationName)),
	)
}

// NewEventPublisher returns the Kafka publisher when brokers are configured.
// Without brokers, or when the writer cannot be built, events are dropped and
// the returned publisher is nil.
func NewEventPublisher(cfg Config, logger *slog.Logger) (petsports.EventPublisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, pet events will not be published")
		return nil, func() {}
	}
	publisher, err := petkafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		logger.Warn("kafka publisher unavailable, pet events will not be published", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("pet events published to kafka", slog.String("topic", cfg.KafkaTopic))
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close kafka publisher", slog.String("error", err.Error()))
		}
	}
}

// DialTemporal connects a Temporal client with OpenTelemetry tracing and the
// process logger. role names the tracer, e.g. "temporal-client".
func DialTemporal(cfg Config, instruments *platformobservability.Instruments, role string) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errTemporalDisabled
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(role),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}
