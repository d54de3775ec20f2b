package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	pettypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/ports"
)

const tracerName = "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/observability/service"

// Service decorates the pet registry port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// Register stores a new pet for the caller.
func (s *Service) Register(ctx context.Context, input pettypes.RegisterPetInput) (*domain.Pet, error) {
	ctx, span := s.startSpan(ctx, "Service.Register", attribute.String("pet.name", input.Details.Name))
	defer span.End()

	s.logInfo(ctx, "registering pet", slog.String("pet.name", input.Details.Name))
	pet, err := s.inner.Register(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register pet", slog.String("pet.name", input.Details.Name))
	}
	span.SetAttributes(petID(pet.ID))
	s.metrics.recordRegistered(ctx)
	s.logInfo(ctx, "pet registered", slog.Uint64("pet.id", pet.ID), slog.String("owner", pet.Owner))
	return pet, nil
}

// UpdateInfo replaces the descriptive fields of a pet.
func (s *Service) UpdateInfo(ctx context.Context, input pettypes.UpdatePetInfoInput) (*domain.Pet, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateInfo", petID(input.ID))
	defer span.End()

	s.logInfo(ctx, "updating pet", slog.Uint64("pet.id", input.ID))
	pet, err := s.inner.UpdateInfo(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update pet", slog.Uint64("pet.id", input.ID))
	}
	s.metrics.recordUpdated(ctx, pet.State())
	s.logInfo(ctx, "pet updated", slog.Uint64("pet.id", pet.ID), slog.String("state", string(pet.State())))
	return pet, nil
}

// ReportLost marks a pet as lost.
func (s *Service) ReportLost(ctx context.Context, input pettypes.ReportLostInput) (*domain.Pet, error) {
	ctx, span := s.startSpan(ctx, "Service.ReportLost", petID(input.ID))
	defer span.End()

	s.logInfo(ctx, "reporting pet lost", slog.Uint64("pet.id", input.ID))
	pet, err := s.inner.ReportLost(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to report pet lost", slog.Uint64("pet.id", input.ID))
	}
	s.metrics.recordReportedLost(ctx)
	s.logInfo(ctx, "pet reported lost", slog.Uint64("pet.id", pet.ID), slog.String("lost_location", input.LostLocation))
	return pet, nil
}

// ReportFound files a found report for a lost pet.
func (s *Service) ReportFound(ctx context.Context, input pettypes.ReportFoundInput) (*domain.Pet, error) {
	ctx, span := s.startSpan(ctx, "Service.ReportFound", petID(input.ID))
	defer span.End()

	s.logInfo(ctx, "reporting pet found", slog.Uint64("pet.id", input.ID))
	pet, err := s.inner.ReportFound(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to report pet found", slog.Uint64("pet.id", input.ID))
	}
	s.metrics.recordReportedFound(ctx)
	s.logInfo(ctx, "pet reported found", slog.Uint64("pet.id", pet.ID), slog.String("found_location", input.FoundLocation))
	return pet, nil
}

// Delete removes a pet.
func (s *Service) Delete(ctx context.Context, input pettypes.PetIdentifier) error {
	ctx, span := s.startSpan(ctx, "Service.Delete", petID(input.ID))
	defer span.End()

	s.logInfo(ctx, "deleting pet", slog.Uint64("pet.id", input.ID))
	if err := s.inner.Delete(ctx, input); err != nil {
		return s.handleError(ctx, span, err, "failed to delete pet", slog.Uint64("pet.id", input.ID))
	}
	s.metrics.recordDeleted(ctx)
	s.logInfo(ctx, "pet deleted", slog.Uint64("pet.id", input.ID))
	return nil
}

// Get loads a single pet.
func (s *Service) Get(ctx context.Context, input pettypes.PetIdentifier) (*domain.Pet, error) {
	ctx, span := s.startSpan(ctx, "Service.Get", petID(input.ID))
	defer span.End()

	pet, err := s.inner.Get(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load pet", slog.Uint64("pet.id", input.ID))
	}
	span.SetAttributes(attribute.Bool("pet.found", pet != nil))
	return pet, nil
}

// List returns every registered pet.
func (s *Service) List(ctx context.Context) ([]*domain.Pet, error) {
	ctx, span := s.startSpan(ctx, "Service.List")
	defer span.End()

	pets, err := s.inner.List(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list pets")
	}
	span.SetAttributes(attribute.Int("pet.result.count", len(pets)))
	s.logInfo(ctx, "listed pets", slog.Int("count", len(pets)))
	return pets, nil
}

// FoundReport loads the found report of a pet.
func (s *Service) FoundReport(ctx context.Context, input pettypes.PetIdentifier) (*domain.FoundReport, error) {
	ctx, span := s.startSpan(ctx, "Service.FoundReport", petID(input.ID))
	defer span.End()

	report, err := s.inner.FoundReport(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load found report", slog.Uint64("pet.id", input.ID))
	}
	return report, nil
}

// PurgeOrphanedFoundReports drops found reports left behind by deleted pets.
func (s *Service) PurgeOrphanedFoundReports(ctx context.Context) (int, error) {
	ctx, span := s.startSpan(ctx, "Service.PurgeOrphanedFoundReports")
	defer span.End()

	purged, err := s.inner.PurgeOrphanedFoundReports(ctx)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to purge found reports")
	}
	span.SetAttributes(attribute.Int("found_report.purged", purged))
	s.metrics.recordPurged(ctx, purged)
	s.logInfo(ctx, "purged orphaned found reports", slog.Int("count", purged))
	return purged, nil
}

func petID(id uint64) attribute.KeyValue {
	return attribute.Int64("pet.id", int64(id))
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	registered    metric.Int64Counter
	updated       metric.Int64Counter
	reportedLost  metric.Int64Counter
	reportedFound metric.Int64Counter
	deleted       metric.Int64Counter
	purged        metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	registered, _ := m.Int64Counter("pets.registry.registered", metric.WithDescription("Number of pets registered"))
	updated, _ := m.Int64Counter("pets.registry.updated", metric.WithDescription("Number of pet info updates"))
	reportedLost, _ := m.Int64Counter("pets.registry.reported_lost", metric.WithDescription("Number of pets reported lost"))
	reportedFound, _ := m.Int64Counter("pets.registry.reported_found", metric.WithDescription("Number of pets reported found"))
	deleted, _ := m.Int64Counter("pets.registry.deleted", metric.WithDescription("Number of pets deleted"))
	purged, _ := m.Int64Counter("pets.registry.found_reports_purged", metric.WithDescription("Number of orphaned found reports purged"))
	return serviceMetrics{
		registered:    registered,
		updated:       updated,
		reportedLost:  reportedLost,
		reportedFound: reportedFound,
		deleted:       deleted,
		purged:        purged,
	}
}

func (m serviceMetrics) recordRegistered(ctx context.Context) {
	addCounter(ctx, m.registered, 1)
}

func (m serviceMetrics) recordUpdated(ctx context.Context, state domain.State) {
	addCounter(ctx, m.updated, 1, attribute.String("pet.state", string(state)))
}

func (m serviceMetrics) recordReportedLost(ctx context.Context) {
	addCounter(ctx, m.reportedLost, 1)
}

func (m serviceMetrics) recordReportedFound(ctx context.Context) {
	addCounter(ctx, m.reportedFound, 1)
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	addCounter(ctx, m.deleted, 1)
}

func (m serviceMetrics) recordPurged(ctx context.Context, n int) {
	if n == 0 {
		return
	}
	addCounter(ctx, m.purged, int64(n))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
