package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	pettypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/ports"
)

var errNoIdentityResolver = errors.New("no caller identity resolver configured")

// Service orchestrates the pet registry use cases.
type Service struct {
	uow      ports.UnitOfWork
	identity ports.IdentityResolver
	events   ports.EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithIdentityResolver sets how the caller of an operation is named.
func WithIdentityResolver(resolver ports.IdentityResolver) Option {
	return func(s *Service) {
		s.identity = resolver
	}
}

// WithEventPublisher enables publishing domain events after each committed mutation.
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) {
		s.events = publisher
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger injects the logger used to report event delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the registry service with its dependencies.
func NewService(uow ports.UnitOfWork, opts ...Option) *Service {
	s := &Service{
		uow:    uow,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ValidateRegistration checks a registration request without touching storage.
func ValidateRegistration(input pettypes.RegisterPetInput) error {
	return mapError(input.Details.Validate())
}

// Register allocates an id and stores a new pet owned by the caller. A repeated
// call with the same non-blank IdempotencyKey returns the pet the first call stored.
func (s *Service) Register(ctx context.Context, input pettypes.RegisterPetInput) (*domain.Pet, error) {
	if err := ValidateRegistration(input); err != nil {
		return nil, err
	}
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	token := registrationToken(caller, input.IdempotencyKey)
	var (
		pet      *domain.Pet
		replayed bool
	)
	err = s.uow.Write(ctx, func(st ports.Stores) error {
		if token != "" {
			existing, err := priorRegistration(st, token, caller)
			if err != nil {
				return err
			}
			if existing != nil {
				pet, replayed = existing, true
				return nil
			}
		}
		id, err := st.IDs().Next()
		if err != nil {
			return err
		}
		created, err := domain.NewPet(id, caller, input.Details, s.now())
		if err != nil {
			return err
		}
		if _, err := st.Pets().Insert(created); err != nil {
			return err
		}
		if token != "" {
			if err := st.Registrations().Record(token, created.ID); err != nil {
				return err
			}
		}
		pet = created
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	if replayed {
		return pet, nil
	}
	s.publish(ctx, domain.PetRegistered{
		BaseEvent: domain.BaseEvent{PetID: pet.ID, Timestamp: pet.CreatedAt},
		Owner:     pet.Owner,
		Name:      pet.Name,
		Breed:     pet.Breed,
	})
	return pet, nil
}

// UpdateInfo replaces the descriptive fields of a pet owned by the caller.
func (s *Service) UpdateInfo(ctx context.Context, input pettypes.UpdatePetInfoInput) (*domain.Pet, error) {
	caller, callerErr := s.caller(ctx)
	var pet *domain.Pet
	err := s.uow.Write(ctx, func(st ports.Stores) error {
		existing, err := st.Pets().Get(input.ID)
		if err != nil {
			return err
		}
		if err := input.Details.Validate(); err != nil {
			return err
		}
		if err := authorize(existing, caller, callerErr); err != nil {
			return err
		}
		if err := existing.UpdateInfo(input.Details, s.now()); err != nil {
			return err
		}
		if _, err := st.Pets().Insert(existing); err != nil {
			return err
		}
		pet = existing
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, domain.PetUpdated{
		BaseEvent: domain.BaseEvent{PetID: pet.ID, Timestamp: *pet.UpdatedAt},
		Name:      pet.Name,
	})
	return pet, nil
}

// ReportLost marks a pet owned by the caller as lost.
func (s *Service) ReportLost(ctx context.Context, input pettypes.ReportLostInput) (*domain.Pet, error) {
	caller, callerErr := s.caller(ctx)
	var pet *domain.Pet
	err := s.uow.Write(ctx, func(st ports.Stores) error {
		existing, err := st.Pets().Get(input.ID)
		if err != nil {
			return err
		}
		candidate := existing.Clone()
		if err := candidate.ReportLost(input.LostLocation, s.now()); err != nil {
			return err
		}
		if err := authorize(existing, caller, callerErr); err != nil {
			return err
		}
		if _, err := st.Pets().Insert(candidate); err != nil {
			return err
		}
		pet = candidate
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, domain.PetReportedLost{
		BaseEvent:    domain.BaseEvent{PetID: pet.ID, Timestamp: *pet.UpdatedAt},
		LostLocation: *pet.LostLocation,
	})
	return pet, nil
}

// ReportFound files a found report for a lost pet and marks it available again.
// Any caller may report a pet found.
func (s *Service) ReportFound(ctx context.Context, input pettypes.ReportFoundInput) (*domain.Pet, error) {
	var (
		pet    *domain.Pet
		report *domain.FoundReport
	)
	err := s.uow.Write(ctx, func(st ports.Stores) error {
		existing, err := st.Pets().Get(input.ID)
		if err != nil {
			return err
		}
		now := s.now()
		filed, err := domain.NewFoundReport(existing.ID, input.FinderName, input.FoundLocation, now)
		if err != nil {
			return err
		}
		if err := existing.ReportFound(now); err != nil {
			return err
		}
		// The report is written before the pet so an interrupted write leaves only a harmless orphan.
		if _, err := st.FoundReports().Insert(filed); err != nil {
			return err
		}
		if _, err := st.Pets().Insert(existing); err != nil {
			return err
		}
		pet, report = existing, filed
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, domain.PetReportedFound{
		BaseEvent:     domain.BaseEvent{PetID: pet.ID, Timestamp: report.CreatedAt},
		FinderName:    report.FinderName,
		FoundLocation: report.FoundLocation,
	})
	return pet, nil
}

// Delete removes a pet owned by the caller. Its found report, if any, is kept.
func (s *Service) Delete(ctx context.Context, input pettypes.PetIdentifier) error {
	caller, callerErr := s.caller(ctx)
	var removed *domain.Pet
	err := s.uow.Write(ctx, func(st ports.Stores) error {
		existing, err := st.Pets().Get(input.ID)
		if err != nil {
			return err
		}
		if err := authorize(existing, caller, callerErr); err != nil {
			return err
		}
		removed, err = st.Pets().Remove(input.ID)
		return err
	})
	if err != nil {
		return mapError(err)
	}
	s.publish(ctx, domain.PetDeleted{
		BaseEvent: domain.BaseEvent{PetID: removed.ID, Timestamp: s.now()},
		Name:      removed.Name,
	})
	return nil
}

// Get loads a single pet, or nil when it does not exist.
func (s *Service) Get(ctx context.Context, input pettypes.PetIdentifier) (*domain.Pet, error) {
	var pet *domain.Pet
	err := s.uow.Read(ctx, func(st ports.Stores) error {
		found, err := st.Pets().Get(input.ID)
		if errors.Is(err, ports.ErrNotFound) {
			return nil
		}
		pet = found
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return pet, nil
}

// List returns every pet in id order.
func (s *Service) List(ctx context.Context) ([]*domain.Pet, error) {
	var pets []*domain.Pet
	err := s.uow.Read(ctx, func(st ports.Stores) error {
		var err error
		pets, err = st.Pets().List()
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return pets, nil
}

// FoundReport loads the latest found report of a pet, or nil when none was filed.
func (s *Service) FoundReport(ctx context.Context, input pettypes.PetIdentifier) (*domain.FoundReport, error) {
	var report *domain.FoundReport
	err := s.uow.Read(ctx, func(st ports.Stores) error {
		found, err := st.FoundReports().Get(input.ID)
		if errors.Is(err, ports.ErrNotFound) {
			return nil
		}
		report = found
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return report, nil
}

// PurgeOrphanedFoundReports removes found reports whose pet no longer exists.
func (s *Service) PurgeOrphanedFoundReports(ctx context.Context) (int, error) {
	purged := 0
	err := s.uow.Write(ctx, func(st ports.Stores) error {
		reports, err := st.FoundReports().List()
		if err != nil {
			return err
		}
		for _, report := range reports {
			_, err := st.Pets().Get(report.PetID)
			if err == nil {
				continue
			}
			if !errors.Is(err, ports.ErrNotFound) {
				return err
			}
			if _, err := st.FoundReports().Remove(report.PetID); err != nil {
				return err
			}
			purged++
		}
		return nil
	})
	if err != nil {
		return 0, mapError(err)
	}
	return purged, nil
}

func (s *Service) caller(ctx context.Context) (string, error) {
	if s.identity == nil {
		return "", fmt.Errorf("%w: %w", ErrNotAuthorized, errNoIdentityResolver)
	}
	caller, err := s.identity.CallerIdentity(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotAuthorized, err)
	}
	return caller, nil
}

// registrationToken scopes an idempotency key to its caller. Blank keys yield no token.
func registrationToken(caller, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return caller + "\x00" + key
}

// priorRegistration returns the pet a token already produced, or nil when the
// token is new or its pet has since been deleted or handed to another owner.
func priorRegistration(st ports.Stores, token, caller string) (*domain.Pet, error) {
	id, ok, err := st.Registrations().Lookup(token)
	if err != nil || !ok {
		return nil, err
	}
	pet, err := st.Pets().Get(id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !pet.IsOwnedBy(caller) {
		return nil, nil
	}
	return pet, nil
}

func authorize(pet *domain.Pet, caller string, callerErr error) error {
	if callerErr != nil {
		return callerErr
	}
	if !pet.IsOwnedBy(caller) {
		return fmt.Errorf("%w: caller does not own pet %d", ErrNotAuthorized, pet.ID)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, events ...domain.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		for _, evt := range events {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish pet event",
				slog.String("event", evt.EventName()),
				slog.Uint64("pet.id", evt.AggregateID()),
				slog.String("error", err.Error()),
			)
		}
	}
}

var _ ports.Service = (*Service)(nil)
