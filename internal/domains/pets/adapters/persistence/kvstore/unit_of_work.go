package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/ports"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/kv"
)

const (
	SegmentCounter      kv.Segment = "counter"
	SegmentPets         kv.Segment = "pets"
	SegmentFoundReports kv.Segment = "found_reports"

	// SegmentRegistrations maps registration tokens to the pet they created.
	SegmentRegistrations kv.Segment = "registrations"
)

// Segments lists every segment the registry keeps in a backend.
func Segments() []kv.Segment {
	return []kv.Segment{SegmentCounter, SegmentPets, SegmentFoundReports, SegmentRegistrations}
}

var (
	_ ports.UnitOfWork        = (*UnitOfWork)(nil)
	_ ports.PetStore          = petStore{}
	_ ports.FoundReportStore  = foundReportStore{}
	_ ports.IDAllocator       = idAllocator{}
	_ ports.RegistrationStore = registrationStore{}
)

// UnitOfWork exposes the registry stores over a key-value backend.
type UnitOfWork struct {
	backend       kv.Backend
	pets          kv.Map[petRecord]
	reports       kv.Map[foundReportRecord]
	registrations kv.Map[registrationRecord]
	counter       kv.Counter
}

// NewUnitOfWork binds the registry segments of backend.
func NewUnitOfWork(backend kv.Backend) *UnitOfWork {
	return &UnitOfWork{
		backend:       backend,
		pets:          kv.Map[petRecord]{Segment: SegmentPets, Codec: petCodec},
		reports:       kv.Map[foundReportRecord]{Segment: SegmentFoundReports, Codec: foundReportCodec},
		registrations: kv.Map[registrationRecord]{Segment: SegmentRegistrations, Codec: registrationCodec},
		counter:       kv.Counter{Segment: SegmentCounter},
	}
}

// Read runs fn against a consistent snapshot.
func (u *UnitOfWork) Read(ctx context.Context, fn func(ports.Stores) error) error {
	return u.backend.View(ctx, func(tx kv.Tx) error {
		return fn(stores{tx: tx, uow: u})
	})
}

// Write runs fn in a single backend transaction.
func (u *UnitOfWork) Write(ctx context.Context, fn func(ports.Stores) error) error {
	return u.backend.Update(ctx, func(tx kv.Tx) error {
		return fn(stores{tx: tx, uow: u})
	})
}

type stores struct {
	tx  kv.Tx
	uow *UnitOfWork
}

func (s stores) Pets() ports.PetStore {
	return petStore{tx: s.tx, m: s.uow.pets}
}

func (s stores) FoundReports() ports.FoundReportStore {
	return foundReportStore{tx: s.tx, m: s.uow.reports}
}

func (s stores) IDs() ports.IDAllocator {
	return idAllocator{tx: s.tx, counter: s.uow.counter}
}

func (s stores) Registrations() ports.RegistrationStore {
	return registrationStore{tx: s.tx, m: s.uow.registrations}
}

type petStore struct {
	tx kv.Tx
	m  kv.Map[petRecord]
}

func (s petStore) Get(id uint64) (*domain.Pet, error) {
	rec, ok, err := s.m.Get(s.tx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ports.ErrNotFound
	}
	return rec.toDomain(id)
}

func (s petStore) Insert(pet *domain.Pet) (*domain.Pet, error) {
	prev, existed, err := s.m.Insert(s.tx, pet.ID, toPetRecord(pet))
	if err != nil {
		return nil, mapWriteError(err)
	}
	if !existed {
		return nil, nil
	}
	return prev.toDomain(pet.ID)
}

func (s petStore) Remove(id uint64) (*domain.Pet, error) {
	prev, existed, err := s.m.Remove(s.tx, id)
	if err != nil {
		return nil, err
	}
	if !existed {
		return nil, ports.ErrNotFound
	}
	return prev.toDomain(id)
}

func (s petStore) List() ([]*domain.Pet, error) {
	var (
		pets    []*domain.Pet
		convErr error
	)
	err := s.m.Ascend(s.tx, func(key uint64, rec petRecord) bool {
		pet, err := rec.toDomain(key)
		if err != nil {
			convErr = err
			return false
		}
		pets = append(pets, pet)
		return true
	})
	if err != nil {
		return nil, err
	}
	if convErr != nil {
		return nil, convErr
	}
	return pets, nil
}

type foundReportStore struct {
	tx kv.Tx
	m  kv.Map[foundReportRecord]
}

func (s foundReportStore) Get(petID uint64) (*domain.FoundReport, error) {
	rec, ok, err := s.m.Get(s.tx, petID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ports.ErrNotFound
	}
	return rec.toDomain(petID)
}

func (s foundReportStore) Insert(report *domain.FoundReport) (*domain.FoundReport, error) {
	prev, existed, err := s.m.Insert(s.tx, report.PetID, toFoundReportRecord(report))
	if err != nil {
		return nil, mapWriteError(err)
	}
	if !existed {
		return nil, nil
	}
	return prev.toDomain(report.PetID)
}

func (s foundReportStore) Remove(petID uint64) (*domain.FoundReport, error) {
	prev, existed, err := s.m.Remove(s.tx, petID)
	if err != nil {
		return nil, err
	}
	if !existed {
		return nil, ports.ErrNotFound
	}
	return prev.toDomain(petID)
}

func (s foundReportStore) List() ([]*domain.FoundReport, error) {
	var (
		reports []*domain.FoundReport
		convErr error
	)
	err := s.m.Ascend(s.tx, func(key uint64, rec foundReportRecord) bool {
		report, err := rec.toDomain(key)
		if err != nil {
			convErr = err
			return false
		}
		reports = append(reports, report)
		return true
	})
	if err != nil {
		return nil, err
	}
	if convErr != nil {
		return nil, convErr
	}
	return reports, nil
}

type idAllocator struct {
	tx      kv.Tx
	counter kv.Counter
}

func (a idAllocator) Next() (uint64, error) {
	return a.counter.Next(a.tx)
}

type registrationStore struct {
	tx kv.Tx
	m  kv.Map[registrationRecord]
}

// Lookup treats a digest mismatch under the same key as a miss; Record then overwrites it.
func (s registrationStore) Lookup(token string) (uint64, bool, error) {
	key, digest := registrationKey(token)
	rec, ok, err := s.m.Get(s.tx, key)
	if err != nil || !ok || rec.Digest != digest {
		return 0, false, err
	}
	return rec.PetID, true, nil
}

func (s registrationStore) Record(token string, petID uint64) error {
	key, digest := registrationKey(token)
	_, _, err := s.m.Insert(s.tx, key, registrationRecord{Digest: digest, PetID: petID})
	return mapWriteError(err)
}

func mapWriteError(err error) error {
	if errors.Is(err, kv.ErrValueTooLarge) {
		return fmt.Errorf("%w: %w", ports.ErrRecordTooLarge, err)
	}
	return err
}
