package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
)

var ErrNotFound = errors.New("pet not found")

// PetStore keeps pets keyed by id.
type PetStore interface {
	// Get returns ErrNotFound when no pet has the id.
	Get(id uint64) (*domain.Pet, error)
	// Insert stores the pet under its id and returns the pet it replaced, or nil.
	Insert(pet *domain.Pet) (*domain.Pet, error)
	// Remove deletes the pet and returns it; ErrNotFound when absent.
	Remove(id uint64) (*domain.Pet, error)
	// List returns every pet in ascending id order.
	List() ([]*domain.Pet, error)
}

// FoundReportStore keeps at most one found report per pet id.
type FoundReportStore interface {
	// Get returns ErrNotFound when no report exists for the pet.
	Get(petID uint64) (*domain.FoundReport, error)
	// Insert stores the report and returns the report it replaced, or nil.
	Insert(report *domain.FoundReport) (*domain.FoundReport, error)
	Remove(petID uint64) (*domain.FoundReport, error)
	List() ([]*domain.FoundReport, error)
}

// IDAllocator hands out pet identifiers, strictly increasing from 1.
type IDAllocator interface {
	Next() (uint64, error)
}

// RegistrationStore remembers which pet a registration token produced, so a
// repeated registration can return the pet it already stored.
type RegistrationStore interface {
	// Lookup returns the pet id recorded for token and whether one exists.
	Lookup(token string) (uint64, bool, error)
	Record(token string, petID uint64) error
}

// Stores is the set of stores reachable inside one unit of work.
type Stores interface {
	Pets() PetStore
	FoundReports() FoundReportStore
	IDs() IDAllocator
	Registrations() RegistrationStore
}

// UnitOfWork runs store operations atomically. Writes made through the
// Stores of a Write call are all visible once it returns nil, and none
// of them are visible when it returns an error.
type UnitOfWork interface {
	Read(ctx context.Context, fn func(Stores) error) error
	Write(ctx context.Context, fn func(Stores) error) error
}

// ErrRecordTooLarge is returned by stores when an encoded record exceeds its storage bound.
var ErrRecordTooLarge = errors.New("pet record exceeds storage bound")
