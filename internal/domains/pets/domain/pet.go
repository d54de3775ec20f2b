package domain

import (
	"errors"
	"strings"
	"time"
)

// State is the position of a pet on the lost/found axis.
type State string

const (
	StateAvailable State = "available"
	StateLost      State = "lost"
)

var (
	ErrEmptyName           = errors.New("pet name is required")
	ErrEmptyBreed          = errors.New("pet breed is required")
	ErrEmptyColor          = errors.New("pet color is required")
	ErrEmptyPhotoReference = errors.New("pet photo reference is required")
	ErrEmptyOwner          = errors.New("pet owner is required")
	ErrEmptyLostLocation   = errors.New("lost location is required")
	ErrNotLost             = errors.New("pet is not reported as lost")
	ErrInconsistentState   = errors.New("lost location must be present exactly when the pet is lost")
)

// Details are the owner-editable descriptive fields of a pet.
type Details struct {
	Name           string
	Breed          string
	Color          string
	PhotoReference string
}

// Validate ensures every descriptive field carries a value.
func (d Details) Validate() error {
	switch {
	case blank(d.Name):
		return ErrEmptyName
	case blank(d.Breed):
		return ErrEmptyBreed
	case blank(d.Color):
		return ErrEmptyColor
	case blank(d.PhotoReference):
		return ErrEmptyPhotoReference
	}
	return nil
}

// Pet is the registry aggregate. LostLocation is set exactly when IsLost is true.
type Pet struct {
	ID             uint64
	Name           string
	Breed          string
	Color          string
	PhotoReference string
	Owner          string
	IsLost         bool
	LostLocation   *string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// NewPet validates the invariants and builds a freshly registered, available pet.
func NewPet(id uint64, owner string, details Details, now time.Time) (*Pet, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}
	if blank(owner) {
		return nil, ErrEmptyOwner
	}
	p := &Pet{ID: id, Owner: owner, CreatedAt: now}
	p.applyDetails(details)
	return p, nil
}

// Details returns the current descriptive fields.
func (p *Pet) Details() Details {
	return Details{Name: p.Name, Breed: p.Breed, Color: p.Color, PhotoReference: p.PhotoReference}
}

// State derives the lost/found state.
func (p *Pet) State() State {
	if p.IsLost {
		return StateLost
	}
	return StateAvailable
}

// IsOwnedBy reports whether caller registered the pet.
func (p *Pet) IsOwnedBy(caller string) bool {
	return p.Owner == caller
}

// UpdateInfo replaces the descriptive fields. Lost state, owner and creation time are untouched.
func (p *Pet) UpdateInfo(details Details, now time.Time) error {
	if err := details.Validate(); err != nil {
		return err
	}
	p.applyDetails(details)
	p.touch(now)
	return nil
}

// ReportLost marks the pet lost at location. Reporting an already lost pet refreshes the location.
func (p *Pet) ReportLost(location string, now time.Time) error {
	if blank(location) {
		return ErrEmptyLostLocation
	}
	p.IsLost = true
	p.LostLocation = &location
	p.touch(now)
	return nil
}

// ReportFound returns a lost pet to the available state.
func (p *Pet) ReportFound(now time.Time) error {
	if !p.IsLost {
		return ErrNotLost
	}
	p.IsLost = false
	p.LostLocation = nil
	p.touch(now)
	return nil
}

// CheckInvariants verifies the lost flag and location agree.
func (p *Pet) CheckInvariants() error {
	if p.IsLost != (p.LostLocation != nil) {
		return ErrInconsistentState
	}
	return nil
}

// Clone returns a deep copy.
func (p *Pet) Clone() *Pet {
	if p == nil {
		return nil
	}
	c := *p
	if p.LostLocation != nil {
		loc := *p.LostLocation
		c.LostLocation = &loc
	}
	if p.UpdatedAt != nil {
		ts := *p.UpdatedAt
		c.UpdatedAt = &ts
	}
	return &c
}

func (p *Pet) applyDetails(d Details) {
	p.Name = d.Name
	p.Breed = d.Breed
	p.Color = d.Color
	p.PhotoReference = d.PhotoReference
}

func (p *Pet) touch(now time.Time) {
	p.UpdatedAt = &now
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
