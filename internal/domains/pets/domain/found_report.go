package domain

import (
	"errors"
	"time"
)

var (
	ErrEmptyFinderName    = errors.New("finder name is required")
	ErrEmptyFoundLocation = errors.New("found location is required")
)

// FoundReport records who found a lost pet and where. A pet has at most one;
// a newer report replaces the previous one.
type FoundReport struct {
	PetID         uint64
	FinderName    string
	FoundLocation string
	CreatedAt     time.Time
}

// NewFoundReport validates the finder details.
func NewFoundReport(petID uint64, finderName, foundLocation string, now time.Time) (*FoundReport, error) {
	if blank(finderName) {
		return nil, ErrEmptyFinderName
	}
	if blank(foundLocation) {
		return nil, ErrEmptyFoundLocation
	}
	return &FoundReport{PetID: petID, FinderName: finderName, FoundLocation: foundLocation, CreatedAt: now}, nil
}
