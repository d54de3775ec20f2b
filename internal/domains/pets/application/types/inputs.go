package types

import "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"

// PetIdentifier addresses a single pet.
type PetIdentifier struct {
	ID uint64
}

// RegisterPetInput carries the descriptive fields of a new pet.
// A non-blank IdempotencyKey makes repeated registrations by the same caller
// return the first pet instead of allocating a new id.
type RegisterPetInput struct {
	Details        domain.Details
	IdempotencyKey string
}

// UpdatePetInfoInput replaces the descriptive fields of an existing pet.
type UpdatePetInfoInput struct {
	ID      uint64
	Details domain.Details
}

// ReportLostInput marks a pet lost.
type ReportLostInput struct {
	ID           uint64
	LostLocation string
}

// ReportFoundInput files a found report for a lost pet.
type ReportFoundInput struct {
	ID            uint64
	FinderName    string
	FoundLocation string
}
