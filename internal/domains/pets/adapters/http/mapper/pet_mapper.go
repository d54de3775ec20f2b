package mapper

import (
	"strings"
	"time"

	petstypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
)

// PetDetails captures the descriptive fields accepted by register and update flows.
type PetDetails struct {
	Name           string `json:"name"`
	Breed          string `json:"breed"`
	Color          string `json:"color"`
	PhotoReference string `json:"photoReference"`
}

// LostReport is the payload of a lost report.
type LostReport struct {
	LostLocation string `json:"lostLocation"`
}

// FoundReportRequest is the payload of a found report.
type FoundReportRequest struct {
	FinderName    string `json:"finderName"`
	FoundLocation string `json:"foundLocation"`
}

// Pet is the HTTP representation of a registered pet.
type Pet struct {
	ID             uint64     `json:"id"`
	Name           string     `json:"name"`
	Breed          string     `json:"breed"`
	Color          string     `json:"color"`
	PhotoReference string     `json:"photoReference"`
	Owner          string     `json:"owner"`
	Status         string     `json:"status"`
	IsLost         bool       `json:"isLost"`
	LostLocation   *string    `json:"lostLocation,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// FoundReport is the HTTP representation of the latest found report of a pet.
type FoundReport struct {
	PetID         uint64    `json:"petId"`
	FinderName    string    `json:"finderName"`
	FoundLocation string    `json:"foundLocation"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ToDetails maps a transport payload into domain details. Values are passed
// through untouched so validation sees exactly what the client sent.
func ToDetails(input PetDetails) domain.Details {
	return domain.Details{
		Name:           input.Name,
		Breed:          input.Breed,
		Color:          input.Color,
		PhotoReference: input.PhotoReference,
	}
}

// ToRegisterInput builds the registration command from the payload and an optional idempotency key.
func ToRegisterInput(input PetDetails, idempotencyKey string) petstypes.RegisterPetInput {
	return petstypes.RegisterPetInput{
		Details:        ToDetails(input),
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}
}

// FromDomainPet maps a domain aggregate into a transport Pet.
func FromDomainPet(p *domain.Pet) Pet {
	var lostLocation *string
	if p.LostLocation != nil {
		value := *p.LostLocation
		lostLocation = &value
	}
	var updatedAt *time.Time
	if p.UpdatedAt != nil {
		value := *p.UpdatedAt
		updatedAt = &value
	}
	return Pet{
		ID:             p.ID,
		Name:           p.Name,
		Breed:          p.Breed,
		Color:          p.Color,
		PhotoReference: p.PhotoReference,
		Owner:          p.Owner,
		Status:         string(p.State()),
		IsLost:         p.IsLost,
		LostLocation:   lostLocation,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

// FromDomainPetList maps a slice of domain aggregates to transport Pets.
func FromDomainPetList(list []*domain.Pet) []Pet {
	resp := make([]Pet, 0, len(list))
	for _, p := range list {
		resp = append(resp, FromDomainPet(p))
	}
	return resp
}

// FromFoundReport maps a domain found report into its transport form.
func FromFoundReport(r *domain.FoundReport) FoundReport {
	return FoundReport{
		PetID:         r.PetID,
		FinderName:    r.FinderName,
		FoundLocation: r.FoundLocation,
		CreatedAt:     r.CreatedAt,
	}
}
