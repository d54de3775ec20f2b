package ports

import (
	"context"

	pettypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
)

// Service defines the pet registry use cases exposed to adapters (inbound/driving port).
type Service interface {
	Register(ctx context.Context, input pettypes.RegisterPetInput) (*domain.Pet, error)
	UpdateInfo(ctx context.Context, input pettypes.UpdatePetInfoInput) (*domain.Pet, error)
	ReportLost(ctx context.Context, input pettypes.ReportLostInput) (*domain.Pet, error)
	ReportFound(ctx context.Context, input pettypes.ReportFoundInput) (*domain.Pet, error)
	Delete(ctx context.Context, input pettypes.PetIdentifier) error
	// Get returns nil when the pet does not exist.
	Get(ctx context.Context, input pettypes.PetIdentifier) (*domain.Pet, error)
	List(ctx context.Context) ([]*domain.Pet, error)
	// FoundReport returns nil when no report exists for the pet.
	FoundReport(ctx context.Context, input pettypes.PetIdentifier) (*domain.FoundReport, error)
	PurgeOrphanedFoundReports(ctx context.Context) (int, error)
}
