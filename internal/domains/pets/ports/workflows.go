package ports

import (
	"context"

	pettypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
)

// WorkflowOrchestrator exposes durable workflow operations required by the pet registry.
type WorkflowOrchestrator interface {
	RegisterPet(ctx context.Context, input pettypes.RegisterPetInput) (*domain.Pet, error)
}
