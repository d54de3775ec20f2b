package pets

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	petsapp "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application"
	petstypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	petsports "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/ports"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/identity"
)

const (
	// RegisterPetActivityName stores a new pet on behalf of the workflow's caller.
	RegisterPetActivityName = "pets.activities.RegisterPet"

	// ErrorTypeInvalidInput tags non-retryable failures caused by the request payload.
	ErrorTypeInvalidInput = "InvalidInput"
	// ErrorTypeNotAuthorized tags non-retryable failures caused by a missing or rejected caller.
	ErrorTypeNotAuthorized = "NotAuthorized"
)

// RegisterPetInput is the activity payload. The caller travels explicitly because
// request context values do not cross the workflow boundary.
type RegisterPetInput struct {
	Command petstypes.RegisterPetInput
	Caller  string
}

// Activities groups activities that operate on the pet registry.
type Activities struct {
	service petsports.Service
}

// NewActivities wires the registry service into the Temporal activities bundle.
// The service must resolve callers with identity.ContextResolver.
func NewActivities(service petsports.Service) *Activities {
	return &Activities{service: service}
}

// RegisterPet stores a new pet and returns it. Every attempt registers under
// the workflow id, so a retry after a lost completion returns the stored pet.
func (a *Activities) RegisterPet(ctx context.Context, input RegisterPetInput) (*domain.Pet, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("pet registration activity not initialized")
		return nil, errors.New("pet registration activity not initialized")
	}
	info := activity.GetInfo(ctx)
	command := input.Command
	command.IdempotencyKey = info.WorkflowExecution.ID
	logger.Info("RegisterPet activity started", "owner", input.Caller, "name", command.Details.Name, "attempt", info.Attempt)
	pet, err := a.service.Register(identity.WithCaller(ctx, input.Caller), command)
	if err != nil {
		logger.Error("RegisterPet activity failed", "owner", input.Caller, "error", err)
		return nil, classify(err)
	}
	logger.Info("RegisterPet activity completed", "petId", pet.ID)
	return pet, nil
}

// classify stops retries for failures that another attempt cannot fix.
func classify(err error) error {
	switch {
	case errors.Is(err, petsapp.ErrInvalidInput):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrorTypeInvalidInput, err)
	case errors.Is(err, petsapp.ErrNotAuthorized):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrorTypeNotAuthorized, err)
	default:
		return err
	}
}
