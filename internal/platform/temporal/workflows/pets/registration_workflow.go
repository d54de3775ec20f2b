package pets

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	petactivities "github.com/Apurer/go-gin-pet-finder/internal/platform/temporal/activities/pets"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/temporal/sequences"
)

const (
	// PetRegistrationWorkflowName is the public identifier for registering the workflow.
	PetRegistrationWorkflowName = "pets.workflows.Registration"
	// PetRegistrationTaskQueue is the queue consumed by the worker processing pet workflows.
	PetRegistrationTaskQueue = "PET_REGISTRATION"
)

// PetRegistrationWorkflowInput captures the payload required to register a new pet.
type PetRegistrationWorkflowInput struct {
	Registration petactivities.RegisterPetInput
	TraceID      string
}

// PetRegistrationWorkflow orchestrates the activities needed to register a pet.
func PetRegistrationWorkflow(ctx workflow.Context, input PetRegistrationWorkflowInput) (*domain.Pet, error) {
	logger := workflow.GetLogger(ctx)
	owner := input.Registration.Caller
	logger.Info("PetRegistrationWorkflow started", withTraceID(input.TraceID, "owner", owner)...)
	pet, err := sequences.RunPetRegistrationSequence(ctx, input.Registration)
	if err != nil {
		logger.Error("PetRegistrationWorkflow failed", withTraceID(input.TraceID, "owner", owner, "error", err)...)
		return nil, err
	}
	logger.Info("PetRegistrationWorkflow completed", withTraceID(input.TraceID, "petId", pet.ID)...)
	return pet, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
