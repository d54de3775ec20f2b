package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	petactivities "github.com/Apurer/go-gin-pet-finder/internal/platform/temporal/activities/pets"
)

// RunPetRegistrationSequence executes the ordered set of activities needed to register a pet.
func RunPetRegistrationSequence(ctx workflow.Context, input petactivities.RegisterPetInput) (*domain.Pet, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("pet registration sequence started", "owner", input.Caller)
	registerOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
			NonRetryableErrorTypes: []string{
				petactivities.ErrorTypeInvalidInput,
				petactivities.ErrorTypeNotAuthorized,
			},
		},
	}

	var pet domain.Pet
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, registerOptions), petactivities.RegisterPetActivityName, input).Get(ctx, &pet)
	if err != nil {
		logger.Error("pet registration sequence failed", "owner", input.Caller, "error", err)
		return nil, err
	}
	logger.Info("pet registration sequence stored pet", "petId", pet.ID)
	return &pet, nil
}
