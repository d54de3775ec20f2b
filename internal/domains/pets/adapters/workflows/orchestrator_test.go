package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/persistence/kvstore"
	petsapp "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application"
	petstypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/identity"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/kv"
	petactivities "github.com/Apurer/go-gin-pet-finder/internal/platform/temporal/activities/pets"
	petworkflows "github.com/Apurer/go-gin-pet-finder/internal/platform/temporal/workflows/pets"
)

var validInput = petstypes.RegisterPetInput{
	Details:        domain.Details{Name: "Rex", Breed: "Labrador", Color: "Brown", PhotoReference: "uri1"},
	IdempotencyKey: "req-1",
}

func stubRun(pet domain.Pet, err error) *mocks.WorkflowRun {
	run := &mocks.WorkflowRun{}
	run.On("Get", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		if err == nil {
			*args.Get(1).(*domain.Pet) = pet
		}
	}).Return(err)
	return run
}

func TestTemporalPetWorkflows_StartsWorkflowForCaller(t *testing.T) {
	c := &mocks.Client{}
	var started client.StartWorkflowOptions
	var sent petworkflows.PetRegistrationWorkflowInput
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, petworkflows.PetRegistrationWorkflowName, mock.Anything).
		Run(func(args mock.Arguments) {
			started = args.Get(1).(client.StartWorkflowOptions)
			sent = args.Get(3).(petworkflows.PetRegistrationWorkflowInput)
		}).
		Return(stubRun(domain.Pet{ID: 7, Owner: "alice", Name: "Rex"}, nil), nil)

	o := NewTemporalPetWorkflows(c, identity.ContextResolver{})
	pet, err := o.RegisterPet(identity.WithCaller(context.Background(), "alice"), validInput)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), pet.ID)

	assert.Equal(t, petworkflows.PetRegistrationTaskQueue, started.TaskQueue)
	assert.Equal(t, buildPetRegistrationWorkflowID("alice", "req-1", ""), started.ID)
	assert.Equal(t, enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE, started.WorkflowIDReusePolicy)
	assert.Equal(t, "alice", sent.Registration.Caller)
	assert.Equal(t, validInput, sent.Registration.Command)
	c.AssertExpectations(t)
}

func TestTemporalPetWorkflows_ReplaysAlreadyStartedRun(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("started", "req", "run-1"))
	c.On("GetWorkflow", mock.Anything, buildPetRegistrationWorkflowID("alice", "req-1", ""), "run-1").
		Return(stubRun(domain.Pet{ID: 3, Owner: "alice"}, nil))

	o := NewTemporalPetWorkflows(c, identity.ContextResolver{})
	pet, err := o.RegisterPet(identity.WithCaller(context.Background(), "alice"), validInput)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), pet.ID)
	c.AssertExpectations(t)
}

func TestTemporalPetWorkflows_RejectsBeforeStarting(t *testing.T) {
	c := &mocks.Client{}
	o := NewTemporalPetWorkflows(c, identity.ContextResolver{})

	_, err := o.RegisterPet(identity.WithCaller(context.Background(), "alice"), petstypes.RegisterPetInput{})
	require.ErrorIs(t, err, petsapp.ErrInvalidInput)

	_, err = o.RegisterPet(context.Background(), validInput)
	require.ErrorIs(t, err, petsapp.ErrNotAuthorized)

	c.AssertNotCalled(t, "ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTemporalPetWorkflows_TranslatesActivityFailures(t *testing.T) {
	c := &mocks.Client{}
	failure := temporal.NewNonRetryableApplicationError("record too large", petactivities.ErrorTypeInvalidInput, nil)
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(stubRun(domain.Pet{}, failure), nil)

	o := NewTemporalPetWorkflows(c, identity.ContextResolver{})
	_, err := o.RegisterPet(identity.WithCaller(context.Background(), "alice"), validInput)
	require.ErrorIs(t, err, petsapp.ErrInvalidInput)

	plain := errors.New("history service unavailable")
	assert.Same(t, plain, translateWorkflowError(plain))
}

func TestBuildPetRegistrationWorkflowID(t *testing.T) {
	a := buildPetRegistrationWorkflowID("alice", "key", "trace")
	assert.Equal(t, a, buildPetRegistrationWorkflowID("alice", " key ", "other"), "keyed ids ignore trace and spacing")
	assert.NotEqual(t, a, buildPetRegistrationWorkflowID("bob", "key", "trace"), "keys are scoped per caller")
	assert.Contains(t, buildPetRegistrationWorkflowID("alice", "", "trace"), "trace")
}

func TestInlinePetWorkflows_DelegatesToService(t *testing.T) {
	backend, err := kv.NewMemory(kvstore.Segments()...)
	require.NoError(t, err)
	service := petsapp.NewService(kvstore.NewUnitOfWork(backend),
		petsapp.WithIdentityResolver(identity.ContextResolver{}))

	pet, err := NewInlinePetWorkflows(service).RegisterPet(identity.WithCaller(context.Background(), "alice"), validInput)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pet.ID)
	assert.Equal(t, "alice", pet.Owner)

	_, err = (*InlinePetWorkflows)(nil).RegisterPet(context.Background(), validInput)
	require.Error(t, err)
}
