package pets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/persistence/kvstore"
	petsapp "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application"
	petstypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/identity"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/kv"
)

func TestRegisterPet_RepeatedAttemptReturnsStoredPet(t *testing.T) {
	backend, err := kv.NewMemory(kvstore.Segments()...)
	require.NoError(t, err)
	service := petsapp.NewService(kvstore.NewUnitOfWork(backend),
		petsapp.WithIdentityResolver(identity.ContextResolver{}))

	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestActivityEnvironment()
	env.RegisterActivityWithOptions(NewActivities(service).RegisterPet,
		activity.RegisterOptions{Name: RegisterPetActivityName})

	input := RegisterPetInput{
		Command: petstypes.RegisterPetInput{
			Details: domain.Details{
				Name: "Rex", Breed: "Labrador", Color: "Brown", PhotoReference: "uri1",
			},
			IdempotencyKey: "k1",
		},
		Caller: "alice",
	}

	var ids []uint64
	for attempt := 0; attempt < 2; attempt++ {
		result, err := env.ExecuteActivity(RegisterPetActivityName, input)
		require.NoError(t, err)
		var pet domain.Pet
		require.NoError(t, result.Get(&pet))
		ids = append(ids, pet.ID)
	}
	assert.Equal(t, []uint64{1, 1}, ids)

	pets, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, "alice", pets[0].Owner)
}
