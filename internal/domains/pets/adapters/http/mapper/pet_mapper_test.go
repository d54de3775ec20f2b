package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
)

func TestFromDomainPet_CopiesOptionalFields(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	pet, err := domain.NewPet(1, "alice", domain.Details{Name: "Rex", Breed: "Labrador", Color: "Brown", PhotoReference: "uri1"}, created)
	require.NoError(t, err)

	available := FromDomainPet(pet)
	assert.Equal(t, "available", available.Status)
	assert.Nil(t, available.LostLocation)
	assert.Nil(t, available.UpdatedAt)

	raw, err := json.Marshal(available)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "lostLocation")

	require.NoError(t, pet.ReportLost("Central Park", created.Add(time.Hour)))
	lost := FromDomainPet(pet)
	assert.Equal(t, "lost", lost.Status)
	require.NotNil(t, lost.LostLocation)
	assert.Equal(t, "Central Park", *lost.LostLocation)
	require.NotNil(t, lost.UpdatedAt)

	*lost.LostLocation = "changed"
	assert.Equal(t, "Central Park", *pet.LostLocation, "transport copies never alias the aggregate")
}

func TestToRegisterInput_TrimsKeyOnly(t *testing.T) {
	input := ToRegisterInput(PetDetails{Name: " Rex ", Breed: "b", Color: "c", PhotoReference: "p"}, "  key-1 ")
	assert.Equal(t, "key-1", input.IdempotencyKey)
	assert.Equal(t, " Rex ", input.Details.Name)
}
