//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	pacttest "github.com/Apurer/go-gin-pet-finder/test/pact"

	petfinderserver "github.com/Apurer/go-gin-pet-finder/go"
	petsobs "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/observability"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/persistence/kvstore"
	petsworkflows "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/workflows"
	petsapp "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application"
	petstypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	petdomain "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	petsports "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/ports"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/identity"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/kv"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"
)

func TestPetFinderProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StatePetsBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
		pacttest.StatePetExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedPet(t, false)
			}
			return nil, nil
		},
		pacttest.StatePetLost: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedPet(t, true)
			}
			return nil, nil
		},
		pacttest.StatePetMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset(t)
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp serves a fresh in-memory registry per provider state,
// since the identifier counter cannot be rewound.
type contractProviderApp struct {
	mu      sync.RWMutex
	service petsports.Service
	router  http.Handler
	server  *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset(t)
	app.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.mu.RLock()
		router := app.router
		app.mu.RUnlock()
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	backend, err := kv.NewMemory(kvstore.Segments()...)
	require.NoError(t, err)
	petService := petsobs.New(petsapp.NewService(
		kvstore.NewUnitOfWork(backend),
		petsapp.WithIdentityResolver(identity.ContextResolver{}),
	))
	workflows := petsworkflows.NewInlinePetWorkflows(petService)

	handlers := petfinderserver.ApiHandleFunctions{
		PetAPI: petfinderserver.NewPetAPI(petService, workflows),
	}
	router := gin.New()
	router.Use(gin.Recovery(), petfinderserver.CallerIdentity())
	router = petfinderserver.NewRouterWithGinEngine(router, handlers)

	a.mu.Lock()
	a.service, a.router = petService, router
	a.mu.Unlock()
}

func (a *contractProviderApp) seedPet(t testing.TB, lost bool) {
	t.Helper()
	a.mu.RLock()
	service := a.service
	a.mu.RUnlock()

	ctx := identity.WithCaller(context.Background(), pacttest.OwnerIdentity)
	details := pacttest.ExamplePetDetails()
	pet, err := service.Register(ctx, petstypes.RegisterPetInput{Details: petdomain.Details{
		Name:           details["name"].(string),
		Breed:          details["breed"].(string),
		Color:          details["color"].(string),
		PhotoReference: details["photoReference"].(string),
	}})
	require.NoError(t, err)
	require.Equal(t, pacttest.ExistingPetID, pet.ID)
	if lost {
		_, err = service.ReportLost(ctx, petstypes.ReportLostInput{ID: pet.ID, LostLocation: pacttest.LostLocation})
		require.NoError(t, err)
	}
}
