package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/persistence/kvstore"
	petstypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/identity"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/kv"
	platformobservability "github.com/Apurer/go-gin-pet-finder/internal/platform/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStore_SQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := Config{StoreDriver: StoreDriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "nested", "petfinder.db")}
	instruments := &platformobservability.Instruments{Logger: discardLogger()}
	details := domain.Details{Name: "Rex", Breed: "Labrador", Color: "Brown", PhotoReference: "uri1"}

	backend, err := OpenStore(ctx, cfg, instruments.Logger)
	require.NoError(t, err)
	svc := NewPetService(backend, instruments, nil)
	pet, err := svc.Register(identity.WithCaller(ctx, "alice"), petstypes.RegisterPetInput{Details: details})
	require.NoError(t, err)
	require.Equal(t, uint64(1), pet.ID)
	require.NoError(t, backend.Close())

	backend, err = OpenStore(ctx, cfg, instruments.Logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	svc = NewPetService(backend, instruments, nil)

	loaded, err := svc.Get(ctx, petstypes.PetIdentifier{ID: 1})
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "alice", loaded.Owner)

	next, err := svc.Register(identity.WithCaller(ctx, "alice"), petstypes.RegisterPetInput{Details: details})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.ID)
}

func TestOpenStore_Memory(t *testing.T) {
	backend, err := OpenStore(context.Background(), Config{StoreDriver: StoreDriverMemory}, discardLogger())
	require.NoError(t, err)
	_, ok := backend.(*kv.MemoryBackend)
	assert.True(t, ok)
}

func TestMetricsHandler_ExportsSegmentEntries(t *testing.T) {
	backend, err := kv.NewMemory(kvstore.Segments()...)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	metricsHandler(backend).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.Bytes()
	assert.True(t, bytes.Contains(body, []byte(`petfinder_kv_segment_entries{segment="pets"} 0`)), string(body))
	assert.True(t, bytes.Contains(body, []byte(`petfinder_kv_segment_entries{segment="found_reports"} 0`)))
}
