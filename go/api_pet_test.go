package petfinderserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pethttpmapper "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/http/mapper"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/persistence/kvstore"
	petsapp "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application"
	petstypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/identity"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/kv"
	apierrors "github.com/Apurer/go-gin-pet-finder/internal/shared/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var rex = pethttpmapper.PetDetails{Name: "Rex", Breed: "Labrador", Color: "Brown", PhotoReference: "uri1"}

func newTestRouter(t *testing.T, workflows *recordingWorkflows) *gin.Engine {
	t.Helper()
	backend, err := kv.NewMemory(kvstore.Segments()...)
	require.NoError(t, err)
	service := petsapp.NewService(kvstore.NewUnitOfWork(backend), petsapp.WithIdentityResolver(identity.ContextResolver{}))
	api := NewPetAPI(service, nil)
	if workflows != nil {
		workflows.service = service
		api = NewPetAPI(service, workflows)
	}
	return NewRouter(ApiHandleFunctions{PetAPI: api})
}

type recordingWorkflows struct {
	service *petsapp.Service
	keys    []string
}

func (w *recordingWorkflows) RegisterPet(ctx context.Context, input petstypes.RegisterPetInput) (*domain.Pet, error) {
	w.keys = append(w.keys, input.IdempotencyKey)
	return w.service.Register(ctx, input)
}

func do(t *testing.T, router http.Handler, method, path, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(identity.HeaderCallerIdentity, caller)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestPetAPI_Lifecycle(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/v1/pets", "alice", rex)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/v1/pets/1", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	created := decode[pethttpmapper.Pet](t, rec)
	assert.Equal(t, uint64(1), created.ID)
	assert.Equal(t, "alice", created.Owner)
	assert.Equal(t, "available", created.Status)

	rec = do(t, router, http.MethodPost, "/v1/pets/1/lost", "alice", pethttpmapper.LostReport{LostLocation: "Central Park"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lost := decode[pethttpmapper.Pet](t, rec)
	assert.True(t, lost.IsLost)
	require.NotNil(t, lost.LostLocation)
	assert.Equal(t, "Central Park", *lost.LostLocation)

	rec = do(t, router, http.MethodPost, "/v1/pets/1/found", "", pethttpmapper.FoundReportRequest{FinderName: "Bob", FoundLocation: "5th Ave"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[pethttpmapper.Pet](t, rec).IsLost)

	rec = do(t, router, http.MethodGet, "/v1/pets/1/found-report", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[pethttpmapper.FoundReport](t, rec)
	assert.Equal(t, "Bob", report.FinderName)
	assert.Equal(t, "5th Ave", report.FoundLocation)

	rec = do(t, router, http.MethodGet, "/v1/pets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]pethttpmapper.Pet](t, rec), 1)

	rec = do(t, router, http.MethodDelete, "/v1/pets/1", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pet 1 deleted", decode[map[string]string](t, rec)["message"])

	rec = do(t, router, http.MethodGet, "/v1/pets/1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
}

func TestPetAPI_ErrorMapping(t *testing.T) {
	router := newTestRouter(t, nil)
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/v1/pets", "alice", rex).Code)

	tests := []struct {
		name   string
		method string
		path   string
		caller string
		body   any
		status int
		typ    string
	}{
		{"register without caller", http.MethodPost, "/v1/pets", "", rex, http.StatusUnauthorized, apierrors.TypeUnauthorized},
		{"register with empty name", http.MethodPost, "/v1/pets", "alice", pethttpmapper.PetDetails{Breed: "b", Color: "c", PhotoReference: "p"}, http.StatusBadRequest, apierrors.TypeValidation},
		{"malformed id", http.MethodGet, "/v1/pets/abc", "", nil, http.StatusBadRequest, apierrors.TypeBadRequest},
		{"negative id", http.MethodDelete, "/v1/pets/-1", "alice", nil, http.StatusBadRequest, apierrors.TypeBadRequest},
		{"update by non owner", http.MethodPut, "/v1/pets/1", "mallory", rex, http.StatusForbidden, apierrors.TypeForbidden},
		{"update unknown pet", http.MethodPut, "/v1/pets/99", "alice", rex, http.StatusNotFound, apierrors.TypeNotFound},
		{"delete without caller", http.MethodDelete, "/v1/pets/1", "", nil, http.StatusUnauthorized, apierrors.TypeUnauthorized},
		{"lost with blank location", http.MethodPost, "/v1/pets/1/lost", "alice", pethttpmapper.LostReport{}, http.StatusBadRequest, apierrors.TypeValidation},
		{"found on available pet", http.MethodPost, "/v1/pets/1/found", "", pethttpmapper.FoundReportRequest{FinderName: "Bob", FoundLocation: "5th Ave"}, http.StatusBadRequest, apierrors.TypeValidation},
		{"missing found report", http.MethodGet, "/v1/pets/1/found-report", "", nil, http.StatusNotFound, apierrors.TypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.caller, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			problem := decode[apierrors.ProblemDetail](t, rec)
			assert.Equal(t, tt.typ, problem.Type)
			assert.Equal(t, tt.status, problem.Status)
		})
	}
}

func TestPetAPI_MalformedJSON(t *testing.T) {
	router := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/pets", bytes.NewBufferString("{"))
	req.Header.Set(identity.HeaderCallerIdentity, "alice")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.TypeBadRequest, decode[apierrors.ProblemDetail](t, rec).Type)
}

func TestPetAPI_RegisterUsesWorkflowsWithIdempotencyKey(t *testing.T) {
	workflows := &recordingWorkflows{}
	router := newTestRouter(t, workflows)

	req := httptest.NewRequest(http.MethodPost, "/v1/pets", bytes.NewBufferString(`{"name":"Rex","breed":"Lab","color":"Brown","photoReference":"uri1"}`))
	req.Header.Set(identity.HeaderCallerIdentity, "alice")
	req.Header.Set(HeaderIdempotencyKey, " key-1 ")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"key-1"}, workflows.keys)
}

func TestMapPetError_HidesStorageFailures(t *testing.T) {
	problem, ok := mapPetError(errors.New("sqlite: disk I/O error"))
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, problem.Status)
	assert.NotContains(t, problem.Detail, "sqlite")
}

func TestRequestID_EchoesInboundHeader(t *testing.T) {
	router := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
}
