package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errGone = errors.New("gone")

func serve(t *testing.T, r *Responder, handle func(c *gin.Context)) (*httptest.ResponseRecorder, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/v1/pets/:petId", func(c *gin.Context) {
		c.Set("requestId", "req-1")
		handle(c)
	})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/pets/7", nil))
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return rec, problem
}

func TestResponder_Respond(t *testing.T) {
	r := NewResponder(WithBaseURI("https://petfinder.example"), WithRequestIDKey("requestId"))

	rec, problem := serve(t, r, func(c *gin.Context) {
		r.Respond(c, NewNotFoundProblem("pet", 7))
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, "https://petfinder.example"+TypeNotFound, problem.Type)
	assert.Equal(t, "/v1/pets/7", problem.Instance)
	assert.Equal(t, "req-1", problem.Extensions["requestId"])
	assert.Equal(t, "pet", problem.Extensions["resourceType"])
	assert.Nil(t, ErrNotFound.Extensions, "templates are never mutated")
}

func TestResponder_RespondError(t *testing.T) {
	r := NewResponder(WithMappers(func(err error) (ProblemDetail, bool) {
		if errors.Is(err, errGone) {
			return ErrNotFound.WithDetail(err.Error()), true
		}
		return ProblemDetail{}, false
	}))

	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"mapped", fmt.Errorf("load: %w", errGone), http.StatusNotFound, "load: gone"},
		{"embedded problem", fmt.Errorf("wrapped: %w", ErrForbidden.WithDetail("not yours")), http.StatusForbidden, "not yours"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, problem := serve(t, r, func(c *gin.Context) {
				r.RespondError(c, tt.err)
			})
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.detail, problem.Detail)
			assert.Nil(t, problem.Extensions)
		})
	}
}
