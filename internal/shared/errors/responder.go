package errors

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type for Problem Details responses.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper maps domain/application errors to ProblemDetail.
type ErrorMapper func(err error) (ProblemDetail, bool)

// ResponderOption customizes a Responder.
type ResponderOption func(*Responder)

// WithBaseURI prefixes relative problem type URIs.
func WithBaseURI(baseURI string) ResponderOption {
	return func(r *Responder) {
		r.baseURI = baseURI
	}
}

// WithRequestIDKey copies the gin context value stored under key into a
// "requestId" extension so clients can quote it when reporting a failure.
func WithRequestIDKey(key string) ResponderOption {
	return func(r *Responder) {
		r.requestIDKey = key
	}
}

// WithMappers registers error mappers tried in order by RespondError.
func WithMappers(mappers ...ErrorMapper) ResponderOption {
	return func(r *Responder) {
		r.mappers = append(r.mappers, mappers...)
	}
}

// Responder writes problem+json responses.
type Responder struct {
	baseURI      string
	requestIDKey string
	mappers      []ErrorMapper
}

// NewResponder creates a responder configured by opts.
func NewResponder(opts ...ResponderOption) *Responder {
	r := &Responder{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Respond sends a ProblemDetail response with proper content type.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.baseURI != "" && len(problem.Type) > 0 && problem.Type[0] == '/' {
		problem.Type = r.baseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	if r.requestIDKey != "" {
		if id := c.GetString(r.requestIDKey); id != "" {
			problem = problem.WithExtension("requestId", id)
		}
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// RespondError tries each mapper, then an embedded ProblemDetail, and falls
// back to a 500 that does not echo err.
func (r *Responder) RespondError(c *gin.Context, err error) {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			r.Respond(c, problem)
			return
		}
	}
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	r.Respond(c, ErrInternal)
}
