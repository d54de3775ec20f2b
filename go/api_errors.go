package petfinderserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	petsapp "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application"
	apierrors "github.com/Apurer/go-gin-pet-finder/internal/shared/errors"
)

const internalErrorDetail = "the pet registry could not complete the request"

var petResponder = apierrors.NewResponder(
	apierrors.WithRequestIDKey(requestIDKey),
	apierrors.WithMappers(mapPetError),
)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	petResponder.Respond(c, problem)
}

// respondUnauthorized answers requests that name no caller.
func respondUnauthorized(c *gin.Context, err error) {
	respondProblem(c, apierrors.ErrUnauthorized.WithDetail(err.Error()))
}

// respondPetServiceError maps registry errors onto problem responses.
func respondPetServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	petResponder.RespondError(c, err)
}

func mapPetError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, petsapp.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, petsapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, petsapp.ErrNotAuthorized):
		return apierrors.ErrForbidden.WithDetail(err.Error()), true
	default:
		// Storage failures are not echoed to clients.
		return apierrors.ErrInternal.WithDetail(internalErrorDetail), true
	}
}
