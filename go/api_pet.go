package petfinderserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	pethttpmapper "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/http/mapper"
	petstypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	petsports "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/ports"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/identity"
	apierrors "github.com/Apurer/go-gin-pet-finder/internal/shared/errors"
)

var errMissingCaller = fmt.Errorf("%s header is required", identity.HeaderCallerIdentity)

// PetAPI wires HTTP transport with the pet registry service and workflows.
type PetAPI struct {
	service   petsports.Service
	workflows petsports.WorkflowOrchestrator
}

// NewPetAPI creates a PetAPI backed by the provided service.
func NewPetAPI(service petsports.Service, workflows petsports.WorkflowOrchestrator) PetAPI {
	return PetAPI{service: service, workflows: workflows}
}

// Post /v1/pets
// Register a new pet owned by the caller
func (api *PetAPI) RegisterPet(c *gin.Context) {
	if !requireCaller(c) {
		return
	}
	var payload pethttpmapper.PetDetails
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	input := pethttpmapper.ToRegisterInput(payload, c.GetHeader(HeaderIdempotencyKey))
	pet, err := api.registerPet(c.Request.Context(), input)
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/v1/pets/%d", pet.ID))
	c.JSON(http.StatusCreated, pethttpmapper.FromDomainPet(pet))
}

func (api *PetAPI) registerPet(ctx context.Context, input petstypes.RegisterPetInput) (*domain.Pet, error) {
	if api.workflows != nil {
		return api.workflows.RegisterPet(ctx, input)
	}
	return api.service.Register(ctx, input)
}

// Get /v1/pets
// List every registered pet
func (api *PetAPI) ListPets(c *gin.Context) {
	pets, err := api.service.List(c.Request.Context())
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pethttpmapper.FromDomainPetList(pets))
}

// Get /v1/pets/:petId
// Find pet by ID
func (api *PetAPI) GetPetById(c *gin.Context) {
	id, ok := parseIDParam(c, "petId")
	if !ok {
		return
	}
	pet, err := api.service.Get(c.Request.Context(), petstypes.PetIdentifier{ID: id})
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	if pet == nil {
		respondProblem(c, apierrors.NewNotFoundProblem("pet", id))
		return
	}
	c.JSON(http.StatusOK, pethttpmapper.FromDomainPet(pet))
}

// Put /v1/pets/:petId
// Replace the descriptive fields of a pet
func (api *PetAPI) UpdatePetInfo(c *gin.Context) {
	id, ok := parseIDParam(c, "petId")
	if !ok || !requireCaller(c) {
		return
	}
	var payload pethttpmapper.PetDetails
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	pet, err := api.service.UpdateInfo(c.Request.Context(), petstypes.UpdatePetInfoInput{
		ID:      id,
		Details: pethttpmapper.ToDetails(payload),
	})
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pethttpmapper.FromDomainPet(pet))
}

// Post /v1/pets/:petId/lost
// Report a pet lost
func (api *PetAPI) ReportPetLost(c *gin.Context) {
	id, ok := parseIDParam(c, "petId")
	if !ok || !requireCaller(c) {
		return
	}
	var payload pethttpmapper.LostReport
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	pet, err := api.service.ReportLost(c.Request.Context(), petstypes.ReportLostInput{
		ID:           id,
		LostLocation: payload.LostLocation,
	})
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pethttpmapper.FromDomainPet(pet))
}

// Post /v1/pets/:petId/found
// Report a lost pet found; open to any caller
func (api *PetAPI) ReportPetFound(c *gin.Context) {
	id, ok := parseIDParam(c, "petId")
	if !ok {
		return
	}
	var payload pethttpmapper.FoundReportRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	pet, err := api.service.ReportFound(c.Request.Context(), petstypes.ReportFoundInput{
		ID:            id,
		FinderName:    payload.FinderName,
		FoundLocation: payload.FoundLocation,
	})
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pethttpmapper.FromDomainPet(pet))
}

// Get /v1/pets/:petId/found-report
// Latest found report of a pet
func (api *PetAPI) GetFoundReport(c *gin.Context) {
	id, ok := parseIDParam(c, "petId")
	if !ok {
		return
	}
	report, err := api.service.FoundReport(c.Request.Context(), petstypes.PetIdentifier{ID: id})
	if err != nil {
		respondPetServiceError(c, err)
		return
	}
	if report == nil {
		respondProblem(c, apierrors.NewNotFoundProblem("found report", id))
		return
	}
	c.JSON(http.StatusOK, pethttpmapper.FromFoundReport(report))
}

// Delete /v1/pets/:petId
// Deletes a pet
func (api *PetAPI) DeletePet(c *gin.Context) {
	id, ok := parseIDParam(c, "petId")
	if !ok || !requireCaller(c) {
		return
	}
	if err := api.service.Delete(c.Request.Context(), petstypes.PetIdentifier{ID: id}); err != nil {
		respondPetServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("pet %d deleted", id)})
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	value := c.Param(name)
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(fmt.Sprintf("%s must be a non-negative integer, got %q", name, value)))
		return 0, false
	}
	return id, true
}

func requireCaller(c *gin.Context) bool {
	if _, ok := identity.CallerFromContext(c.Request.Context()); ok {
		return true
	}
	respondUnauthorized(c, errMissingCaller)
	return false
}
