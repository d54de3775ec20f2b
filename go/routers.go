package petfinderserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers served by the router.
type ApiHandleFunctions struct {
	// Routes for the PetAPI part of the API
	PetAPI PetAPI
}

// NewRouter returns a new router with the default middleware stack.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), CallerIdentity())
	return NewRouterWithGinEngine(router, handleFunctions)
}

// NewRouterWithGinEngine adds the API routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes whose handler is not wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// Healthz reports process liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"Healthz",
			http.MethodGet,
			"/healthz",
			Healthz,
		},
		{
			"RegisterPet",
			http.MethodPost,
			"/v1/pets",
			handleFunctions.PetAPI.RegisterPet,
		},
		{
			"ListPets",
			http.MethodGet,
			"/v1/pets",
			handleFunctions.PetAPI.ListPets,
		},
		{
			"GetPetById",
			http.MethodGet,
			"/v1/pets/:petId",
			handleFunctions.PetAPI.GetPetById,
		},
		{
			"UpdatePetInfo",
			http.MethodPut,
			"/v1/pets/:petId",
			handleFunctions.PetAPI.UpdatePetInfo,
		},
		{
			"DeletePet",
			http.MethodDelete,
			"/v1/pets/:petId",
			handleFunctions.PetAPI.DeletePet,
		},
		{
			"ReportPetLost",
			http.MethodPost,
			"/v1/pets/:petId/lost",
			handleFunctions.PetAPI.ReportPetLost,
		},
		{
			"ReportPetFound",
			http.MethodPost,
			"/v1/pets/:petId/found",
			handleFunctions.PetAPI.ReportPetFound,
		},
		{
			"GetFoundReport",
			http.MethodGet,
			"/v1/pets/:petId/found-report",
			handleFunctions.PetAPI.GetFoundReport,
		},
	}
}
