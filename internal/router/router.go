package router

import (
	"github.com/fasthttp/router"

	apiHandler "github.com/journeydynamics/backend/api/handler"
)

type Handlers struct {
	Journey *apiHandler.JourneyHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	r.POST("/journeys", handlers.Journey.Create)
	r.POST("/journeys/{id}", handlers.Journey.Command)
	r.GET("/journeys", handlers.Journey.FindByEmail)
	r.GET("/journeys/{id}", handlers.Journey.Get)
	r.GET("/journeys/{id}/history", handlers.Journey.History)

	return r
}
