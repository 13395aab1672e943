// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"streetsearch/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	RoutingHandler *handler.RoutingHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	routingHandler *handler.RoutingHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		routingHandler: params.RoutingHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", r.routingHandler.HealthCheck)

	apiV1 := e.Group("/v1")

	verticesGroup := apiV1.Group("/vertices")
	{
		verticesGroup.GET("/nearest", r.routingHandler.NearestVertex)
	}

	routesGroup := apiV1.Group("/routes")
	{
		routesGroup.POST("/plan", r.routingHandler.PlanTrip)
		routesGroup.POST("/batch", r.routingHandler.PlanTrips)
		routesGroup.POST("/reach", r.routingHandler.ReachTargets)
	}
}
