package handler

import (
	"log/slog"
	"net/http"

	"streetsearch/internal/delivery/http/response"
	"streetsearch/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// RoutingHandlerParams holds dependencies for RoutingHandler, injected by Fx.
type RoutingHandlerParams struct {
	fx.In

	RoutingUC usecase.RoutingUsecase
	Logger    *slog.Logger
}

// RoutingHandler exposes trip planning, batch planning, reach queries and snapping
type RoutingHandler struct {
	routingUC usecase.RoutingUsecase
	logger    *slog.Logger
}

// NewRoutingHandler is the constructor for RoutingHandler
func NewRoutingHandler(params RoutingHandlerParams) *RoutingHandler {
	return &RoutingHandler{
		routingUC: params.RoutingUC,
		logger:    params.Logger,
	}
}

// PlanTrip handles POST /v1/routes/plan
func (h *RoutingHandler) PlanTrip(c echo.Context) error {
	var req usecase.TripRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid trip request body")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	result, err := h.routingUC.PlanTrip(c.Request().Context(), &req)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, result)
}

// PlanTrips handles POST /v1/routes/batch
func (h *RoutingHandler) PlanTrips(c echo.Context) error {
	var req usecase.BatchRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid batch request body")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	result, err := h.routingUC.PlanTrips(c.Request().Context(), &req)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, result)
}

// ReachTargets handles POST /v1/routes/reach
func (h *RoutingHandler) ReachTargets(c echo.Context) error {
	var req usecase.ReachRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid reach request body")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	result, err := h.routingUC.ReachTargets(c.Request().Context(), &req)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, result)
}

// NearestVertex handles GET /v1/vertices/nearest
func (h *RoutingHandler) NearestVertex(c echo.Context) error {
	var coord usecase.Coordinate
	if err := echo.QueryParamsBinder(c).
		MustFloat64("lat", &coord.Lat).
		MustFloat64("lng", &coord.Lng).
		BindError(); err != nil {
		return response.BindingError(c, "lat and lng are required numbers")
	}
	if err := c.Validate(&coord); err != nil {
		return response.HandleAppError(c, err)
	}

	result, err := h.routingUC.FindNearestVertex(c.Request().Context(), coord)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, result)
}

// HealthCheck reports the engine status; it answers 503 until the graph is loaded
func (h *RoutingHandler) HealthCheck(c echo.Context) error {
	status := h.routingUC.Status()
	if !status.Ready {
		return response.Success(c, http.StatusServiceUnavailable, status)
	}

	return response.Success(c, http.StatusOK, status)
}
