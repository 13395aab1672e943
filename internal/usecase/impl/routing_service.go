package impl

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"streetsearch/config"
	deliverycontext "streetsearch/internal/delivery/context"
	"streetsearch/internal/domain/entity"
	domainerrors "streetsearch/internal/domain/errors"
	"streetsearch/internal/errors"
	"streetsearch/internal/infra/routing/heuristic"
	"streetsearch/internal/infra/routing/search"
	"streetsearch/internal/infra/routing/termination"
	"streetsearch/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/fx"
)

// RoutingServiceParams holds dependencies for RoutingService, injected by Fx.
type RoutingServiceParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// routingService implements the RoutingUsecase interface on top of the search engine
type routingService struct {
	engine   *search.Engine
	search   config.SearchConfig
	routing  config.RoutingConfig
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRoutingService creates the routing service and, when routing is enabled,
// loads the graph from the configured data path. A graph that fails to load
// fails construction.
func NewRoutingService(params RoutingServiceParams) (usecase.RoutingUsecase, error) {
	cfg := params.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.ApplyDefaults()

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := search.NewEngine(engineConfig(cfg), logger)
	if cfg.Routing.Enabled {
		if err := engine.LoadData(cfg.Routing.DataPath); err != nil {
			return nil, errors.Wrapf(err, "failed to load routing data from %s", cfg.Routing.DataPath)
		}
	} else {
		logger.Warn("Routing engine disabled, queries will report not ready")
	}

	return newRoutingService(engine, cfg, logger), nil
}

func newRoutingService(engine *search.Engine, cfg *config.Config, logger *slog.Logger) *routingService {
	return &routingService{
		engine:   engine,
		search:   *cfg.Search,
		routing:  *cfg.Routing,
		validate: validator.New(),
		logger:   logger,
	}
}

func engineConfig(cfg *config.Config) search.EngineConfig {
	engineCfg := search.DefaultEngineConfig()
	engineCfg.MaxSnapDistanceMeters = cfg.Routing.MaxSnapDistanceM
	engineCfg.GridCellSizeKm = cfg.Routing.GridCellSizeKm
	engineCfg.Distance = cfg.Routing.Distance
	engineCfg.ContractOnLoad = cfg.Routing.ContractOnLoad
	engineCfg.IntersectionToleranceM = cfg.Routing.IntersectionToleranceM
	engineCfg.BatchWorkers = cfg.Routing.BatchWorkers
	engineCfg.Waypoint = heuristic.WaypointOptions{
		AlphaDistanceM:       cfg.Search.AlphaDistanceM,
		ImportanceMultiplier: cfg.Search.ImportanceMultiplier,
		SampleFraction:       cfg.Search.SampleFraction,
	}
	engineCfg.Reach = termination.MultiTargetConfig{
		Timeout:         cfg.Search.ReachTimeout,
		ReachPercentage: cfg.Search.ReachPercentage,
	}

	return engineCfg
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (s *routingService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, s.logger)
}

// PlanTrip finds a path between two coordinates, biased towards any via points
func (s *routingService) PlanTrip(ctx context.Context, req *usecase.TripRequest) (*usecase.RouteResult, error) {
	if err := s.validateInput(req); err != nil {
		return nil, err
	}

	routingReq, err := s.toRoutingRequest(req)
	if err != nil {
		return nil, err
	}

	searchID := uuid.NewString()
	logger := s.log(ctx).With(slog.String("search_id", searchID))
	start := time.Now()

	route, err := s.engine.PlanTrip(ctx, routingReq)
	if err != nil {
		logger.Warn("Trip planning failed", slog.Any("error", err))

		return nil, toAppError(err)
	}

	logger.Debug("Trip planned",
		slog.Bool("reachable", route.IsReachable),
		slog.Int("settled", route.Settled),
		slog.Duration("elapsed", time.Since(start)),
	)

	return toRouteResult(searchID, route), nil
}

// PlanTrips plans independent trips concurrently
func (s *routingService) PlanTrips(ctx context.Context, req *usecase.BatchRequest) (*usecase.BatchResult, error) {
	if err := s.validateInput(req); err != nil {
		return nil, err
	}
	if len(req.Trips) > s.routing.MaxBatchSize {
		return nil, domainerrors.ErrTooManyItems.WithDetails("at most " + strconv.Itoa(s.routing.MaxBatchSize) + " trips per batch")
	}

	start := time.Now()
	items := make([]usecase.BatchItem, len(req.Trips))

	// Conversion failures are reported per item; the rest go to the engine
	var routingReqs []*entity.RoutingRequest
	var positions []int
	for idx, trip := range req.Trips {
		items[idx].Index = idx
		routingReq, err := s.toRoutingRequest(trip)
		if err != nil {
			items[idx].Error = toItemError(err)

			continue
		}
		routingReqs = append(routingReqs, routingReq)
		positions = append(positions, idx)
	}

	results, err := s.engine.PlanTrips(ctx, routingReqs)
	if err != nil {
		return nil, toAppError(err)
	}

	for i, result := range results {
		idx := positions[i]
		if result.Err != nil {
			items[idx].Error = toItemError(toAppError(result.Err))

			continue
		}
		items[idx].Route = toRouteResult(uuid.NewString(), result.Route)
	}

	s.log(ctx).Debug("Batch planned",
		slog.Int("trips", len(items)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &usecase.BatchResult{Results: items, Duration: time.Since(start)}, nil
}

// ReachTargets computes costs from one origin to many targets
func (s *routingService) ReachTargets(ctx context.Context, req *usecase.ReachRequest) (*usecase.ReachResult, error) {
	if err := s.validateInput(req); err != nil {
		return nil, err
	}
	if len(req.Targets) > s.routing.MaxTargets {
		return nil, domainerrors.ErrTooManyItems.WithDetails("at most " + strconv.Itoa(s.routing.MaxTargets) + " targets per query")
	}

	modes, err := parseModes(req.Modes)
	if err != nil {
		return nil, err
	}
	routingReq := s.newRoutingRequest(toLocation(req.From), toLocation(req.From), nil, modes, 0, 0)

	reachCfg := s.engine.Config().Reach
	if req.ReachPercentage > 0 {
		reachCfg.ReachPercentage = req.ReachPercentage
	}
	if req.TimeoutMs > 0 {
		reachCfg.Timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}

	targets := make([]entity.GenericLocation, len(req.Targets))
	for idx, target := range req.Targets {
		targets[idx] = toLocation(target)
	}

	searchID := uuid.NewString()
	logger := s.log(ctx).With(slog.String("search_id", searchID))
	start := time.Now()

	reach, err := s.engine.ReachTargets(ctx, routingReq, targets, reachCfg)
	if err != nil {
		logger.Warn("Reach query failed", slog.Any("error", err))

		return nil, toAppError(err)
	}

	result := &usecase.ReachResult{
		SearchID:   searchID,
		Origin:     toSnappedVertex(reach.Origin),
		Targets:    make([]usecase.TargetResult, len(reach.Targets)),
		Reached:    reach.Reached,
		Total:      reach.Total,
		Settled:    reach.Settled,
		Terminated: reach.Terminated,
		Duration:   time.Since(start),
	}
	for idx, target := range reach.Targets {
		item := usecase.TargetResult{
			Index:       target.Index,
			Target:      req.Targets[idx],
			DistanceM:   target.Distance,
			DurationS:   target.Duration.Seconds(),
			Cost:        target.Cost,
			IsReachable: target.IsReachable,
		}
		if target.Vertex != nil {
			snapped := toSnappedVertex(*target.Vertex)
			item.Vertex = &snapped
		}
		result.Targets[idx] = item
	}

	logger.Debug("Reach query finished",
		slog.Int("reached", result.Reached),
		slog.Int("total", result.Total),
		slog.Bool("terminated", result.Terminated),
		slog.Duration("elapsed", result.Duration),
	)

	return result, nil
}

// FindNearestVertex snaps a coordinate onto the road network. A coordinate
// beyond the snap distance is returned with IsValid false rather than an error.
func (s *routingService) FindNearestVertex(ctx context.Context, coord usecase.Coordinate) (*usecase.NearestVertex, error) {
	if err := s.validateInput(coord); err != nil {
		return nil, err
	}

	nearest, err := s.engine.FindNearestVertex(ctx, toLocation(coord))
	if err != nil && !errors.Is(err, search.ErrSnapDistanceExceeded) {
		return nil, toAppError(err)
	}

	return &usecase.NearestVertex{
		SnappedVertex: toSnappedVertex(*nearest),
		IsValid:       nearest.IsValid,
	}, nil
}

// IsReady returns whether the routing engine is loaded and ready for queries
func (s *routingService) IsReady() bool {
	return s.engine.IsReady()
}

// Status describes the loaded graph
func (s *routingService) Status() usecase.EngineStatus {
	status := usecase.EngineStatus{Ready: s.engine.IsReady()}
	if g := s.engine.Graph(); g != nil {
		status.Vertices = g.NumVertices()
		status.Edges = g.NumEdges()
	}
	if metadata := s.engine.GetMetadata(); metadata != nil {
		status.Region = metadata.Source.Region
		generatedAt := metadata.Processing.GeneratedAt
		status.GeneratedAt = &generatedAt
	}
	if stats := s.engine.ContractionStats(); stats != nil {
		status.Contraction = map[string]int{
			"dead_ends":  stats.DeadEnds,
			"simplified": stats.Simplified,
			"skipped":    stats.Skipped,
		}
	}

	return status
}

func (s *routingService) validateInput(input any) error {
	if err := s.validate.Struct(input); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}

func (s *routingService) toRoutingRequest(req *usecase.TripRequest) (*entity.RoutingRequest, error) {
	if req == nil {
		return nil, domainerrors.ErrInvalidRequest.WithDetails("missing trip")
	}

	modes, err := parseModes(req.Modes)
	if err != nil {
		return nil, err
	}

	waypoints := make([]entity.GenericLocation, 0, len(req.Via))
	for _, via := range req.Via {
		waypoints = append(waypoints, toLocation(via))
	}

	return s.newRoutingRequest(toLocation(req.From), toLocation(req.To), waypoints, modes, req.WalkReluctance, req.MaxStreetSpeed), nil
}

// newRoutingRequest applies the configured defaults. MaxStreetSpeed defaults
// to the fastest requested mode and never exceeds the configured bound.
func (s *routingService) newRoutingRequest(
	from, to entity.GenericLocation,
	waypoints []entity.GenericLocation,
	modes entity.ModeSet,
	walkReluctance, maxStreetSpeed float64,
) *entity.RoutingRequest {
	if walkReluctance <= 0 {
		walkReluctance = s.search.WalkReluctance
	}

	req := &entity.RoutingRequest{
		From:           from,
		To:             to,
		Waypoints:      waypoints,
		WalkReluctance: walkReluctance,
		MaxStreetSpeed: maxStreetSpeed,
		WalkSpeed:      s.search.WalkSpeed,
		BikeSpeed:      s.search.BikeSpeed,
		CarSpeed:       s.search.CarSpeed,
		Modes:          modes,
	}
	req.ApplyDefaults()
	req.MaxStreetSpeed = min(req.MaxStreetSpeed, s.search.MaxStreetSpeed)

	return req
}

func parseModes(names []string) (entity.ModeSet, error) {
	modes, err := entity.ParseModeSet(strings.Join(names, "|"))
	if err != nil {
		return 0, domainerrors.ErrInvalidRequest.WithDetails(err.Error())
	}

	return modes, nil
}

// toAppError maps engine errors onto application errors
func toAppError(err error) error {
	switch {
	case errors.Is(err, search.ErrEngineNotReady):
		return domainerrors.ErrEngineNotReady
	case errors.Is(err, search.ErrSnapDistanceExceeded):
		return domainerrors.ErrSnapDistanceExceeded.WithDetails(err.Error())
	case errors.Is(err, search.ErrInvalidRequest), errors.Is(err, heuristic.ErrInvalidRequest):
		return domainerrors.ErrInvalidRequest.WithDetails(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainerrors.ErrSearchCanceled
	default:
		return errors.Wrap(err, "search failed")
	}
}

func toItemError(err error) *usecase.ItemError {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		message := appErr.Message()
		if details := appErr.Details(); details != "" {
			message = details
		}

		return &usecase.ItemError{Code: appErr.ErrorCode(), Message: message}
	}

	return &usecase.ItemError{Code: domainerrors.ErrSearchFailed.ErrorCode(), Message: err.Error()}
}

func toRouteResult(searchID string, route *search.RouteResult) *usecase.RouteResult {
	return &usecase.RouteResult{
		SearchID:        searchID,
		Origin:          toSnappedVertex(route.Origin),
		Destination:     toSnappedVertex(route.Destination),
		DistanceM:       route.Distance,
		DurationS:       route.Duration.Seconds(),
		Cost:            route.Cost,
		Polyline:        route.Polyline,
		Vertices:        route.Vertices,
		WaypointsPassed: route.WaypointsPassed,
		Settled:         route.Settled,
		IsReachable:     route.IsReachable,
	}
}

func toSnappedVertex(vertex search.NearestVertexResult) usecase.SnappedVertex {
	return usecase.SnappedVertex{
		Label:     vertex.Label,
		Location:  usecase.Coordinate{Lat: vertex.Location.Lat, Lng: vertex.Location.Lng},
		DistanceM: vertex.Distance,
	}
}

func toLocation(coord usecase.Coordinate) entity.GenericLocation {
	return entity.NewLocation(coord.Lat, coord.Lng)
}
