package search

import (
	"context"
	"time"

	"streetsearch/internal/domain/entity"
	"streetsearch/internal/domain/graph"
	"streetsearch/internal/errors"
	"streetsearch/internal/infra/routing/geo"
	"streetsearch/internal/infra/routing/heuristic"
	"streetsearch/internal/infra/routing/termination"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidRequest is returned for requests that cannot be searched
var ErrInvalidRequest = errors.New("invalid routing request")

// RouteResult represents the result of a routing calculation
type RouteResult struct {
	Origin          NearestVertexResult // Snapped origin
	Destination     NearestVertexResult // Snapped destination
	Cost            float64             // Search cost of the path
	Distance        float64             // Road network distance in meters
	Duration        time.Duration       // Estimated travel time
	Polyline        string              // Encoded path geometry
	Vertices        []string            // Labels of the vertices along the path
	WaypointsPassed int                 // Waypoints the returned path came within alpha of, in order
	Settled         int                 // Vertices settled by the search
	IsReachable     bool                // Whether the destination is reachable via road network
}

// PlanTrip searches from req.From to req.To. Without waypoints the
// straight-line heuristic is used and the path is the cheapest one. With
// waypoints the waypoint heuristic biases the search towards them, so the
// path is neither guaranteed to be the cheapest nor to visit every waypoint.
// An unreachable destination is a result, not an error.
func (e *Engine) PlanTrip(ctx context.Context, req *entity.RoutingRequest) (*RouteResult, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	r, err := prepareRequest(req)
	if err != nil {
		return nil, err
	}

	origin, err := e.snapTo(snap, r.From)
	if err != nil {
		return nil, errors.Wrap(err, "snap origin")
	}
	destination, err := e.snapTo(snap, r.To)
	if err != nil {
		return nil, errors.Wrap(err, "snap destination")
	}

	var h heuristic.RemainingWeightHeuristic
	if len(r.Waypoints) > 0 {
		h = heuristic.NewWaypointHeuristic(e.distance, e.config.Waypoint)
	} else {
		h = heuristic.NewEuclidean(e.distance)
	}

	tree, err := Search(ctx, snap.graph, e.distance, origin.VertexID, r, h, termination.NewSingleTarget(destination.VertexID))
	if err != nil {
		return nil, err
	}

	result := &RouteResult{
		Origin:      *origin,
		Destination: *destination,
		Settled:     tree.Settled(),
	}

	if !tree.IsSettled(destination.VertexID) {
		return result, nil
	}

	summary, err := summarizePath(snap.graph, NewCostModel(e.distance, r), tree, destination.VertexID)
	if err != nil {
		return nil, err
	}
	result.Cost = summary.cost
	result.Distance = summary.distance
	result.Duration = summary.duration
	result.Polyline = geo.EncodePolyline(summary.geometry)
	result.Vertices = summary.labels
	result.IsReachable = true
	if len(r.Waypoints) > 0 {
		sampled := heuristic.SampleWaypoints(r.Waypoints, e.config.Waypoint.SampleFraction)
		result.WaypointsPassed = waypointsPassed(e.distance, summary.geometry, sampled, e.config.Waypoint.AlphaDistanceM)
	}

	return result, nil
}

// waypointsPassed walks the path and counts the waypoints it comes within
// alpha meters of. Waypoints must be passed in order; counting stops at the
// first one the rest of the path misses.
func waypointsPassed(distance geo.DistanceFunc, path orb.LineString, waypoints []entity.GenericLocation, alpha float64) int {
	passed := 0
	for _, point := range path {
		for passed < len(waypoints) &&
			distance(point.Lat(), point.Lon(), waypoints[passed].Lat, waypoints[passed].Lng) <= alpha {
			passed++
		}
	}

	return passed
}

// BatchResult is the outcome of one request of a batch
type BatchResult struct {
	Index int
	Route *RouteResult
	Err   error
}

// PlanTrips plans independent trips concurrently, at most BatchWorkers at a
// time. Per-request failures are reported in the results; only a cancelled
// context fails the whole batch.
func (e *Engine) PlanTrips(ctx context.Context, reqs []*entity.RoutingRequest) ([]BatchResult, error) {
	if !e.IsReady() {
		return nil, ErrEngineNotReady
	}

	results := make([]BatchResult, len(reqs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.config.BatchWorkers)

	for idx, req := range reqs {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return errors.WithStack(err)
			}

			route, err := e.PlanTrip(groupCtx, req)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			results[idx] = BatchResult{Index: idx, Route: route, Err: err}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "batch planning aborted")
	}

	return results, nil
}

// TargetResult is the outcome for one target of a one-to-many search
type TargetResult struct {
	Index       int                    // Target index in the input array
	Location    entity.GenericLocation // Requested target
	Vertex      *NearestVertexResult   // Snapped vertex, nil when snapping failed
	Cost        float64                // Search cost
	Distance    float64                // Road network distance in meters
	Duration    time.Duration          // Estimated travel time
	IsReachable bool                   // Settled before the search stopped
}

// ReachResult is the outcome of a one-to-many search
type ReachResult struct {
	Origin     NearestVertexResult
	Targets    []TargetResult // In input order
	Reached    int            // Distinct target vertices settled
	Total      int            // Distinct target vertices
	Settled    int            // Vertices settled by the search
	Terminated bool           // Whether the strategy stopped the search early
}

// ReachTargets searches from req.From towards every target at once and
// stops once all of them are settled, or once the deadline in cfg passed and
// enough of them are. req.To is ignored. Targets that cannot be snapped are
// reported unreachable.
func (e *Engine) ReachTargets(
	ctx context.Context,
	req *entity.RoutingRequest,
	targets []entity.GenericLocation,
	cfg termination.MultiTargetConfig,
) (*ReachResult, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	if req == nil {
		return nil, errors.Wrap(ErrInvalidRequest, "nil request")
	}
	withDestination := *req
	withDestination.To = req.From
	withDestination.Waypoints = nil
	r, err := prepareRequest(&withDestination)
	if err != nil {
		return nil, err
	}

	origin, err := e.snapTo(snap, r.From)
	if err != nil {
		return nil, errors.Wrap(err, "snap origin")
	}

	results := make([]TargetResult, len(targets))
	var targetVertices []graph.VertexID
	for idx, target := range targets {
		results[idx] = TargetResult{Index: idx, Location: target}
		snapped, snapErr := e.snapTo(snap, target)
		if snapErr != nil {
			e.logger.Debug("Target not snapped", "index", idx, "location", target.String(), "error", snapErr)

			continue
		}
		results[idx].Vertex = snapped
		targetVertices = append(targetVertices, snapped.VertexID)
	}

	strategy := termination.NewMultiTarget(targetVertices, cfg)
	tree, err := Search(ctx, snap.graph, e.distance, origin.VertexID, r, heuristic.Zero{}, strategy)
	if err != nil {
		return nil, err
	}

	costs := NewCostModel(e.distance, r)
	for idx := range results {
		vertex := results[idx].Vertex
		if vertex == nil || !tree.IsSettled(vertex.VertexID) {
			continue
		}

		summary, err := summarizePath(snap.graph, costs, tree, vertex.VertexID)
		if err != nil {
			return nil, err
		}
		results[idx].Cost = summary.cost
		results[idx].Distance = summary.distance
		results[idx].Duration = summary.duration
		results[idx].IsReachable = true
	}

	return &ReachResult{
		Origin:     *origin,
		Targets:    results,
		Reached:    len(strategy.Reached()),
		Total:      strategy.Total(),
		Settled:    tree.Settled(),
		Terminated: tree.Terminated(),
	}, nil
}

// prepareRequest copies req with defaults applied so callers' values stay untouched
func prepareRequest(req *entity.RoutingRequest) (*entity.RoutingRequest, error) {
	if req == nil {
		return nil, errors.Wrap(ErrInvalidRequest, "nil request")
	}

	r := *req
	r.ApplyDefaults()
	if err := r.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, err.Error())
	}

	return &r, nil
}

type pathSummary struct {
	cost     float64
	distance float64
	duration time.Duration
	geometry orb.LineString
	labels   []string
}

func summarizePath(g *graph.Graph, costs CostModel, tree *ShortestPathTree, target graph.VertexID) (pathSummary, error) {
	path, err := tree.Path(target)
	if err != nil {
		return pathSummary{}, err
	}

	summary := pathSummary{}
	summary.cost, _ = tree.Cost(target)

	originVertex := g.Vertex(tree.Origin())
	summary.labels = append(summary.labels, originVertex.Label)
	summary.geometry = orb.LineString{originVertex.Coord}

	seconds := 0.0
	for _, edgeID := range path {
		edge := g.Edge(edgeID)
		length := costs.Length(g, edge)
		summary.distance += length
		if speed := costs.Speed(edge); speed > 0 {
			seconds += length / speed
		}

		for _, point := range edge.Geometry {
			if point != summary.geometry[len(summary.geometry)-1] {
				summary.geometry = append(summary.geometry, point)
			}
		}
		summary.labels = append(summary.labels, g.Vertex(edge.To()).Label)
	}
	summary.duration = time.Duration(seconds * float64(time.Second))

	return summary, nil
}
