package search

import (
	"context"
	"testing"
	"time"

	"streetsearch/internal/domain/entity"
	"streetsearch/internal/domain/graph"
	"streetsearch/internal/infra/routing/geo"
	"streetsearch/internal/infra/routing/termination"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	westGate = entity.NewLocation(25.0000, 121.5000)
	eastGate = entity.NewLocation(25.0000, 121.5020)
	junction = entity.NewLocation(25.0000, 121.5010)
	spur     = entity.NewLocation(25.0010, 121.5020)
)

func TestEngine_PlanTrip(t *testing.T) {
	engine := loadedEngine(t, true)

	result, err := engine.PlanTrip(context.Background(), entity.NewRoutingRequest(westGate, eastGate))
	require.NoError(t, err)
	require.True(t, result.IsReachable)

	assert.Equal(t, []string{"west", "p", "east"}, result.Vertices)
	expected := geo.Haversine(25.0, 121.500, 25.0, 121.502)
	assert.InDelta(t, expected, result.Distance, 1.0)
	assert.InDelta(t, expected/entity.DefaultWalkSpeed, result.Duration.Seconds(), 1.0)
	assert.InDelta(t, expected*entity.DefaultWalkReluctance/entity.DefaultWalkSpeed, result.Cost, 1.0)
	assert.NotEmpty(t, result.Polyline)
	assert.Equal(t, "west", result.Origin.Label)
	assert.Equal(t, "east", result.Destination.Label)

	decoded, err := geo.DecodePolyline(result.Polyline)
	require.NoError(t, err)
	assert.InDelta(t, 121.5020, decoded[len(decoded)-1].Lon(), 1e-5)
}

func TestEngine_PlanTrip_OneWayBack(t *testing.T) {
	engine := loadedEngine(t, true)

	result, err := engine.PlanTrip(context.Background(), entity.NewRoutingRequest(eastGate, westGate))
	require.NoError(t, err)
	require.True(t, result.IsReachable)
	assert.Equal(t, []string{"east", "west"}, result.Vertices, "Back Ln is the direct way west")
}

func TestEngine_PlanTrip_Unreachable(t *testing.T) {
	engine := loadedEngine(t, true)

	// Back Ln is walk-only, so drivers cannot get west again
	req := entity.NewRoutingRequest(eastGate, westGate)
	req.Modes = entity.NewModeSet(entity.ModeCar)
	req.MaxStreetSpeed = 0

	result, err := engine.PlanTrip(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsReachable)
	assert.Empty(t, result.Vertices)
	assert.Positive(t, result.Settled)
	assert.Equal(t, entity.NewModeSet(entity.ModeCar), req.Modes, "the caller's request is not modified")
	assert.Zero(t, req.MaxStreetSpeed)
}

func TestEngine_PlanTrip_Waypoints(t *testing.T) {
	engine := loadedEngine(t, true)

	result, err := engine.PlanTrip(context.Background(), entity.NewRoutingRequest(westGate, eastGate, junction))
	require.NoError(t, err)
	require.True(t, result.IsReachable)
	assert.Equal(t, 1, result.WaypointsPassed)
	assert.Equal(t, []string{"west", "p", "east"}, result.Vertices)
}

// detourEngine loads a one-way walking graph where s -> a -> t is the direct
// route, s -> b -> t a detour north of it, and s -> sp -> w a dead-end spur
// to the south.
func detourEngine(t *testing.T) *Engine {
	t.Helper()

	g := graph.New()
	points := map[string]orb.Point{
		"s":  {121.5000, 25.0000},
		"a":  {121.5010, 25.0000},
		"t":  {121.5020, 25.0000},
		"b":  {121.5010, 25.0008},
		"sp": {121.5005, 24.9992},
		"w":  {121.5005, 24.9985},
	}
	ids := make(map[string]graph.VertexID, len(points))
	for _, label := range []string{"s", "a", "t", "b", "sp", "w"} {
		id, err := g.AddVertex(graph.NewVertex(label, points[label], "", graph.KindStreet))
		require.NoError(t, err)
		ids[label] = id
	}
	for _, pair := range [][2]string{{"s", "a"}, {"a", "t"}, {"s", "b"}, {"b", "t"}, {"s", "sp"}, {"sp", "w"}} {
		_, err := g.AddEdge(ids[pair[0]], ids[pair[1]], graph.EdgeAttributes{Modes: entity.NewModeSet(entity.ModeWalk)})
		require.NoError(t, err)
	}

	engine := NewEngine(DefaultEngineConfig(), nil)
	require.NoError(t, engine.Load(g))

	return engine
}

func TestEngine_PlanTrip_WaypointOffDirectRoute(t *testing.T) {
	engine := detourEngine(t)
	from := entity.NewLocation(25.0000, 121.5000)
	to := entity.NewLocation(25.0000, 121.5020)

	direct, err := engine.PlanTrip(context.Background(), entity.NewRoutingRequest(from, to))
	require.NoError(t, err)
	assert.Equal(t, []string{"s", "a", "t"}, direct.Vertices)
	assert.Zero(t, direct.WaypointsPassed)

	steered, err := engine.PlanTrip(context.Background(),
		entity.NewRoutingRequest(from, to, entity.NewLocation(25.0008, 121.5010)))
	require.NoError(t, err)
	require.True(t, steered.IsReachable)
	assert.Equal(t, []string{"s", "b", "t"}, steered.Vertices)
	assert.Equal(t, 1, steered.WaypointsPassed)
	assert.Greater(t, steered.Cost, direct.Cost, "the waypoint trades optimality for the detour")
}

func TestEngine_PlanTrip_WaypointOnSpur(t *testing.T) {
	engine := detourEngine(t)

	// The search reaches w while exploring the spur, but the returned path
	// never goes there
	result, err := engine.PlanTrip(context.Background(), entity.NewRoutingRequest(
		entity.NewLocation(25.0000, 121.5000),
		entity.NewLocation(25.0000, 121.5020),
		entity.NewLocation(24.9985, 121.5005),
	))
	require.NoError(t, err)
	require.True(t, result.IsReachable)
	assert.Equal(t, []string{"s", "a", "t"}, result.Vertices)
	assert.Zero(t, result.WaypointsPassed)
}

func TestWaypointsPassed(t *testing.T) {
	path := orb.LineString{{121.5000, 25.0}, {121.5010, 25.0}, {121.5020, 25.0}}
	first := entity.NewLocation(25.0, 121.5010)
	second := entity.NewLocation(25.0, 121.5020)
	away := entity.NewLocation(25.01, 121.5010)

	assert.Equal(t, 2, waypointsPassed(geo.Haversine, path, []entity.GenericLocation{first, second}, 50))
	assert.Equal(t, 1, waypointsPassed(geo.Haversine, path, []entity.GenericLocation{second, first}, 50), "waypoints count in order")
	assert.Equal(t, 0, waypointsPassed(geo.Haversine, path, []entity.GenericLocation{away, second}, 50))
	assert.Zero(t, waypointsPassed(geo.Haversine, path, nil, 50))
}

func TestEngine_PlanTrip_Errors(t *testing.T) {
	engine := loadedEngine(t, true)
	ctx := context.Background()

	_, err := engine.PlanTrip(ctx, entity.NewRoutingRequest(entity.NewLocation(26.0, 121.5), eastGate))
	assert.ErrorIs(t, err, ErrSnapDistanceExceeded)

	_, err = engine.PlanTrip(ctx, entity.NewRoutingRequest(westGate, entity.NewLocation(26.0, 121.5)))
	assert.ErrorIs(t, err, ErrSnapDistanceExceeded)

	_, err = engine.PlanTrip(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = engine.PlanTrip(ctx, entity.NewRoutingRequest(entity.NewLocation(95, 0), eastGate))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestEngine_ReachTargets(t *testing.T) {
	engine := loadedEngine(t, true)
	far := entity.NewLocation(30.0, 121.5)

	result, err := engine.ReachTargets(context.Background(), entity.NewRoutingRequest(westGate, westGate),
		[]entity.GenericLocation{eastGate, far, spur}, termination.DefaultMultiTargetConfig())
	require.NoError(t, err)

	assert.Equal(t, "west", result.Origin.Label)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Reached)
	assert.True(t, result.Terminated)

	require.Len(t, result.Targets, 3)
	assert.True(t, result.Targets[0].IsReachable)
	assert.Equal(t, 0, result.Targets[0].Index)
	assert.InDelta(t, geo.Haversine(25.0, 121.500, 25.0, 121.502), result.Targets[0].Distance, 1.0)

	assert.False(t, result.Targets[1].IsReachable)
	assert.Nil(t, result.Targets[1].Vertex, "far target cannot be snapped")

	assert.True(t, result.Targets[2].IsReachable)
	assert.Greater(t, result.Targets[2].Cost, result.Targets[0].Cost, "the spur lies beyond the east gate")
}

func TestEngine_ReachTargets_Empty(t *testing.T) {
	engine := loadedEngine(t, true)

	result, err := engine.ReachTargets(context.Background(), entity.NewRoutingRequest(westGate, westGate), nil, termination.DefaultMultiTargetConfig())
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.True(t, result.Terminated)
	assert.Equal(t, 1, result.Settled, "an empty target set stops at the origin")
}

func TestEngine_PlanTrips(t *testing.T) {
	engine := loadedEngine(t, true)

	reqs := []*entity.RoutingRequest{
		entity.NewRoutingRequest(westGate, eastGate),
		entity.NewRoutingRequest(entity.NewLocation(26.0, 121.5), eastGate),
		nil,
		entity.NewRoutingRequest(eastGate, spur),
	}

	results, err := engine.PlanTrips(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for idx, result := range results {
		assert.Equal(t, idx, result.Index)
	}
	require.NoError(t, results[0].Err)
	assert.True(t, results[0].Route.IsReachable)
	assert.ErrorIs(t, results[1].Err, ErrSnapDistanceExceeded)
	assert.ErrorIs(t, results[2].Err, ErrInvalidRequest)
	require.NoError(t, results[3].Err)
	assert.Equal(t, []string{"east", "d"}, results[3].Route.Vertices)
}

func TestEngine_PlanTrips_Cancelled(t *testing.T) {
	engine := loadedEngine(t, true)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := engine.PlanTrips(ctx, []*entity.RoutingRequest{entity.NewRoutingRequest(westGate, eastGate)})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
