package impl

import (
	"context"
	"net/http"
	"testing"

	domainerrors "streetsearch/internal/domain/errors"
	"streetsearch/internal/errors"
	"streetsearch/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	westGate = usecase.Coordinate{Lat: 25.0000, Lng: 121.5000}
	eastGate = usecase.Coordinate{Lat: 25.0000, Lng: 121.5020}
	spur     = usecase.Coordinate{Lat: 25.0010, Lng: 121.5020}
	offshore = usecase.Coordinate{Lat: 24.0000, Lng: 123.0000}
)

func newLoadedService(t *testing.T) usecase.RoutingUsecase {
	t.Helper()

	svc, err := NewRoutingService(RoutingServiceParams{Config: testConfig(writeDataset(t))})
	require.NoError(t, err)
	require.True(t, svc.IsReady())

	return svc
}

func TestNewRoutingService_Disabled(t *testing.T) {
	svc, err := NewRoutingService(RoutingServiceParams{Config: testConfig("")})
	require.NoError(t, err)
	assert.False(t, svc.IsReady())
	assert.False(t, svc.Status().Ready)

	_, err = svc.PlanTrip(context.Background(), &usecase.TripRequest{From: westGate, To: eastGate})
	assert.True(t, errors.Is(err, domainerrors.ErrEngineNotReady))

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusServiceUnavailable, appErr.HTTPCode())
}

func TestNewRoutingService_MissingData(t *testing.T) {
	_, err := NewRoutingService(RoutingServiceParams{Config: testConfig(t.TempDir())})
	assert.Error(t, err)
}

func TestRoutingService_Status(t *testing.T) {
	svc := newLoadedService(t)

	status := svc.Status()
	assert.True(t, status.Ready)
	assert.Equal(t, 4, status.Vertices)
	assert.Equal(t, map[string]int{"dead_ends": 1, "simplified": 1, "skipped": 0}, status.Contraction)
	assert.Nil(t, status.GeneratedAt, "the dataset has no metadata")
}

func TestRoutingService_PlanTrip(t *testing.T) {
	svc := newLoadedService(t)

	result, err := svc.PlanTrip(context.Background(), &usecase.TripRequest{From: westGate, To: eastGate})
	require.NoError(t, err)

	assert.True(t, result.IsReachable)
	assert.Equal(t, []string{"west", "p", "east"}, result.Vertices)
	assert.InDelta(t, 201.8, result.DistanceM, 1.0)
	assert.Greater(t, result.DurationS, 100.0)
	assert.NotEmpty(t, result.Polyline)
	assert.Equal(t, "west", result.Origin.Label)

	_, err = uuid.Parse(result.SearchID)
	assert.NoError(t, err)
}

func TestRoutingService_PlanTrip_Via(t *testing.T) {
	svc := newLoadedService(t)

	result, err := svc.PlanTrip(context.Background(), &usecase.TripRequest{
		From: westGate,
		To:   eastGate,
		Via:  []usecase.Coordinate{{Lat: 25.0000, Lng: 121.5010}},
	})
	require.NoError(t, err)
	assert.True(t, result.IsReachable)
	assert.Equal(t, 1, result.WaypointsPassed)
}

func TestRoutingService_PlanTrip_CarCannotTurnBack(t *testing.T) {
	svc := newLoadedService(t)

	result, err := svc.PlanTrip(context.Background(), &usecase.TripRequest{From: eastGate, To: westGate, Modes: []string{"CAR"}})
	require.NoError(t, err)
	assert.False(t, result.IsReachable)
	assert.Empty(t, result.Vertices)
}

func TestRoutingService_PlanTrip_Errors(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *usecase.TripRequest
		want *domainerrors.BaseError
	}{
		{
			name: "latitude out of range",
			req:  &usecase.TripRequest{From: usecase.Coordinate{Lat: 95, Lng: 121.5}, To: eastGate},
			want: domainerrors.ErrValidationFailed,
		},
		{
			name: "unknown mode",
			req:  &usecase.TripRequest{From: westGate, To: eastGate, Modes: []string{"BOAT"}},
			want: domainerrors.ErrValidationFailed,
		},
		{
			name: "negative reluctance",
			req:  &usecase.TripRequest{From: westGate, To: eastGate, WalkReluctance: -1},
			want: domainerrors.ErrValidationFailed,
		},
		{
			name: "destination off the network",
			req:  &usecase.TripRequest{From: westGate, To: offshore},
			want: domainerrors.ErrSnapDistanceExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlanTrip(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestRoutingService_PlanTrips(t *testing.T) {
	svc := newLoadedService(t)

	result, err := svc.PlanTrips(context.Background(), &usecase.BatchRequest{Trips: []*usecase.TripRequest{
		{From: westGate, To: eastGate},
		{From: offshore, To: eastGate},
		{From: eastGate, To: spur},
	}})
	require.NoError(t, err)
	require.Len(t, result.Results, 3)

	assert.Nil(t, result.Results[0].Error)
	require.NotNil(t, result.Results[0].Route)
	assert.True(t, result.Results[0].Route.IsReachable)

	require.NotNil(t, result.Results[1].Error)
	assert.Equal(t, "SNAP_DISTANCE_EXCEEDED", result.Results[1].Error.Code)
	assert.Nil(t, result.Results[1].Route)

	require.NotNil(t, result.Results[2].Route)
	assert.Equal(t, []string{"east", "d"}, result.Results[2].Route.Vertices)
	assert.NotEqual(t, result.Results[0].Route.SearchID, result.Results[2].Route.SearchID)
}

func TestRoutingService_PlanTrips_TooMany(t *testing.T) {
	cfg := testConfig(writeDataset(t))
	cfg.Routing.MaxBatchSize = 1
	svc, err := NewRoutingService(RoutingServiceParams{Config: cfg})
	require.NoError(t, err)

	_, err = svc.PlanTrips(context.Background(), &usecase.BatchRequest{Trips: []*usecase.TripRequest{
		{From: westGate, To: eastGate},
		{From: eastGate, To: westGate},
	}})
	assert.True(t, errors.Is(err, domainerrors.ErrTooManyItems))

	_, err = svc.PlanTrips(context.Background(), &usecase.BatchRequest{})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestRoutingService_ReachTargets(t *testing.T) {
	svc := newLoadedService(t)

	result, err := svc.ReachTargets(context.Background(), &usecase.ReachRequest{
		From:    westGate,
		Targets: []usecase.Coordinate{eastGate, offshore, spur},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Reached)
	assert.True(t, result.Terminated)
	require.Len(t, result.Targets, 3)

	assert.True(t, result.Targets[0].IsReachable)
	assert.Equal(t, eastGate, result.Targets[0].Target)
	assert.False(t, result.Targets[1].IsReachable)
	assert.Nil(t, result.Targets[1].Vertex)
	require.NotNil(t, result.Targets[2].Vertex)
	assert.Equal(t, "d", result.Targets[2].Vertex.Label)
	assert.Greater(t, result.Targets[2].DistanceM, result.Targets[0].DistanceM)
}

func TestRoutingService_ReachTargets_Validation(t *testing.T) {
	svc := newLoadedService(t)

	_, err := svc.ReachTargets(context.Background(), &usecase.ReachRequest{From: westGate})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))

	_, err = svc.ReachTargets(context.Background(), &usecase.ReachRequest{
		From:            westGate,
		Targets:         []usecase.Coordinate{eastGate},
		ReachPercentage: 1.5,
	})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestRoutingService_FindNearestVertex(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	nearest, err := svc.FindNearestVertex(ctx, usecase.Coordinate{Lat: 25.0001, Lng: 121.5001})
	require.NoError(t, err)
	assert.Equal(t, "west", nearest.Label)
	assert.True(t, nearest.IsValid)

	nearest, err = svc.FindNearestVertex(ctx, offshore)
	require.NoError(t, err, "far coordinates are reported, not rejected")
	assert.False(t, nearest.IsValid)
}

func TestRoutingService_NewRoutingRequest(t *testing.T) {
	svc := newRoutingService(nil, testConfig(""), nil)

	walk, err := svc.toRoutingRequest(&usecase.TripRequest{From: westGate, To: eastGate})
	require.NoError(t, err)
	assert.InDelta(t, 1.33, walk.MaxStreetSpeed, 1e-9, "walk-only trips are bounded by the walk speed")
	assert.InDelta(t, 2.0, walk.WalkReluctance, 1e-9)

	car, err := svc.toRoutingRequest(&usecase.TripRequest{From: westGate, To: eastGate, Modes: []string{"car"}, MaxStreetSpeed: 40})
	require.NoError(t, err)
	assert.InDelta(t, 13.41, car.MaxStreetSpeed, 1e-9, "the configured bound caps the request")

	_, err = svc.toRoutingRequest(nil)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidRequest))
}
