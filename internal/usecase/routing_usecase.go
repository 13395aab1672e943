package usecase

import (
	"context"
	"time"
)

// Coordinate represents a geographic coordinate
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// TripRequest asks for one path from From to To, optionally steered through Via
type TripRequest struct {
	From  Coordinate   `json:"from"`
	To    Coordinate   `json:"to"`
	Via   []Coordinate `json:"via,omitempty" validate:"omitempty,max=50,dive"`
	Modes []string     `json:"modes,omitempty" validate:"omitempty,dive,oneof=WALK BICYCLE CAR RAIL walk bicycle car rail"`

	// Zero values fall back to the configured search defaults
	WalkReluctance float64 `json:"walk_reluctance,omitempty" validate:"gte=0"`
	MaxStreetSpeed float64 `json:"max_street_speed,omitempty" validate:"gte=0"`
}

// BatchRequest holds independent trips planned concurrently
type BatchRequest struct {
	Trips []*TripRequest `json:"trips" validate:"required,min=1,dive,required"`
}

// ReachRequest asks for the cost from one origin to many targets
type ReachRequest struct {
	From    Coordinate   `json:"from"`
	Targets []Coordinate `json:"targets" validate:"required,min=1,dive"`
	Modes   []string     `json:"modes,omitempty" validate:"omitempty,dive,oneof=WALK BICYCLE CAR RAIL walk bicycle car rail"`

	// Quorum of targets that ends the search once the timeout passed
	ReachPercentage float64 `json:"reach_percentage,omitempty" validate:"gte=0,lte=1"`
	TimeoutMs       int     `json:"timeout_ms,omitempty" validate:"gte=0"`
}

// SnappedVertex is a graph vertex a coordinate was snapped to
type SnappedVertex struct {
	Label     string     `json:"label"`
	Location  Coordinate `json:"location"`
	DistanceM float64    `json:"distance_m"` // From the requested coordinate
}

// RouteResult represents the result of a routing calculation
type RouteResult struct {
	SearchID        string        `json:"search_id"`
	Origin          SnappedVertex `json:"origin"`
	Destination     SnappedVertex `json:"destination"`
	DistanceM       float64       `json:"distance_m"`
	DurationS       float64       `json:"duration_s"`
	Cost            float64       `json:"cost"`
	Polyline        string        `json:"polyline,omitempty"`
	Vertices        []string      `json:"vertices,omitempty"`
	WaypointsPassed int           `json:"waypoints_passed"`
	Settled         int           `json:"settled"`
	IsReachable     bool          `json:"is_reachable"`
}

// ItemError describes why one item of a batch failed
type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchItem is the outcome of one trip of a batch
type BatchItem struct {
	Index int          `json:"index"`
	Route *RouteResult `json:"route,omitempty"`
	Error *ItemError   `json:"error,omitempty"`
}

// BatchResult represents the result of a batch of trips
type BatchResult struct {
	Results  []BatchItem   `json:"results"`
	Duration time.Duration `json:"duration"` // Total query execution time
}

// TargetResult is the outcome for one target of a reach query
type TargetResult struct {
	Index       int            `json:"index"`
	Target      Coordinate     `json:"target"`
	Vertex      *SnappedVertex `json:"vertex,omitempty"`
	DistanceM   float64        `json:"distance_m"`
	DurationS   float64        `json:"duration_s"`
	Cost        float64        `json:"cost"`
	IsReachable bool           `json:"is_reachable"`
}

// ReachResult represents the result of a one-to-many query
type ReachResult struct {
	SearchID   string         `json:"search_id"`
	Origin     SnappedVertex  `json:"origin"`
	Targets    []TargetResult `json:"targets"`
	Reached    int            `json:"reached"`
	Total      int            `json:"total"`
	Settled    int            `json:"settled"`
	Terminated bool           `json:"terminated"`
	Duration   time.Duration  `json:"duration"`
}

// NearestVertex is the snapping result for a single coordinate
type NearestVertex struct {
	SnappedVertex
	IsValid bool `json:"is_valid"` // Within the maximum snap distance
}

// EngineStatus summarizes the loaded graph
type EngineStatus struct {
	Ready       bool           `json:"ready"`
	Vertices    int            `json:"vertices"`
	Edges       int            `json:"edges"`
	Region      string         `json:"region,omitempty"`
	GeneratedAt *time.Time     `json:"generated_at,omitempty"`
	Contraction map[string]int `json:"contraction,omitempty"`
}

// RoutingUsecase defines the interface for routing engine use cases
type RoutingUsecase interface {
	// PlanTrip finds a path between two coordinates. Without via points it is
	// the cheapest one; via points bias the search towards them.
	// An unreachable destination is reported in the result, not as an error.
	PlanTrip(ctx context.Context, req *TripRequest) (*RouteResult, error)

	// PlanTrips plans independent trips concurrently. Failed trips carry an
	// ItemError; only engine-level failures fail the batch.
	PlanTrips(ctx context.Context, req *BatchRequest) (*BatchResult, error)

	// ReachTargets computes costs from one origin to many targets with a single search
	ReachTargets(ctx context.Context, req *ReachRequest) (*ReachResult, error)

	// FindNearestVertex snaps a coordinate onto the road network
	FindNearestVertex(ctx context.Context, coord Coordinate) (*NearestVertex, error)

	// IsReady returns whether the routing engine is loaded and ready for queries
	IsReady() bool

	// Status describes the loaded graph
	Status() EngineStatus
}
