// Package search runs A* searches over the street graph and snaps
// coordinates onto it.
package search

import (
	"context"
	"log/slog"
	"sync"

	"streetsearch/internal/domain/entity"
	"streetsearch/internal/domain/graph"
	"streetsearch/internal/errors"
	"streetsearch/internal/infra/routing/contract"
	"streetsearch/internal/infra/routing/geo"
	"streetsearch/internal/infra/routing/heuristic"
	"streetsearch/internal/infra/routing/loader"
	"streetsearch/internal/infra/routing/spatial"
	"streetsearch/internal/infra/routing/termination"
)

// ErrSnapDistanceExceeded is returned when a coordinate is too far from the road network
var ErrSnapDistanceExceeded = errors.New("coordinate too far from road network")

// ErrEngineNotReady is returned when the engine hasn't been initialized
var ErrEngineNotReady = errors.New("routing engine not ready")

// ErrUnreachable is returned when no route exists between two points
var ErrUnreachable = errors.New("destination is unreachable")

// EngineConfig holds configuration for the routing engine
type EngineConfig struct {
	MaxSnapDistanceMeters  float64 // Maximum distance to snap a coordinate to the graph
	GridCellSizeKm         float64 // Grid cell size for spatial index
	Distance               string  // Distance function name, see geo.ByName
	ContractOnLoad         bool    // Contract intersections after loading
	IntersectionToleranceM float64 // Grouping radius when intersections.csv is absent
	BatchWorkers           int     // Concurrent searches in PlanTrips

	Waypoint heuristic.WaypointOptions
	Reach    termination.MultiTargetConfig
}

// DefaultEngineConfig returns sensible defaults for a city-sized graph
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxSnapDistanceMeters:  500,
		GridCellSizeKm:         1.0,
		Distance:               "haversine",
		ContractOnLoad:         true,
		IntersectionToleranceM: 1.0,
		BatchWorkers:           8,
		Waypoint:               heuristic.DefaultWaypointOptions(),
		Reach:                  termination.DefaultMultiTargetConfig(),
	}
}

// Engine owns the loaded graph and its spatial index. Load swaps both under
// a write lock; searches work on the snapshot they started with.
type Engine struct {
	config      EngineConfig
	distance    geo.DistanceFunc
	graph       *graph.Graph
	spatial     *spatial.GridIndex
	metadata    *loader.RoutingMetadata
	contraction *contract.Stats
	logger      *slog.Logger
	ready       bool
	mu          sync.RWMutex
}

// NewEngine creates a new routing engine instance. An unknown distance name
// falls back to haversine.
func NewEngine(config EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	distance, err := geo.ByName(config.Distance)
	if err != nil {
		logger.Warn("Unknown distance function, using haversine", "distance", config.Distance)
		distance = geo.Haversine
	}
	if config.BatchWorkers <= 0 {
		config.BatchWorkers = 1
	}

	return &Engine{
		config:   config,
		distance: distance,
		logger:   logger,
		ready:    false,
	}
}

// LoadData loads routing data from the specified directory, contracting it
// when ContractOnLoad is set
func (e *Engine) LoadData(dataDir string) error {
	// Load metadata
	metadata, err := loader.LoadMetadata(dataDir)
	if err != nil {
		e.logger.Warn("Failed to load routing metadata", "error", err)
		// Continue without metadata - it's not strictly required
		metadata = nil
	} else if err := metadata.Validate(); err != nil {
		e.logger.Warn("Routing metadata validation failed", "error", err)
	}

	// Load graph data
	graphData, err := loader.NewCSVLoader(dataDir).Load()
	if err != nil {
		return errors.Wrap(err, "failed to load graph data")
	}

	g, intersections, err := loader.BuildGraph(graphData, e.distance)
	if err != nil {
		return errors.Wrap(err, "failed to build graph")
	}

	var stats *contract.Stats
	if e.config.ContractOnLoad {
		if len(intersections) == 0 {
			intersections = contract.FindIntersections(g, e.config.IntersectionToleranceM, e.distance)
		}
		unified, err := contract.UnifyWithStats(g, intersections, e.logger)
		if err != nil {
			return errors.Wrap(err, "failed to contract graph")
		}
		stats = &unified
	}

	if err := e.Load(g); err != nil {
		return err
	}

	e.mu.Lock()
	e.metadata = metadata
	e.contraction = stats
	e.mu.Unlock()

	e.logMetadata(metadata)

	return nil
}

// Load makes g the searched graph. The graph must not be mutated afterwards.
func (e *Engine) Load(g *graph.Graph) error {
	if g == nil {
		return errors.New("cannot load nil graph")
	}
	if err := g.Validate(); err != nil {
		return errors.Wrap(err, "graph failed validation")
	}

	entries := make([]spatial.Entry, 0, g.NumVertices())
	for _, v := range g.Vertices() {
		entries = append(entries, spatial.Entry{ID: int(v.ID()), Lat: v.Lat(), Lng: v.Lng()})
	}

	// Build spatial index
	index := spatial.NewGridIndex(e.config.GridCellSizeKm)
	index.Build(entries)

	e.mu.Lock()
	e.graph = g
	e.spatial = index
	e.ready = true
	e.mu.Unlock()

	e.logger.Info("Routing engine loaded successfully",
		"vertices", g.NumVertices(),
		"edges", g.NumEdges(),
	)

	return nil
}

func (e *Engine) logMetadata(metadata *loader.RoutingMetadata) {
	if metadata == nil {
		e.logger.Info("Routing engine initialized without metadata")

		return
	}

	e.logger.Info("Routing engine initialized",
		"region", metadata.Source.Region,
		"generated_at", metadata.Processing.GeneratedAt,
		"distance", metadata.Processing.Distance,
		"contracted", metadata.Processing.ContractionEnabled,
		"vertices", metadata.Output.VerticesCount,
		"edges", metadata.Output.EdgesCount,
	)
}

// IsReady returns whether the engine is ready for queries
func (e *Engine) IsReady() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.ready
}

// GetMetadata returns the loaded metadata
func (e *Engine) GetMetadata() *loader.RoutingMetadata {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.metadata
}

// ContractionStats returns what the load-time contraction did, or nil
func (e *Engine) ContractionStats() *contract.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.contraction
}

// Graph returns the loaded graph, or nil before loading. It must be treated as read-only.
func (e *Engine) Graph() *graph.Graph {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.graph
}

// Distance returns the distance function used for snapping, costs and heuristics
func (e *Engine) Distance() geo.DistanceFunc {
	return e.distance
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// snapshot is the graph and index a single operation works on
type snapshot struct {
	graph   *graph.Graph
	spatial *spatial.GridIndex
}

func (e *Engine) snapshot() (snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.ready {
		return snapshot{}, ErrEngineNotReady
	}

	return snapshot{graph: e.graph, spatial: e.spatial}, nil
}

// NearestVertexResult represents the result of snapping a coordinate
type NearestVertexResult struct {
	VertexID graph.VertexID         // Graph vertex ID
	Label    string                 // Vertex label
	Location entity.GenericLocation // Vertex position
	Distance float64                // Distance from input coordinate to vertex in meters
	IsValid  bool                   // Whether snap was successful (within MaxSnapDistance)
}

// FindNearestVertex finds the nearest graph vertex to a coordinate
func (e *Engine) FindNearestVertex(ctx context.Context, loc entity.GenericLocation) (*NearestVertexResult, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	return e.snapTo(snap, loc)
}

// NearestVertices returns up to k vertices closest to a coordinate, closest first.
// Vertices beyond the snap distance are marked invalid but still returned.
func (e *Engine) NearestVertices(ctx context.Context, loc entity.GenericLocation, k int) ([]NearestVertexResult, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	ids := snap.spatial.NearestK(loc.Lat, loc.Lng, k)
	results := make([]NearestVertexResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, e.describe(snap.graph.Vertex(graph.VertexID(id)), loc))
	}

	return results, nil
}

func (e *Engine) snapTo(snap snapshot, loc entity.GenericLocation) (*NearestVertexResult, error) {
	// Find nearest using spatial index
	id, ok := snap.spatial.Nearest(loc.Lat, loc.Lng)
	if !ok {
		return nil, errors.New("no vertices in spatial index")
	}

	vertex := snap.graph.Vertex(graph.VertexID(id))
	if vertex == nil {
		return nil, errors.Wrapf(graph.ErrVertexNotFound, "indexed vertex %d", id)
	}

	result := e.describe(vertex, loc)
	if !result.IsValid {
		return &result, errors.Wrapf(ErrSnapDistanceExceeded, "%s is %.0f m from the nearest vertex", loc, result.Distance)
	}

	return &result, nil
}

func (e *Engine) describe(vertex *graph.Vertex, loc entity.GenericLocation) NearestVertexResult {
	distance := e.distance(loc.Lat, loc.Lng, vertex.Lat(), vertex.Lng())

	return NearestVertexResult{
		VertexID: vertex.ID(),
		Label:    vertex.Label,
		Location: vertex.Location(),
		Distance: distance,
		IsValid:  distance <= e.config.MaxSnapDistanceMeters,
	}
}

// Search runs one search from origin on the loaded graph
func (e *Engine) Search(
	ctx context.Context,
	origin graph.VertexID,
	req *entity.RoutingRequest,
	h heuristic.RemainingWeightHeuristic,
	term termination.Strategy,
) (*ShortestPathTree, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	return Search(ctx, snap.graph, e.distance, origin, req, h, term)
}
