package search

import (
	"math"
	"slices"

	"streetsearch/internal/domain/graph"
	"streetsearch/internal/errors"
)

// ShortestPathTree is the result of one search: the best known cost and
// parent edge of every vertex the search touched
type ShortestPathTree struct {
	graph  *graph.Graph
	origin graph.VertexID

	cost    []float64
	parent  []graph.EdgeID
	settled []bool

	settledCount int
	terminated   bool
}

func newShortestPathTree(g *graph.Graph, origin graph.VertexID) *ShortestPathTree {
	n := g.VertexCapacity()
	parent := make([]graph.EdgeID, n)
	for idx := range parent {
		parent[idx] = graph.NoEdge
	}

	return &ShortestPathTree{
		graph:   g,
		origin:  origin,
		cost:    infiniteCosts(n),
		parent:  parent,
		settled: make([]bool, n),
	}
}

// Origin returns the vertex the search started from
func (t *ShortestPathTree) Origin() graph.VertexID {
	return t.origin
}

// Settled is the number of vertices whose cost is final
func (t *ShortestPathTree) Settled() int {
	return t.settledCount
}

// Terminated reports whether the termination strategy ended the search
// before the queue ran empty
func (t *ShortestPathTree) Terminated() bool {
	return t.terminated
}

// IsSettled reports whether v was settled
func (t *ShortestPathTree) IsSettled(v graph.VertexID) bool {
	return t.inRange(v) && t.settled[v]
}

// Cost returns the final cost of a settled vertex
func (t *ShortestPathTree) Cost(v graph.VertexID) (float64, bool) {
	if !t.IsSettled(v) {
		return math.Inf(1), false
	}

	return t.cost[v], true
}

// Path returns the edges from the origin to a settled target, in travel order
func (t *ShortestPathTree) Path(target graph.VertexID) ([]graph.EdgeID, error) {
	if !t.IsSettled(target) {
		return nil, errors.Wrapf(ErrUnreachable, "vertex %d not settled", target)
	}

	var path []graph.EdgeID
	for current := target; current != t.origin; {
		edgeID := t.parent[current]
		edge := t.graph.Edge(edgeID)
		if edge == nil || len(path) > len(t.parent) {
			return nil, errors.Wrapf(graph.ErrInvariantViolation, "broken parent chain at vertex %d", current)
		}
		path = append(path, edgeID)
		current = edge.From()
	}
	slices.Reverse(path)

	return path, nil
}

// PathVertices returns the vertices from the origin to target, both included
func (t *ShortestPathTree) PathVertices(target graph.VertexID) ([]graph.VertexID, error) {
	path, err := t.Path(target)
	if err != nil {
		return nil, err
	}

	vertices := make([]graph.VertexID, 0, len(path)+1)
	vertices = append(vertices, t.origin)
	for _, edgeID := range path {
		vertices = append(vertices, t.graph.Edge(edgeID).To())
	}

	return vertices, nil
}

func (t *ShortestPathTree) inRange(v graph.VertexID) bool {
	return v >= 0 && int(v) < len(t.settled)
}
