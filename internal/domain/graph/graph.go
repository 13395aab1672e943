package graph

import (
	"streetsearch/internal/errors"

	"github.com/paulmach/orb"
	"go.uber.org/multierr"
)

var (
	// ErrInvariantViolation marks a broken structural contract of the graph or
	// of its callers. It is a programming error, never retried.
	ErrInvariantViolation = errors.New("graph invariant violated")

	// ErrVertexNotFound is returned for unknown or removed vertices
	ErrVertexNotFound = errors.New("vertex not found")

	// ErrEdgeNotFound is returned for unknown or removed edges
	ErrEdgeNotFound = errors.New("edge not found")
)

// Graph stores vertices and edges in arenas indexed by VertexID and EdgeID.
// Removed entries leave a nil slot so identifiers stay stable.
//
// Mutation requires exclusive access. Once building and contraction are done
// the graph may be read by many searches concurrently.
type Graph struct {
	vertices []*Vertex
	edges    []*Edge
	labels   map[string]VertexID

	liveVertices int
	liveEdges    int
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		labels: make(map[string]VertexID),
	}
}

// AddVertex appends v to the arena and returns its ID. Edges already
// registered on v are pointed at it: incoming edges get v as their to-vertex,
// outgoing edges get v as their from-vertex.
func (g *Graph) AddVertex(v *Vertex) (VertexID, error) {
	if v == nil {
		return NoVertex, errors.New("cannot add nil vertex")
	}
	if v.id != NoVertex {
		return NoVertex, errors.Errorf("vertex %q already added as %d", v.Label, v.id)
	}

	for _, edgeID := range v.incoming {
		if g.Edge(edgeID) == nil {
			return NoVertex, errors.Wrapf(ErrEdgeNotFound, "incoming edge %d of vertex %q", edgeID, v.Label)
		}
	}
	for _, edgeID := range v.outgoing {
		if g.Edge(edgeID) == nil {
			return NoVertex, errors.Wrapf(ErrEdgeNotFound, "outgoing edge %d of vertex %q", edgeID, v.Label)
		}
	}

	id := VertexID(len(g.vertices))
	v.id = id
	g.vertices = append(g.vertices, v)
	g.liveVertices++
	if v.Label != "" {
		g.labels[v.Label] = id
	}

	for _, edgeID := range v.incoming {
		g.edges[edgeID].to = id
	}
	for _, edgeID := range v.outgoing {
		g.edges[edgeID].from = id
	}

	return id, nil
}

// RemoveVertex removes a vertex. Edges still registered on it are removed as
// well and unlinked from their other endpoint; edges that were detached
// beforehand are left alone.
func (g *Graph) RemoveVertex(id VertexID) error {
	v := g.Vertex(id)
	if v == nil {
		return errors.Wrapf(ErrVertexNotFound, "remove vertex %d", id)
	}

	for _, edgeID := range append(append([]EdgeID(nil), v.incoming...), v.outgoing...) {
		g.removeEdge(edgeID)
	}

	g.vertices[id] = nil
	g.liveVertices--
	if current, ok := g.labels[v.Label]; ok && current == id {
		delete(g.labels, v.Label)
	}

	return nil
}

// AddEdge creates a directed edge between two live vertices. An empty
// geometry becomes the straight segment between the endpoints.
func (g *Graph) AddEdge(from, to VertexID, attrs EdgeAttributes) (EdgeID, error) {
	fromVertex := g.Vertex(from)
	if fromVertex == nil {
		return NoEdge, errors.Wrapf(ErrVertexNotFound, "edge from-vertex %d", from)
	}
	toVertex := g.Vertex(to)
	if toVertex == nil {
		return NoEdge, errors.Wrapf(ErrVertexNotFound, "edge to-vertex %d", to)
	}

	if len(attrs.Geometry) < 2 {
		attrs.Geometry = orb.LineString{fromVertex.Coord, toVertex.Coord}
	}

	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, &Edge{
		EdgeAttributes: attrs,
		id:             id,
		from:           from,
		to:             to,
	})
	g.liveEdges++

	fromVertex.outgoing = append(fromVertex.outgoing, id)
	toVertex.incoming = append(toVertex.incoming, id)

	return id, nil
}

// DetachIncoming drops e from the incoming set of v without touching the edge.
// The caller must register the edge on another vertex before the graph is
// used again.
func (g *Graph) DetachIncoming(v VertexID, e EdgeID) error {
	vertex := g.Vertex(v)
	if vertex == nil {
		return errors.Wrapf(ErrVertexNotFound, "detach incoming edge %d", e)
	}

	var ok bool
	if vertex.incoming, ok = removeEdgeID(vertex.incoming, e); !ok {
		return errors.Wrapf(ErrEdgeNotFound, "edge %d is not incoming on vertex %d", e, v)
	}

	return nil
}

// DetachOutgoing drops e from the outgoing set of v, see DetachIncoming
func (g *Graph) DetachOutgoing(v VertexID, e EdgeID) error {
	vertex := g.Vertex(v)
	if vertex == nil {
		return errors.Wrapf(ErrVertexNotFound, "detach outgoing edge %d", e)
	}

	var ok bool
	if vertex.outgoing, ok = removeEdgeID(vertex.outgoing, e); !ok {
		return errors.Wrapf(ErrEdgeNotFound, "edge %d is not outgoing on vertex %d", e, v)
	}

	return nil
}

func (g *Graph) removeEdge(id EdgeID) {
	edge := g.Edge(id)
	if edge == nil {
		return
	}

	if from := g.Vertex(edge.from); from != nil {
		from.outgoing, _ = removeEdgeID(from.outgoing, id)
	}
	if to := g.Vertex(edge.to); to != nil {
		to.incoming, _ = removeEdgeID(to.incoming, id)
	}

	g.edges[id] = nil
	g.liveEdges--
}

// Vertex returns the live vertex with the given ID, or nil
func (g *Graph) Vertex(id VertexID) *Vertex {
	if id < 0 || int(id) >= len(g.vertices) {
		return nil
	}

	return g.vertices[id]
}

// Edge returns the live edge with the given ID, or nil
func (g *Graph) Edge(id EdgeID) *Edge {
	if id < 0 || int(id) >= len(g.edges) {
		return nil
	}

	return g.edges[id]
}

// VertexByLabel looks up a live vertex by label
func (g *Graph) VertexByLabel(label string) (*Vertex, bool) {
	id, ok := g.labels[label]
	if !ok {
		return nil, false
	}

	v := g.Vertex(id)

	return v, v != nil
}

// Vertices returns the live vertices in ID order
func (g *Graph) Vertices() []*Vertex {
	result := make([]*Vertex, 0, g.liveVertices)
	for _, v := range g.vertices {
		if v != nil {
			result = append(result, v)
		}
	}

	return result
}

// Edges returns the live edges in ID order
func (g *Graph) Edges() []*Edge {
	result := make([]*Edge, 0, g.liveEdges)
	for _, e := range g.edges {
		if e != nil {
			result = append(result, e)
		}
	}

	return result
}

// NumVertices is the number of live vertices
func (g *Graph) NumVertices() int {
	return g.liveVertices
}

// NumEdges is the number of live edges
func (g *Graph) NumEdges() int {
	return g.liveEdges
}

// VertexCapacity is the arena size, an upper bound for every VertexID
func (g *Graph) VertexCapacity() int {
	return len(g.vertices)
}

// Validate checks that every live edge sits in exactly one outgoing set (its
// from-vertex) and one incoming set (its to-vertex), and that no vertex lists
// a dead or foreign edge. All violations are reported together.
func (g *Graph) Validate() error {
	var err error

	outgoingSeen := make(map[EdgeID]VertexID, g.liveEdges)
	incomingSeen := make(map[EdgeID]VertexID, g.liveEdges)

	for _, v := range g.vertices {
		if v == nil {
			continue
		}
		for _, edgeID := range v.outgoing {
			err = multierr.Append(err, g.checkIncidence(v, edgeID, outgoingSeen, "outgoing"))
		}
		for _, edgeID := range v.incoming {
			err = multierr.Append(err, g.checkIncidence(v, edgeID, incomingSeen, "incoming"))
		}
	}

	for _, e := range g.edges {
		if e == nil {
			continue
		}
		if _, ok := outgoingSeen[e.id]; !ok {
			err = multierr.Append(err, errors.Errorf("edge %d missing from outgoing set of vertex %d", e.id, e.from))
		}
		if _, ok := incomingSeen[e.id]; !ok {
			err = multierr.Append(err, errors.Errorf("edge %d missing from incoming set of vertex %d", e.id, e.to))
		}
	}

	if err != nil {
		return errors.Mark(errors.WithStack(err), ErrInvariantViolation)
	}

	return nil
}

func (g *Graph) checkIncidence(v *Vertex, edgeID EdgeID, seen map[EdgeID]VertexID, direction string) error {
	edge := g.Edge(edgeID)
	if edge == nil {
		return errors.Errorf("vertex %d lists removed %s edge %d", v.id, direction, edgeID)
	}

	endpoint := edge.to
	if direction == "outgoing" {
		endpoint = edge.from
	}
	if endpoint != v.id {
		return errors.Errorf("vertex %d lists %s edge %d whose endpoint is %d", v.id, direction, edgeID, endpoint)
	}

	if other, dup := seen[edgeID]; dup {
		return errors.Errorf("edge %d is %s on both vertex %d and %d", edgeID, direction, other, v.id)
	}
	seen[edgeID] = v.id

	return nil
}

// ReachableFrom returns every vertex reachable from start along directed
// edges, start included
func (g *Graph) ReachableFrom(start VertexID) map[VertexID]struct{} {
	reached := make(map[VertexID]struct{})
	if g.Vertex(start) == nil {
		return reached
	}

	queue := []VertexID{start}
	reached[start] = struct{}{}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, edgeID := range g.vertices[current].outgoing {
			edge := g.Edge(edgeID)
			if edge == nil {
				continue
			}
			next := edge.to
			if _, ok := reached[next]; ok || g.Vertex(next) == nil {
				continue
			}
			reached[next] = struct{}{}
			queue = append(queue, next)
		}
	}

	return reached
}
