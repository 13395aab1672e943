package graph

import (
	"streetsearch/internal/domain/entity"

	"github.com/paulmach/orb"
)

// EdgeID is a stable arena index of a directed edge
type EdgeID int32

// NoEdge marks a missing edge
const NoEdge EdgeID = -1

// EdgeAttributes are the descriptive fields of an edge
type EdgeAttributes struct {
	Name     string
	Geometry orb.LineString // lon, lat points from the from-vertex to the to-vertex
	Modes    entity.ModeSet
	Length   float64 // meters, 0 when unknown
}

// Edge is a directed street segment owned by the graph
type Edge struct {
	EdgeAttributes

	id   EdgeID
	from VertexID
	to   VertexID
}

// ID returns the arena index
func (e *Edge) ID() EdgeID {
	return e.id
}

// From returns the vertex the edge leaves
func (e *Edge) From() VertexID {
	return e.from
}

// To returns the vertex the edge enters
func (e *Edge) To() VertexID {
	return e.to
}
