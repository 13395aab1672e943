// Package graph holds the street graph: arena-indexed vertices and directed
// edges, plus the intersection groups used to simplify it.
package graph

import (
	"slices"
	"strings"

	"streetsearch/internal/domain/entity"
	"streetsearch/internal/errors"

	"github.com/paulmach/orb"
)

// VertexID is a stable arena index. Removing a vertex never shifts the IDs of
// other vertices.
type VertexID int32

// NoVertex marks a vertex that has not been added to a graph
const NoVertex VertexID = -1

// Kind distinguishes the vertex forms that matter to contraction
type Kind uint8

const (
	// KindStreet is any vertex that contraction never touches
	KindStreet Kind = iota
	// KindIntersection is one directional approach of a junction, carrying at
	// most one in-street and one out-street
	KindIntersection
	// KindSimplified replaces a two-member intersection
	KindSimplified
	// KindDeadEnd replaces a one-member intersection
	KindDeadEnd
)

var kindNames = map[Kind]string{
	KindStreet:       "street",
	KindIntersection: "intersection",
	KindSimplified:   "simplified",
	KindDeadEnd:      "deadend",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown"
}

// ParseKind parses a kind name as written by String
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return KindStreet, nil
	}
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind, nil
		}
	}

	return KindStreet, errors.Errorf("unknown vertex kind: %s", s)
}

// Vertex is a point of the street graph
type Vertex struct {
	Label string
	Coord orb.Point // lon, lat
	Name  string
	Kind  Kind

	id       VertexID
	incoming []EdgeID
	outgoing []EdgeID
}

// NewVertex creates a vertex that is not yet part of any graph
func NewVertex(label string, coord orb.Point, name string, kind Kind) *Vertex {
	return &Vertex{
		Label: label,
		Coord: coord,
		Name:  name,
		Kind:  kind,
		id:    NoVertex,
	}
}

// NewDeadEnd creates a dead-end vertex copying the identity of v
func NewDeadEnd(v *Vertex) *Vertex {
	return NewVertex(v.Label, v.Coord, v.Name, KindDeadEnd)
}

// NewSimplified creates a simplified vertex at v's position, carrying its label and name
func NewSimplified(v *Vertex) *Vertex {
	return NewVertex(v.Label, v.Coord, v.Name, KindSimplified)
}

// ID returns the arena index, or NoVertex before the vertex is added
func (v *Vertex) ID() VertexID {
	return v.id
}

// Lat returns the latitude
func (v *Vertex) Lat() float64 {
	return v.Coord.Lat()
}

// Lng returns the longitude
func (v *Vertex) Lng() float64 {
	return v.Coord.Lon()
}

// Location returns the position as a GenericLocation
func (v *Vertex) Location() entity.GenericLocation {
	return entity.LocationFromPoint(v.Coord)
}

// Incoming lists the edges ending at v. The slice must not be modified.
func (v *Vertex) Incoming() []EdgeID {
	return v.incoming
}

// Outgoing lists the edges starting at v. The slice must not be modified.
func (v *Vertex) Outgoing() []EdgeID {
	return v.outgoing
}

// Degree is the number of incident edges
func (v *Vertex) Degree() int {
	return len(v.incoming) + len(v.outgoing)
}

// AddIncoming registers e as incoming. Only valid before the vertex is added
// to a graph; the graph points the edge at the vertex when it is added.
func (v *Vertex) AddIncoming(e EdgeID) {
	if !slices.Contains(v.incoming, e) {
		v.incoming = append(v.incoming, e)
	}
}

// AddOutgoing registers e as outgoing, see AddIncoming
func (v *Vertex) AddOutgoing(e EdgeID) {
	if !slices.Contains(v.outgoing, e) {
		v.outgoing = append(v.outgoing, e)
	}
}

// InStreet returns the single incoming street of a directional vertex
func (v *Vertex) InStreet() (EdgeID, bool) {
	if len(v.incoming) == 0 {
		return NoEdge, false
	}

	return v.incoming[0], true
}

// OutStreet returns the single outgoing street of a directional vertex
func (v *Vertex) OutStreet() (EdgeID, bool) {
	if len(v.outgoing) == 0 {
		return NoEdge, false
	}

	return v.outgoing[0], true
}

// IsDirectional reports whether v has the intersection shape: the right kind
// and at most one street in each direction.
func (v *Vertex) IsDirectional() bool {
	return v.Kind == KindIntersection && len(v.incoming) <= 1 && len(v.outgoing) <= 1
}

func removeEdgeID(ids []EdgeID, e EdgeID) ([]EdgeID, bool) {
	idx := slices.Index(ids, e)
	if idx < 0 {
		return ids, false
	}

	return slices.Delete(ids, idx, idx+1), true
}
