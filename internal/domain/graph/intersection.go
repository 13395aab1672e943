package graph

// Intersection groups the directional vertices that stand for one physical
// junction. It is computed before contraction and discarded afterwards.
type Intersection struct {
	Members []VertexID
}

// NewIntersection creates an intersection from its member vertices
func NewIntersection(members ...VertexID) Intersection {
	return Intersection{Members: members}
}

// Degree is the number of member vertices
func (i Intersection) Degree() int {
	return len(i.Members)
}
