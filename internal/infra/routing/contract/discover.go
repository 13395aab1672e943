package contract

import (
	"slices"

	"streetsearch/internal/domain/graph"
	"streetsearch/internal/infra/routing/geo"
	"streetsearch/internal/infra/routing/spatial"
)

// FindIntersections groups the live intersection vertices lying within
// toleranceM of each other, transitively. Members are sorted and groups are
// ordered by their smallest member, so the result only depends on the graph.
func FindIntersections(g *graph.Graph, toleranceM float64, distance geo.DistanceFunc) []graph.Intersection {
	if distance == nil {
		distance = geo.Haversine
	}

	var candidates []*graph.Vertex
	var entries []spatial.Entry
	for _, v := range g.Vertices() {
		if v.Kind != graph.KindIntersection {
			continue
		}
		candidates = append(candidates, v)
		entries = append(entries, spatial.Entry{ID: int(v.ID()), Lat: v.Lat(), Lng: v.Lng()})
	}
	if len(candidates) == 0 {
		return nil
	}

	// Cells a little larger than the tolerance keep the ring search short
	index := spatial.NewGridIndex(max(toleranceM*2/1000, 0.01))
	index.Build(entries)

	groups := newUnionFind()
	for _, v := range candidates {
		groups.add(v.ID())
		for _, other := range index.Within(v.Lat(), v.Lng(), toleranceM, distance) {
			groups.union(v.ID(), graph.VertexID(other))
		}
	}

	byRoot := make(map[graph.VertexID][]graph.VertexID)
	for _, v := range candidates {
		root := groups.find(v.ID())
		byRoot[root] = append(byRoot[root], v.ID())
	}

	intersections := make([]graph.Intersection, 0, len(byRoot))
	for _, members := range byRoot {
		slices.Sort(members)
		intersections = append(intersections, graph.NewIntersection(members...))
	}
	slices.SortFunc(intersections, func(a, b graph.Intersection) int {
		return int(a.Members[0]) - int(b.Members[0])
	})

	return intersections
}

type unionFind struct {
	parent map[graph.VertexID]graph.VertexID
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[graph.VertexID]graph.VertexID)}
}

func (u *unionFind) add(v graph.VertexID) {
	if _, ok := u.parent[v]; !ok {
		u.parent[v] = v
	}
}

func (u *unionFind) find(v graph.VertexID) graph.VertexID {
	u.add(v)
	for u.parent[v] != v {
		u.parent[v] = u.parent[u.parent[v]]
		v = u.parent[v]
	}

	return v
}

// union keeps the smaller ID as root
func (u *unionFind) union(a, b graph.VertexID) {
	rootA, rootB := u.find(a), u.find(b)
	if rootA == rootB {
		return
	}
	if rootB < rootA {
		rootA, rootB = rootB, rootA
	}
	u.parent[rootB] = rootA
}
