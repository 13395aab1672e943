package loader

import (
	"streetsearch/internal/domain/graph"
	"streetsearch/internal/infra/routing/geo"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// BuildGraph turns loaded rows into a graph. Edge lengths missing from the
// data are derived from the geometry with distance. Intersections are
// returned in order of first appearance in intersections.csv.
func BuildGraph(data *GraphData, distance geo.DistanceFunc) (*graph.Graph, []graph.Intersection, error) {
	if data == nil {
		return nil, nil, errors.New("no graph data")
	}
	if distance == nil {
		distance = geo.Haversine
	}

	g := graph.New()
	for _, row := range data.Vertices {
		if _, exists := g.VertexByLabel(row.Label); exists {
			return nil, nil, errors.Errorf("duplicate vertex label %q", row.Label)
		}
		vertex := graph.NewVertex(row.Label, orb.Point{row.Lng, row.Lat}, row.Name, row.Kind)
		if _, err := g.AddVertex(vertex); err != nil {
			return nil, nil, errors.Wrapf(err, "add vertex %q", row.Label)
		}
	}

	for idx, row := range data.Edges {
		from, ok := g.VertexByLabel(row.From)
		if !ok {
			return nil, nil, errors.Wrapf(graph.ErrVertexNotFound, "edge %d: unknown from-vertex %q", idx, row.From)
		}
		to, ok := g.VertexByLabel(row.To)
		if !ok {
			return nil, nil, errors.Wrapf(graph.ErrVertexNotFound, "edge %d: unknown to-vertex %q", idx, row.To)
		}

		geometry := row.Geometry
		if len(geometry) < 2 {
			geometry = orb.LineString{from.Coord, to.Coord}
		}
		length := row.Length
		if length <= 0 {
			length = geo.LineLength(distance, geometry)
		}

		_, err := g.AddEdge(from.ID(), to.ID(), graph.EdgeAttributes{
			Name:     row.Name,
			Geometry: geometry,
			Modes:    row.Modes,
			Length:   length,
		})
		if err != nil {
			return nil, nil, errors.Wrapf(err, "add edge %d", idx)
		}
	}

	intersections, err := groupIntersections(g, data.Intersections)
	if err != nil {
		return nil, nil, err
	}

	return g, intersections, nil
}

func groupIntersections(g *graph.Graph, rows []IntersectionMember) ([]graph.Intersection, error) {
	position := make(map[string]int)
	var intersections []graph.Intersection

	for _, row := range rows {
		vertex, ok := g.VertexByLabel(row.Label)
		if !ok {
			return nil, errors.Wrapf(graph.ErrVertexNotFound, "intersection %q: unknown member %q", row.Intersection, row.Label)
		}

		idx, seen := position[row.Intersection]
		if !seen {
			idx = len(intersections)
			position[row.Intersection] = idx
			intersections = append(intersections, graph.Intersection{})
		}
		intersections[idx].Members = append(intersections[idx].Members, vertex.ID())
	}

	return intersections, nil
}
