package search

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"streetsearch/internal/domain/entity"
	"streetsearch/internal/domain/graph"
	"streetsearch/internal/infra/routing/geo"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

const (
	gridOriginLat = 25.0
	gridOriginLng = 121.5
	gridStep      = 0.001 // about 100 m
)

// buildGrid creates an n x n grid of street vertices labelled r<row>c<col>
// with two-way walking edges. Every third edge is a detour 50% longer than
// its straight line.
func buildGrid(tb testing.TB, n int) (*graph.Graph, [][]graph.VertexID) {
	tb.Helper()

	g := graph.New()
	ids := make([][]graph.VertexID, n)
	for row := range n {
		ids[row] = make([]graph.VertexID, n)
		for col := range n {
			coord := orb.Point{gridOriginLng + float64(col)*gridStep, gridOriginLat + float64(row)*gridStep}
			id, err := g.AddVertex(graph.NewVertex(fmt.Sprintf("r%dc%d", row, col), coord, "", graph.KindStreet))
			require.NoError(tb, err)
			ids[row][col] = id
		}
	}

	count := 0
	link := func(a, b graph.VertexID) {
		va, vb := g.Vertex(a), g.Vertex(b)
		length := geo.Haversine(va.Lat(), va.Lng(), vb.Lat(), vb.Lng())
		if count%3 == 0 {
			length *= 1.5
		}
		count++

		for _, pair := range [][2]graph.VertexID{{a, b}, {b, a}} {
			_, err := g.AddEdge(pair[0], pair[1], graph.EdgeAttributes{
				Modes:  entity.NewModeSet(entity.ModeWalk, entity.ModeBicycle),
				Length: length,
			})
			require.NoError(tb, err)
		}
	}

	for row := range n {
		for col := range n {
			if col+1 < n {
				link(ids[row][col], ids[row][col+1])
			}
			if row+1 < n {
				link(ids[row][col], ids[row+1][col])
			}
		}
	}

	return g, ids
}

func walkRequestBetween(g *graph.Graph, from, to graph.VertexID) *entity.RoutingRequest {
	return entity.NewRoutingRequest(g.Vertex(from).Location(), g.Vertex(to).Location())
}

// writeDataset writes a small dataset with a two-member junction:
//
//	west -> p -> q -> east, east -> west, plus a dead-end spur d off east
func writeDataset(t *testing.T, withIntersections bool) string {
	t.Helper()

	dir := t.TempDir()
	vertices := `label,lat,lng,name,kind
west,25.0000,121.5000,West Gate,street
p,25.0000,121.5010,Main Junction,intersection
q,25.0000,121.5010,Main Junction,intersection
east,25.0000,121.5020,East Gate,street
d,25.0010,121.5020,Spur,intersection
`
	edges := `from,to,modes,length,name,geometry
west,p,WALK|CAR,,Main St,
p,q,WALK|CAR,1,Main St,
q,east,WALK|CAR,,Main St,
east,west,WALK,,Back Ln,
east,d,WALK,,Spur Rd,
d,east,WALK,,Spur Rd,
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vertices.csv"), []byte(vertices), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "edges.csv"), []byte(edges), 0o644))

	if withIntersections {
		intersections := "intersection,label\nmain,p\nmain,q\nspur,d\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "intersections.csv"), []byte(intersections), 0o644))
	}

	return dir
}
