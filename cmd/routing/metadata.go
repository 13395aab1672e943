package main

import (
	"path/filepath"
	"time"

	"streetsearch/internal/domain/graph"
	"streetsearch/internal/infra/routing/contract"
	"streetsearch/internal/infra/routing/loader"
)

// cliVersion is recorded in the metadata of every dataset this tool writes
const cliVersion = "0.3.0"

type sourceCounts struct {
	vertices int
	edges    int
}

// newMetadata describes a contracted graph before it is written. File
// checksums are filled in by loader.WriteMetadata.
func newMetadata(
	opts contractOptions,
	source sourceCounts,
	g *graph.Graph,
	intersections int,
	stats contract.Stats,
) *loader.RoutingMetadata {
	directory, err := filepath.Abs(opts.input)
	if err != nil {
		directory = opts.input
	}

	return &loader.RoutingMetadata{
		Version: loader.MetadataVersion,
		Source: loader.SourceInfo{
			Region:    opts.region,
			Directory: directory,
			Vertices:  int64(source.vertices),
			Edges:     int64(source.edges),
		},
		Processing: loader.ProcessingInfo{
			GeneratedAt:            time.Now().UTC(),
			CLIVersion:             cliVersion,
			Distance:               opts.distance,
			ContractionEnabled:     true,
			IntersectionToleranceM: opts.toleranceM,
			Contraction: &loader.ContractionStats{
				Intersections: intersections,
				DeadEnds:      stats.DeadEnds,
				Simplified:    stats.Simplified,
				Skipped:       stats.Skipped,
			},
		},
		Output: loader.OutputInfo{
			VerticesCount: int64(g.NumVertices()),
			EdgesCount:    int64(g.NumEdges()),
			Compressed:    opts.compress,
		},
	}
}
