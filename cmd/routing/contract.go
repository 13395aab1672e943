package main

import (
	"fmt"
	"io"
	"time"

	"streetsearch/internal/infra/routing/contract"
	"streetsearch/internal/infra/routing/geo"
	"streetsearch/internal/infra/routing/loader"
	"streetsearch/internal/util"

	"github.com/pkg/errors"
)

type contractOptions struct {
	input      string
	output     string
	region     string
	distance   string
	toleranceM float64
	compress   bool
}

func runContract(out io.Writer, opts contractOptions) error {
	fmt.Fprintf(out, "Contracting graph from %s to %s\n", opts.input, opts.output)
	fmt.Fprintf(out, "Region: %s\n", opts.region)
	fmt.Fprintln(out)

	startTime := time.Now()

	distance, err := geo.ByName(opts.distance)
	if err != nil {
		return err
	}

	data, err := loader.NewCSVLoader(opts.input).Load()
	if err != nil {
		return errors.Wrap(err, "failed to load input graph")
	}

	g, intersections, err := loader.BuildGraph(data, distance)
	if err != nil {
		return errors.Wrap(err, "failed to build graph")
	}
	source := sourceCounts{vertices: g.NumVertices(), edges: g.NumEdges()}

	if len(intersections) == 0 {
		intersections = contract.FindIntersections(g, opts.toleranceM, distance)
		fmt.Fprintf(out, "Discovered %d intersections within %.1f m\n", len(intersections), opts.toleranceM)
	} else {
		fmt.Fprintf(out, "Using %d intersections from intersections.csv\n", len(intersections))
	}

	stats, err := contract.UnifyWithStats(g, intersections, nil)
	if err != nil {
		return errors.Wrap(err, "contraction failed")
	}
	if err := g.Validate(); err != nil {
		return errors.Wrap(err, "contracted graph failed validation")
	}

	files, err := loader.WriteGraph(opts.output, g, opts.compress)
	if err != nil {
		return errors.Wrap(err, "failed to write graph")
	}

	metadata := newMetadata(opts, source, g, len(intersections), stats)
	if err := loader.WriteMetadata(opts.output, metadata, files); err != nil {
		return err
	}

	fmt.Fprintf(out, "  Dead ends:  %d\n", stats.DeadEnds)
	fmt.Fprintf(out, "  Simplified: %d\n", stats.Simplified)
	fmt.Fprintf(out, "  Skipped:    %d\n", stats.Skipped)
	fmt.Fprintf(out, "  Vertices:   %d -> %d\n", source.vertices, g.NumVertices())
	fmt.Fprintf(out, "Contraction completed in %s\n", util.FormatDuration(time.Since(startTime)))

	return nil
}
