package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"streetsearch/internal/domain/graph"
	"streetsearch/internal/infra/routing/geo"
	"streetsearch/internal/infra/routing/loader"
	"streetsearch/internal/util"

	"github.com/pkg/errors"
)

type dataFile struct {
	name     string
	columns  []string
	required bool
}

var dataFiles = []dataFile{
	{name: loader.VerticesFile, columns: loader.VerticesHeader, required: true},
	{name: loader.EdgesFile, columns: loader.EdgesHeader, required: true},
	{name: loader.IntersectionsFile, columns: loader.IntersectionsHeader},
}

func runValidate(out io.Writer, dir string) error {
	fmt.Fprintf(out, "Validating routing data in directory: %s\n", dir)

	if err := validateRoutingData(out, dir); err != nil {
		fmt.Fprintf(out, "❌ Validation failed: %v\n", err)

		return err
	}

	fmt.Fprintln(out, "✅ Validation passed!")

	return nil
}

func validateRoutingData(out io.Writer, dir string) error {
	// Check if directory exists
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return errors.Errorf("directory does not exist: %s", dir)
	}

	csvLoader := loader.NewCSVLoader(dir)

	fmt.Fprintln(out, "Checking data files...")
	for _, file := range dataFiles {
		path, err := csvLoader.Path(file.name)
		if err != nil {
			if file.required {
				return errors.Wrapf(err, "required file missing")
			}
			fmt.Fprintf(out, "  -  %s.csv not present\n", file.name)

			continue
		}

		header, err := csvLoader.Header(file.name)
		if err != nil {
			return err
		}
		if err := checkColumns(header, file.columns); err != nil {
			return errors.Wrapf(err, "CSV validation failed for %s", filepath.Base(path))
		}
		fmt.Fprintf(out, "  ✅ %s\n", filepath.Base(path))
	}

	fmt.Fprintln(out, "\nValidating metadata...")
	metadata, err := loader.LoadMetadata(dir)
	if err != nil {
		fmt.Fprintf(out, "  ⚠️  Warning: no usable metadata.json (%v), skipping provenance checks\n", err)
	} else {
		if err := metadata.Validate(); err != nil {
			return errors.Wrap(err, "invalid metadata")
		}
		if err := metadata.VerifyFiles(dir); err != nil {
			return err
		}
		fmt.Fprintf(out, "  ✅ Version: %s\n", metadata.Version)
		fmt.Fprintf(out, "  ✅ Region: %s\n", metadata.Source.Region)
		fmt.Fprintf(out, "  ✅ Generated: %s (%s ago)\n",
			metadata.Processing.GeneratedAt.Format("2006-01-02 15:04:05"), util.FormatDuration(metadata.GetAge()))
		for name, info := range metadata.Output.Files {
			fmt.Fprintf(out, "  ✅ %s (%s)\n", name, util.FormatBytes(info.SizeBytes))
		}
	}

	fmt.Fprintln(out, "\nChecking graph consistency...")
	data, err := csvLoader.Load()
	if err != nil {
		return err
	}
	g, intersections, err := loader.BuildGraph(data, geo.Haversine)
	if err != nil {
		return errors.Wrap(err, "failed to build graph")
	}
	if err := g.Validate(); err != nil {
		return err
	}

	if metadata != nil {
		if int64(g.NumVertices()) != metadata.Output.VerticesCount {
			return errors.Errorf("vertex count mismatch: metadata %d, data %d", metadata.Output.VerticesCount, g.NumVertices())
		}
		if int64(g.NumEdges()) != metadata.Output.EdgesCount {
			return errors.Errorf("edge count mismatch: metadata %d, data %d", metadata.Output.EdgesCount, g.NumEdges())
		}
	}

	kinds := make(map[graph.Kind]int)
	for _, v := range g.Vertices() {
		kinds[v.Kind]++
	}

	fmt.Fprintf(out, "  ✅ Vertices: %d\n", g.NumVertices())
	for _, kind := range []graph.Kind{graph.KindStreet, graph.KindIntersection, graph.KindSimplified, graph.KindDeadEnd} {
		if kinds[kind] > 0 {
			fmt.Fprintf(out, "       %-12s %d\n", kind.String(), kinds[kind])
		}
	}
	fmt.Fprintf(out, "  ✅ Edges: %d\n", g.NumEdges())
	if len(intersections) > 0 {
		fmt.Fprintf(out, "  ✅ Intersections: %d\n", len(intersections))
	}

	return nil
}

// checkColumns checks that every expected column is in the header
func checkColumns(header, expected []string) error {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}

	for _, col := range expected {
		if !present[col] {
			return errors.Errorf("missing required column: %s", col)
		}
	}

	return nil
}
