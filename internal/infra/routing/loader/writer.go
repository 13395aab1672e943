package loader

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"streetsearch/internal/domain/graph"
	"streetsearch/internal/infra/routing/geo"

	"github.com/dsnet/compress/bzip2"
	"github.com/pkg/errors"
)

// WriteGraph writes the live vertices and edges of g as vertices.csv and
// edges.csv, bzip2-compressed when compress is set. It returns the file names
// written, relative to dir. Vertices without a label are written as v<ID>.
func WriteGraph(dir string, g *graph.Graph, compress bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	labels := make(map[graph.VertexID]string, g.NumVertices())
	vertexRows := make([][]string, 0, g.NumVertices())
	for _, v := range g.Vertices() {
		label := v.Label
		if label == "" {
			label = "v" + strconv.Itoa(int(v.ID()))
		}
		labels[v.ID()] = label
		vertexRows = append(vertexRows, []string{
			label,
			formatCoord(v.Lat()),
			formatCoord(v.Lng()),
			v.Name,
			v.Kind.String(),
		})
	}

	edgeRows := make([][]string, 0, g.NumEdges())
	for _, e := range g.Edges() {
		edgeRows = append(edgeRows, []string{
			labels[e.From()],
			labels[e.To()],
			e.Modes.String(),
			strconv.FormatFloat(e.Length, 'f', 2, 64),
			e.Name,
			geo.EncodePolyline(e.Geometry),
		})
	}

	verticesName, err := writeCSV(dir, VerticesFile, VerticesHeader, vertexRows, compress)
	if err != nil {
		return nil, err
	}
	edgesName, err := writeCSV(dir, EdgesFile, EdgesHeader, edgeRows, compress)
	if err != nil {
		return nil, err
	}

	return []string{verticesName, edgesName}, nil
}

func writeCSV(dir, name string, header []string, rows [][]string, compress bool) (string, error) {
	fileName := name + csvExt
	if compress {
		fileName += bz2Ext
	}

	file, err := os.Create(filepath.Join(dir, fileName))
	if err != nil {
		return "", errors.Wrapf(err, "failed to create %s", fileName)
	}
	defer file.Close()

	var output io.Writer = file
	var bzWriter *bzip2.Writer
	if compress {
		bzWriter, err = bzip2.NewWriter(file, &bzip2.WriterConfig{})
		if err != nil {
			return "", errors.Wrap(err, "failed to create bzip2 writer")
		}
		output = bzWriter
	}

	writer := csv.NewWriter(output)
	if err := writer.Write(header); err != nil {
		return "", errors.Wrapf(err, "failed to write %s header", fileName)
	}
	if err := writer.WriteAll(rows); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", fileName)
	}

	if bzWriter != nil {
		if err := bzWriter.Close(); err != nil {
			return "", errors.Wrap(err, "failed to finish bzip2 stream")
		}
	}

	if err := file.Sync(); err != nil {
		return "", errors.Wrapf(err, "failed to sync %s", fileName)
	}

	return fileName, nil
}

func formatCoord(value float64) string {
	return strconv.FormatFloat(value, 'f', 7, 64)
}
