package loader

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"streetsearch/internal/domain/entity"
	"streetsearch/internal/domain/graph"
	"streetsearch/internal/infra/routing/geo"

	"github.com/dsnet/compress/bzip2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Data file base names. Each may be stored as <name>.csv or <name>.csv.bz2.
const (
	VerticesFile      = "vertices"
	EdgesFile         = "edges"
	IntersectionsFile = "intersections"

	csvExt = ".csv"
	bz2Ext = ".bz2"
)

// Expected CSV headers
var (
	VerticesHeader      = []string{"label", "lat", "lng", "name", "kind"}
	EdgesHeader         = []string{"from", "to", "modes", "length", "name", "geometry"}
	IntersectionsHeader = []string{"intersection", "label"}
)

// Vertex is one row of vertices.csv
type Vertex struct {
	Label string     // Unique vertex label, referenced by edges and intersections
	Lat   float64    // Latitude
	Lng   float64    // Longitude
	Name  string     // Optional street or place name
	Kind  graph.Kind // Contraction role
}

// Edge is one row of edges.csv
type Edge struct {
	From     string         // Label of the source vertex
	To       string         // Label of the target vertex
	Modes    entity.ModeSet // Allowed traverse modes
	Length   float64        // Meters, 0 when it must be derived from geometry
	Name     string         // Optional street name
	Geometry orb.LineString // Decoded polyline, may be empty
}

// IntersectionMember is one row of intersections.csv
type IntersectionMember struct {
	Intersection string // Group key
	Label        string // Member vertex label
}

// GraphData holds all loaded graph data
type GraphData struct {
	Vertices      []Vertex
	Edges         []Edge
	Intersections []IntersectionMember
}

// CSVLoader handles loading of routing data from CSV files
type CSVLoader struct {
	dataDir string
}

// NewCSVLoader creates a new CSV loader for the given data directory
func NewCSVLoader(dataDir string) *CSVLoader {
	return &CSVLoader{dataDir: dataDir}
}

// Load loads all graph data from CSV files
func (l *CSVLoader) Load() (*GraphData, error) {
	vertices, err := l.LoadVertices()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	edges, err := l.LoadEdges()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	intersections, err := l.LoadIntersections()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &GraphData{
		Vertices:      vertices,
		Edges:         edges,
		Intersections: intersections,
	}, nil
}

// LoadVertices loads vertices from vertices.csv
// Expected CSV format: label,lat,lng,name,kind
func (l *CSVLoader) LoadVertices() ([]Vertex, error) {
	var vertices []Vertex
	err := l.readRecords(VerticesFile, len(VerticesHeader), func(record []string, lineNum int) error {
		vertex, parseErr := parseVertex(record, lineNum)
		if parseErr != nil {
			return parseErr
		}
		vertices = append(vertices, vertex)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return vertices, nil
}

// LoadEdges loads edges from edges.csv
// Expected CSV format: from,to,modes,length,name,geometry
func (l *CSVLoader) LoadEdges() ([]Edge, error) {
	var edges []Edge
	err := l.readRecords(EdgesFile, len(EdgesHeader), func(record []string, lineNum int) error {
		edge, parseErr := parseEdge(record, lineNum)
		if parseErr != nil {
			return parseErr
		}
		edges = append(edges, edge)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return edges, nil
}

// LoadIntersections loads intersections.csv
// Expected CSV format: intersection,label
func (l *CSVLoader) LoadIntersections() ([]IntersectionMember, error) {
	members := []IntersectionMember{}
	err := l.readRecords(IntersectionsFile, len(IntersectionsHeader), func(record []string, lineNum int) error {
		if record[0] == "" || record[1] == "" {
			return errors.Errorf("invalid intersections.csv at line %d: empty column", lineNum)
		}
		members = append(members, IntersectionMember{Intersection: record[0], Label: record[1]})

		return nil
	})
	if err != nil {
		// Intersections file is optional, they can be discovered from coordinates
		if errors.Is(err, os.ErrNotExist) {
			return []IntersectionMember{}, nil
		}

		return nil, err
	}

	return members, nil
}

// Header reads the header row of a data file
func (l *CSVLoader) Header(name string) ([]string, error) {
	reader, closeFn, err := l.open(name)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	header, err := csv.NewReader(reader).Read()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s header", name)
	}

	return header, nil
}

// Path returns the existing file for name, preferring plain CSV over bzip2
func (l *CSVLoader) Path(name string) (string, error) {
	plain := filepath.Join(l.dataDir, name+csvExt)
	if _, err := os.Stat(plain); err == nil {
		return plain, nil
	}

	compressed := plain + bz2Ext
	if _, err := os.Stat(compressed); err != nil {
		return "", errors.Wrapf(os.ErrNotExist, "%s%s not found in %s", name, csvExt, l.dataDir)
	}

	return compressed, nil
}

func (l *CSVLoader) open(name string) (io.Reader, func(), error) {
	path, err := l.Path(name)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	if !strings.HasSuffix(path, bz2Ext) {
		return file, func() { _ = file.Close() }, nil
	}

	bzReader, err := bzip2.NewReader(file, nil)
	if err != nil {
		_ = file.Close()

		return nil, nil, errors.Wrapf(err, "failed to open bzip2 stream %s", path)
	}

	return bzReader, func() {
		_ = bzReader.Close()
		_ = file.Close()
	}, nil
}

func (l *CSVLoader) readRecords(name string, columns int, handle func(record []string, lineNum int) error) error {
	input, closeFn, err := l.open(name)
	if err != nil {
		return err
	}
	defer closeFn()

	reader := csv.NewReader(input)
	reader.FieldsPerRecord = -1

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return errors.Wrapf(err, "failed to read %s header", name)
	}

	lineNum := 1 // Start at 1 because we skipped header
	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return errors.WithStack(readErr)
		}
		lineNum++

		if len(record) < columns {
			return errors.Errorf("invalid %s.csv format at line %d: expected %d columns, got %d", name, lineNum, columns, len(record))
		}

		if err := handle(record, lineNum); err != nil {
			return err
		}
	}

	return nil
}

func parseVertex(record []string, lineNum int) (Vertex, error) {
	label := strings.TrimSpace(record[0])
	if label == "" {
		return Vertex{}, errors.Errorf("invalid vertices.csv at line %d: empty label", lineNum)
	}

	lat, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return Vertex{}, errors.Wrapf(err, "vertices.csv line %d: lat", lineNum)
	}

	lng, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return Vertex{}, errors.Wrapf(err, "vertices.csv line %d: lng", lineNum)
	}

	kind, err := graph.ParseKind(record[4])
	if err != nil {
		return Vertex{}, errors.Wrapf(err, "vertices.csv line %d", lineNum)
	}

	return Vertex{
		Label: label,
		Lat:   lat,
		Lng:   lng,
		Name:  record[3],
		Kind:  kind,
	}, nil
}

func parseEdge(record []string, lineNum int) (Edge, error) {
	modes, err := entity.ParseModeSet(record[2])
	if err != nil {
		return Edge{}, errors.Wrapf(err, "edges.csv line %d: modes", lineNum)
	}
	if modes.IsEmpty() {
		modes = entity.AllModes
	}

	var length float64
	if raw := strings.TrimSpace(record[3]); raw != "" {
		length, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return Edge{}, errors.Wrapf(err, "edges.csv line %d: length", lineNum)
		}
	}

	geometry, err := geo.DecodePolyline(record[5])
	if err != nil {
		return Edge{}, errors.Wrapf(err, "edges.csv line %d: geometry", lineNum)
	}

	return Edge{
		From:     strings.TrimSpace(record[0]),
		To:       strings.TrimSpace(record[1]),
		Modes:    modes,
		Length:   length,
		Name:     record[4],
		Geometry: geometry,
	}, nil
}
