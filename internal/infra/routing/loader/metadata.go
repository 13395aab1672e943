package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"streetsearch/internal/util"

	"github.com/pkg/errors"
)

// MetadataFile is the provenance file written next to the graph
const MetadataFile = "metadata.json"

// MetadataVersion is the format version written by this package
const MetadataVersion = "1.0"

// RoutingMetadata represents the metadata for routing data files
// This tracks the provenance of the graph and what the contraction did
type RoutingMetadata struct {
	Version    string         `json:"version"`
	Source     SourceInfo     `json:"source"`
	Processing ProcessingInfo `json:"processing"`
	Output     OutputInfo     `json:"output"`
}

// SourceInfo describes the graph the data was built from
type SourceInfo struct {
	Region    string `json:"region"`
	Directory string `json:"directory,omitempty"`
	Vertices  int64  `json:"vertices"`
	Edges     int64  `json:"edges"`
}

// ProcessingInfo contains information about the preprocessing run
type ProcessingInfo struct {
	GeneratedAt            time.Time         `json:"generated_at"`
	CLIVersion             string            `json:"cli_version"`
	Distance               string            `json:"distance"`
	ContractionEnabled     bool              `json:"contraction_enabled"`
	IntersectionToleranceM float64           `json:"intersection_tolerance_m,omitempty"`
	Contraction            *ContractionStats `json:"contraction,omitempty"`
}

// ContractionStats mirrors the counts reported by the contractor
type ContractionStats struct {
	Intersections int `json:"intersections"`
	DeadEnds      int `json:"dead_ends"`
	Simplified    int `json:"simplified"`
	Skipped       int `json:"skipped"`
}

// OutputInfo contains information about the generated output files
type OutputInfo struct {
	VerticesCount int64                `json:"vertices_count"`
	EdgesCount    int64                `json:"edges_count"`
	Compressed    bool                 `json:"compressed"`
	Files         map[string]*FileInfo `json:"files,omitempty"`
}

// FileInfo contains checksum information for a single output file
type FileInfo struct {
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256,omitempty"`
}

// LoadMetadata loads and parses the metadata.json file from the given directory
func LoadMetadata(dataDir string) (*RoutingMetadata, error) {
	metadataPath := filepath.Join(dataDir, MetadataFile)

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, "metadata.json not found in routing data directory")
		}

		return nil, errors.Wrap(err, "failed to read metadata.json")
	}

	var metadata RoutingMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, errors.Wrap(err, "failed to parse metadata.json")
	}

	return &metadata, nil
}

// WriteMetadata records size and SHA-256 of every file in files, relative to
// dir, and writes metadata.json
func WriteMetadata(dir string, metadata *RoutingMetadata, files []string) error {
	if metadata.Version == "" {
		metadata.Version = MetadataVersion
	}

	metadata.Output.Files = make(map[string]*FileInfo, len(files))
	for _, name := range files {
		info, err := NewFileInfo(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		metadata.Output.Files[name] = info
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal metadata")
	}

	if err := os.WriteFile(filepath.Join(dir, MetadataFile), data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write metadata.json")
	}

	return nil
}

// NewFileInfo stats and checksums a file
func NewFileInfo(path string) (*FileInfo, error) {
	digest, err := util.DigestFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to checksum %s", path)
	}

	return &FileInfo{SizeBytes: digest.SizeBytes, SHA256: digest.SHA256}, nil
}

// Validate checks if the metadata is valid and complete
func (m *RoutingMetadata) Validate() error {
	if m.Version == "" {
		return errors.New("metadata version is required")
	}

	if m.Source.Region == "" {
		return errors.New("source region is required")
	}

	if m.Processing.GeneratedAt.IsZero() {
		return errors.New("processing generated_at timestamp is required")
	}

	if m.Output.VerticesCount <= 0 {
		return errors.New("output vertices_count must be positive")
	}

	if m.Output.EdgesCount <= 0 {
		return errors.New("output edges_count must be positive")
	}

	return nil
}

// VerifyFiles compares the recorded checksums with the files in dir
func (m *RoutingMetadata) VerifyFiles(dir string) error {
	for name, expected := range m.Output.Files {
		actual, err := NewFileInfo(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if expected.SHA256 != "" && actual.SHA256 != expected.SHA256 {
			return errors.Errorf("checksum mismatch for %s", name)
		}
		if actual.SizeBytes != expected.SizeBytes {
			return errors.Errorf("size mismatch for %s: recorded %d, found %d", name, expected.SizeBytes, actual.SizeBytes)
		}
	}

	return nil
}

// GetAge returns the age of the routing data since generation
func (m *RoutingMetadata) GetAge() time.Duration {
	return time.Since(m.Processing.GeneratedAt)
}

// Summary returns a brief summary of the metadata for logging
func (m *RoutingMetadata) Summary() map[string]any {
	summary := map[string]any{
		"region":         m.Source.Region,
		"generated_at":   m.Processing.GeneratedAt,
		"distance":       m.Processing.Distance,
		"contracted":     m.Processing.ContractionEnabled,
		"vertices_count": m.Output.VerticesCount,
		"edges_count":    m.Output.EdgesCount,
	}
	if stats := m.Processing.Contraction; stats != nil {
		summary["dead_ends"] = stats.DeadEnds
		summary["simplified"] = stats.Simplified
	}

	return summary
}
