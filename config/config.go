package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "1MB"
	defaultPort               = 8080
)

// Search defaults, applied when a key is absent or zero
const (
	defaultWalkReluctance       = 2.0
	defaultMaxStreetSpeed       = 13.41
	defaultWalkSpeed            = 1.33
	defaultBikeSpeed            = 5.0
	defaultCarSpeed             = 13.41
	defaultAlphaDistanceM       = 50.0
	defaultImportanceMultiplier = 1.0
	defaultReachPercentage      = 0.95
)

// Routing defaults
const (
	defaultMaxSnapDistanceM       = 500.0
	defaultGridCellSizeKm         = 1.0
	defaultDistance               = "haversine"
	defaultIntersectionToleranceM = 1.0
	defaultBatchWorkers           = 8
	defaultMaxBatchSize           = 100
	defaultMaxTargets             = 500
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port" validate:"min=1,max=65535"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Routing configuration for the search engine
	Routing *RoutingConfig `json:"routing" yaml:"routing" validate:"required"`

	// Search holds the request defaults applied by the routing usecase
	Search *SearchConfig `json:"search" yaml:"search" validate:"required"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

// RoutingConfig defines routing engine configuration
type RoutingConfig struct {
	// Load the graph on startup; when false every query reports the engine as not ready
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Directory holding vertices.csv, edges.csv and optionally intersections.csv and metadata.json
	DataPath string `json:"dataPath" yaml:"dataPath" validate:"required_if=Enabled true"`

	// Maximum distance in meters for snapping a coordinate onto the graph
	MaxSnapDistanceM float64 `json:"maxSnapDistanceM" yaml:"maxSnapDistanceM" validate:"gte=0"`

	// Grid cell size in kilometers for the spatial index
	GridCellSizeKm float64 `json:"gridCellSizeKm" yaml:"gridCellSizeKm" validate:"gte=0"`

	// Distance function: haversine, spherical or fast
	Distance string `json:"distance" yaml:"distance" validate:"omitempty,oneof=haversine spherical fast"`

	// Contract intersections after loading
	ContractOnLoad bool `json:"contractOnLoad" yaml:"contractOnLoad"`

	// Grouping radius for intersection discovery when intersections.csv is absent
	IntersectionToleranceM float64 `json:"intersectionToleranceM" yaml:"intersectionToleranceM" validate:"gte=0"`

	// Concurrent searches per batch request
	BatchWorkers int `json:"batchWorkers" yaml:"batchWorkers" validate:"gte=0"`

	// Maximum requests in one batch call
	MaxBatchSize int `json:"maxBatchSize" yaml:"maxBatchSize" validate:"gte=0"`

	// Maximum targets in one reach call
	MaxTargets int `json:"maxTargets" yaml:"maxTargets" validate:"gte=0"`
}

// SearchConfig defines the default request weighting and heuristic tuning
type SearchConfig struct {
	WalkReluctance float64 `json:"walkReluctance" yaml:"walkReluctance" validate:"gte=0"`
	MaxStreetSpeed float64 `json:"maxStreetSpeed" yaml:"maxStreetSpeed" validate:"gte=0"`
	WalkSpeed      float64 `json:"walkSpeed" yaml:"walkSpeed" validate:"gte=0"`
	BikeSpeed      float64 `json:"bikeSpeed" yaml:"bikeSpeed" validate:"gte=0"`
	CarSpeed       float64 `json:"carSpeed" yaml:"carSpeed" validate:"gte=0"`

	// Waypoint heuristic: a waypoint counts as visited within this distance
	AlphaDistanceM float64 `json:"alphaDistanceM" yaml:"alphaDistanceM" validate:"gte=0"`

	// Waypoint heuristic: scales the estimate, values above 1 trade optimality for speed
	ImportanceMultiplier float64 `json:"importanceMultiplier" yaml:"importanceMultiplier" validate:"gte=0"`

	// Waypoint heuristic: fraction of waypoints kept by sampling, 0 keeps all
	SampleFraction float64 `json:"sampleFraction" yaml:"sampleFraction" validate:"gte=0,lte=1"`

	// Multi-target termination
	ReachPercentage float64       `json:"reachPercentage" yaml:"reachPercentage" validate:"gte=0,lte=1"`
	ReachTimeout    time.Duration `json:"reachTimeout" yaml:"reachTimeout" validate:"gte=0"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: ROUTING_DATAPATH -> routing.dataPath (not routing.datapath)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills absent sections and zero values
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.HTTP.MaxRequestBodySize) == "" {
		c.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = defaultPort
	}
	if c.Env.Log.Level == "" {
		c.Env.Log.Level = "info"
	}

	if c.Routing == nil {
		c.Routing = &RoutingConfig{}
	}
	c.Routing.applyDefaults()

	if c.Search == nil {
		c.Search = &SearchConfig{}
	}
	c.Search.applyDefaults()
}

func (r *RoutingConfig) applyDefaults() {
	if r.MaxSnapDistanceM <= 0 {
		r.MaxSnapDistanceM = defaultMaxSnapDistanceM
	}
	if r.GridCellSizeKm <= 0 {
		r.GridCellSizeKm = defaultGridCellSizeKm
	}
	if r.Distance == "" {
		r.Distance = defaultDistance
	}
	if r.IntersectionToleranceM <= 0 {
		r.IntersectionToleranceM = defaultIntersectionToleranceM
	}
	if r.BatchWorkers <= 0 {
		r.BatchWorkers = defaultBatchWorkers
	}
	if r.MaxBatchSize <= 0 {
		r.MaxBatchSize = defaultMaxBatchSize
	}
	if r.MaxTargets <= 0 {
		r.MaxTargets = defaultMaxTargets
	}
}

func (s *SearchConfig) applyDefaults() {
	if s.WalkReluctance <= 0 {
		s.WalkReluctance = defaultWalkReluctance
	}
	if s.MaxStreetSpeed <= 0 {
		s.MaxStreetSpeed = defaultMaxStreetSpeed
	}
	if s.WalkSpeed <= 0 {
		s.WalkSpeed = defaultWalkSpeed
	}
	if s.BikeSpeed <= 0 {
		s.BikeSpeed = defaultBikeSpeed
	}
	if s.CarSpeed <= 0 {
		s.CarSpeed = defaultCarSpeed
	}
	if s.AlphaDistanceM <= 0 {
		s.AlphaDistanceM = defaultAlphaDistanceM
	}
	if s.ImportanceMultiplier <= 0 {
		s.ImportanceMultiplier = defaultImportanceMultiplier
	}
	if s.ReachPercentage <= 0 {
		s.ReachPercentage = defaultReachPercentage
	}
}

// Validate checks the struct tags of the whole configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
