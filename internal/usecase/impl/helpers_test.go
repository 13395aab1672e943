package impl

import (
	"os"
	"path/filepath"
	"testing"

	"streetsearch/config"

	"github.com/stretchr/testify/require"
)

// writeDataset writes west -> junction -> east with a walk-only way back and
// a dead-end spur north of east
func writeDataset(t *testing.T) string {
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

	return dir
}

func testConfig(dataPath string) *config.Config {
	cfg := &config.Config{
		Routing: &config.RoutingConfig{
			Enabled:        dataPath != "",
			DataPath:       dataPath,
			ContractOnLoad: true,
		},
	}
	cfg.ApplyDefaults()

	return cfg
}
