package config

import "testing"

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"routing": map[string]any{
			"dataPath":         "./data/routing",
			"maxSnapDistanceM": 500,
		},
		"search": map[string]any{
			"walkReluctance": 2.0,
		},
		"http": map[string]any{
			"timeouts": map[string]any{
				"readTimeout": "5s",
			},
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "ROUTING_DATAPATH", want: "routing.dataPath"},
		{envKey: "ROUTING_MAXSNAPDISTANCEM", want: "routing.maxSnapDistanceM"},
		{envKey: "SEARCH_WALKRELUCTANCE", want: "search.walkReluctance"},
		{envKey: "HTTP_TIMEOUTS_READTIMEOUT", want: "http.timeouts.readTimeout"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}
