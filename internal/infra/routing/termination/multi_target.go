package termination

import (
	"slices"
	"time"

	"streetsearch/internal/domain/graph"
)

// DefaultReachPercentage is the quorum used when none is configured
const DefaultReachPercentage = 0.95

// MultiTargetConfig controls when a one-to-many search may give up early
type MultiTargetConfig struct {
	// Timeout starts on the first ShouldTerminate call. Zero or negative
	// disables the deadline, so only completeness ends the search.
	Timeout time.Duration

	// ReachPercentage is the share of targets that must be reached before
	// the deadline may end the search. Zero or negative means
	// DefaultReachPercentage.
	ReachPercentage float64
}

// DefaultMultiTargetConfig returns the quorum default without a deadline
func DefaultMultiTargetConfig() MultiTargetConfig {
	return MultiTargetConfig{ReachPercentage: DefaultReachPercentage}
}

// MultiTarget stops a search once every target is reached, or once the
// deadline passed and enough of them are
type MultiTarget struct {
	cfg       MultiTargetConfig
	total     int
	reached   map[graph.VertexID]struct{}
	unreached map[graph.VertexID]struct{}

	started  bool
	deadline time.Time
	now      func() time.Time
}

// NewMultiTarget creates a strategy for the given targets. Duplicates count once.
func NewMultiTarget(targets []graph.VertexID, cfg MultiTargetConfig) *MultiTarget {
	if cfg.ReachPercentage <= 0 {
		cfg.ReachPercentage = DefaultReachPercentage
	}

	unreached := make(map[graph.VertexID]struct{}, len(targets))
	for _, target := range targets {
		unreached[target] = struct{}{}
	}

	return &MultiTarget{
		cfg:       cfg,
		total:     len(unreached),
		reached:   make(map[graph.VertexID]struct{}, len(unreached)),
		unreached: unreached,
		now:       time.Now,
	}
}

// ShouldTerminate implements Strategy
func (m *MultiTarget) ShouldTerminate(v graph.VertexID) bool {
	if !m.started {
		m.started = true
		if m.cfg.Timeout > 0 {
			m.deadline = m.now().Add(m.cfg.Timeout)
		}
	}

	if _, ok := m.unreached[v]; ok {
		delete(m.unreached, v)
		m.reached[v] = struct{}{}
	}

	if len(m.unreached) == 0 {
		return true
	}

	if m.deadline.IsZero() || !m.now().After(m.deadline) {
		return false
	}

	return m.ratio() >= m.cfg.ReachPercentage
}

func (m *MultiTarget) ratio() float64 {
	if m.total == 0 {
		return 1
	}

	return float64(len(m.reached)) / float64(m.total)
}

// Reached returns the targets settled so far in ascending order
func (m *MultiTarget) Reached() []graph.VertexID {
	return sortedKeys(m.reached)
}

// Unreached returns the targets not settled yet in ascending order
func (m *MultiTarget) Unreached() []graph.VertexID {
	return sortedKeys(m.unreached)
}

// Total is the number of distinct targets
func (m *MultiTarget) Total() int {
	return m.total
}

func sortedKeys(set map[graph.VertexID]struct{}) []graph.VertexID {
	keys := make([]graph.VertexID, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys
}
