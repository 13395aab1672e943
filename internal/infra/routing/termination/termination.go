// Package termination decides when a running search may stop.
package termination

import (
	"streetsearch/internal/domain/graph"
)

// Strategy is consulted after every vertex the search settles. It belongs to
// a single search and is not safe for concurrent use.
type Strategy interface {
	ShouldTerminate(v graph.VertexID) bool
}

// SingleTarget stops as soon as its target is settled
type SingleTarget struct {
	target graph.VertexID
}

// NewSingleTarget creates a strategy for a point-to-point search
func NewSingleTarget(target graph.VertexID) *SingleTarget {
	return &SingleTarget{target: target}
}

// ShouldTerminate implements Strategy
func (s *SingleTarget) ShouldTerminate(v graph.VertexID) bool {
	return v == s.target
}

// Never lets the search run until the queue is exhausted
type Never struct{}

// ShouldTerminate implements Strategy
func (Never) ShouldTerminate(graph.VertexID) bool { return false }
