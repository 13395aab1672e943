// Package contract simplifies the street graph before any search runs by
// collapsing one- and two-member intersections into single vertices.
package contract

import (
	"log/slog"

	"streetsearch/internal/domain/graph"
	"streetsearch/internal/errors"
)

// ErrTypeMismatch is returned when an intersection member is not a
// directional intersection vertex. It is an invariant violation of the caller.
var ErrTypeMismatch = errors.Mark(errors.New("intersection member is not a directional intersection vertex"), graph.ErrInvariantViolation)

// Stats counts what a contraction pass did
type Stats struct {
	DeadEnds   int // one-member intersections replaced by a dead end
	Simplified int // two-member intersections merged into one vertex
	Skipped    int // intersections of any other degree
}

// Unify contracts the given intersections, see UnifyWithStats
func Unify(g *graph.Graph, intersections []graph.Intersection) error {
	_, err := UnifyWithStats(g, intersections, nil)

	return err
}

// UnifyWithStats contracts every intersection of degree 1 into a dead end and
// every intersection of degree 2 into one simplified vertex at the first
// member's position. Other degrees are left alone. Edge geometry, direction
// and modes are untouched; only their endpoints move.
//
// The intersections are a snapshot taken before the call and must not share
// members. Every member is checked before the graph is modified, so invalid
// input is rejected with the graph untouched. An error while rewriting leaves
// the graph partly contracted and it must not be used for routing.
func UnifyWithStats(g *graph.Graph, intersections []graph.Intersection, logger *slog.Logger) (Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var stats Stats
	if err := checkMembers(g, intersections); err != nil {
		return stats, err
	}

	for idx, intersection := range intersections {
		var err error
		switch intersection.Degree() {
		case 1:
			err = contractDeadEnd(g, intersection.Members[0])
			stats.DeadEnds++
		case 2:
			err = contractPair(g, intersection.Members)
			stats.Simplified++
		default:
			stats.Skipped++
		}
		if err != nil {
			return stats, errors.Wrapf(err, "contract intersection %d", idx)
		}
	}

	logger.Info("Graph contracted",
		"intersections", len(intersections),
		"dead_ends", stats.DeadEnds,
		"simplified", stats.Simplified,
		"skipped", stats.Skipped,
		"vertices", g.NumVertices(),
		"edges", g.NumEdges(),
	)

	return stats, nil
}

func checkMembers(g *graph.Graph, intersections []graph.Intersection) error {
	seen := make(map[graph.VertexID]int)
	for idx, intersection := range intersections {
		if degree := intersection.Degree(); degree != 1 && degree != 2 {
			continue
		}

		for _, member := range intersection.Members {
			v := g.Vertex(member)
			if v == nil {
				return errors.Wrapf(ErrTypeMismatch, "intersection %d: vertex %d does not exist", idx, member)
			}
			if !v.IsDirectional() {
				return errors.Wrapf(ErrTypeMismatch, "intersection %d: vertex %q is %s with %d in and %d out streets",
					idx, v.Label, v.Kind, len(v.Incoming()), len(v.Outgoing()))
			}
			if other, dup := seen[member]; dup {
				return errors.Wrapf(graph.ErrInvariantViolation, "vertex %q belongs to intersections %d and %d", v.Label, other, idx)
			}
			seen[member] = idx
		}
	}

	return nil
}

// moveStreets detaches the in- and out-street of member and registers them
// on target. The edges point at target once it is added to the graph.
func moveStreets(g *graph.Graph, member *graph.Vertex, target *graph.Vertex) error {
	if edgeID, ok := member.InStreet(); ok {
		if err := g.DetachIncoming(member.ID(), edgeID); err != nil {
			return err
		}
		target.AddIncoming(edgeID)
	}
	if edgeID, ok := member.OutStreet(); ok {
		if err := g.DetachOutgoing(member.ID(), edgeID); err != nil {
			return err
		}
		target.AddOutgoing(edgeID)
	}

	return nil
}

func contractDeadEnd(g *graph.Graph, memberID graph.VertexID) error {
	member := g.Vertex(memberID)
	deadEnd := graph.NewDeadEnd(member)

	if err := moveStreets(g, member, deadEnd); err != nil {
		return err
	}
	if err := g.RemoveVertex(memberID); err != nil {
		return err
	}
	if _, err := g.AddVertex(deadEnd); err != nil {
		return errors.Wrapf(err, "add dead end %q", deadEnd.Label)
	}

	return nil
}

func contractPair(g *graph.Graph, members []graph.VertexID) error {
	simplified := graph.NewSimplified(g.Vertex(members[0]))

	for _, memberID := range members {
		member := g.Vertex(memberID)
		if err := moveStreets(g, member, simplified); err != nil {
			return err
		}
		if err := g.RemoveVertex(memberID); err != nil {
			return err
		}
	}

	if _, err := g.AddVertex(simplified); err != nil {
		return errors.Wrapf(err, "add simplified vertex %q", simplified.Label)
	}

	return nil
}
