package entity

import (
	"strings"

	"streetsearch/internal/errors"
)

// TraverseMode is a single way of moving along a street edge
type TraverseMode uint8

const (
	ModeWalk TraverseMode = 1 << iota
	ModeBicycle
	ModeCar
	ModeRail
)

var modeNames = []struct {
	mode TraverseMode
	name string
}{
	{ModeWalk, "WALK"},
	{ModeBicycle, "BICYCLE"},
	{ModeCar, "CAR"},
	{ModeRail, "RAIL"},
}

func (m TraverseMode) String() string {
	for _, entry := range modeNames {
		if entry.mode == m {
			return entry.name
		}
	}

	return "UNKNOWN"
}

// ModeSet is the capability set of an edge or the allowed modes of a request
type ModeSet uint8

// NewModeSet builds a set from the given modes
func NewModeSet(modes ...TraverseMode) ModeSet {
	var set ModeSet
	for _, mode := range modes {
		set |= ModeSet(mode)
	}

	return set
}

// AllModes allows every mode
const AllModes = ModeSet(ModeWalk | ModeBicycle | ModeCar | ModeRail)

// Has reports whether mode is in the set
func (s ModeSet) Has(mode TraverseMode) bool {
	return s&ModeSet(mode) != 0
}

// Intersects reports whether the two sets share a mode
func (s ModeSet) Intersects(other ModeSet) bool {
	return s&other != 0
}

// IsEmpty reports whether the set has no modes
func (s ModeSet) IsEmpty() bool {
	return s == 0
}

// Modes lists the members in a fixed order
func (s ModeSet) Modes() []TraverseMode {
	var modes []TraverseMode
	for _, entry := range modeNames {
		if s.Has(entry.mode) {
			modes = append(modes, entry.mode)
		}
	}

	return modes
}

// String renders the set as pipe separated names, e.g. "WALK|CAR"
func (s ModeSet) String() string {
	names := make([]string, 0, len(modeNames))
	for _, mode := range s.Modes() {
		names = append(names, mode.String())
	}

	return strings.Join(names, "|")
}

// ParseModeSet parses names separated by '|' or ','. Matching is case-insensitive.
func ParseModeSet(s string) (ModeSet, error) {
	var set ModeSet
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' })
	for _, field := range fields {
		mode, err := ParseTraverseMode(field)
		if err != nil {
			return 0, err
		}
		set |= ModeSet(mode)
	}

	return set, nil
}

// ParseTraverseMode parses a single mode name
func ParseTraverseMode(s string) (TraverseMode, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, entry := range modeNames {
		if entry.name == name {
			return entry.mode, nil
		}
	}

	return 0, errors.Errorf("unknown traverse mode: %s", s)
}
