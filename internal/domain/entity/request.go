// Package entity contains the core business objects of the project.
package entity

import (
	"streetsearch/internal/errors"
)

// Default speeds in meters per second, used when a request leaves them unset.
const (
	DefaultWalkSpeed      = 1.33
	DefaultBikeSpeed      = 5.0
	DefaultCarSpeed       = 13.41
	DefaultWalkReluctance = 2.0
)

// RoutingRequest describes one trip search. It is read-only for every search
// component; heuristics and termination strategies copy what they need.
type RoutingRequest struct {
	From      GenericLocation   // Origin of the trip
	To        GenericLocation   // Final destination, always required
	Waypoints []GenericLocation // Ordered intermediate stops, may be empty

	WalkReluctance float64 // Multiplier converting travel time into search cost
	MaxStreetSpeed float64 // Fastest possible street speed in m/s, bounds the heuristic

	WalkSpeed float64 // m/s
	BikeSpeed float64 // m/s
	CarSpeed  float64 // m/s

	Modes ModeSet // Allowed traverse modes; empty means walk only
}

// NewRoutingRequest creates a walking request with default weighting
func NewRoutingRequest(from, to GenericLocation, waypoints ...GenericLocation) *RoutingRequest {
	req := &RoutingRequest{
		From:      from,
		To:        to,
		Waypoints: waypoints,
		Modes:     NewModeSet(ModeWalk),
	}
	req.ApplyDefaults()

	return req
}

// ApplyDefaults fills zero weighting fields with defaults. MaxStreetSpeed is
// raised to the fastest enabled mode speed so the search cost bound holds.
func (r *RoutingRequest) ApplyDefaults() {
	if r.WalkReluctance <= 0 {
		r.WalkReluctance = DefaultWalkReluctance
	}
	if r.WalkSpeed <= 0 {
		r.WalkSpeed = DefaultWalkSpeed
	}
	if r.BikeSpeed <= 0 {
		r.BikeSpeed = DefaultBikeSpeed
	}
	if r.CarSpeed <= 0 {
		r.CarSpeed = DefaultCarSpeed
	}
	if r.Modes.IsEmpty() {
		r.Modes = NewModeSet(ModeWalk)
	}
	if r.MaxStreetSpeed <= 0 {
		r.MaxStreetSpeed = r.fastestModeSpeed()
	}
}

// SpeedFor returns the configured speed for mode, capped at MaxStreetSpeed
func (r *RoutingRequest) SpeedFor(mode TraverseMode) float64 {
	var speed float64
	switch mode {
	case ModeWalk:
		speed = r.WalkSpeed
	case ModeBicycle:
		speed = r.BikeSpeed
	case ModeCar, ModeRail:
		speed = r.CarSpeed
	}

	if r.MaxStreetSpeed > 0 && speed > r.MaxStreetSpeed {
		return r.MaxStreetSpeed
	}

	return speed
}

func (r *RoutingRequest) fastestModeSpeed() float64 {
	fastest := 0.0
	for _, mode := range r.Modes.Modes() {
		var speed float64
		switch mode {
		case ModeWalk:
			speed = r.WalkSpeed
		case ModeBicycle:
			speed = r.BikeSpeed
		case ModeCar, ModeRail:
			speed = r.CarSpeed
		}
		fastest = max(fastest, speed)
	}

	return fastest
}

// Validate checks the request fields the search relies on
func (r *RoutingRequest) Validate() error {
	if !r.From.IsValid() {
		return errors.Errorf("invalid origin %s", r.From)
	}
	if !r.To.IsValid() {
		return errors.Errorf("invalid destination %s", r.To)
	}
	for idx, waypoint := range r.Waypoints {
		if !waypoint.IsValid() {
			return errors.Errorf("invalid waypoint %d: %s", idx, waypoint)
		}
	}
	if r.WalkReluctance <= 0 {
		return errors.New("walk reluctance must be positive")
	}
	if r.MaxStreetSpeed <= 0 {
		return errors.New("max street speed must be positive")
	}

	return nil
}
