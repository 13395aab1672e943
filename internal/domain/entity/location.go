// Package entity contains the core business objects of the project.
package entity

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"streetsearch/internal/errors"

	"github.com/paulmach/orb"
)

// GenericLocation is an immutable latitude/longitude pair. It is used both for
// waypoints given by a caller and for positions derived from a search state.
type GenericLocation struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// NewLocation creates a location from latitude and longitude
func NewLocation(lat, lng float64) GenericLocation {
	return GenericLocation{Lat: lat, Lng: lng}
}

// LocationFromPoint converts an orb point (lon, lat order) to a location
func LocationFromPoint(p orb.Point) GenericLocation {
	return GenericLocation{Lat: p.Lat(), Lng: p.Lon()}
}

// Point returns the location as an orb point in lon/lat order
func (l GenericLocation) Point() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// IsValid reports whether the location is a finite coordinate on earth
func (l GenericLocation) IsValid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) ||
		math.IsInf(l.Lat, 0) || math.IsInf(l.Lng, 0) {
		return false
	}

	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

func (l GenericLocation) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Lat, l.Lng)
}

// ParseLocation parses "lat,lng"
func ParseLocation(s string) (GenericLocation, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return GenericLocation{}, errors.Errorf("invalid location %q: expected lat,lng", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return GenericLocation{}, errors.Wrapf(err, "invalid latitude in %q", s)
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return GenericLocation{}, errors.Wrapf(err, "invalid longitude in %q", s)
	}

	loc := GenericLocation{Lat: lat, Lng: lng}
	if !loc.IsValid() {
		return GenericLocation{}, errors.Errorf("location %q is outside valid bounds", s)
	}

	return loc, nil
}

// ParseLocations parses a ';' separated list of "lat,lng" pairs. Empty input
// yields an empty list.
func ParseLocations(s string) ([]GenericLocation, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []GenericLocation{}, nil
	}

	parts := strings.Split(s, ";")
	locations := make([]GenericLocation, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}

		loc, err := ParseLocation(part)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}

	return locations, nil
}
