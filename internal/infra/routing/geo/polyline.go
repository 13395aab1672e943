package geo

import (
	"streetsearch/internal/errors"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

// EncodePolyline encodes a lon/lat line string with the Google polyline
// algorithm (lat, lng order on the wire, 5 digit precision)
func EncodePolyline(line orb.LineString) string {
	coords := make([][]float64, 0, len(line))
	for _, point := range line {
		coords = append(coords, []float64{point.Lat(), point.Lon()})
	}

	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline decodes an encoded polyline into a lon/lat line string
func DecodePolyline(encoded string) (orb.LineString, error) {
	if encoded == "" {
		return orb.LineString{}, nil
	}

	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.Wrap(err, "decode polyline")
	}
	if len(rest) > 0 {
		return nil, errors.Errorf("decode polyline: %d trailing bytes", len(rest))
	}

	line := make(orb.LineString, 0, len(coords))
	for _, coord := range coords {
		line = append(line, orb.Point{coord[1], coord[0]})
	}

	return line, nil
}
