package metadata

import (
	"math"

	"github.com/paulmach/orb"

	"i2cgo/pkg/model"
)

// Label derives the human-readable fields from a raw tag table.
// Coordinates are set only when both latitude and longitude tags are present.
func Label(raw map[string]any) model.Labeled {
	labeled := model.Labeled{DateTime: model.DateTimeUnknown}

	if dt, ok := raw["DateTimeOriginal"].(string); ok && dt != "" {
		labeled.DateTime = dt
	}

	gps, ok := raw[GPSInfoKey].(map[string]any)
	if !ok {
		return labeled
	}

	lat, okLat := degrees(gps["GPSLatitude"])
	lon, okLon := degrees(gps["GPSLongitude"])
	if !okLat || !okLon {
		return labeled
	}

	if ref, ok := gps["GPSLatitudeRef"].(string); ok && ref != "N" {
		lat = -lat
	}
	if ref, ok := gps["GPSLongitudeRef"].(string); ok && ref != "E" {
		lon = -lon
	}

	labeled.Latitude = &lat
	labeled.Longitude = &lon
	return labeled
}

// Point returns the labeled coordinates as an orb point.
func Point(l model.Labeled) (orb.Point, bool) {
	if !l.HasCoordinates() {
		return orb.Point{}, false
	}
	return orb.Point{*l.Longitude, *l.Latitude}, true
}

// degrees converts a (degrees, minutes, seconds) value to decimal degrees.
// Shorter sequences and plain numbers are accepted; the result is a magnitude.
func degrees(v any) (float64, bool) {
	var parts []any
	switch val := v.(type) {
	case nil:
		return 0, false
	case []any:
		parts = val
	default:
		parts = []any{val}
	}
	if len(parts) == 0 || len(parts) > 3 {
		return 0, false
	}

	divisors := [3]float64{1, 60, 3600}
	var total float64
	for i, p := range parts {
		f, ok := toFloat(p)
		if !ok {
			return 0, false
		}
		total += f / divisors[i]
	}
	return math.Abs(total), true
}
