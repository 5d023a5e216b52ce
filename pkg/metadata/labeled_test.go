package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i2cgo/pkg/model"
)

func TestLabel_DateTime(t *testing.T) {
	assert.Equal(t, model.DateTimeUnknown, Label(map[string]any{}).DateTime)
	assert.Equal(t, model.DateTimeUnknown, Label(map[string]any{"DateTimeOriginal": ""}).DateTime)
	assert.Equal(t, "2023:05:01 10:00:00", Label(map[string]any{"DateTimeOriginal": "2023:05:01 10:00:00"}).DateTime)
}

func TestLabel_HemisphereSign(t *testing.T) {
	dms := []any{37.0, 30.0, 36.0} // 37.51
	tests := []struct {
		name           string
		latRef, lonRef any
		wantLat        float64
		wantLon        float64
	}{
		{"north east", "N", "E", 37.51, 37.51},
		{"south east", "S", "E", -37.51, 37.51},
		{"north west", "N", "W", 37.51, -37.51},
		{"south west", "S", "W", -37.51, -37.51},
		{"refs missing", nil, nil, 37.51, 37.51},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gps := map[string]any{"GPSLatitude": dms, "GPSLongitude": dms}
			if tt.latRef != nil {
				gps["GPSLatitudeRef"] = tt.latRef
			}
			if tt.lonRef != nil {
				gps["GPSLongitudeRef"] = tt.lonRef
			}

			l := Label(map[string]any{GPSInfoKey: gps})
			require.True(t, l.HasCoordinates())
			assert.InDelta(t, tt.wantLat, *l.Latitude, 1e-9)
			assert.InDelta(t, tt.wantLon, *l.Longitude, 1e-9)
		})
	}
}

func TestLabel_NoZeroCoordinates(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"no gps block", map[string]any{"Make": "Canon"}},
		{"empty gps block", map[string]any{GPSInfoKey: map[string]any{}}},
		{"latitude only", map[string]any{GPSInfoKey: map[string]any{"GPSLatitude": []any{1.0, 0.0, 0.0}}}},
		{"refs only", map[string]any{GPSInfoKey: map[string]any{"GPSLatitudeRef": "N", "GPSLongitudeRef": "E"}}},
		{"garbage", map[string]any{GPSInfoKey: map[string]any{"GPSLatitude": "north", "GPSLongitude": []any{1.0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Label(tt.raw)
			assert.Nil(t, l.Latitude)
			assert.Nil(t, l.Longitude)
			_, ok := Point(l)
			assert.False(t, ok)
		})
	}
}

func TestDegrees(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{[]any{10.0, 30.0, 0.0}, 10.5, true},
		{[]any{"10", "30", "36"}, 10.51, true},
		{[]any{10.0, 30.0}, 10.5, true},
		{12.25, 12.25, true},
		{-12.25, 12.25, true},
		{[]any{}, 0, false},
		{[]any{1.0, 2.0, 3.0, 4.0}, 0, false},
		{[]any{1.0, nil, 3.0}, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := degrees(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "%v", tt.in)
		}
	}
}

func TestPoint_OrderIsLonLat(t *testing.T) {
	lat, lon := 37.5, 127.0
	p, ok := Point(model.Labeled{Latitude: &lat, Longitude: &lon})
	require.True(t, ok)
	assert.Equal(t, 37.5, p.Lat())
	assert.Equal(t, 127.0, p.Lon())
}
