package geo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineZeroForCoincidentPoints(t *testing.T) {
	assert.Zero(t, Haversine(37.7749, -122.4194, 37.7749, -122.4194))
}

func TestHaversineSymmetry(t *testing.T) {
	d1 := Haversine(37.7749, -122.4194, 40.7128, -74.0060)
	d2 := Haversine(40.7128, -74.0060, 37.7749, -122.4194)
	assert.InDelta(t, d1, d2, 1e-6, "distance should be symmetric")
}

func TestHaversineSanFranciscoToNewYork(t *testing.T) {
	// Roughly 4,129 km; allow 1%.
	d := Haversine(37.7749, -122.4194, 40.7128, -74.0060)
	assert.InDelta(t, 4129000.0, d, 4129000.0*0.01)
}

func TestHaversineShortDistance(t *testing.T) {
	// Two points about 54 m apart in San Francisco.
	d := Haversine(37.7750, -122.4200, 37.7749, -122.4194)
	assert.InDelta(t, 54.0, d, 5.0)
}

func TestBearingBetweenPoints(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
		tolerance              float64
	}{
		{
			name:      "North direction",
			lat1:      40.0,
			lon1:      -122.0,
			lat2:      41.0,
			lon2:      -122.0,
			expected:  0.0,
			tolerance: 1.0,
		},
		{
			name:      "East direction",
			lat1:      40.0,
			lon1:      -122.0,
			lat2:      40.0,
			lon2:      -121.0,
			expected:  90.0,
			tolerance: 1.0,
		},
		{
			name:      "South direction",
			lat1:      41.0,
			lon1:      -122.0,
			lat2:      40.0,
			lon2:      -122.0,
			expected:  180.0,
			tolerance: 1.0,
		},
		{
			name:      "Northeast direction",
			lat1:      40.0,
			lon1:      -122.0,
			lat2:      40.7,
			lon2:      -121.3,
			expected:  45.0,
			tolerance: 10.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bearing := BearingBetweenPoints(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expected, bearing, tt.tolerance)
			assert.GreaterOrEqual(t, bearing, 0.0)
			assert.Less(t, bearing, 360.0)
		})
	}
}

func TestBearingInvariantUnderFullLongitudeRotation(t *testing.T) {
	b1 := BearingBetweenPoints(40.0, -122.0, 40.7, -121.3)
	b2 := BearingBetweenPoints(40.0, -122.0+360, 40.7, -121.3+360)
	assert.InDelta(t, b1, b2, 1e-9)
}

func TestBearingToCompass(t *testing.T) {
	tests := []struct {
		bearing  float64
		expected string
	}{
		{0.0, "N"},
		{45.0, "NE"},
		{90.0, "E"},
		{135.0, "SE"},
		{180.0, "S"},
		{225.0, "SW"},
		{270.0, "W"},
		{315.0, "NW"},
		{360.0, "N"},
		{-45.0, "NW"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.1f degrees", tt.bearing), func(t *testing.T) {
			assert.Equal(t, tt.expected, BearingToCompass(tt.bearing))
		})
	}
}
