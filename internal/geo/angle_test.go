package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{0, 0},
		{360, 0},
		{361, 1},
		{720, 0},
		{-90, 270},
		{-360, 0},
		{-450, 270},
		{359.5, 359.5},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.InDelta(t, tt.expected, NormalizeAngle(tt.input), 1e-9)
		})
	}
}

func TestShortestAngleDelta(t *testing.T) {
	tests := []struct {
		name     string
		from, to float64
		expected float64
	}{
		{"across north, clockwise", 350, 10, 20},
		{"across north, counterclockwise", 10, 350, -20},
		{"no rotation", 90, 90, 0},
		{"quarter turn", 0, 90, 90},
		{"quarter turn back", 90, 0, -90},
		{"exact half turn canonicalizes clockwise", 0, 180, 180},
		{"negative half turn canonicalizes clockwise", 180, 0, 180},
		{"wrapped inputs", 710, 10, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta := ShortestAngleDelta(tt.from, tt.to)
			assert.InDelta(t, tt.expected, delta, 1e-9)
			assert.Greater(t, delta, -180.0, "delta must lie in (-180,180]")
			assert.LessOrEqual(t, delta, 180.0, "delta must lie in (-180,180]")
		})
	}
}

func TestSmoothAngleTakesShortPath(t *testing.T) {
	// Halfway from 10 toward 350 must cross 0/360, not travel through 180.
	smoothed := SmoothAngle(10, 350, 0.5)
	assert.InDelta(t, 0.0, smoothed, 1e-9)

	// A second application converges further toward the target.
	smoothed = SmoothAngle(smoothed, 350, 0.5)
	assert.InDelta(t, 355.0, smoothed, 1e-9)
}

func TestSmoothAngleFactorExtremes(t *testing.T) {
	assert.InDelta(t, 350.0, SmoothAngle(10, 350, 1.0), 1e-9, "factor 1 snaps to target")

	barelyMoved := SmoothAngle(10, 350, 0.01)
	assert.InDelta(t, 9.8, barelyMoved, 1e-9, "small factor barely moves")
}
