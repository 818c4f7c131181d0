package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beercompass.app/internal/overpass"
)

func TestCityPresets(t *testing.T) {
	assert.Equal(t, []string{"berlin", "london", "nyc", "paris", "sf", "sydney", "tokyo"}, presetNames())

	sf := cityPresets["sf"]
	assert.Equal(t, overpass.BBox{South: 37.4, West: -122.8, North: 38.2, East: -121.8}, sf)
}

func TestWorldRegions(t *testing.T) {
	regions := worldRegions()

	// 18 latitude bands by 36 longitude bands
	require.Len(t, regions, 648)

	first := regions[0]
	assert.Equal(t, "block_-90_-180", first.Name)
	assert.Equal(t, overpass.BBox{South: -90, West: -180, North: -80, East: -170}, first.BBox)

	last := regions[len(regions)-1]
	assert.Equal(t, "block_80_170", last.Name)
	assert.Equal(t, overpass.BBox{South: 80, West: 170, North: 90, East: 180}, last.BBox)

	seen := make(map[string]bool, len(regions))
	for _, reg := range regions {
		assert.False(t, seen[reg.Name], "block names must be unique resume keys")
		seen[reg.Name] = true
	}
}

func TestResolveRegions(t *testing.T) {
	t.Run("city preset", func(t *testing.T) {
		regions, err := resolveRegions("london", "")
		require.NoError(t, err)
		require.Len(t, regions, 1)
		assert.Equal(t, "london", regions[0].Name)
		assert.Equal(t, cityPresets["london"], regions[0].BBox)
	})

	t.Run("cities covers every preset in stable order", func(t *testing.T) {
		regions, err := resolveRegions("cities", "")
		require.NoError(t, err)
		require.Len(t, regions, len(cityPresets))

		names := make([]string, len(regions))
		for i, reg := range regions {
			names[i] = reg.Name
		}
		assert.Equal(t, presetNames(), names)
	})

	t.Run("empty region flag behaves like cities", func(t *testing.T) {
		regions, err := resolveRegions("", "")
		require.NoError(t, err)
		assert.Len(t, regions, len(cityPresets))
	})

	t.Run("world sweep", func(t *testing.T) {
		regions, err := resolveRegions("world", "")
		require.NoError(t, err)
		assert.Len(t, regions, 648)
	})

	t.Run("explicit bbox wins over region flag", func(t *testing.T) {
		regions, err := resolveRegions("london", "48.1,11.5,48.2,11.6")
		require.NoError(t, err)
		require.Len(t, regions, 1)
		assert.Equal(t, "custom_48.1,11.5,48.2,11.6", regions[0].Name)
		assert.Equal(t, overpass.BBox{South: 48.1, West: 11.5, North: 48.2, East: 11.6}, regions[0].BBox)
	})

	t.Run("malformed bbox", func(t *testing.T) {
		_, err := resolveRegions("", "48.1,11.5")
		assert.Error(t, err)
	})

	t.Run("unknown region names the presets", func(t *testing.T) {
		_, err := resolveRegions("atlantis", "")
		require.Error(t, err)
		assert.ErrorContains(t, err, `unknown region "atlantis"`)
		assert.ErrorContains(t, err, "sf")
	})
}
