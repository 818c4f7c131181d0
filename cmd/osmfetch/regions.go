package main

import (
	"fmt"
	"sort"
	"strings"

	"beercompass.app/internal/overpass"
)

// region is one named download unit: a city preset, a world sweep block,
// or a hand-supplied bounding box. The name doubles as the resume key in
// the bars database.
type region struct {
	Name string
	BBox overpass.BBox
}

// cityPresets are hand-drawn boxes around cities worth drinking in.
var cityPresets = map[string]overpass.BBox{
	"sf":     {South: 37.4, West: -122.8, North: 38.2, East: -121.8},
	"nyc":    {South: 40.5, West: -74.3, North: 40.9, East: -73.7},
	"london": {South: 51.3, West: -0.6, North: 51.7, East: 0.2},
	"berlin": {South: 52.3, West: 13.0, North: 52.7, East: 13.8},
	"tokyo":  {South: 35.5, West: 139.4, North: 35.8, East: 139.9},
	"sydney": {South: -33.9, West: 151.1, North: -33.7, East: 151.4},
	"paris":  {South: 48.8, West: 2.2, North: 48.9, East: 2.5},
}

func presetNames() []string {
	names := make([]string, 0, len(cityPresets))
	for name := range cityPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// cityRegions lists every preset in a stable order.
func cityRegions() []region {
	names := presetNames()
	regions := make([]region, 0, len(names))
	for _, name := range names {
		regions = append(regions, region{Name: name, BBox: cityPresets[name]})
	}
	return regions
}

// worldRegions covers the globe in 10x10 degree blocks, the largest box
// the public Overpass servers answer reliably. Block names encode the
// south-west corner so interrupted sweeps resume cleanly.
func worldRegions() []region {
	var regions []region
	for lat := -90; lat < 90; lat += 10 {
		for lon := -180; lon < 180; lon += 10 {
			regions = append(regions, region{
				Name: fmt.Sprintf("block_%d_%d", lat, lon),
				BBox: overpass.BBox{
					South: float64(lat),
					West:  float64(lon),
					North: float64(lat + 10),
					East:  float64(lon + 10),
				},
			})
		}
	}
	return regions
}

// resolveRegions maps the -region and -bbox flags onto download units. An
// explicit bounding box wins over the region flag.
func resolveRegions(regionFlag, bboxFlag string) ([]region, error) {
	if bboxFlag != "" {
		bbox, err := overpass.ParseBBox(bboxFlag)
		if err != nil {
			return nil, err
		}
		return []region{{Name: "custom_" + bbox.String(), BBox: bbox}}, nil
	}

	switch regionFlag {
	case "", "cities":
		return cityRegions(), nil
	case "world":
		return worldRegions(), nil
	default:
		bbox, ok := cityPresets[regionFlag]
		if !ok {
			return nil, fmt.Errorf("unknown region %q: want one of %s, cities or world",
				regionFlag, strings.Join(presetNames(), ", "))
		}
		return []region{{Name: regionFlag, BBox: bbox}}, nil
	}
}
