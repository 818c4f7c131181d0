package overpass

import "beercompass.app/internal/models"

// response is the top-level Overpass JSON document. Only the elements
// matter; the osm3s block is ignored.
type response struct {
	Elements []Element `json:"elements"`
}

// Center is the centroid Overpass computes for ways and relations when
// the query asks for `out center`.
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element is one OSM feature in an Overpass response. Nodes carry their
// own coordinates; ways and relations carry a Center instead. Pointers
// distinguish an absent coordinate from a genuine zero.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *Center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// coordinates resolves an element's position: a node's own lat/lon, or a
// way/relation centroid. ok is false when the element carries neither.
func (e Element) coordinates() (lat, lon float64, ok bool) {
	switch e.Type {
	case "node":
		if e.Lat == nil || e.Lon == nil {
			return 0, 0, false
		}
		return *e.Lat, *e.Lon, true
	case "way", "relation":
		if e.Center == nil {
			return 0, 0, false
		}
		return e.Center.Lat, e.Center.Lon, true
	default:
		return 0, 0, false
	}
}

// displayName picks the element's name: `name`, then the English
// `name:en`, then the catalog's unnamed placeholder.
func (e Element) displayName() string {
	if name := e.Tags["name"]; name != "" {
		return name
	}
	if name := e.Tags["name:en"]; name != "" {
		return name
	}
	return models.UnnamedName
}

// ProcessElements converts raw Overpass elements into catalog points.
// Elements without a usable position are dropped; unknown amenity values
// fall back to the bar category; tags are preserved verbatim.
func ProcessElements(elements []Element) []models.GeoPoint {
	points := make([]models.GeoPoint, 0, len(elements))
	for _, e := range elements {
		lat, lon, ok := e.coordinates()
		if !ok {
			continue
		}

		category := models.ParseCategory(e.Tags["amenity"])
		points = append(points, models.NewGeoPoint(e.ID, e.displayName(), category, lat, lon, e.Tags))
	}
	return points
}
