package models

import "strings"

// Category classifies a point of interest by its OSM amenity tag.
type Category string

const (
	CategoryBar        Category = "bar"
	CategoryPub        Category = "pub"
	CategoryBiergarten Category = "biergarten"
)

// AllCategories lists every known category in canonical order.
func AllCategories() []Category {
	return []Category{CategoryBar, CategoryPub, CategoryBiergarten}
}

// ParseCategory maps an amenity string onto a Category. Unknown values
// fall back to bar, matching the upstream dataset generator.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryPub:
		return CategoryPub
	case CategoryBiergarten:
		return CategoryBiergarten
	default:
		return CategoryBar
	}
}

// UnnamedName is the display name for points whose source record carries
// no usable name tag.
const UnnamedName = "Unnamed Bar"

// GeoPoint is a single point of interest loaded from the dataset.
// Instances are immutable once loaded; Attributes are provenance tags
// preserved verbatim and never interpreted by the core.
type GeoPoint struct {
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	Category   Category          `json:"type"`
	Lat        float64           `json:"lat"`
	Lon        float64           `json:"lon"`
	Attributes map[string]string `json:"tags,omitempty"`
}

func NewGeoPoint(id int64, name string, category Category, lat, lon float64, attributes map[string]string) GeoPoint {
	if name == "" {
		name = UnnamedName
	}
	if attributes == nil {
		attributes = map[string]string{}
	}
	return GeoPoint{
		ID:         id,
		Name:       name,
		Category:   category,
		Lat:        lat,
		Lon:        lon,
		Attributes: attributes,
	}
}
