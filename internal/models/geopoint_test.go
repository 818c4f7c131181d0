package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected Category
	}{
		{"bar", CategoryBar},
		{"pub", CategoryPub},
		{"biergarten", CategoryBiergarten},
		{"PUB", CategoryPub},
		{" biergarten ", CategoryBiergarten},
		{"nightclub", CategoryBar},
		{"", CategoryBar},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCategory(tt.input))
		})
	}
}

func TestNewGeoPointDefaults(t *testing.T) {
	p := NewGeoPoint(42, "", CategoryPub, 51.5, -0.1, nil)

	assert.Equal(t, UnnamedName, p.Name, "empty name should fall back to the unnamed placeholder")
	assert.NotNil(t, p.Attributes, "attributes map should always be initialized")
	assert.Empty(t, p.Attributes)
	assert.Equal(t, int64(42), p.ID)
	assert.Equal(t, CategoryPub, p.Category)
}

func TestNewGeoPointPreservesAttributes(t *testing.T) {
	attrs := map[string]string{
		"amenity":      "pub",
		"addr:street":  "High Street",
		"opening_hours": "Mo-Su 12:00-23:00",
	}

	p := NewGeoPoint(7, "The Crown", CategoryPub, 51.5, -0.1, attrs)

	assert.Equal(t, attrs, p.Attributes, "attributes should be preserved verbatim")
}
