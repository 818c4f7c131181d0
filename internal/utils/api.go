package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"beercompass.app/internal/models"
)

// ParseFloatParam retrieves a float64 value from the provided URL query parameters.
// If the key is not present or the value is invalid, it returns 0 and updates the fieldErrors map.
// - params: URL query parameters.
// - key: The key to look for in the query parameters.
// - fieldErrors: A map to collect validation errors for fields.
// Returns:
// - The parsed float64 value (or 0 if invalid).
// - The updated fieldErrors map containing any validation errors.
func ParseFloatParam(params url.Values, key string, fieldErrors map[string][]string) (float64, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return 0, fieldErrors
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
	}
	return f, fieldErrors
}

// ParseIntParam is the integer counterpart of ParseFloatParam.
func ParseIntParam(params url.Values, key string, fieldErrors map[string][]string) (int, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return 0, fieldErrors
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
	}
	return n, fieldErrors
}

// ParseCategoriesParam parses the comma-separated `categories` query
// parameter into known categories. An absent or empty parameter means
// "all categories" and yields nil. Unknown names are collected as field
// errors rather than silently dropped, so a typo never widens a filter.
func ParseCategoriesParam(params url.Values, key string, fieldErrors map[string][]string) ([]models.Category, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return nil, fieldErrors
	}

	known := make(map[models.Category]bool)
	for _, c := range models.AllCategories() {
		known[c] = true
	}

	var categories []models.Category
	for _, part := range strings.Split(val, ",") {
		candidate := models.Category(strings.ToLower(strings.TrimSpace(part)))
		if candidate == "" {
			continue
		}
		if !known[candidate] {
			fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Unknown category %q.", string(candidate)))
			continue
		}
		categories = append(categories, candidate)
	}

	return categories, fieldErrors
}

// ParseBarID parses a bar's numeric ID from a path parameter. OSM
// feature IDs are positive, so zero and negatives are rejected along
// with non-numeric input.
func ParseBarID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bar id: %s", raw)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid bar id: %s", raw)
	}
	return id, nil
}
