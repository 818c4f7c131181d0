package restapi

import (
	"net/http"

	"beercompass.app/internal/models"
	"beercompass.app/internal/utils"
)

// defaultNearestLimit caps the result list when the caller does not pass
// an explicit limit.
const defaultNearestLimit = 10

func (api *RestAPI) nearestHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	lat, fieldErrors := utils.ParseFloatParam(queryParams, "lat", nil)
	lon, _ := utils.ParseFloatParam(queryParams, "lon", fieldErrors)
	radius, _ := utils.ParseFloatParam(queryParams, "radius", fieldErrors)
	limit, _ := utils.ParseIntParam(queryParams, "limit", fieldErrors)
	categories, _ := utils.ParseCategoriesParam(queryParams, "categories", fieldErrors)

	if queryParams.Get("lat") == "" {
		fieldErrors["lat"] = append(fieldErrors["lat"], "lat parameter is required")
	}
	if queryParams.Get("lon") == "" {
		fieldErrors["lon"] = append(fieldErrors["lon"], "lon parameter is required")
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	// Validate location parameters
	locationErrors := utils.ValidateLocationParams(lat, lon, radius)
	if len(locationErrors) > 0 {
		api.validationErrorResponse(w, r, locationErrors)
		return
	}

	if limit <= 0 {
		limit = defaultNearestLimit
	}

	ctx := r.Context()

	// Check if context is already cancelled
	if ctx.Err() != nil {
		api.serverErrorResponse(w, r, ctx.Err())
		return
	}

	if !api.Bars.Loaded() {
		api.serviceUnavailableResponse(w, r)
		return
	}

	results := api.Bars.Query(lat, lon, radius, categories)

	limitExceeded := len(results) > limit
	if limitExceeded {
		results = results[:limit]
	}
	if results == nil {
		results = []models.TargetBar{}
	}

	response := models.NewListResponse(results, limitExceeded)
	api.sendResponse(w, r, response)
}
