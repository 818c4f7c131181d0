package restapi

import (
	"net/http"

	"beercompass.app/internal/models"
	"beercompass.app/internal/utils"
)

// defaultSearchLimit caps name search results when the caller does not
// pass an explicit limit.
const defaultSearchLimit = 20

func (api *RestAPI) searchHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	query := queryParams.Get("q")
	limit, fieldErrors := utils.ParseIntParam(queryParams, "limit", nil)

	if queryParams.Get("q") == "" {
		fieldErrors["q"] = append(fieldErrors["q"], "q parameter is required")
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	// Validate and sanitize query
	sanitizedQuery, err := utils.ValidateAndSanitizeQuery(query)
	if err != nil {
		fieldErrors := map[string][]string{
			"q": {err.Error()},
		}
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}
	query = sanitizedQuery

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if !api.Bars.Loaded() {
		api.serviceUnavailableResponse(w, r)
		return
	}

	// Ask for one extra result so a full page can be told apart from a
	// truncated one.
	matches := api.Bars.SearchByName(query, limit+1)

	limitExceeded := len(matches) > limit
	if limitExceeded {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []models.GeoPoint{}
	}

	response := models.NewListResponse(matches, limitExceeded)
	api.sendResponse(w, r, response)
}
