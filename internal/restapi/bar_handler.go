package restapi

import (
	"net/http"

	"beercompass.app/internal/geo"
	"beercompass.app/internal/models"
	"beercompass.app/internal/utils"
)

func (api *RestAPI) barHandler(w http.ResponseWriter, r *http.Request) {
	rawID := utils.ExtractIDFromParams(r, "id")

	id, err := utils.ParseBarID(rawID)
	if err != nil {
		fieldErrors := map[string][]string{
			"id": {err.Error()},
		}
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	queryParams := r.URL.Query()
	hasObserver := queryParams.Get("lat") != "" && queryParams.Get("lon") != ""

	lat, fieldErrors := utils.ParseFloatParam(queryParams, "lat", nil)
	lon, _ := utils.ParseFloatParam(queryParams, "lon", fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	if hasObserver {
		locationErrors := utils.ValidateLocationParams(lat, lon, 0)
		if len(locationErrors) > 0 {
			api.validationErrorResponse(w, r, locationErrors)
			return
		}
	}

	if !api.Bars.Loaded() {
		api.serviceUnavailableResponse(w, r)
		return
	}

	point, ok := api.Bars.ByID(id)
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	// With an observer position the entry is enriched with distance and
	// initial bearing, matching the shape of the nearest endpoint.
	if hasObserver {
		distance := geo.Haversine(lat, lon, point.Lat, point.Lon)
		bearing := geo.BearingBetweenPoints(lat, lon, point.Lat, point.Lon)
		api.sendResponse(w, r, models.NewEntryResponse(models.NewTargetBar(point, distance, bearing)))
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(point))
}
