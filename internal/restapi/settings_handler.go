package restapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"beercompass.app/internal/logging"
	"beercompass.app/internal/models"
	"beercompass.app/internal/settings"
	"beercompass.app/internal/utils"
)

// maxSettingsBodyBytes bounds the PUT body; a settings document is a few
// dozen bytes.
const maxSettingsBodyBytes = 1 << 20

func (api *RestAPI) settingsGetHandler(w http.ResponseWriter, r *http.Request) {
	stored, err := api.Settings.Load(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(stored))
}

func (api *RestAPI) settingsPutHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSettingsBodyBytes)

	var incoming settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		fieldErrors := map[string][]string{
			"body": {"request body must be a valid settings document"},
		}
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	fieldErrors := make(map[string][]string)
	if err := utils.ValidateRadius(incoming.RadiusMeters); err != nil {
		fieldErrors["radiusMeters"] = append(fieldErrors["radiusMeters"], err.Error())
	}

	// Unlike Normalize, which quietly repairs stale stored documents, an
	// explicit write with an unknown category is rejected.
	known := make(map[models.Category]bool)
	for _, c := range models.AllCategories() {
		known[c] = true
	}
	for _, c := range incoming.Categories {
		if !known[c] {
			fieldErrors["categories"] = append(fieldErrors["categories"], fmt.Sprintf("Unknown category %q.", string(c)))
		}
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	sanitized := incoming.Normalize()
	if err := api.Settings.Save(r.Context(), sanitized); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	logging.LogOperation(api.Logger, "settings_saved",
		slog.String("component", "settings"),
		slog.Float64("radius_m", sanitized.RadiusMeters),
		slog.Int("categories", len(sanitized.Categories)))

	api.sendResponse(w, r, models.NewEntryResponse(sanitized))
}
