package restapi

import (
	"net/http"

	"beercompass.app/internal/models"
)

// datasetEntry is the dataset provenance payload: the document's meta
// block plus the loaded point count.
type datasetEntry struct {
	Meta  models.DatasetMeta `json:"meta"`
	Count int                `json:"count"`
}

func (api *RestAPI) datasetHandler(w http.ResponseWriter, r *http.Request) {
	if !api.Bars.Loaded() {
		api.serviceUnavailableResponse(w, r)
		return
	}

	entry := datasetEntry{
		Meta:  api.Bars.Meta(),
		Count: api.Bars.Count(),
	}

	response := models.NewEntryResponse(entry)
	api.sendResponse(w, r, response)
}
