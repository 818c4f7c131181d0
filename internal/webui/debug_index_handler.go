package webui

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"
)

//go:embed debug_index.html
var templateFS embed.FS

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	content := spew.Sdump(data)
	w.Header().Set("Content-Type", "text/html")
	tmpl, err := template.ParseFS(templateFS, "debug_index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dataStruct := debugData{
		Title: title,
		Pre:   content,
	}

	err = tmpl.Execute(w, dataStruct)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")

	var data interface{}
	var title string

	switch dataType {
	case "meta":
		data = map[string]interface{}{
			"meta":   webUI.Bars.Meta(),
			"count":  webUI.Bars.Count(),
			"loaded": webUI.Bars.Loaded(),
		}
		title = "Catalog - Provenance"
	case "bars":
		data = webUI.Bars.Points()
		title = "Catalog - Bars"
	case "settings":
		stored, err := webUI.Settings.Load(r.Context())
		if err != nil {
			data = map[string]string{"error": err.Error()}
		} else {
			data = stored
		}
		title = "Stored Settings"
	case "sessions":
		data = webUI.sessions.DebugSessions()
		title = "Live Compass Sessions"
	default:
		data = map[string]string{
			"error": "Please use one of the following: meta, bars, settings, sessions.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
