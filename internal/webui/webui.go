// Package webui serves the development-only debug pages: plain HTML
// dumps of the loaded catalog, the stored settings and the live compass
// sessions.
package webui

import (
	"beercompass.app/internal/app"
)

// SessionSource exposes live stream session state to the debug view. The
// payload shape is whatever the implementation wants dumped; the view
// never interprets it.
type SessionSource interface {
	DebugSessions() any
}

type WebUI struct {
	*app.Application
	sessions SessionSource
}

func NewWebUI(app *app.Application, sessions SessionSource) *WebUI {
	return &WebUI{
		Application: app,
		sessions:    sessions,
	}
}
