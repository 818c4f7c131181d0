// Package app wires the application's shared dependencies into one
// container that handlers and middleware borrow from.
package app

import (
	"log/slog"

	"beercompass.app/internal/appconf"
	"beercompass.app/internal/bars"
	"beercompass.app/internal/settings"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware: the parsed configuration, the structured logger, the
// loaded bar catalog, and the settings store.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Bars     *bars.Catalog
	Settings settings.Store
}
