package restapi

import (
	"net/http"
	_ "net/http/pprof" // nolint:gosec

	"github.com/julienschmidt/httprouter"

	"beercompass.app/internal/appconf"
	"beercompass.app/internal/webui"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

func validateAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

// handle registers an endpoint with the per-route middleware applied: API
// key validation first, then rate limiting, then the handler. Key
// validation comes first so an unauthenticated request is rejected with
// 401 rather than counted against a rate limit bucket.
func (api *RestAPI) handle(router *httprouter.Router, method, path string, handler handlerFunc) {
	limited := api.rateLimiter(http.HandlerFunc(handler))
	router.Handler(method, path, validateAPIKey(api, limited.ServeHTTP))
}

func registerPprofHandlers(router *httprouter.Router) {
	// Register pprof handlers
	// net/http/pprof installs itself on DefaultServeMux in its init, so the
	// whole subtree is delegated there.
	// Tutorial: https://medium.com/@rahul.fiem/application-performance-optimization-how-to-effectively-analyze-and-optimize-pprof-cpu-profiles-95280b2f5bfb
	router.Handler(http.MethodGet, "/debug/pprof/*item", http.DefaultServeMux)
}

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	api.handle(router, http.MethodGet, "/api/compass/nearest.json", api.nearestHandler)
	api.handle(router, http.MethodGet, "/api/compass/bars/:id", api.barHandler)
	api.handle(router, http.MethodGet, "/api/compass/search.json", api.searchHandler)
	api.handle(router, http.MethodGet, "/api/compass/dataset.json", api.datasetHandler)
	api.handle(router, http.MethodGet, "/api/compass/settings.json", api.settingsGetHandler)
	api.handle(router, http.MethodPut, "/api/compass/settings.json", api.settingsPutHandler)
	api.handle(router, http.MethodGet, "/api/compass/stream.json", api.streamHandler)

	if api.Config.Env == appconf.Development {
		webui.SetWebUIRoutes(router, webui.NewWebUI(api.Application, api))
		registerPprofHandlers(router)
	}
}

// Handler assembles the server-wide middleware chain around the router:
// security headers outermost, then request logging, then response
// compression. Per-route middleware is applied by SetRoutes.
func (api *RestAPI) Handler() http.Handler {
	router := httprouter.New()
	api.SetRoutes(router)

	var handler http.Handler = router
	handler = CompressionMiddleware(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	handler = securityHeaders(handler)
	return handler
}
