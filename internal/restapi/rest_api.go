package restapi

import (
	"net/http"
	"sync"
	"time"

	"beercompass.app/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter func(http.Handler) http.Handler

	sessionsMu sync.Mutex
	sessions   map[string]*streamSession
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second),
		sessions:    make(map[string]*streamSession),
	}
}

func (api *RestAPI) addSession(s *streamSession) {
	api.sessionsMu.Lock()
	defer api.sessionsMu.Unlock()
	api.sessions[s.id] = s
}

func (api *RestAPI) removeSession(id string) {
	api.sessionsMu.Lock()
	defer api.sessionsMu.Unlock()
	delete(api.sessions, id)
}

// SessionCount returns the number of live compass stream sessions.
func (api *RestAPI) SessionCount() int {
	api.sessionsMu.Lock()
	defer api.sessionsMu.Unlock()
	return len(api.sessions)
}
