package restapi

import (
	"time"

	"beercompass.app/internal/compass"
)

// sessionSnapshot is the dump shape for one live stream session on the
// debug page.
type sessionSnapshot struct {
	ID         string
	RemoteAddr string
	StartedAt  time.Time
	State      compass.Snapshot
}

// DebugSessions returns a point-in-time view of every live stream
// session. It satisfies the debug view's session source.
func (api *RestAPI) DebugSessions() any {
	api.sessionsMu.Lock()
	defer api.sessionsMu.Unlock()

	snapshots := make([]sessionSnapshot, 0, len(api.sessions))
	for _, s := range api.sessions {
		snapshots = append(snapshots, sessionSnapshot{
			ID:         s.id,
			RemoteAddr: s.remoteAddr,
			StartedAt:  s.startedAt,
			State:      s.engine.Snapshot(),
		})
	}
	return snapshots
}
