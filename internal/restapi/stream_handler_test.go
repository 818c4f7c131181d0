package restapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beercompass.app/internal/models"
	"beercompass.app/internal/settings"
)

// startStreamServer serves the API's routes for websocket tests and
// returns the ws:// URL of the stream endpoint.
func startStreamServer(t *testing.T, api *RestAPI) string {
	t.Helper()

	router := httprouter.New()
	api.SetRoutes(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http") + "/api/compass/stream.json"
}

// dialStream opens a stream connection with the given API key.
func dialStream(t *testing.T, api *RestAPI, key string) *websocket.Conn {
	t.Helper()

	wsURL := startStreamServer(t, api) + "?key=" + key
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close() // nolint:errcheck
	})
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame map[string]interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func readFrame(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg serverMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestStreamRejectsInvalidAPIKey(t *testing.T) {
	api := createTestApi(t)
	wsURL := startStreamServer(t, api)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close() // nolint:errcheck

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStreamRejectsWhenDatasetUnavailable(t *testing.T) {
	api := createUnloadedTestApi(t)
	wsURL := startStreamServer(t, api) + "?key=TEST"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close() // nolint:errcheck

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStreamPositionRefreshTarget(t *testing.T) {
	api := createTestApi(t)
	conn := dialStream(t, api, "TEST")

	sendFrame(t, conn, map[string]interface{}{
		"type": "position", "lat": 37.7745, "lon": -122.4250, "accuracy": 5,
	})
	sendFrame(t, conn, map[string]interface{}{"type": "refresh"})

	msg := readFrame(t, conn)
	assert.Equal(t, "target", msg.Type)
	require.NotNil(t, msg.Target)
	assert.Equal(t, "Biergarten SF", msg.Target.Point.Name)
	assert.InDelta(t, 242, msg.Target.DistanceMeters, 25)
}

func TestStreamPointerFollowsHeading(t *testing.T) {
	api := createTestApi(t)
	conn := dialStream(t, api, "TEST")

	sendFrame(t, conn, map[string]interface{}{
		"type": "position", "lat": 37.7745, "lon": -122.4250, "accuracy": 5,
	})
	sendFrame(t, conn, map[string]interface{}{"type": "refresh"})
	adopted := readFrame(t, conn)
	require.Equal(t, "target", adopted.Type)

	// Facing due north, the pointer shows the raw bearing to the target
	sendFrame(t, conn, map[string]interface{}{
		"type": "heading", "degrees": 0.0, "absolute": true,
	})
	first := readFrame(t, conn)
	require.Equal(t, "pointer", first.Type)
	require.NotNil(t, first.Rotation)
	assert.InDelta(t, 23.5, *first.Rotation, 3, "pointer should aim at the target's bearing")

	// Turning east swings the raw rotation to bearing-90; smoothing moves
	// the pointer a fixed fraction of the way there.
	sendFrame(t, conn, map[string]interface{}{
		"type": "heading", "degrees": 90.0, "absolute": true,
	})
	second := readFrame(t, conn)
	require.Equal(t, "pointer", second.Type)
	require.NotNil(t, second.Rotation)
	assert.InDelta(t, *first.Rotation-18, *second.Rotation, 0.01)
}

func TestStreamArrivalOnAdoption(t *testing.T) {
	api := createTestApi(t)
	conn := dialStream(t, api, "TEST")

	// Standing at the bar: adopting it crosses the arrival radius at once
	sendFrame(t, conn, map[string]interface{}{
		"type": "position", "lat": 37.7700, "lon": -122.4220, "accuracy": 5,
	})
	sendFrame(t, conn, map[string]interface{}{"type": "refresh"})

	first := readFrame(t, conn)
	require.Equal(t, "arrived", first.Type)
	require.NotNil(t, first.Target)
	assert.Equal(t, "Zeitgeist", first.Target.Point.Name)

	second := readFrame(t, conn)
	assert.Equal(t, "target", second.Type)
}

func TestStreamArrivalOnApproach(t *testing.T) {
	api := createTestApi(t)
	conn := dialStream(t, api, "TEST")

	sendFrame(t, conn, map[string]interface{}{
		"type": "position", "lat": 37.7745, "lon": -122.4250, "accuracy": 5,
	})
	sendFrame(t, conn, map[string]interface{}{"type": "refresh"})
	adopted := readFrame(t, conn)
	require.Equal(t, "target", adopted.Type)
	require.NotNil(t, adopted.Target)
	require.Equal(t, "Biergarten SF", adopted.Target.Point.Name)

	// Walk onto the biergarten's doorstep
	sendFrame(t, conn, map[string]interface{}{
		"type": "position", "lat": 37.7765, "lon": -122.4239, "accuracy": 5,
	})

	first := readFrame(t, conn)
	require.Equal(t, "arrived", first.Type)
	require.NotNil(t, first.Target)
	assert.Equal(t, "Biergarten SF", first.Target.Point.Name)

	second := readFrame(t, conn)
	require.Equal(t, "target", second.Type)
	require.NotNil(t, second.Target)
	assert.Less(t, second.Target.DistanceMeters, 1.0)
}

func TestStreamErrorFrames(t *testing.T) {
	api := createTestApi(t)
	conn := dialStream(t, api, "TEST")

	t.Run("refresh before any position", func(t *testing.T) {
		sendFrame(t, conn, map[string]interface{}{"type": "refresh"})
		msg := readFrame(t, conn)
		assert.Equal(t, "error", msg.Type)
		assert.Equal(t, "no position known yet", msg.Error)
	})

	t.Run("out of range position", func(t *testing.T) {
		sendFrame(t, conn, map[string]interface{}{
			"type": "position", "lat": 95.0, "lon": 0.0, "accuracy": 5,
		})
		msg := readFrame(t, conn)
		assert.Equal(t, "error", msg.Type)
		assert.Equal(t, "latitude must be between -90 and 90", msg.Error)
	})

	t.Run("heading without any reading", func(t *testing.T) {
		sendFrame(t, conn, map[string]interface{}{"type": "heading"})
		msg := readFrame(t, conn)
		assert.Equal(t, "error", msg.Type)
		assert.Equal(t, "heading message carries no reading", msg.Error)
	})

	t.Run("unknown message type", func(t *testing.T) {
		sendFrame(t, conn, map[string]interface{}{"type": "teleport"})
		msg := readFrame(t, conn)
		assert.Equal(t, "error", msg.Type)
		assert.Equal(t, `unknown message type "teleport"`, msg.Error)
	})

	t.Run("refresh with no bars in radius", func(t *testing.T) {
		sendFrame(t, conn, map[string]interface{}{
			"type": "position", "lat": 0.0, "lon": 0.0, "accuracy": 5,
		})
		sendFrame(t, conn, map[string]interface{}{
			"type": "refresh", "radiusMeters": 100,
		})
		msg := readFrame(t, conn)
		assert.Equal(t, "error", msg.Type)
		assert.Equal(t, "no bars within radius", msg.Error)
	})
}

func TestStreamRefreshHonorsExplicitFilters(t *testing.T) {
	api := createTestApi(t)

	// Stored preferences are deliberately useless: 10m, pubs only
	require.NoError(t, api.Settings.Save(context.Background(), settings.Settings{
		RadiusMeters: 10,
		Categories:   []models.Category{models.CategoryPub},
	}))

	conn := dialStream(t, api, "TEST")
	sendFrame(t, conn, map[string]interface{}{
		"type": "position", "lat": 37.7745, "lon": -122.4250, "accuracy": 5,
	})

	// A bare refresh falls back to the stored preferences and finds nothing
	sendFrame(t, conn, map[string]interface{}{"type": "refresh"})
	msg := readFrame(t, conn)
	require.Equal(t, "error", msg.Type)
	assert.Equal(t, "no bars within radius", msg.Error)

	// An explicit empty category list means all categories
	sendFrame(t, conn, map[string]interface{}{
		"type": "refresh", "radiusMeters": 1000, "categories": []string{},
	})
	msg = readFrame(t, conn)
	require.Equal(t, "target", msg.Type)
	require.NotNil(t, msg.Target)
	assert.Equal(t, "Biergarten SF", msg.Target.Point.Name)

	// An explicit category filter narrows to the nearest pub
	sendFrame(t, conn, map[string]interface{}{
		"type": "refresh", "radiusMeters": 1000, "categories": []string{"pub"},
	})
	msg = readFrame(t, conn)
	require.Equal(t, "target", msg.Type)
	require.NotNil(t, msg.Target)
	assert.Equal(t, "Toronado", msg.Target.Point.Name)
}

func TestStreamSessionsAreIndependent(t *testing.T) {
	api := createTestApi(t)

	sfConn := dialStream(t, api, "TEST")
	oaklandConn := dialStream(t, api, "TEST")

	sendFrame(t, sfConn, map[string]interface{}{
		"type": "position", "lat": 37.7745, "lon": -122.4250, "accuracy": 5,
	})
	sendFrame(t, oaklandConn, map[string]interface{}{
		"type": "position", "lat": 37.8030, "lon": -122.2700, "accuracy": 5,
	})

	sendFrame(t, sfConn, map[string]interface{}{"type": "refresh"})
	sendFrame(t, oaklandConn, map[string]interface{}{"type": "refresh"})

	sfTarget := readFrame(t, sfConn)
	require.Equal(t, "target", sfTarget.Type)
	require.NotNil(t, sfTarget.Target)
	assert.Equal(t, "Biergarten SF", sfTarget.Target.Point.Name)

	oaklandTarget := readFrame(t, oaklandConn)
	require.Equal(t, "target", oaklandTarget.Type)
	require.NotNil(t, oaklandTarget.Target)
	assert.Equal(t, "Last Call", oaklandTarget.Target.Point.Name)
}

func TestStreamSessionLifecycle(t *testing.T) {
	api := createTestApi(t)
	conn := dialStream(t, api, "TEST")

	assert.Eventually(t, func() bool { return api.SessionCount() == 1 },
		time.Second, 10*time.Millisecond, "session should register after the handshake")

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close() // nolint:errcheck

	assert.Eventually(t, func() bool { return api.SessionCount() == 0 },
		time.Second, 10*time.Millisecond, "session should tear down after the peer leaves")
}

func TestStreamThroughFullMiddlewareChain(t *testing.T) {
	// The upgrade must hijack through the logging and compression wrappers.
	api := createTestApi(t)
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/compass/stream.json?key=TEST"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close() // nolint:errcheck

	sendFrame(t, conn, map[string]interface{}{
		"type": "position", "lat": 37.7745, "lon": -122.4250, "accuracy": 5,
	})
	sendFrame(t, conn, map[string]interface{}{"type": "refresh"})

	msg := readFrame(t, conn)
	assert.Equal(t, "target", msg.Type)
}
