package restapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"beercompass.app/internal/compass"
	"beercompass.app/internal/heading"
	"beercompass.app/internal/logging"
	"beercompass.app/internal/models"
	"beercompass.app/internal/position"
	"beercompass.app/internal/settings"
	"beercompass.app/internal/utils"
)

const (
	// writeWait is the budget for a single frame write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long the connection survives without a pong.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait so pings go out before the
	// read deadline expires.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames; client messages are small
	// JSON documents.
	maxMessageSize = 1024

	// sendQueueSize buffers outbound frames for a slow consumer before
	// intermediate updates start being dropped.
	sendQueueSize = 16
)

// Inbound message types.
const (
	msgTypePosition = "position"
	msgTypeHeading  = "heading"
	msgTypeRefresh  = "refresh"
)

// Outbound message types.
const (
	msgTypeTarget  = "target"
	msgTypePointer = "pointer"
	msgTypeArrived = "arrived"
	msgTypeError   = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API key query parameter is the access gate; the client page may
	// be served from any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is one inbound frame from the device. Type selects which
// of the remaining fields are meaningful.
type clientMessage struct {
	Type string `json:"type"`

	// position
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy"`

	// heading
	Degrees  *float64 `json:"degrees"`
	Alpha    *float64 `json:"alpha"`
	Absolute bool     `json:"absolute"`

	// refresh; nil fields fall back to the stored preferences
	RadiusMeters *float64          `json:"radiusMeters"`
	Categories   []models.Category `json:"categories"`
}

// serverMessage is one outbound frame to the device.
type serverMessage struct {
	Type     string            `json:"type"`
	Target   *models.TargetBar `json:"target,omitempty"`
	Rotation *float64          `json:"rotation,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// streamSession is one live compass connection: its own pair of trackers
// and direction engine over the shared catalog, fed by frames from the
// peer. All sensor delivery runs synchronously on the read goroutine, so
// once readPump returns no callback can fire.
type streamSession struct {
	id         string
	api        *RestAPI
	conn       *websocket.Conn
	ctx        context.Context
	remoteAddr string
	startedAt  time.Time

	posSource *position.RemoteSource
	hdgSource *heading.RemoteSource
	positions *position.Tracker
	headings  *heading.Tracker
	engine    *compass.Engine

	send chan serverMessage
}

func (api *RestAPI) streamHandler(w http.ResponseWriter, r *http.Request) {
	if !api.Bars.Loaded() {
		api.serviceUnavailableResponse(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		api.Logger.Error("websocket upgrade failed", "error", err)
		return
	}

	session, err := api.newStreamSession(r.Context(), conn, r.RemoteAddr)
	if err != nil {
		api.Logger.Error("stream session setup failed", "error", err)
		conn.Close() // nolint:errcheck
		return
	}

	api.addSession(session)

	logging.LogOperation(api.Logger, "stream_session_opened",
		slog.String("component", "stream"),
		slog.String("session_id", session.id),
		slog.String("remote_addr", session.remoteAddr))

	go session.writePump()
	session.readPump()
}

// newStreamSession wires the per-connection sources, trackers and engine.
// The request context stays valid for the whole session: the handler does
// not return until the read pump ends.
func (api *RestAPI) newStreamSession(ctx context.Context, conn *websocket.Conn, remoteAddr string) (*streamSession, error) {
	posSource := position.NewRemoteSource()
	hdgSource := heading.NewRemoteSource()
	positions := position.NewTracker(posSource, api.Logger)
	headings := heading.NewTracker(hdgSource, api.Logger)
	engine := compass.NewEngine(api.Bars, positions, headings, api.Logger, compass.Options{})

	s := &streamSession{
		id:         uuid.NewString(),
		api:        api,
		conn:       conn,
		ctx:        ctx,
		remoteAddr: remoteAddr,
		startedAt:  time.Now(),
		posSource:  posSource,
		hdgSource:  hdgSource,
		positions:  positions,
		headings:   headings,
		engine:     engine,
		send:       make(chan serverMessage, sendQueueSize),
	}

	engine.SetArrivalFunc(func(target models.TargetBar) {
		s.enqueue(serverMessage{Type: msgTypeArrived, Target: &target})
	})

	// An orientation sensor failure is not fatal: the session still serves
	// target and distance, the pointer just never renders.
	if err := headings.Start(ctx); err != nil {
		api.Logger.Warn("heading tracker unavailable", "error", err)
	} else {
		headings.AddListener(func(degrees float64) {
			if rotation, ok := engine.OnHeadingChanged(degrees); ok {
				s.enqueue(serverMessage{Type: msgTypePointer, Rotation: &rotation})
			}
		})
	}

	err := positions.StartWatching(func(sample models.PositionSample) {
		engine.OnPositionChanged(sample)
		if target, ok := engine.Target(); ok {
			s.enqueue(serverMessage{Type: msgTypeTarget, Target: &target})
		}
	}, func(err error) {
		s.enqueue(serverMessage{Type: msgTypeError, Error: err.Error()})
	})
	if err != nil {
		headings.Stop()
		return nil, fmt.Errorf("starting position watch: %w", err)
	}

	return s, nil
}

// readPump consumes frames until the peer goes away, then tears the
// session down.
func (s *streamSession) readPump() {
	defer s.teardown()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait)) // nolint:errcheck
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait)) // nolint:errcheck
		return nil
	})

	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.api.Logger.Error("stream read failed", "session_id", s.id, "error", err)
			}
			return
		}
		s.dispatch(msg)
	}
}

// writePump owns all writes to the connection, including pings. It exits
// when the send queue closes or a write fails, closing the connection
// either way.
func (s *streamSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close() // nolint:errcheck
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait)) // nolint:errcheck
			if !ok {
				// Teardown closed the queue.
				s.conn.WriteMessage(websocket.CloseMessage, []byte{}) // nolint:errcheck
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait)) // nolint:errcheck
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *streamSession) dispatch(msg clientMessage) {
	switch msg.Type {
	case msgTypePosition:
		s.handlePosition(msg)
	case msgTypeHeading:
		s.handleHeading(msg)
	case msgTypeRefresh:
		s.handleRefresh(msg)
	default:
		s.enqueue(serverMessage{Type: msgTypeError, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func (s *streamSession) handlePosition(msg clientMessage) {
	if err := utils.ValidateLatitude(msg.Lat); err != nil {
		s.enqueue(serverMessage{Type: msgTypeError, Error: err.Error()})
		return
	}
	if err := utils.ValidateLongitude(msg.Lon); err != nil {
		s.enqueue(serverMessage{Type: msgTypeError, Error: err.Error()})
		return
	}

	s.posSource.Push(models.NewPositionSample(msg.Lat, msg.Lon, msg.Accuracy))
}

func (s *streamSession) handleHeading(msg clientMessage) {
	if msg.Degrees == nil && msg.Alpha == nil {
		s.enqueue(serverMessage{Type: msgTypeError, Error: "heading message carries no reading"})
		return
	}

	s.hdgSource.Push(heading.RawOrientation{
		CompassHeading: msg.Degrees,
		Absolute:       msg.Absolute,
		Alpha:          msg.Alpha,
	})
}

func (s *streamSession) handleRefresh(msg clientMessage) {
	var radius float64
	if msg.RadiusMeters != nil {
		radius = *msg.RadiusMeters
	}
	categories := msg.Categories

	// Fields the client leaves out fall back to the stored preferences.
	if msg.RadiusMeters == nil || msg.Categories == nil {
		stored, err := s.api.Settings.Load(s.ctx)
		if err != nil {
			s.api.Logger.Error("loading settings for refresh", "session_id", s.id, "error", err)
			stored = settings.DefaultSettings()
		}
		if msg.RadiusMeters == nil {
			radius = stored.RadiusMeters
		}
		if msg.Categories == nil {
			categories = stored.Categories
		}
	}

	target, err := s.engine.RefreshTarget(s.ctx, categories, radius)
	if err != nil {
		s.enqueue(serverMessage{Type: msgTypeError, Error: err.Error()})
		return
	}

	s.enqueue(serverMessage{Type: msgTypeTarget, Target: &target})
}

// enqueue hands a frame to the write pump without ever blocking sensor
// delivery. When the queue is full the frame is dropped; the next update
// supersedes it anyway.
func (s *streamSession) enqueue(msg serverMessage) {
	select {
	case s.send <- msg:
	default:
	}
}

func (s *streamSession) teardown() {
	s.positions.StopWatching()
	s.headings.Stop()
	s.api.removeSession(s.id)

	// All sensor delivery runs on this goroutine, so nothing can enqueue
	// past this point.
	close(s.send)

	logging.LogOperation(s.api.Logger, "stream_session_closed",
		slog.String("component", "stream"),
		slog.String("session_id", s.id),
		slog.Duration("duration", time.Since(s.startedAt)))
}
