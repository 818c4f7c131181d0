// Package heading turns raw device orientation events into a calibrated
// compass heading and fans updates out to listeners.
package heading

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"beercompass.app/internal/geo"
	"beercompass.app/internal/logging"
	"beercompass.app/internal/models"
)

// State is the lifecycle phase of a Tracker.
type State int

const (
	Idle State = iota
	AwaitingPermission
	Active
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingPermission:
		return "awaiting_permission"
	case Active:
		return "active"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

type listenerEntry struct {
	id int
	fn func(degrees float64)
}

// Tracker owns the heading lifecycle: permission, subscription, sample
// normalization and listener notification. Until the first usable sample
// arrives the tracker is uncalibrated and reports no heading.
type Tracker struct {
	source Source
	logger *slog.Logger

	mu             sync.Mutex
	state          State
	permission     PermissionDecision
	sample         models.HeadingSample
	calibrated     bool
	listeners      []listenerEntry
	nextListenerID int
}

func NewTracker(source Source, logger *slog.Logger) *Tracker {
	return &Tracker{
		source: source,
		logger: logger,
	}
}

// Start requests sensor access and subscribes to orientation events.
// Starting an already active tracker is a no-op success; so is calling
// Start while another Start is still waiting on the permission prompt.
// A denied grant moves the tracker to Failed and reports
// models.ErrPermissionDenied.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.state == Active || t.state == AwaitingPermission {
		t.mu.Unlock()
		return nil
	}
	t.state = AwaitingPermission
	t.mu.Unlock()

	decision, err := t.source.RequestAccess(ctx)
	if err != nil {
		t.mu.Lock()
		t.state = Failed
		t.mu.Unlock()
		return fmt.Errorf("requesting orientation access: %w", err)
	}

	if decision == PermissionDenied {
		t.mu.Lock()
		t.state = Failed
		t.permission = PermissionDenied
		t.mu.Unlock()
		return fmt.Errorf("orientation sensor: %w", models.ErrPermissionDenied)
	}

	t.mu.Lock()
	t.permission = decision
	t.state = Active
	t.mu.Unlock()

	if err := t.source.Subscribe(t.handleOrientation); err != nil {
		t.mu.Lock()
		t.state = Failed
		t.mu.Unlock()
		return fmt.Errorf("subscribing to orientation events: %w", err)
	}

	logging.LogOperation(t.logger, "heading_tracking_started",
		slog.String("component", "heading_tracker"),
		slog.String("permission", decision.String()))

	return nil
}

// Stop unsubscribes from the source and returns the tracker to Idle.
// In-flight orientation events are dropped; calibration is forgotten but
// the granted permission is remembered. Stopping a tracker that is not
// active does nothing.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.state != Active {
		t.mu.Unlock()
		return
	}
	t.state = Idle
	t.calibrated = false
	t.mu.Unlock()

	t.source.Unsubscribe()
}

// handleOrientation is the single entry point for sensor events. Events
// arriving after Stop, and events carrying no usable reading, are dropped
// without touching state.
func (t *Tracker) handleOrientation(raw RawOrientation) {
	t.mu.Lock()
	if t.state != Active {
		t.mu.Unlock()
		return
	}

	degrees, ok := deriveHeading(raw)
	if !ok {
		t.mu.Unlock()
		return
	}

	t.sample = models.NewHeadingSample(geo.NormalizeAngle(degrees))
	t.calibrated = true
	value := t.sample.Degrees

	listeners := make([]func(float64), 0, len(t.listeners))
	for _, entry := range t.listeners {
		listeners = append(listeners, entry.fn)
	}
	t.mu.Unlock()

	// Listeners run outside the lock so they may call back into the
	// tracker, but still synchronously: state is committed before anyone
	// observes it.
	for _, fn := range listeners {
		fn(value)
	}
}

// deriveHeading picks the most trustworthy reading out of a raw event. A
// native compass heading wins outright. Otherwise alpha is converted —
// alpha counts counterclockwise, heading clockwise — whether or not it is
// earth-referenced; a relative alpha is better than no pointer at all.
// Events carrying neither reading are unusable.
func deriveHeading(raw RawOrientation) (float64, bool) {
	if raw.CompassHeading != nil {
		return *raw.CompassHeading, true
	}
	if raw.Alpha != nil {
		return 360 - *raw.Alpha, true
	}
	return 0, false
}

// AddListener registers fn for normalized heading updates. Listeners are
// invoked synchronously on the delivery goroutine in registration order.
// The returned cancel func removes the registration.
func (t *Tracker) AddListener(fn func(degrees float64)) (cancel func()) {
	t.mu.Lock()
	id := t.nextListenerID
	t.nextListenerID++
	t.listeners = append(t.listeners, listenerEntry{id: id, fn: fn})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, entry := range t.listeners {
			if entry.id == id {
				t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
				return
			}
		}
	}
}

// State returns the tracker's lifecycle phase.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Permission returns the last permission decision the source reported.
func (t *Tracker) Permission() PermissionDecision {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.permission
}

// Calibrated reports whether at least one usable sample has arrived since
// the tracker last started.
func (t *Tracker) Calibrated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calibrated
}

// Heading returns the current heading in degrees clockwise from north.
// ok is false until the tracker is calibrated.
func (t *Tracker) Heading() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sample.Degrees, t.calibrated
}

// LastSample returns the most recent accepted sample with its timestamp.
func (t *Tracker) LastSample() (models.HeadingSample, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sample, t.calibrated
}

// PointerRotation is the signed rotation from the device's current
// heading to the target bearing, in (-180, 180]: the angle a screen-drawn
// pointer must turn from "up". ok is false until calibrated.
func (t *Tracker) PointerRotation(targetBearing float64) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.calibrated {
		return 0, false
	}
	return geo.ShortestAngleDelta(t.sample.Degrees, targetBearing), true
}

// RoseRotation is the rotation to apply to a compass rose drawing so its
// north marker keeps pointing at geographic north: the negated heading.
// ok is false until calibrated.
func (t *Tracker) RoseRotation() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.calibrated {
		return 0, false
	}
	return -t.sample.Degrees, true
}
