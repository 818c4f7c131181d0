// Package position tracks the device's position: a one-shot fix with a
// hard time budget, and a continuous watch that always holds only the
// latest sample.
package position

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"beercompass.app/internal/geo"
	"beercompass.app/internal/logging"
	"beercompass.app/internal/models"
)

const (
	// FixTimeout is the budget for a one-shot position request. A fix
	// that takes longer is reported as models.ErrTimeout rather than
	// blocking the caller indefinitely.
	FixTimeout = 10 * time.Second

	// MaxSampleAge is a hint to sources: cached fixes older than this
	// should not be served for a watch.
	MaxSampleAge = 5 * time.Second
)

// Source produces position fixes. Implementations bridge a platform
// location service (or a simulation, or a network stream) to the Tracker.
type Source interface {
	// CurrentFix obtains a single high-accuracy fix, honoring ctx
	// cancellation.
	CurrentFix(ctx context.Context) (models.PositionSample, error)

	// Watch starts continuous delivery: fixes to onFix, transient
	// failures to onErr. It returns a stop func that halts delivery and
	// waits for any in-flight callback.
	Watch(onFix func(models.PositionSample), onErr func(error)) (stop func(), err error)
}

// Tracker holds the most recent position and manages the watch lifecycle.
// Starting a new watch replaces the previous one; samples from a replaced
// watch are dropped even if already in flight.
type Tracker struct {
	source Source
	logger *slog.Logger

	// lifecycle serializes watch start/stop transitions.
	lifecycle sync.Mutex

	mu          sync.Mutex
	position    models.PositionSample
	hasPosition bool
	watchToken  *struct{}
	stopWatch   func()
}

func NewTracker(source Source, logger *slog.Logger) *Tracker {
	return &Tracker{
		source: source,
		logger: logger,
	}
}

// CurrentPosition obtains a one-shot fix within FixTimeout. On success the
// fix also becomes the tracker's current position. A blown budget reports
// models.ErrTimeout; sensor failures surface as models.ErrPermissionDenied
// or models.ErrPositionUnavailable.
func (t *Tracker) CurrentPosition(ctx context.Context) (models.PositionSample, error) {
	ctx, cancel := context.WithTimeout(ctx, FixTimeout)
	defer cancel()

	type fixResult struct {
		sample models.PositionSample
		err    error
	}

	// The source runs on its own goroutine so a misbehaving
	// implementation cannot outlive the budget.
	resultChan := make(chan fixResult, 1)
	go func() {
		sample, err := t.source.CurrentFix(ctx)
		resultChan <- fixResult{sample, err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.PositionSample{}, models.ErrTimeout
		}
		return models.PositionSample{}, ctx.Err()
	case result := <-resultChan:
		if result.err != nil {
			return models.PositionSample{}, mapSourceError(result.err)
		}

		t.mu.Lock()
		t.position = result.sample
		t.hasPosition = true
		t.mu.Unlock()

		logging.LogOperation(t.logger, "position_fix",
			slog.String("component", "position_tracker"),
			slog.Float64("accuracy_m", result.sample.AccuracyMeters))

		return result.sample, nil
	}
}

// mapSourceError folds source failures into the shared taxonomy. Sentinel
// errors pass through; anything else counts as a transient position
// failure.
func mapSourceError(err error) error {
	if errors.Is(err, models.ErrPermissionDenied) ||
		errors.Is(err, models.ErrPositionUnavailable) ||
		errors.Is(err, models.ErrTimeout) {
		return err
	}
	return fmt.Errorf("%w: %s", models.ErrPositionUnavailable, err)
}

// StartWatching begins continuous tracking. Any previous watch is stopped
// first, and its callbacks — even ones already in flight — no longer fire.
// Fixes overwrite the current position before onUpdate runs; errors invoke
// onError without touching the position.
func (t *Tracker) StartWatching(onUpdate func(models.PositionSample), onError func(error)) error {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	t.stopCurrentWatch()

	// The token identifies this watch generation; stale callbacks carry
	// the old token and are dropped at entry.
	token := &struct{}{}
	t.mu.Lock()
	t.watchToken = token
	t.mu.Unlock()

	onFix := func(sample models.PositionSample) {
		t.mu.Lock()
		if t.watchToken != token {
			t.mu.Unlock()
			return
		}
		t.position = sample
		t.hasPosition = true
		t.mu.Unlock()

		if onUpdate != nil {
			onUpdate(sample)
		}
	}

	onErr := func(err error) {
		t.mu.Lock()
		if t.watchToken != token {
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()

		if onError != nil {
			onError(mapSourceError(err))
		}
	}

	stop, err := t.source.Watch(onFix, onErr)
	if err != nil {
		t.mu.Lock()
		t.watchToken = nil
		t.mu.Unlock()
		return mapSourceError(err)
	}

	t.mu.Lock()
	t.stopWatch = stop
	t.mu.Unlock()

	return nil
}

// StopWatching halts the active watch. Safe to call repeatedly or with no
// watch running.
func (t *Tracker) StopWatching() {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()
	t.stopCurrentWatch()
}

// stopCurrentWatch requires lifecycle to be held.
func (t *Tracker) stopCurrentWatch() {
	t.mu.Lock()
	stop := t.stopWatch
	t.stopWatch = nil
	t.watchToken = nil
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Watching reports whether a watch is active.
func (t *Tracker) Watching() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.watchToken != nil
}

// Position returns the most recent fix. ok is false before the first fix.
func (t *Tracker) Position() (models.PositionSample, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position, t.hasPosition
}

// DistanceTo returns the great-circle distance in meters from the current
// position to the given point. ok is false before the first fix.
func (t *Tracker) DistanceTo(lat, lon float64) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasPosition {
		return 0, false
	}
	return geo.Haversine(t.position.Lat, t.position.Lon, lat, lon), true
}

// BearingTo returns the initial bearing in degrees from the current
// position to the given point. ok is false before the first fix.
func (t *Tracker) BearingTo(lat, lon float64) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasPosition {
		return 0, false
	}
	return geo.BearingBetweenPoints(t.position.Lat, t.position.Lon, lat, lon), true
}
