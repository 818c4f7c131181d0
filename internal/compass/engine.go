// Package compass fuses the bar catalog with live position and heading
// streams into one authoritative "current target + pointer angle" value.
package compass

import (
	"context"
	"log/slog"
	"sync"

	"beercompass.app/internal/bars"
	"beercompass.app/internal/geo"
	"beercompass.app/internal/heading"
	"beercompass.app/internal/logging"
	"beercompass.app/internal/models"
	"beercompass.app/internal/position"
)

const (
	// DefaultArrivalRadiusMeters is how close the device must get to the
	// target before the engine signals arrival.
	DefaultArrivalRadiusMeters = 50.0

	// DefaultSmoothingFactor damps pointer movement between heading
	// updates: 1 snaps straight to the raw rotation, values near 0
	// barely move.
	DefaultSmoothingFactor = 0.2
)

// Options tune an Engine. Zero values select the defaults.
type Options struct {
	ArrivalRadiusMeters float64
	SmoothingFactor     float64
}

// Engine orchestrates the catalog and the two trackers. It holds the
// current target and the smoothed pointer rotation; position and heading
// updates are fed in by whoever owns the trackers' callbacks. The two
// streams are unordered: each update is processed against whatever the
// other stream last produced.
type Engine struct {
	catalog   *bars.Catalog
	positions *position.Tracker
	headings  *heading.Tracker
	logger    *slog.Logger
	opts      Options

	mu          sync.Mutex
	target      models.TargetBar
	hasTarget   bool
	arrived     bool
	pointer     float64
	hasPointer  bool
	arrivalFunc func(models.TargetBar)
}

// NewEngine wires an Engine to its collaborators. There are no package
// singletons; every dependency arrives here.
func NewEngine(catalog *bars.Catalog, positions *position.Tracker, headings *heading.Tracker, logger *slog.Logger, opts Options) *Engine {
	if opts.ArrivalRadiusMeters <= 0 {
		opts.ArrivalRadiusMeters = DefaultArrivalRadiusMeters
	}
	if opts.SmoothingFactor <= 0 || opts.SmoothingFactor > 1 {
		opts.SmoothingFactor = DefaultSmoothingFactor
	}

	return &Engine{
		catalog:   catalog,
		positions: positions,
		headings:  headings,
		logger:    logger,
		opts:      opts,
	}
}

// RefreshTarget re-selects the nearest matching bar and adopts it
// wholesale, replacing any previous target. It requires a known position
// (models.ErrNoPosition otherwise) and a loaded catalog
// (models.ErrDataUnavailable) and reports models.ErrNoResultsInRadius on
// an empty query. Adopting a target inside the arrival radius signals
// arrival immediately.
func (e *Engine) RefreshTarget(ctx context.Context, categories []models.Category, radiusMeters float64) (models.TargetBar, error) {
	if !e.catalog.Loaded() {
		return models.TargetBar{}, models.ErrDataUnavailable
	}

	pos, ok := e.positions.Position()
	if !ok {
		return models.TargetBar{}, models.ErrNoPosition
	}

	results := e.catalog.Query(pos.Lat, pos.Lon, radiusMeters, categories)
	if len(results) == 0 {
		return models.TargetBar{}, models.ErrNoResultsInRadius
	}

	target := results[0]

	e.mu.Lock()
	e.target = target
	e.hasTarget = true
	e.arrived = false
	notify := e.evaluateArrivalLocked()
	e.mu.Unlock()

	if notify != nil {
		notify()
	}

	logging.LogOperation(e.logger, "target_selected",
		slog.String("component", "direction_engine"),
		slog.String("name", target.Point.Name),
		slog.Float64("distance_m", target.DistanceMeters))

	return target, nil
}

// OnPositionChanged recomputes the current target's distance and bearing
// in place. The target's identity never changes here; re-selecting the
// nearest bar requires an explicit RefreshTarget.
func (e *Engine) OnPositionChanged(p models.PositionSample) {
	e.mu.Lock()
	if !e.hasTarget {
		e.mu.Unlock()
		return
	}

	e.target.DistanceMeters = geo.Haversine(p.Lat, p.Lon, e.target.Point.Lat, e.target.Point.Lon)
	e.target.BearingDegrees = geo.BearingBetweenPoints(p.Lat, p.Lon, e.target.Point.Lat, e.target.Point.Lon)
	notify := e.evaluateArrivalLocked()
	e.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// OnHeadingChanged folds a new heading into the smoothed pointer and
// returns the rotation to render, in (-180, 180]. ok is false while no
// target is set; the caller should not render a pointer then.
func (e *Engine) OnHeadingChanged(headingDegrees float64) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasTarget {
		return 0, false
	}

	raw := geo.ShortestAngleDelta(headingDegrees, e.target.BearingDegrees)
	if !e.hasPointer {
		e.pointer = geo.NormalizeAngle(raw)
		e.hasPointer = true
	} else {
		e.pointer = geo.SmoothAngle(e.pointer, raw, e.opts.SmoothingFactor)
	}

	return geo.ShortestAngleDelta(0, e.pointer), true
}

// evaluateArrivalLocked advances the edge-triggered arrival latch against
// the current target distance. Inside the radius it fires once and stays
// latched; at or beyond the radius it re-arms. Returns the notification
// to run after the lock is released, or nil.
func (e *Engine) evaluateArrivalLocked() func() {
	if !e.hasTarget {
		return nil
	}

	if e.target.DistanceMeters >= e.opts.ArrivalRadiusMeters {
		e.arrived = false
		return nil
	}

	if e.arrived {
		return nil
	}
	e.arrived = true

	fn := e.arrivalFunc
	if fn == nil {
		return nil
	}
	target := e.target
	return func() { fn(target) }
}

// SetArrivalFunc registers the one-shot arrival callback. It runs on the
// goroutine delivering the update that crossed the threshold.
func (e *Engine) SetArrivalFunc(fn func(models.TargetBar)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.arrivalFunc = fn
}

// Target returns the current target. ok is false before the first
// successful RefreshTarget.
func (e *Engine) Target() (models.TargetBar, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target, e.hasTarget
}

// Arrived reports whether the arrival latch is currently set.
func (e *Engine) Arrived() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.arrived
}

// Pointer returns the smoothed rotation in (-180, 180]. ok is false until
// the first heading update lands with a target set.
func (e *Engine) Pointer() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasPointer {
		return 0, false
	}
	return geo.ShortestAngleDelta(0, e.pointer), true
}

// Snapshot is a point-in-time view of the engine for rendering or
// serialization. Optional fields are nil until their stream has produced
// a value.
type Snapshot struct {
	Target     *models.TargetBar      `json:"target,omitempty"`
	Position   *models.PositionSample `json:"position,omitempty"`
	HeadingDeg *float64               `json:"heading,omitempty"`
	PointerDeg *float64               `json:"pointer,omitempty"`
	Arrived    bool                   `json:"arrived"`
}

func (e *Engine) Snapshot() Snapshot {
	var snap Snapshot

	// Tracker state is read before taking the engine lock; the trackers
	// have locks of their own.
	if pos, ok := e.positions.Position(); ok {
		p := pos
		snap.Position = &p
	}
	if degrees, ok := e.headings.Heading(); ok {
		d := degrees
		snap.HeadingDeg = &d
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.hasTarget {
		t := e.target
		snap.Target = &t
	}
	if e.hasPointer {
		p := geo.ShortestAngleDelta(0, e.pointer)
		snap.PointerDeg = &p
	}
	snap.Arrived = e.arrived

	return snap
}
