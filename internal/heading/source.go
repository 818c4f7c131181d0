package heading

import "context"

// PermissionDecision is the outcome of asking a Source for sensor access.
type PermissionDecision int

const (
	PermissionUnknown PermissionDecision = iota
	PermissionGranted
	PermissionDenied
	// PermissionNotRequired means the source delivers orientation without
	// any grant. Recorded explicitly so callers can distinguish "granted"
	// from "never had to ask".
	PermissionNotRequired
)

func (p PermissionDecision) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	case PermissionNotRequired:
		return "not_required"
	default:
		return "unknown"
	}
}

// RawOrientation is one orientation event as delivered by a platform
// sensor, before any normalization. Exactly which fields are populated
// depends on the device: some deliver a true compass heading, others only
// rotation angles.
type RawOrientation struct {
	// CompassHeading is the device's own north-referenced heading in
	// degrees, when the platform provides one. Preferred over Alpha.
	CompassHeading *float64

	// Absolute reports whether Alpha is earth-referenced rather than
	// relative to the device's starting orientation.
	Absolute bool

	// Alpha is the device's z-axis rotation in degrees, counterclockwise.
	Alpha *float64
}

// Source is a stream of orientation events. Implementations bridge a
// platform sensor (or a simulation, or a network stream) to the Tracker.
type Source interface {
	// RequestAccess asks the platform for sensor permission. Sources
	// that need no grant return PermissionNotRequired.
	RequestAccess(ctx context.Context) (PermissionDecision, error)

	// Subscribe starts delivery of orientation events to fn. Delivery
	// continues until Unsubscribe.
	Subscribe(fn func(RawOrientation)) error

	// Unsubscribe stops event delivery. It does not return until any
	// in-flight delivery has completed.
	Unsubscribe()
}
