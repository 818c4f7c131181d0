package geo

import "math"

// NormalizeAngle maps an angle in degrees onto [0,360), handling
// negative inputs.
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// ShortestAngleDelta returns the smallest signed rotation in degrees
// that carries `from` onto `to`, in (-180,180]. Positive is clockwise.
// An exact half-turn is ambiguous; this implementation canonicalizes
// both +180 and -180 to +180, so callers always rotate clockwise at the
// boundary.
func ShortestAngleDelta(from, to float64) float64 {
	delta := to - from
	for delta > 180 {
		delta -= 360
	}
	for delta <= -180 {
		delta += 360
	}
	return delta
}

// SmoothAngle interpolates from current toward target along the
// shortest angular path. A factor close to 1 snaps to the target, close
// to 0 barely moves. Pure: the caller keeps the returned value as the
// next "current".
func SmoothAngle(current, target, factor float64) float64 {
	return NormalizeAngle(current + ShortestAngleDelta(current, target)*factor)
}
