package models

// TargetBar pairs a catalog point with its distance and initial bearing
// from a given observer position. It is derived state: recomputed
// wholesale whenever the observer moves, never partially updated.
type TargetBar struct {
	Point          GeoPoint `json:"point"`
	DistanceMeters float64  `json:"distanceMeters"`
	BearingDegrees float64  `json:"bearingDegrees"`
}

func NewTargetBar(point GeoPoint, distanceMeters, bearingDegrees float64) TargetBar {
	return TargetBar{
		Point:          point,
		DistanceMeters: distanceMeters,
		BearingDegrees: bearingDegrees,
	}
}
