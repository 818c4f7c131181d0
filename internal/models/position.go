package models

import "time"

// PositionSample is a single device position fix. Trackers hold at most
// one — the most recent — and older samples are discarded, never queued.
type PositionSample struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	AccuracyMeters float64 `json:"accuracy"`
	TimestampMs    int64   `json:"timestamp"`
}

func NewPositionSample(lat, lon, accuracyMeters float64) PositionSample {
	return PositionSample{
		Lat:            lat,
		Lon:            lon,
		AccuracyMeters: accuracyMeters,
		TimestampMs:    time.Now().UnixMilli(),
	}
}
