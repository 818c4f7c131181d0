package models

import "time"

// HeadingSample is a normalized compass heading in degrees clockwise from
// geographic north, in [0, 360).
type HeadingSample struct {
	Degrees     float64 `json:"degrees"`
	TimestampMs int64   `json:"timestamp"`
}

func NewHeadingSample(degrees float64) HeadingSample {
	return HeadingSample{
		Degrees:     degrees,
		TimestampMs: time.Now().UnixMilli(),
	}
}
