package position

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"beercompass.app/internal/models"
)

// simSource walks a jittered path around a starting point for development
// and tests. Each watch tick drifts the position by a few meters.
type simSource struct {
	interval time.Duration

	mu   sync.Mutex
	lat  float64
	lon  float64
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSimSource returns a Source that starts at the given coordinates.
func NewSimSource(lat, lon float64, interval time.Duration) Source {
	return &simSource{
		interval: interval,
		lat:      lat,
		lon:      lon,
	}
}

func (s *simSource) CurrentFix(ctx context.Context) (models.PositionSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.NewPositionSample(s.lat, s.lon, 5+rand.Float64()*10), nil
}

func (s *simSource) Watch(onFix func(models.PositionSample), onErr func(error)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		close(s.stop)
	}

	stop := make(chan struct{})
	s.stop = stop
	s.wg.Add(1)
	go s.run(onFix, stop)

	return func() {
		s.mu.Lock()
		if s.stop == stop {
			close(s.stop)
			s.stop = nil
		}
		s.mu.Unlock()
		s.wg.Wait()
	}, nil
}

func (s *simSource) run(onFix func(models.PositionSample), stop chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			// Drift a couple of meters in a random direction,
			// roughly 0.00002 degrees per step.
			s.lat += (rand.Float64() - 0.5) * 4e-5
			s.lon += (rand.Float64() - 0.5) * 4e-5
			sample := models.NewPositionSample(s.lat, s.lon, 5+rand.Float64()*10)
			s.mu.Unlock()

			onFix(sample)
		}
	}
}
