package heading

import (
	"context"
	"errors"
	"sync"
	"time"

	"beercompass.app/internal/geo"
)

// simSource synthesizes a smoothly rotating compass heading for
// development and tests. It needs no permission grant.
type simSource struct {
	interval time.Duration
	step     float64

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSimSource returns a Source that emits a heading advancing by step
// degrees every interval, wrapping at 360.
func NewSimSource(interval time.Duration, step float64) Source {
	return &simSource{
		interval: interval,
		step:     step,
	}
}

func (s *simSource) RequestAccess(ctx context.Context) (PermissionDecision, error) {
	return PermissionNotRequired, nil
}

func (s *simSource) Subscribe(fn func(RawOrientation)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return errors.New("orientation simulation already subscribed")
	}

	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(fn, s.stop)
	return nil
}

func (s *simSource) run(fn func(RawOrientation), stop chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	degrees := 0.0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			degrees = geo.NormalizeAngle(degrees + s.step)
			value := degrees
			fn(RawOrientation{CompassHeading: &value})
		}
	}
}

func (s *simSource) Unsubscribe() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}
