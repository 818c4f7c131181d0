package position

import (
	"context"
	"sync"

	"beercompass.app/internal/models"
)

// RemoteSource adapts fixes pushed by a remote peer (a browser streaming
// its geolocation over a socket) into the Source interface. The peer is
// the sensor; this side only relays.
type RemoteSource struct {
	mu      sync.Mutex
	latest  models.PositionSample
	has     bool
	onFix   func(models.PositionSample)
	onErr   func(error)
	waiters []chan models.PositionSample
}

func NewRemoteSource() *RemoteSource {
	return &RemoteSource{}
}

// Push records a sample and delivers it to the active watch and to any
// CurrentFix caller waiting on a first fix. Delivery runs under the
// source's lock, so once the watch's stop returns no callback is in
// flight.
func (s *RemoteSource) Push(sample models.PositionSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = sample
	s.has = true

	for _, waiter := range s.waiters {
		waiter <- sample
	}
	s.waiters = nil

	if s.onFix != nil {
		s.onFix(sample)
	}
}

// PushError forwards a sensor failure from the peer to the active watch.
func (s *RemoteSource) PushError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.onErr != nil {
		s.onErr(err)
	}
}

// CurrentFix returns the most recent pushed sample, or waits for the
// first one.
func (s *RemoteSource) CurrentFix(ctx context.Context) (models.PositionSample, error) {
	s.mu.Lock()
	if s.has {
		sample := s.latest
		s.mu.Unlock()
		return sample, nil
	}

	// Buffered so a Push never blocks on a waiter that already gave up.
	waiter := make(chan models.PositionSample, 1)
	s.waiters = append(s.waiters, waiter)
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return models.PositionSample{}, ctx.Err()
	case sample := <-waiter:
		return sample, nil
	}
}

// Watch installs the delivery callbacks; the returned stop uninstalls
// them and later pushes are dropped.
func (s *RemoteSource) Watch(onFix func(models.PositionSample), onErr func(error)) (func(), error) {
	s.mu.Lock()
	s.onFix = onFix
	s.onErr = onErr
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.onFix = nil
		s.onErr = nil
		s.mu.Unlock()
	}, nil
}
