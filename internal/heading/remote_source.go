package heading

import (
	"context"
	"errors"
	"sync"
)

// RemoteSource adapts orientation events pushed by a remote peer (a
// browser streaming its sensor readings over a socket) into the Source
// interface. RequestAccess reports NotRequired: the peer ran its own
// permission prompt before it starts sending.
type RemoteSource struct {
	mu sync.Mutex
	fn func(RawOrientation)
}

func NewRemoteSource() *RemoteSource {
	return &RemoteSource{}
}

func (s *RemoteSource) RequestAccess(ctx context.Context) (PermissionDecision, error) {
	return PermissionNotRequired, nil
}

func (s *RemoteSource) Subscribe(fn func(RawOrientation)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fn != nil {
		return errors.New("orientation source already subscribed")
	}

	s.fn = fn
	return nil
}

func (s *RemoteSource) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn = nil
}

// Push delivers one orientation sample to the subscriber. Delivery runs
// under the source's lock, so once Unsubscribe returns no callback is in
// flight; pushes without a subscriber are dropped.
func (s *RemoteSource) Push(raw RawOrientation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fn != nil {
		s.fn(raw)
	}
}
