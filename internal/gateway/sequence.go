package gateway

import (
	"context"
	"sync"
)

// Sequencer orders the in-flight requests of a single control (a quantity
// field, the search box). Beginning a new request cancels the context of the
// previous one, and responses for anything but the latest sequence are stale.
type Sequencer struct {
	mu     sync.Mutex
	latest uint64
	cancel context.CancelFunc
}

// Begin registers a new request and returns its context and sequence number.
// Any prior in-flight context is cancelled.
func (s *Sequencer) Begin(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.latest++
	return ctx, s.latest
}

// Stale reports whether a response with the given sequence has been
// superseded and should be discarded.
func (s *Sequencer) Stale(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq != s.latest
}
