package history

import (
	"context"
	"sync"
)

// Session serializes history requests from one consumer. Starting a new
// request cancels the one in flight, whose caller then gets ErrSuperseded.
type Session struct {
	r *Reconstructor

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewSession creates a Session over r.
func NewSession(r *Reconstructor) *Session {
	return &Session{r: r}
}

// Fetch supersedes any in-flight request and fetches ticker's history.
func (s *Session) Fetch(ctx context.Context, ticker string, maxPoints int) ([]Point, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	id := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	points, err := s.r.FetchHistory(ctx, ticker, maxPoints)

	s.mu.Lock()
	current := id == s.seq
	if current {
		s.cancel = nil
	}
	s.mu.Unlock()

	if !current {
		return nil, ErrSuperseded
	}
	return points, err
}

// Cancel aborts the in-flight request, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
}
