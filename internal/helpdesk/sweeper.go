package helpdesk

import (
	"context"
	"log"
	"time"
)

// SweepInterval is how often the background sweeper checks for expired
// pending requests.
const SweepInterval = 5 * time.Minute

// Sweeper periodically times out pending requests whose deadline has
// passed. OnTimeout, when set, is invoked once per request that the
// sweeper transitioned.
type Sweeper struct {
	store     *Store
	interval  time.Duration
	OnTimeout func(req *Request)
}

// NewSweeper creates a sweeper with the default interval.
func NewSweeper(store *Store) *Sweeper {
	return &Sweeper{store: store, interval: SweepInterval}
}

// Run blocks, sweeping on every tick until the context is cancelled. An
// immediate sweep runs at startup to catch requests that expired while the
// process was down.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("helpdesk: sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	ids, err := s.store.SweepTimeouts(ctx, time.Now())
	if err != nil {
		log.Printf("helpdesk: sweep failed: %v", err)
		return
	}
	if s.OnTimeout == nil {
		return
	}
	for _, id := range ids {
		req, err := s.store.Get(ctx, id)
		if err != nil {
			log.Printf("helpdesk: sweep: loading %s: %v", id, err)
			continue
		}
		s.OnTimeout(req)
	}
}
