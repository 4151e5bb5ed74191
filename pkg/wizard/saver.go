package wizard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taxglide/filingwizard/pkg/filing"
	"github.com/taxglide/filingwizard/pkg/store"
)

// saver coalesces answer writes. Each edit queues a fresh snapshot of the
// active record and (re)arms a short timer; the timer or an explicit Flush
// pushes the latest snapshot to the backend. In-flight saves are never
// cancelled: a later flush simply writes the newer snapshot after the older
// one.
type saver struct {
	st    store.Store
	delay time.Duration
	log   *slog.Logger

	mu       sync.Mutex
	timer    *time.Timer
	person   *filing.PersonRecord
	business *filing.BusinessRecord
}

func newSaver(st store.Store, delay time.Duration, log *slog.Logger) *saver {
	return &saver{st: st, delay: delay, log: log}
}

// queuePerson replaces any pending snapshot with this one.
func (s *saver) queuePerson(p *filing.PersonRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.person = p.Clone()
	s.business = nil
	s.arm()
}

// queueBusiness replaces any pending snapshot with this one.
func (s *saver) queueBusiness(b *filing.BusinessRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.business = b.Clone()
	s.person = nil
	s.arm()
}

func (s *saver) arm() {
	if s.delay <= 0 {
		return
	}
	if s.timer != nil {
		s.timer.Reset(s.delay)
		return
	}
	s.timer = time.AfterFunc(s.delay, s.background)
}

func (s *saver) background() {
	// Debounced saves are best-effort; on failure the snapshot stays
	// queued and the next flush retries with whatever is newest.
	if err := s.Flush(context.Background()); err != nil && s.log != nil {
		s.log.Warn("debounced answer save failed", "error", err)
	}
}

// Flush forces the pending write, if any, to complete now. Navigation calls
// this before changing the active record, so an unflushed edit is never
// dropped by a phase transition.
func (s *saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	switch {
	case s.person != nil:
		if err := s.st.UpdatePerson(ctx, s.person); err != nil {
			return err
		}
		s.person = nil
	case s.business != nil:
		if err := s.st.UpdateBusiness(ctx, s.business); err != nil {
			return err
		}
		s.business = nil
	}
	return nil
}
