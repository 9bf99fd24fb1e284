package progress

import (
	"slices"
	"sync"
	"time"
)

// Tracker owns the reporters of one command invocation and the surface they
// draw on.
type Tracker struct {
	surface Surface
	now     func() time.Time

	mu        sync.Mutex
	reporters []*Reporter
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// NewTracker returns a Tracker drawing on surface. A nil surface discards
// all updates.
func NewTracker(surface Surface, opts ...TrackerOption) *Tracker {
	if surface == nil {
		surface = Discard
	}
	t := &Tracker{surface: surface, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewReporter registers a Waiting reporter. Lines are rendered in
// registration order.
func (t *Tracker) NewReporter(label string) *Reporter {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := newReporter(len(t.reporters), label, t.surface, t.now)
	t.reporters = append(t.reporters, r)
	return r
}

// Reporters returns every reporter registered so far.
func (t *Tracker) Reporters() []*Reporter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.reporters)
}

// Summary counts reporters per state.
type Summary struct {
	Total   int
	Waiting int
	Running int
	Done    int
	Failed  int
}

// Summary returns the current per-state counts.
func (t *Tracker) Summary() Summary {
	var s Summary
	for _, r := range t.Reporters() {
		s.Total++
		switch r.State() {
		case Waiting:
			s.Waiting++
		case Running:
			s.Running++
		case Done:
			s.Done++
		case Failed:
			s.Failed++
		}
	}
	return s
}

// Close flushes and releases the surface.
func (t *Tracker) Close() error {
	return t.surface.Close()
}
