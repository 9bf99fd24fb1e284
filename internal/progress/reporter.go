// Package progress tracks the lifecycle of concurrently running tasks and
// renders one line per task to a display surface.
package progress

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/skaphos/gg/internal/model"
)

// ErrInvalidTransition is returned when a reporter is asked to move to a
// state its current state does not allow.
var ErrInvalidTransition = errors.New("invalid progress transition")

// StartMessage is shown when a task starts running.
const StartMessage = "Process about to begin"

// State is the lifecycle state of a task.
type State int

const (
	Waiting State = iota
	Running
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// Phase is the transfer phase of a running task.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseTransferring
	PhaseIndexing
)

func (p Phase) String() string {
	switch p {
	case PhaseTransferring:
		return "transferring"
	case PhaseIndexing:
		return "indexing"
	default:
		return "none"
	}
}

// Snapshot is an immutable copy of a reporter's state.
type Snapshot struct {
	ID       int
	Label    string
	State    State
	Phase    Phase
	Position int
	Length   int
	Message  string
	Err      error
	Elapsed  time.Duration
	// ETA is zero when unknown.
	ETA   time.Duration
	Bytes uint64
}

// Reporter is the progress handle of exactly one task. The only legal state
// sequence is Waiting, Running, then Done or Failed.
type Reporter struct {
	mu      sync.Mutex
	id      int
	label   string
	surface Surface
	now     func() time.Time

	state    State
	phase    Phase
	pos      int
	length   int
	msg      string
	err      error
	transfer model.TransferProgress

	started      time.Time
	finished     time.Time
	phaseStarted time.Time
	phaseBasePos int
}

func newReporter(id int, label string, surface Surface, now func() time.Time) *Reporter {
	r := &Reporter{id: id, label: label, surface: surface, now: now}
	r.publish(r.snapshotLocked())
	return r
}

// Label returns the task label.
func (r *Reporter) Label() string { return r.label }

// State returns the current state.
func (r *Reporter) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Snapshot returns a copy of the current state.
func (r *Reporter) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Start moves Waiting to Running and resets the clocks.
func (r *Reporter) Start() error {
	r.mu.Lock()
	if r.state != Waiting {
		r.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, r.state)
	}
	now := r.now()
	r.state = Running
	r.started = now
	r.phaseStarted = now
	r.msg = StartMessage
	snap := r.snapshotLocked()
	r.mu.Unlock()
	r.publish(snap)
	return nil
}

// Progress folds transfer counters into a running reporter. Counters never
// decrease. The ETA baseline resets when the phase changes.
func (r *Reporter) Progress(p model.TransferProgress) error {
	r.mu.Lock()
	if r.state != Running {
		r.mu.Unlock()
		return fmt.Errorf("%w: progress while %s", ErrInvalidTransition, r.state)
	}
	t := &r.transfer
	t.TotalObjects = max(t.TotalObjects, p.TotalObjects)
	t.ReceivedObjects = max(t.ReceivedObjects, p.ReceivedObjects)
	t.IndexedObjects = max(t.IndexedObjects, p.IndexedObjects)
	t.TotalDeltas = max(t.TotalDeltas, p.TotalDeltas)
	t.IndexedDeltas = max(t.IndexedDeltas, p.IndexedDeltas)
	t.LocalObjects = max(t.LocalObjects, p.LocalObjects)
	t.ReceivedBytes = max(t.ReceivedBytes, p.ReceivedBytes)

	next := PhaseTransferring
	if t.Indexing() {
		next = PhaseIndexing
	}
	if next != r.phase {
		r.phase = next
		r.phaseStarted = r.now()
		r.phaseBasePos = -1
	}

	switch r.phase {
	case PhaseIndexing:
		if t.TotalDeltas > 0 {
			r.pos, r.length = t.IndexedDeltas, t.TotalDeltas
			r.msg = fmt.Sprintf("Resolving deltas %d/%d", t.IndexedDeltas, t.TotalDeltas)
		} else {
			r.pos, r.length = t.IndexedObjects, t.TotalObjects
			r.msg = fmt.Sprintf("Indexing objects %d/%d", t.IndexedObjects, t.TotalObjects)
		}
	default:
		r.pos, r.length = t.ReceivedObjects, t.TotalObjects
		r.msg = fmt.Sprintf("Receiving objects %d/%d (%s)", t.ReceivedObjects, t.TotalObjects, humanize.IBytes(t.ReceivedBytes))
	}
	if r.phaseBasePos < 0 {
		r.phaseBasePos = r.pos
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()
	r.publish(snap)
	return nil
}

// Done moves Running to Done with msg as the final line.
func (r *Reporter) Done(msg string) error {
	return r.finish(Done, msg, nil)
}

// Fail moves Running to Failed.
func (r *Reporter) Fail(err error) error {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return r.finish(Failed, err.Error(), err)
}

// Abort fails a reporter that never started. The scheduler uses it for tasks
// cancelled before they ran.
func (r *Reporter) Abort(err error) error {
	r.mu.Lock()
	if r.state != Waiting {
		r.mu.Unlock()
		return fmt.Errorf("%w: abort from %s", ErrInvalidTransition, r.state)
	}
	now := r.now()
	r.started = now
	r.state = Running
	r.mu.Unlock()
	return r.Fail(err)
}

func (r *Reporter) finish(state State, msg string, err error) error {
	r.mu.Lock()
	if r.state != Running {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, state, r.state)
	}
	r.state = state
	r.msg = msg
	r.err = err
	r.finished = r.now()
	if state == Done && r.length > 0 {
		r.pos = r.length
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()
	r.publish(snap)
	return nil
}

func (r *Reporter) snapshotLocked() Snapshot {
	s := Snapshot{
		ID:       r.id,
		Label:    r.label,
		State:    r.state,
		Phase:    r.phase,
		Position: r.pos,
		Length:   r.length,
		Message:  r.msg,
		Err:      r.err,
		Bytes:    r.transfer.ReceivedBytes,
	}
	switch r.state {
	case Running:
		now := r.now()
		s.Elapsed = now.Sub(r.started)
		s.ETA = r.etaLocked(now)
	case Done, Failed:
		s.Elapsed = r.finished.Sub(r.started)
	}
	return s
}

func (r *Reporter) etaLocked(now time.Time) time.Duration {
	if r.phase == PhaseNone || r.length <= 0 || r.phaseBasePos < 0 {
		return 0
	}
	advanced := r.pos - r.phaseBasePos
	spent := now.Sub(r.phaseStarted)
	if advanced <= 0 || spent <= 0 {
		return 0
	}
	remaining := r.length - r.pos
	return time.Duration(float64(spent) / float64(advanced) * float64(remaining))
}

func (r *Reporter) publish(s Snapshot) {
	if r.surface != nil {
		r.surface.Update(s)
	}
}
