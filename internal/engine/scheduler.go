package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/skaphos/gg/internal/action"
	"github.com/skaphos/gg/internal/gitx"
	"github.com/skaphos/gg/internal/progress"
)

// Scheduler runs submitted actions and waits for all of them to finish.
// Task failures are rendered on their own line and never returned by Join.
type Scheduler interface {
	// Submit registers a for execution. Its line shows as waiting until a
	// worker picks it up.
	Submit(ctx context.Context, a action.Action)
	// Join blocks until every submitted task is terminal, then closes the
	// tracker's surface and returns its error.
	Join() error
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*taskRunner)

// WithLogger logs every task completion at debug.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(t *taskRunner) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewScheduler returns a serial scheduler for jobs == 1 and a bounded pool
// otherwise. jobs <= 0 uses one worker per CPU.
func NewScheduler(jobs int, tracker *progress.Tracker, opts ...SchedulerOption) Scheduler {
	if tracker == nil {
		tracker = progress.NewTracker(nil)
	}
	runner := taskRunner{tracker: tracker, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&runner)
	}
	if jobs == 1 {
		return &syncScheduler{taskRunner: runner}
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return &poolScheduler{taskRunner: runner, sem: semaphore.NewWeighted(int64(jobs))}
}

// RunBatch submits every action and joins.
func RunBatch(ctx context.Context, actions []action.Action, jobs int, tracker *progress.Tracker, opts ...SchedulerOption) error {
	s := NewScheduler(jobs, tracker, opts...)
	for _, a := range actions {
		s.Submit(ctx, a)
	}
	return s.Join()
}

// TaskError annotates a task failure with its error class.
type TaskError struct {
	Class string
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("[%s] %v", e.Class, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

type taskRunner struct {
	tracker *progress.Tracker
	logger  *slog.Logger
}

func (t *taskRunner) run(ctx context.Context, a action.Action, r *progress.Reporter) {
	err := action.Run(ctx, classified{a}, r)
	t.logger.Debug("task finished",
		"task", a.Name(),
		"state", r.State().String(),
		"error_class", gitx.ClassifyError(err),
	)
}

func (t *taskRunner) abort(a action.Action, r *progress.Reporter, err error) {
	_ = r.Abort(err)
	t.logger.Debug("task aborted", "task", a.Name(), "state", r.State().String(), "error", err)
}

func (t *taskRunner) join() error {
	if err := t.tracker.Close(); err != nil {
		return fmt.Errorf("close progress surface: %w", err)
	}
	return nil
}

// classified wraps action errors in a TaskError when the class is known.
type classified struct {
	action.Action
}

func (c classified) Execute(ctx context.Context, report action.ProgressFunc) (string, error) {
	msg, err := c.Action.Execute(ctx, report)
	if err == nil {
		return msg, nil
	}
	var te *TaskError
	if errors.As(err, &te) {
		return msg, err
	}
	if class := gitx.ClassifyError(err); class != "" && class != "unknown" {
		return msg, &TaskError{Class: class, Err: err}
	}
	return msg, err
}

// syncScheduler runs each action inside Submit, on the caller's goroutine.
type syncScheduler struct {
	taskRunner
}

func (s *syncScheduler) Submit(ctx context.Context, a action.Action) {
	r := s.tracker.NewReporter(a.Name())
	if err := ctx.Err(); err != nil {
		s.abort(a, r, err)
		return
	}
	s.run(ctx, a, r)
}

func (s *syncScheduler) Join() error {
	return s.join()
}

// poolScheduler runs at most sem's weight of actions at once.
type poolScheduler struct {
	taskRunner
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func (p *poolScheduler) Submit(ctx context.Context, a action.Action) {
	r := p.tracker.NewReporter(a.Name())
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(ctx, 1); err != nil {
			p.abort(a, r, err)
			return
		}
		defer p.sem.Release(1)
		if err := ctx.Err(); err != nil {
			p.abort(a, r, err)
			return
		}
		p.run(ctx, a, r)
	}()
}

func (p *poolScheduler) Join() error {
	p.wg.Wait()
	return p.join()
}
