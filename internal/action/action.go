// Package action defines the repository operations gg schedules and the
// contract they share.
package action

import (
	"context"
	"fmt"

	"github.com/skaphos/gg/internal/model"
	"github.com/skaphos/gg/internal/progress"
)

// ProgressFunc receives transfer counters while an action runs.
type ProgressFunc func(model.TransferProgress)

// Action is one operation against one repository. An action is executed at
// most once.
type Action interface {
	// Name is the stable display label of the task.
	Name() string
	// Execute performs the operation and returns the outcome message. A
	// non-nil error fails the task.
	Execute(ctx context.Context, report ProgressFunc) (string, error)
}

// Run drives r through the lifecycle of a: Start, then Execute, then Done or
// Fail. A panic inside Execute fails the task instead of the process.
func Run(ctx context.Context, a Action, r *progress.Reporter) (err error) {
	if startErr := r.Start(); startErr != nil {
		return startErr
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in %s: %v", a.Name(), p)
			_ = r.Fail(err)
		}
	}()
	msg, err := a.Execute(ctx, func(p model.TransferProgress) {
		_ = r.Progress(p)
	})
	if err != nil {
		_ = r.Fail(err)
		return err
	}
	_ = r.Done(msg)
	return nil
}
