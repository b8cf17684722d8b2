package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/task"
)

var (
	// ErrStopped is returned by every operation on a stopped server.
	ErrStopped = errors.New("analysis server stopped")
	// ErrNotStarted is returned by AnalyzeNow before Start.
	ErrNotStarted = errors.New("analysis server not started")
	// ErrContentUnavailable marks a source whose content could not be read.
	// The source is analysed as empty; the error is only logged.
	ErrContentUnavailable = errors.New("content unavailable")
	// ErrNotResolved is returned by AnalyzeNow when the queue drained
	// without resolving the requested source (for example it was discarded).
	ErrNotResolved = errors.New("source was not resolved")
)

// TaskFault is an unexpected failure inside a task body. The processor
// recovers it, logs it and moves on.
type TaskFault struct {
	Kind   task.Kind
	Target source.Source
	Cause  error
}

func (f *TaskFault) Error() string {
	if f.Target.IsZero() {
		return fmt.Sprintf("%s task failed: %v", f.Kind, f.Cause)
	}
	return fmt.Sprintf("%s task on %s failed: %v", f.Kind, f.Target, f.Cause)
}

func (f *TaskFault) Unwrap() error { return f.Cause }

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
