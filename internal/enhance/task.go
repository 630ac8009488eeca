package enhance

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Task is a running enhancement. Cancel disposes of it.
type Task struct {
	ctx      context.Context
	cancel   context.CancelFunc
	relevant func() bool

	cancelled atomic.Bool

	mu    sync.Mutex
	timer *time.Timer

	done     chan struct{}
	doneOnce sync.Once
}

func newTask(ctx context.Context, relevant func() bool) *Task {
	ctx, cancel := context.WithCancel(ctx)
	return &Task{
		ctx:      ctx,
		cancel:   cancel,
		relevant: relevant,
		done:     make(chan struct{}),
	}
}

// Relevant reports whether the task may still write to its view.
func (t *Task) Relevant() bool {
	if t.cancelled.Load() || t.ctx.Err() != nil {
		return false
	}
	return t.relevant == nil || t.relevant()
}

// Cancel marks the task irrelevant, stops a pending diagram timer and
// cancels in-flight engine calls. It is safe to call more than once.
func (t *Task) Cancel() {
	t.cancelled.Store(true)

	t.mu.Lock()
	if t.timer != nil && t.timer.Stop() {
		t.finish()
	}
	t.timer = nil
	t.mu.Unlock()

	t.cancel()
}

// Done is closed once the task has no further work to do.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until Done is closed.
func (t *Task) Wait() {
	<-t.done
}

// schedule runs fn after d unless the task is cancelled first.
func (t *Task) schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled.Load() {
		t.finish()
		return
	}
	t.timer = time.AfterFunc(d, fn)
}

func (t *Task) finish() {
	t.doneOnce.Do(func() {
		close(t.done)
		t.cancel()
	})
}
