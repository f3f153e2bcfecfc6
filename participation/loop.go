package participation

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrLoopStopped is returned by Do once the loop has shut down
var ErrLoopStopped = errors.New("event loop stopped")

// Loop serialises every engine call onto one goroutine. Chat commands enter
// through Do, timer callbacks through AfterFunc; they never interleave.
type Loop struct {
	tasks    chan func(ctx context.Context)
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop with the given queue capacity
func NewLoop(queueSize int) *Loop {
	return &Loop{
		tasks: make(chan func(ctx context.Context), queueSize),
		done:  make(chan struct{}),
	}
}

// Run processes tasks until ctx is cancelled or Stop is called
func (l *Loop) Run(ctx context.Context) {
	defer l.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case task := <-l.tasks:
			l.execute(ctx, task)
		}
	}
}

func (l *Loop) execute(ctx context.Context, task func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Event loop task panicked")
		}
	}()
	task(ctx)
}

// Stop shuts the loop down. Pending tasks are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Do runs fn on the loop and waits for it to finish
func (l *Loop) Do(ctx context.Context, fn func(ctx context.Context)) error {
	finished := make(chan struct{})
	task := func(loopCtx context.Context) {
		defer close(finished)
		fn(loopCtx)
	}

	select {
	case l.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

func (l *Loop) post(task func(ctx context.Context)) {
	select {
	case l.tasks <- task:
	case <-l.done:
	}
}

// AfterFunc schedules fn to run on the loop after d
func (l *Loop) AfterFunc(d time.Duration, fn func(ctx context.Context)) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.post(func(ctx context.Context) {
			if t.stopped {
				return
			}
			t.stopped = true
			fn(ctx)
		})
	})
	return t
}

// loopTimer is only touched from the loop goroutine, except for the
// underlying time.Timer which is safe to stop from anywhere.
type loopTimer struct {
	timer   *time.Timer
	stopped bool
}

// Stop must be called on the loop. It wins even if the timer already fired
// and its callback is still queued.
func (t *loopTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}
