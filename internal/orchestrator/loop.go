package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/GriffinCanCode/speaksee/client/internal/session"
)

// ErrLoopStopped is returned when work is submitted after the loop exits.
var ErrLoopStopped = errors.New("event loop stopped")

// Loop runs submitted functions one at a time on a single goroutine. It is
// the session.Host the controller lives on.
type Loop struct {
	queue  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop creates a loop bound to ctx with room for size pending functions.
func NewLoop(ctx context.Context, size int) *Loop {
	if size <= 0 {
		size = LoopQueueSize
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Loop{
		queue:  make(chan func(), size),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Run processes the queue until Stop or the parent context ends.
func (l *Loop) Run() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Stop ends the loop and waits for the running function to return. Pending
// functions are discarded.
func (l *Loop) Stop() {
	l.cancel()
	<-l.done
}

// Post queues fn, blocking while the queue is full. It reports false once
// the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.ctx.Done():
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.ctx.Done():
		return false
	}
}

// TryPost queues fn unless the queue is full.
func (l *Loop) TryPost(fn func()) bool {
	select {
	case <-l.ctx.Done():
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	default:
		return false
	}
}

// Call runs fn on the loop and waits for its result. It must not be called
// from the loop itself.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	if !l.Post(func() { errCh <- fn() }) {
		return ErrLoopStopped
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Now implements session.Host.
func (l *Loop) Now() time.Time { return time.Now() }

// AfterFunc implements session.Host. The callback runs on the loop.
func (l *Loop) AfterFunc(d time.Duration, f func()) session.Timer {
	t := &loopTimer{}
	t.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped {
				return
			}
			t.fired = true
			f()
		})
	})
	return t
}

// Async implements session.Host. work runs on its own goroutine with the
// loop's context; done runs on the loop.
func (l *Loop) Async(work func(ctx context.Context) error, done func(error)) {
	go func() {
		err := work(l.ctx)
		l.Post(func() { done(err) })
	}()
}

// loopTimer flags are only touched on the loop goroutine.
type loopTimer struct {
	t       *time.Timer
	stopped bool
	fired   bool
}

func (t *loopTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.t.Stop()
	return true
}
