package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func startLoop(t *testing.T, size int) *Loop {
	t.Helper()
	l := NewLoop(context.Background(), size)
	go l.Run()
	t.Cleanup(l.Stop)
	return l
}

func TestLoopRunsInOrder(t *testing.T) {
	l := startLoop(t, 8)
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	if err := l.Call(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("Call: %v", err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got %v, want ascending", got)
		}
	}
	if len(got) != 5 {
		t.Errorf("ran %d functions, want 5", len(got))
	}
}

func TestLoopCallReturnsError(t *testing.T) {
	l := startLoop(t, 1)
	want := errors.New("boom")
	if err := l.Call(context.Background(), func() error { return want }); !errors.Is(err, want) {
		t.Errorf("Call error = %v, want %v", err, want)
	}
}

func TestLoopTryPostDropsWhenFull(t *testing.T) {
	l := NewLoop(context.Background(), 1)
	defer l.cancel()

	if !l.TryPost(func() {}) {
		t.Fatal("first TryPost rejected")
	}
	if l.TryPost(func() {}) {
		t.Error("TryPost accepted beyond capacity")
	}
}

func TestLoopStoppedRejectsWork(t *testing.T) {
	l := NewLoop(context.Background(), 1)
	go l.Run()
	l.Stop()

	if l.Post(func() {}) {
		t.Error("Post accepted after Stop")
	}
	if l.TryPost(func() {}) {
		t.Error("TryPost accepted after Stop")
	}
	if err := l.Call(context.Background(), func() error { return nil }); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("Call error = %v, want ErrLoopStopped", err)
	}
}

func TestLoopTimerFiresOnLoop(t *testing.T) {
	l := startLoop(t, 8)
	fired := make(chan struct{})
	l.Post(func() {
		l.AfterFunc(10*time.Millisecond, func() { close(fired) })
	})
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestLoopTimerStopPreventsCallback(t *testing.T) {
	l := startLoop(t, 8)
	var ran atomic.Bool

	err := l.Call(context.Background(), func() error {
		tm := l.AfterFunc(20*time.Millisecond, func() { ran.Store(true) })
		if !tm.Stop() {
			return errors.New("Stop reported already fired")
		}
		if tm.Stop() {
			return errors.New("second Stop reported true")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(60 * time.Millisecond)
	_ = l.Call(context.Background(), func() error { return nil })
	if ran.Load() {
		t.Error("stopped timer ran")
	}
}

func TestLoopTimerStopAfterExpiry(t *testing.T) {
	l := startLoop(t, 8)
	var ran atomic.Bool

	// Block the loop so the timer expires while its callback is still queued.
	err := l.Call(context.Background(), func() error {
		tm := l.AfterFunc(time.Millisecond, func() { ran.Store(true) })
		time.Sleep(30 * time.Millisecond)
		if !tm.Stop() {
			return errors.New("Stop before callback ran reported false")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)
	_ = l.Call(context.Background(), func() error { return nil })
	if ran.Load() {
		t.Error("callback ran after Stop")
	}
}

func TestLoopAsyncCompletesOnLoop(t *testing.T) {
	l := startLoop(t, 8)
	done := make(chan error, 1)
	l.Async(func(ctx context.Context) error {
		return ctx.Err()
	}, func(err error) { done <- err })

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("work saw %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("async completion never ran")
	}
}
