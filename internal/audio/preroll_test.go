package audio

import (
	"testing"
	"time"
)

func TestPreRollBytes(t *testing.T) {
	if got := PreRollBytes(320*time.Millisecond, 16000); got != 10240 {
		t.Errorf("PreRollBytes = %d, want 10240", got)
	}
}

func TestPreRollNeverExceedsBudget(t *testing.T) {
	p := NewPreRoll(320*time.Millisecond, 16000)
	sizes := []int{2730, 2730, 2730, 4096, 100, 9000, 2730, 2, 12000, 2730}

	for i, n := range sizes {
		p.Push(make(Frame, n))
		if p.Bytes() > p.MaxBytes() {
			t.Fatalf("push %d: bytes %d exceeds budget %d", i, p.Bytes(), p.MaxBytes())
		}
	}
}

func TestPreRollEvictsOldestFirst(t *testing.T) {
	// Budget of 10 bytes at 1000Hz: 5ms.
	p := NewPreRoll(5*time.Millisecond, 1000)
	for i := byte(1); i <= 5; i++ {
		p.Push(Frame{i, i, i, i})
	}

	frames := p.Drain()
	if len(frames) != 2 {
		t.Fatalf("len = %d, want 2", len(frames))
	}
	if frames[0][0] != 4 || frames[1][0] != 5 {
		t.Errorf("kept frames %d,%d; want 4,5", frames[0][0], frames[1][0])
	}
	if p.Len() != 0 || p.Bytes() != 0 {
		t.Errorf("drain left %d frames, %d bytes", p.Len(), p.Bytes())
	}
}

func TestPreRollOversizedFrameDropped(t *testing.T) {
	p := NewPreRoll(5*time.Millisecond, 1000)
	p.Push(Frame{1, 1})
	p.Push(make(Frame, 64))
	if p.Len() != 0 || p.Bytes() != 0 {
		t.Errorf("got %d frames, %d bytes; want empty", p.Len(), p.Bytes())
	}
}

func TestPreRollClear(t *testing.T) {
	p := NewPreRoll(DefaultPreRoll, DefaultTargetRate)
	p.Push(Frame{1, 2})
	p.Clear()
	if p.Len() != 0 || p.Bytes() != 0 {
		t.Errorf("Clear left %d frames, %d bytes", p.Len(), p.Bytes())
	}
}
