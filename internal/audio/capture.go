package audio

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrDisabledWhileOpening is returned by Enable when Disable ran while the
// device was still opening. The device is released before returning.
var ErrDisabledWhileOpening = errors.New("microphone disabled while opening")

// Capture owns the input device lifecycle. Each captured block is copied off
// the device goroutine and handed to dispatch, which runs ProcessBlock on the
// owner's goroutine.
type Capture struct {
	src        Source
	targetRate int
	dispatch   func(func())

	onLevel func(float64)
	onFrame func(Frame)

	enableGroup singleflight.Group

	mu         sync.Mutex
	bound      bool
	nativeRate int
	// gen advances on every Disable so an Open that straddles one can tell.
	gen uint64
}

// NewCapture creates a disabled capture. A nil dispatch runs blocks inline.
func NewCapture(src Source, targetRate int, dispatch func(func())) *Capture {
	if targetRate <= 0 {
		targetRate = DefaultTargetRate
	}
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Capture{src: src, targetRate: targetRate, dispatch: dispatch}
}

// OnLevel sets the per-block RMS callback. Set before Enable.
func (c *Capture) OnLevel(fn func(float64)) { c.onLevel = fn }

// OnFrame sets the per-block encoded frame callback. Set before Enable.
func (c *Capture) OnFrame(fn func(Frame)) { c.onFrame = fn }

// Bound reports whether the device is enabled.
func (c *Capture) Bound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bound
}

// NativeRate returns the device rate, or 0 while disabled.
func (c *Capture) NativeRate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nativeRate
}

// Enable opens the device. It is idempotent, and concurrent calls share one
// in-flight attempt and its result. A Disable that lands while the device is
// opening wins: the device is closed again and ErrDisabledWhileOpening is
// returned.
func (c *Capture) Enable(ctx context.Context) error {
	_, err, _ := c.enableGroup.Do("enable", func() (any, error) {
		c.mu.Lock()
		if c.bound {
			c.mu.Unlock()
			return nil, nil
		}
		gen := c.gen
		c.mu.Unlock()

		rate, err := c.src.Open(ctx, c.handleBlock)
		if err != nil {
			slog.Warn("failed to enable microphone", "error", err)
			return nil, err
		}

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			c.closeSource()
			slog.Info("microphone released, disabled while opening")
			return nil, ErrDisabledWhileOpening
		}
		c.bound = true
		c.nativeRate = rate
		c.mu.Unlock()
		slog.Info("microphone enabled", "native_rate", rate, "target_rate", c.targetRate)
		return nil, nil
	})
	return err
}

// Disable releases the device, including one that is still opening.
// Teardown errors are logged, not returned.
func (c *Capture) Disable() {
	c.mu.Lock()
	c.gen++
	if !c.bound {
		c.mu.Unlock()
		return
	}
	c.bound = false
	c.nativeRate = 0
	c.mu.Unlock()

	c.closeSource()
	slog.Info("microphone disabled")
}

func (c *Capture) closeSource() {
	if err := c.src.Close(); err != nil {
		slog.Debug("audio source close failed", "error", err)
	}
}

func (c *Capture) handleBlock(block []float32) {
	data := append([]float32(nil), block...)
	c.dispatch(func() { c.ProcessBlock(data) })
}

// ProcessBlock meters and encodes one native-rate block. Blocks that arrive
// after Disable are ignored.
func (c *Capture) ProcessBlock(block []float32) {
	c.mu.Lock()
	bound, rate := c.bound, c.nativeRate
	c.mu.Unlock()
	if !bound {
		return
	}

	if c.onLevel != nil {
		c.onLevel(RMS(block))
	}
	frame := Encode(block, rate, c.targetRate)
	if len(frame) > 0 && c.onFrame != nil {
		c.onFrame(frame)
	}
}
