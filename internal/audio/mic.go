package audio

import (
	"context"
	"time"
)

// MicConfig sizes the capture pipeline.
type MicConfig struct {
	TargetRate int
	PreRoll    time.Duration
}

// Mic ties Capture and Stream together behind the surface the session
// controller drives.
type Mic struct {
	capture *Capture
	stream  *Stream
}

// NewMic wires capture frames into the stream. dispatch must run its
// argument on the goroutine that calls the Mic's streaming methods.
func NewMic(src Source, sink Sink, cfg MicConfig, dispatch func(func())) *Mic {
	if cfg.TargetRate <= 0 {
		cfg.TargetRate = DefaultTargetRate
	}
	if cfg.PreRoll <= 0 {
		cfg.PreRoll = DefaultPreRoll
	}
	capture := NewCapture(src, cfg.TargetRate, dispatch)
	stream := NewStream(capture, sink, NewPreRoll(cfg.PreRoll, cfg.TargetRate), cfg.TargetRate)
	capture.OnFrame(stream.Accept)
	return &Mic{capture: capture, stream: stream}
}

// OnLevel sets the per-block RMS callback.
func (m *Mic) OnLevel(fn func(float64)) { m.capture.OnLevel(fn) }

func (m *Mic) Bound() bool { return m.capture.Bound() }

func (m *Mic) Streaming() bool { return m.stream.Streaming() }

func (m *Mic) Enable(ctx context.Context) error { return m.capture.Enable(ctx) }

func (m *Mic) StartStreaming(ctx context.Context) error { return m.stream.Start(ctx) }

func (m *Mic) StopStreaming() { m.stream.Stop() }

// Disable stops streaming, releases the device and clears pre-roll.
func (m *Mic) Disable() {
	m.stream.Stop()
	m.capture.Disable()
	m.stream.ClearPreRoll()
}
