package audio

import (
	"context"
	"log/slog"

	apperrors "github.com/GriffinCanCode/speaksee/client/internal/errors"
	"github.com/GriffinCanCode/speaksee/client/internal/protocol"
)

// Sink is the outbound side of the duplex channel.
type Sink interface {
	Open() bool
	Send(msg any) error
	SendBinary(data []byte) error
}

// Stream switches captured frames between the pre-roll buffer and the
// channel. It is not safe for concurrent use; all calls come from the loop.
type Stream struct {
	capture   *Capture
	sink      Sink
	preroll   *PreRoll
	rate      int
	streaming bool
}

// NewStream creates a stream that sends frames at rate through sink.
func NewStream(capture *Capture, sink Sink, preroll *PreRoll, rate int) *Stream {
	return &Stream{capture: capture, sink: sink, preroll: preroll, rate: rate}
}

// Streaming reports whether frames currently go to the channel.
func (s *Stream) Streaming() bool { return s.streaming }

// Start announces the utterance and flushes pre-roll oldest-first. It is a
// no-op while already streaming and fails when the channel is closed.
func (s *Stream) Start(ctx context.Context) error {
	if s.streaming {
		return nil
	}
	if !s.sink.Open() {
		return apperrors.Channel(apperrors.ErrChannelClosed)
	}
	if !s.capture.Bound() {
		if err := s.capture.Enable(ctx); err != nil {
			return err
		}
	}

	if err := s.sink.Send(protocol.NewAudioStart(s.rate, FormatPCM16, Channels)); err != nil {
		return apperrors.Channel(err)
	}
	s.streaming = true

	frames := s.preroll.Drain()
	for _, f := range frames {
		if err := s.sink.SendBinary(f); err != nil {
			slog.Debug("pre-roll flush failed", "error", err)
			break
		}
	}
	slog.Debug("streaming started", "preroll_frames", len(frames))
	return nil
}

// Stop ends the utterance. The audio_stop send is best-effort.
func (s *Stream) Stop() {
	if !s.streaming {
		return
	}
	s.streaming = false
	if !s.sink.Open() {
		return
	}
	if err := s.sink.Send(protocol.NewAudioStop()); err != nil {
		slog.Debug("audio_stop send failed", "error", err)
	}
}

// Accept routes one encoded frame.
func (s *Stream) Accept(f Frame) {
	if !s.streaming {
		s.preroll.Push(f)
		return
	}
	if !s.sink.Open() {
		return
	}
	if err := s.sink.SendBinary(f); err != nil {
		slog.Debug("frame send failed", "error", err)
	}
}

// ClearPreRoll drops buffered frames.
func (s *Stream) ClearPreRoll() { s.preroll.Clear() }
