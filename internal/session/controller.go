package session

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/GriffinCanCode/speaksee/client/internal/errors"
	"github.com/GriffinCanCode/speaksee/client/internal/protocol"
	"github.com/GriffinCanCode/speaksee/client/internal/resilience"
	"github.com/GriffinCanCode/speaksee/client/internal/trace"
	"github.com/GriffinCanCode/speaksee/client/internal/vad"
)

// Session defaults
const (
	DefaultHoldDuration = 200 * time.Millisecond
	DefaultAutogenDelay = 1200 * time.Millisecond
	DefaultClientName   = "cli"
	DefaultUIVersion    = "1"
)

// Config holds controller settings.
type Config struct {
	VAD          vad.Config
	HoldDuration time.Duration
	AutogenDelay time.Duration
	Reconnect    resilience.Policy
	AutoListen   bool
	ClientName   string
	UIVersion    string
}

// DefaultConfig returns the stock settings with auto-listen on.
func DefaultConfig() Config {
	return Config{
		VAD:          vad.DefaultConfig(),
		HoldDuration: DefaultHoldDuration,
		AutogenDelay: DefaultAutogenDelay,
		Reconnect:    resilience.ReconnectPolicy(resilience.DefaultReconnectDelay),
		AutoListen:   true,
		ClientName:   DefaultClientName,
		UIVersion:    DefaultUIVersion,
	}
}

// Controller owns all session state. Its methods must run on the Host loop.
type Controller struct {
	cfg  Config
	host Host
	mic  Audio
	ch   Channel
	conn Connector
	view Presenter
	hist History
	ctx  context.Context

	phase       protocol.Phase
	detail      string
	attached    bool
	micReady    bool
	micBlocked  bool
	autoListen  bool
	textFocused bool
	liveText    string
	prompt      string
	loading     bool
	progress    *protocol.GenProgress
	models      *protocol.Models
	result      *protocol.GenResult
	gallery     []protocol.GalleryItem
	style       string
	lastCommand string

	rec       recording
	vadState  vad.State
	input     inputState
	autogen   autogenState
	utterance *trace.Span

	reconnectTimer Timer
	attempt        int
	connecting     bool
	closed         bool
}

// New creates a controller. ctx scopes asynchronous work and carries the
// session trace.
func New(ctx context.Context, cfg Config, deps Deps) *Controller {
	if cfg.HoldDuration <= 0 {
		cfg.HoldDuration = DefaultHoldDuration
	}
	if cfg.AutogenDelay <= 0 {
		cfg.AutogenDelay = DefaultAutogenDelay
	}
	if cfg.VAD == (vad.Config{}) {
		cfg.VAD = vad.DefaultConfig()
	}
	if cfg.Reconnect.BaseDelay <= 0 {
		cfg.Reconnect = resilience.ReconnectPolicy(resilience.DefaultReconnectDelay)
	}
	if cfg.ClientName == "" {
		cfg.ClientName = DefaultClientName
	}
	if cfg.UIVersion == "" {
		cfg.UIVersion = DefaultUIVersion
	}
	ctx, _ = trace.EnsureContext(ctx)
	return &Controller{
		cfg:        cfg,
		host:       deps.Host,
		mic:        deps.Audio,
		ch:         deps.Channel,
		conn:       deps.Connector,
		view:       deps.Presenter,
		hist:       deps.History,
		ctx:        ctx,
		phase:      protocol.PhaseIdle,
		autoListen: cfg.AutoListen,
		style:      StyleNone,
	}
}

// Start opens the first channel connection.
func (c *Controller) Start() {
	c.connect()
	c.publish()
}

// Close cancels every pending timer and ends any recording. The controller
// ignores further events.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.stopRecording()
	c.cancelAutogen()
	c.cancelHold()
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.closed = true
	c.publish()
}

// Snapshot returns the current renderable state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Phase:       c.phase,
		Detail:      c.detail,
		Connected:   c.ch.Open(),
		Recording:   c.rec.active,
		Starting:    c.rec.startInFlight,
		MicReady:    c.micReady,
		MicBlocked:  c.micBlocked,
		AutoListen:  c.autoListen,
		TextFocused: c.textFocused,
		LiveText:    c.liveText,
		Prompt:      c.prompt,
		Loading:     c.loading,
		Progress:    c.progress,
		Models:      c.models,
		Result:      c.result,
		Gallery:     c.gallery,
		Style:       c.style,
		LastCommand: c.lastCommand,
	}
	if c.autogen.timer != nil {
		s.Autogen = &Countdown{StartedAt: c.autogen.startedAt, Delay: c.cfg.AutogenDelay}
	}
	return s
}

func (c *Controller) publish() {
	if c.view != nil {
		c.view.Render(c.Snapshot())
	}
}

func (c *Controller) notify(n Notice) {
	if c.view != nil {
		c.view.Notify(n)
	}
}

func (c *Controller) log() *slog.Logger { return trace.Logger(c.ctx) }

// ToggleRecording stops when recording, otherwise starts.
func (c *Controller) ToggleRecording() {
	if c.rec.active {
		c.StopRecording()
	} else {
		c.StartRecording()
	}
}

// StartRecording begins an utterance.
func (c *Controller) StartRecording() { c.startRecording("manual") }

// StopRecording ends the current utterance.
func (c *Controller) StopRecording() {
	if c.stopRecording() {
		c.publish()
	}
}

// startRecording flips the recording flag at once, then enables the device
// off-loop and begins streaming when that completes. A stop that lands while
// the start is in flight wins: streaming is not started.
func (c *Controller) startRecording(trigger string) {
	if c.closed || !c.attached || c.rec.active || c.rec.startInFlight {
		return
	}
	if !c.ch.Open() {
		return
	}

	now := c.host.Now()
	c.rec.startInFlight = true
	c.cancelAutogen()
	c.liveText = "…"
	c.vadState = vad.Started(now, c.vadState)
	c.rec.active = true
	c.beginUtterance(trigger)
	c.publish()

	c.host.Async(c.mic.Enable, func(err error) {
		if err == nil && c.rec.active {
			err = c.mic.StartStreaming(c.ctx)
		}
		c.rec.startInFlight = false
		if c.closed {
			return
		}
		if err != nil {
			c.log().Warn("failed to start recording", "error", err)
			c.rec.active = false
			c.micReady = c.mic.Bound()
			c.endUtterance("error")
			c.notify(failure(NoticeMicError, err))
		} else {
			c.micReady = true
			c.micBlocked = false
		}
		c.publish()
	})
}

// stopRecording reports whether state changed.
func (c *Controller) stopRecording() bool {
	if !c.rec.active || c.rec.stopInFlight {
		return false
	}
	c.rec.active = false
	c.vadState = vad.Stopped(c.host.Now(), c.vadState)
	c.endUtterance("stopped")
	if c.rec.startInFlight {
		// The pending start sees active == false and never streams.
		return true
	}
	c.rec.stopInFlight = true
	c.mic.StopStreaming()
	c.rec.stopInFlight = false
	return true
}

func (c *Controller) beginUtterance(trigger string) {
	ctx, span := trace.StartSpan(c.ctx, "utterance", "trigger", trigger)
	c.utterance = span
	trace.Logger(ctx).Debug("recording started", "trigger", trigger)
}

func (c *Controller) endUtterance(reason string) {
	if c.utterance == nil {
		return
	}
	c.utterance.End("end", reason)
	c.utterance = nil
}

// OnLevel feeds one block's RMS to the voice activity detector.
func (c *Controller) OnLevel(rms float64) {
	if c.closed {
		return
	}
	gate := vad.Gate{
		AutoListen:     c.autoListen,
		Recording:      c.rec.active,
		StartInFlight:  c.rec.startInFlight,
		PhaseAllows:    c.phase == protocol.PhaseIdle || c.phase == protocol.PhaseReady,
		TextFocused:    c.textFocused,
		AutogenPending: c.autogen.timer != nil,
	}
	action, next := vad.Step(rms, c.host.Now(), c.vadState, gate, c.cfg.VAD)
	c.vadState = next

	switch action {
	case vad.StartRecording:
		c.startRecording("vad")
	case vad.StopRecording:
		c.StopRecording()
	}
}

// ensureMic enables the device off-loop and records the outcome.
func (c *Controller) ensureMic(announce bool) {
	c.host.Async(c.mic.Enable, func(err error) {
		if c.closed {
			return
		}
		if err != nil {
			c.log().Warn("microphone unavailable", "error", err)
			c.micReady = false
			c.micBlocked = true
			c.notify(failure(NoticeMicUnavail, err))
		} else {
			c.micReady = true
			c.micBlocked = false
			if announce {
				c.notify(info(NoticeMicEnabled))
			}
		}
		c.publish()
	})
}

// connect dials off-loop unless a dial is already running.
func (c *Controller) connect() {
	if c.closed || c.connecting {
		return
	}
	c.connecting = true
	c.host.Async(c.conn.Connect, func(err error) {
		c.connecting = false
		if c.closed {
			return
		}
		if err != nil {
			c.log().Debug("connect failed", "attempt", c.attempt, "error", err)
			c.scheduleReconnect(err)
			c.publish()
			return
		}
		c.OnChannelOpen()
	})
}

// OnChannelOpen greets the server and tries to enable the microphone for
// hands-free use.
func (c *Controller) OnChannelOpen() {
	if c.closed {
		return
	}
	c.attempt = 0
	c.attached = true
	c.phase = protocol.PhaseIdle
	c.detail = ""
	if err := c.ch.Send(protocol.NewHello(c.cfg.UIVersion, c.cfg.ClientName)); err != nil {
		c.log().Debug("hello send failed", "error", err)
	}
	c.ensureMic(false)
	c.publish()
}

// OnChannelClosed resets to idle and schedules exactly one reconnect.
func (c *Controller) OnChannelClosed(cause error) {
	if c.closed {
		return
	}
	c.phase = protocol.PhaseIdle
	c.detail = NoticeDisconnected
	if c.rec.active {
		c.rec.active = false
		c.endUtterance("disconnected")
	}
	c.cancelAutogen()
	c.mic.StopStreaming()
	c.notify(failure(NoticeDisconnected, apperrors.Channel(cause)))
	c.scheduleReconnect(cause)
	c.publish()
}

func (c *Controller) scheduleReconnect(cause error) {
	if c.closed || c.reconnectTimer != nil || c.connecting {
		return
	}
	delay, ok := c.cfg.Reconnect.Next(c.attempt, apperrors.Channel(cause))
	if !ok {
		c.log().Warn("giving up on reconnect", "attempts", c.attempt)
		return
	}
	c.attempt++
	var t Timer
	t = c.host.AfterFunc(delay, func() {
		if c.reconnectTimer != t {
			return
		}
		c.reconnectTimer = nil
		c.connect()
	})
	c.reconnectTimer = t
}
