package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/speaksee/client/internal/audio"
	"github.com/GriffinCanCode/speaksee/client/internal/channel"
	"github.com/GriffinCanCode/speaksee/client/internal/config"
	"github.com/GriffinCanCode/speaksee/client/internal/metrics"
	"github.com/GriffinCanCode/speaksee/client/internal/protocol"
	"github.com/GriffinCanCode/speaksee/client/internal/resilience"
	"github.com/GriffinCanCode/speaksee/client/internal/session"
	"github.com/GriffinCanCode/speaksee/client/internal/syncx"
	"github.com/GriffinCanCode/speaksee/client/internal/trace"
	"github.com/GriffinCanCode/speaksee/client/internal/transcript"
	"github.com/GriffinCanCode/speaksee/client/internal/vad"
)

// Manager coordinates the microphone, the server channel and the session
// controller, and exposes the session to the presentation layer.
type Manager struct {
	cfg  *config.Config
	ctx  context.Context
	loop *Loop

	link        *channel.Link
	mic         *audio.Mic
	ctrl        *session.Controller
	transcripts *transcript.Store
	metrics     *metrics.Metrics

	state   *syncx.Published[session.Snapshot]
	notices chan session.Notice
	dropped atomic.Uint64

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// New wires a manager around src. Nothing runs until Start.
func New(ctx context.Context, cfg *config.Config, src audio.Source) *Manager {
	ctx, tc := trace.EnsureContext(ctx)
	m := &Manager{
		cfg:         cfg,
		ctx:         ctx,
		loop:        NewLoop(ctx, LoopQueueSize),
		transcripts: transcript.NewStore(TranscriptMaxEntries),
		metrics:     metrics.New(),
		notices:     make(chan session.Notice, NoticeBuffer),
	}

	m.link = channel.NewLink(cfg.ServerURL, tc, m.onMessage, m.onClose)
	m.mic = audio.NewMic(src, meteredSink{m.link, m.metrics}, audio.MicConfig{
		TargetRate: cfg.TargetSampleRate,
		PreRoll:    cfg.PreRoll,
	}, m.dispatchAudio)
	m.ctrl = session.New(ctx, SessionConfig(cfg), session.Deps{
		Host:      m.loop,
		Audio:     m.mic,
		Channel:   m.link,
		Connector: meteredConnector{m.link, m.metrics},
		Presenter: m,
		History:   meteredHistory{m.transcripts, m.metrics},
	})
	m.mic.OnLevel(m.ctrl.OnLevel)
	m.state = syncx.NewPublished(m.ctrl.Snapshot())
	return m
}

// SessionConfig maps client configuration onto controller settings.
func SessionConfig(cfg *config.Config) session.Config {
	return session.Config{
		VAD: vad.Config{
			StartThreshold: cfg.VADStartThreshold,
			StopThreshold:  cfg.VADStopThreshold,
			StartFrames:    cfg.VADStartFrames,
			Cooldown:       cfg.VADCooldown,
			SilenceTimeout: cfg.VADSilenceTimeout,
		},
		HoldDuration: cfg.HoldDuration,
		AutogenDelay: cfg.AutogenDelay,
		Reconnect:    resilience.ReconnectPolicy(cfg.ReconnectDelay),
		AutoListen:   cfg.AutoListen,
		ClientName:   cfg.ClientName,
		UIVersion:    cfg.UIVersion,
	}
}

// Start runs the event loop and opens the first connection.
func (m *Manager) Start() error {
	m.startOnce.Do(func() {
		m.started.Store(true)
		go m.loop.Run()
		m.loop.Post(m.ctrl.Start)
		trace.Logger(m.ctx).Info("session started", "url", m.cfg.ServerURL)
	})
	return nil
}

// Stop ends any recording, releases the microphone and closes the channel.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		log := trace.Logger(m.ctx)
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		closeSession := func() error {
			m.ctrl.Close()
			m.mic.Disable()
			return nil
		}
		var err error
		if m.started.Load() {
			err = m.loop.Call(ctx, closeSession)
		} else {
			err = closeSession()
		}
		if err != nil {
			log.Warn("session close incomplete", "error", err)
		}
		if err := m.link.Close(); err != nil {
			log.Debug("channel close", "error", err)
		}
		m.loop.Stop()
		log.Info("session stopped", "dropped_blocks", m.dropped.Load())
	})
}

// Apply runs a user intent on the loop.
func (m *Manager) Apply(ctx context.Context, in session.Intent) error {
	ctx, span := trace.StartSpan(ctx, "apply_intent", "intent", in.Name)
	err := m.loop.Call(ctx, func() error { return m.ctrl.Apply(in) })
	if err != nil {
		span.Add("error", err)
	}
	m.metrics.RecordIntent(in.Name, err, span.End().Seconds())
	return err
}

// State returns the latest published snapshot.
func (m *Manager) State() session.Snapshot {
	s, _ := m.state.Get()
	return s
}

// Watch returns the latest snapshot, its version and a channel closed on the
// next change.
func (m *Manager) Watch() (session.Snapshot, uint64, <-chan struct{}) {
	return m.state.Watch()
}

// Notices returns the notice stream. Notices are dropped when nobody reads.
func (m *Manager) Notices() <-chan session.Notice {
	return m.notices
}

// Transcripts returns finalized transcripts, oldest first.
func (m *Manager) Transcripts() []transcript.Entry {
	return m.transcripts.Entries()
}

// Metrics returns the client's metrics.
func (m *Manager) Metrics() *metrics.Metrics {
	return m.metrics
}

// Render implements session.Presenter.
func (m *Manager) Render(s session.Snapshot) {
	m.metrics.SetSession(s.Connected, s.Recording)
	m.state.Set(s)
}

// Notify implements session.Presenter.
func (m *Manager) Notify(n session.Notice) {
	m.metrics.RecordNotice(n.Code)
	select {
	case m.notices <- n:
	default:
		trace.Logger(m.ctx).Debug("notice dropped", "text", n.Text)
	}
}

func (m *Manager) onMessage(msg protocol.ServerMessage) {
	m.loop.Post(func() { m.ctrl.HandleMessage(msg) })
}

func (m *Manager) onClose(err error) {
	m.metrics.Disconnects.Inc()
	m.loop.Post(func() { m.ctrl.OnChannelClosed(err) })
}

// dispatchAudio hands a capture block to the loop, dropping it if the loop
// is behind.
func (m *Manager) dispatchAudio(fn func()) {
	if m.loop.TryPost(fn) {
		return
	}
	m.metrics.BlocksDropped.Inc()
	if n := m.dropped.Add(1); n == 1 || n%100 == 0 {
		trace.Logger(m.ctx).Debug("audio block dropped", "total", n)
	}
}

// meteredSink counts audio frames on their way to the channel.
type meteredSink struct {
	audio.Sink
	metrics *metrics.Metrics
}

func (s meteredSink) SendBinary(data []byte) error {
	err := s.Sink.SendBinary(data)
	if err == nil {
		s.metrics.RecordFrame(len(data))
	}
	return err
}

type meteredConnector struct {
	session.Connector
	metrics *metrics.Metrics
}

func (c meteredConnector) Connect(ctx context.Context) error {
	err := c.Connector.Connect(ctx)
	c.metrics.RecordConnect(err)
	return err
}

type meteredHistory struct {
	session.History
	metrics *metrics.Metrics
}

func (h meteredHistory) Add(at time.Time, text, command string) {
	h.History.Add(at, text, command)
	h.metrics.Transcripts.Inc()
}
