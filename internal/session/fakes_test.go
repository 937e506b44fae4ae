package session

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/GriffinCanCode/speaksee/client/internal/protocol"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeTimer struct {
	h       *fakeHost
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type asyncJob struct {
	work func(context.Context) error
	done func(error)
}

// fakeHost is a manual clock. Timers fire only from advance and async work
// completes only from settle.
type fakeHost struct {
	now    time.Time
	seq    int
	timers []*fakeTimer
	jobs   []asyncJob
}

func newFakeHost() *fakeHost { return &fakeHost{now: epoch} }

func (h *fakeHost) Now() time.Time { return h.now }

func (h *fakeHost) AfterFunc(d time.Duration, f func()) Timer {
	h.seq++
	t := &fakeTimer{h: h, at: h.now.Add(d), seq: h.seq, f: f}
	h.timers = append(h.timers, t)
	return t
}

func (h *fakeHost) Async(work func(context.Context) error, done func(error)) {
	h.jobs = append(h.jobs, asyncJob{work, done})
}

// settle completes queued async work, including work queued by completions.
func (h *fakeHost) settle() {
	for len(h.jobs) > 0 {
		j := h.jobs[0]
		h.jobs = h.jobs[1:]
		j.done(j.work(context.Background()))
	}
}

// advance moves the clock forward, firing due timers in order.
func (h *fakeHost) advance(d time.Duration) {
	end := h.now.Add(d)
	for {
		due := h.pending(end)
		if len(due) == 0 {
			break
		}
		t := due[0]
		h.now = t.at
		t.fired = true
		t.f()
	}
	h.now = end
}

func (h *fakeHost) pending(until time.Time) []*fakeTimer {
	var due []*fakeTimer
	for _, t := range h.timers {
		if !t.stopped && !t.fired && !t.at.After(until) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	return due
}

// activeTimers counts timers that have neither fired nor been stopped.
func (h *fakeHost) activeTimers() int {
	n := 0
	for _, t := range h.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeAudio struct {
	bound     bool
	enableErr error
	startErr  error
	enables   int
	starts    int
	stops     int
	streaming bool
}

func (a *fakeAudio) Bound() bool { return a.bound }

func (a *fakeAudio) Enable(context.Context) error {
	a.enables++
	if a.enableErr != nil {
		return a.enableErr
	}
	a.bound = true
	return nil
}

func (a *fakeAudio) StartStreaming(context.Context) error {
	if a.startErr != nil {
		return a.startErr
	}
	if a.streaming {
		return nil
	}
	a.starts++
	a.streaming = true
	return nil
}

func (a *fakeAudio) StopStreaming() {
	if a.streaming {
		a.stops++
	}
	a.streaming = false
}

type fakeChannel struct {
	open bool
	sent []any
}

func (c *fakeChannel) Open() bool { return c.open }

func (c *fakeChannel) Send(msg any) error {
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeChannel) generates() []protocol.Generate {
	var out []protocol.Generate
	for _, m := range c.sent {
		if g, ok := m.(protocol.Generate); ok {
			out = append(out, g)
		}
	}
	return out
}

func (c *fakeChannel) count(typ string) int {
	n := 0
	for _, m := range c.sent {
		if msgType(m) == typ {
			n++
		}
	}
	return n
}

func msgType(m any) string {
	switch v := m.(type) {
	case protocol.Hello:
		return v.Type
	case protocol.Generate:
		return v.Type
	case protocol.Action:
		return v.Type
	}
	return ""
}

type fakeConnector struct {
	ch       *fakeChannel
	err      error
	connects int
}

func (f *fakeConnector) Connect(context.Context) error {
	f.connects++
	if f.err != nil {
		return f.err
	}
	f.ch.open = true
	return nil
}

type fakePresenter struct {
	renders int
	last    Snapshot
	notices []Notice
}

func (p *fakePresenter) Render(s Snapshot) {
	p.renders++
	p.last = s
}

func (p *fakePresenter) Notify(n Notice) { p.notices = append(p.notices, n) }

func (p *fakePresenter) noticed(text string) bool {
	for _, n := range p.notices {
		if n.Text == text {
			return true
		}
	}
	return false
}

type fakeHistory struct {
	texts    []string
	commands []string
}

func (f *fakeHistory) Add(_ time.Time, text, command string) {
	f.texts = append(f.texts, text)
	f.commands = append(f.commands, command)
}

type harness struct {
	host  *fakeHost
	audio *fakeAudio
	ch    *fakeChannel
	conn  *fakeConnector
	view  *fakePresenter
	hist  *fakeHistory
	c     *Controller
}

// newHarness returns a controller that has connected, said hello and
// enabled its microphone.
func newHarness(t *testing.T, mut ...func(*Config)) *harness {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mut {
		m(&cfg)
	}
	h := &harness{
		host:  newFakeHost(),
		audio: &fakeAudio{},
		ch:    &fakeChannel{},
		view:  &fakePresenter{},
		hist:  &fakeHistory{},
	}
	h.conn = &fakeConnector{ch: h.ch}
	h.c = New(context.Background(), cfg, Deps{
		Host:      h.host,
		Audio:     h.audio,
		Channel:   h.ch,
		Connector: h.conn,
		Presenter: h.view,
		History:   h.hist,
	})
	h.c.Start()
	h.host.settle()
	if !h.ch.open || !h.audio.bound {
		t.Fatalf("harness not ready: open=%v bound=%v", h.ch.open, h.audio.bound)
	}
	return h
}
