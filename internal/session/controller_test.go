package session

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/GriffinCanCode/speaksee/client/internal/errors"
	"github.com/GriffinCanCode/speaksee/client/internal/protocol"
)

func TestStartSendsHelloAndEnablesMic(t *testing.T) {
	h := newHarness(t)

	if h.conn.connects != 1 {
		t.Errorf("connects = %d, want 1", h.conn.connects)
	}
	if len(h.ch.sent) != 1 {
		t.Fatalf("sent = %v, want hello", h.ch.sent)
	}
	want := protocol.Hello{Type: "hello", UIVersion: "1", Client: "cli"}
	if h.ch.sent[0] != want {
		t.Errorf("hello = %#v, want %#v", h.ch.sent[0], want)
	}
	if !h.view.last.MicReady || !h.view.last.Connected {
		t.Errorf("snapshot = %+v, want mic ready and connected", h.view.last)
	}
	if h.view.last.Phase != protocol.PhaseIdle {
		t.Errorf("phase = %q, want idle", h.view.last.Phase)
	}
}

func TestStartRecordingOptimistic(t *testing.T) {
	h := newHarness(t)

	h.c.StartRecording()
	if !h.view.last.Recording || !h.view.last.Starting {
		t.Fatalf("snapshot before enable completes = %+v", h.view.last)
	}
	if h.view.last.LiveText != "…" {
		t.Errorf("live text = %q, want ellipsis", h.view.last.LiveText)
	}
	if h.audio.starts != 0 {
		t.Fatal("streaming started before enable completed")
	}

	h.host.settle()
	if h.audio.starts != 1 || !h.view.last.Recording || h.view.last.Starting {
		t.Errorf("after settle: starts=%d snapshot=%+v", h.audio.starts, h.view.last)
	}
}

func TestRapidTogglesSendOneAudioStart(t *testing.T) {
	h := newHarness(t)

	h.c.StartRecording()
	h.c.StartRecording()
	h.c.StartRecording()
	h.host.settle()

	if h.audio.starts != 1 {
		t.Errorf("starts = %d, want 1", h.audio.starts)
	}
}

func TestStopDuringStartInFlightDoesNotStream(t *testing.T) {
	h := newHarness(t)

	h.c.ToggleRecording()
	h.c.ToggleRecording()
	if h.view.last.Recording {
		t.Fatal("still recording after stop")
	}
	h.c.ToggleRecording() // blocked while the first start is in flight
	h.host.settle()

	if h.audio.starts != 0 {
		t.Errorf("starts = %d, want 0", h.audio.starts)
	}
	if h.view.last.Recording || h.view.last.Starting {
		t.Errorf("snapshot = %+v, want idle", h.view.last)
	}

	h.c.ToggleRecording()
	h.host.settle()
	if h.audio.starts != 1 {
		t.Errorf("starts after retry = %d, want 1", h.audio.starts)
	}
}

func TestStartRecordingGuards(t *testing.T) {
	t.Run("channel closed", func(t *testing.T) {
		h := newHarness(t)
		h.ch.open = false
		h.c.StartRecording()
		h.host.settle()
		if h.view.last.Recording || h.audio.starts != 0 {
			t.Error("started with a closed channel")
		}
	})

	t.Run("not attached", func(t *testing.T) {
		host := newFakeHost()
		ch := &fakeChannel{open: true}
		audio := &fakeAudio{}
		c := New(t.Context(), DefaultConfig(), Deps{
			Host: host, Audio: audio, Channel: ch,
			Connector: &fakeConnector{ch: ch}, Presenter: &fakePresenter{},
		})
		c.StartRecording()
		host.settle()
		if audio.starts != 0 {
			t.Error("started before the channel ever opened")
		}
	})
}

func TestStartRecordingFailureReverts(t *testing.T) {
	h := newHarness(t)
	h.audio.bound = false
	h.audio.enableErr = apperrors.Device(apperrors.ErrPermissionDenied)

	h.c.StartRecording()
	if !h.view.last.Recording {
		t.Fatal("recording flag not set optimistically")
	}
	h.host.settle()

	if h.view.last.Recording || h.view.last.Starting {
		t.Errorf("snapshot = %+v, want reverted", h.view.last)
	}
	if len(h.view.notices) == 0 {
		t.Fatal("no notice")
	}
	n := h.view.notices[len(h.view.notices)-1]
	if n.Text != NoticeMicError || n.Code != "PermissionDenied" {
		t.Errorf("notice = %+v", n)
	}
	if n.Detail == "" {
		t.Error("notice has no ErrorInfo detail")
	}
}

func TestStopRecordingIdempotent(t *testing.T) {
	h := newHarness(t)
	h.c.StartRecording()
	h.host.settle()

	h.c.StopRecording()
	h.c.StopRecording()
	if h.audio.stops != 1 {
		t.Errorf("stops = %d, want 1", h.audio.stops)
	}
	if !h.c.vadState.LastStopAt.Equal(h.host.Now()) {
		t.Error("stop did not record VAD cooldown timestamp")
	}
}

func TestChannelCloseWhileRecording(t *testing.T) {
	h := newHarness(t)
	h.c.StartRecording()
	h.host.settle()
	h.c.HandleMessage(protocol.TranscriptFinal{Text: "a cat on a skateboard"})
	if h.view.last.Autogen == nil {
		t.Fatal("autogen not armed")
	}

	h.ch.open = false
	h.c.OnChannelClosed(errors.New("eof"))

	s := h.view.last
	if s.Recording {
		t.Error("recording still true after close")
	}
	if s.Autogen != nil {
		t.Error("autogen still pending after close")
	}
	if s.Phase != protocol.PhaseIdle || s.Detail != NoticeDisconnected {
		t.Errorf("phase = %q detail = %q", s.Phase, s.Detail)
	}
	if h.audio.streaming {
		t.Error("still streaming after close")
	}
	if !h.view.noticed(NoticeDisconnected) {
		t.Error("no disconnect notice")
	}
	if got := h.host.activeTimers(); got != 1 {
		t.Fatalf("active timers = %d, want exactly one reconnect", got)
	}

	h.host.advance(599 * time.Millisecond)
	h.host.settle()
	if h.conn.connects != 1 {
		t.Fatalf("reconnected early: connects = %d", h.conn.connects)
	}
	h.host.advance(time.Millisecond)
	h.host.settle()
	if h.conn.connects != 2 {
		t.Fatalf("connects = %d, want 2 after 600ms", h.conn.connects)
	}
	if h.ch.count(protocol.TypeHello) != 2 {
		t.Errorf("hello count = %d, want 2", h.ch.count(protocol.TypeHello))
	}
	if len(h.ch.generates()) != 0 {
		t.Error("cancelled autogen still sent generate")
	}
}

func TestRepeatedCloseSchedulesOneReconnect(t *testing.T) {
	h := newHarness(t)
	h.ch.open = false
	h.c.OnChannelClosed(nil)
	h.c.OnChannelClosed(nil)
	if got := h.host.activeTimers(); got != 1 {
		t.Errorf("active timers = %d, want 1", got)
	}
}

func TestReconnectRetriesIndefinitely(t *testing.T) {
	h := newHarness(t)
	h.ch.open = false
	h.conn.err = apperrors.Channel(errors.New("refused"))
	h.c.OnChannelClosed(nil)

	for i := 0; i < 20; i++ {
		h.host.advance(600 * time.Millisecond)
		h.host.settle()
	}
	if h.conn.connects != 21 {
		t.Errorf("connects = %d, want 21", h.conn.connects)
	}

	h.conn.err = nil
	h.host.advance(600 * time.Millisecond)
	h.host.settle()
	if !h.view.last.Connected || h.host.activeTimers() != 0 {
		t.Errorf("connected=%v timers=%d after recovery", h.view.last.Connected, h.host.activeTimers())
	}
}

func TestCloseCancelsTimers(t *testing.T) {
	h := newHarness(t)
	h.c.HandleMessage(protocol.TranscriptFinal{Text: "a red fox"})
	h.c.PointerDown()
	h.c.Close()

	h.host.advance(5 * time.Second)
	if len(h.ch.generates()) != 0 {
		t.Error("generate sent after close")
	}
	if h.audio.starts != 0 {
		t.Error("hold started recording after close")
	}
}

func TestApplyAfterCloseReturnsErrClosed(t *testing.T) {
	h := newHarness(t)
	h.c.Close()
	if err := h.c.Apply(Intent{Name: IntentToggle}); !errors.Is(err, ErrClosed) {
		t.Errorf("Apply after Close = %v, want ErrClosed", err)
	}
}
