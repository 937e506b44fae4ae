package session

import (
	"time"

	"github.com/GriffinCanCode/speaksee/client/internal/protocol"
)

// Snapshot is the renderable view of the controller.
type Snapshot struct {
	Phase       protocol.Phase         `json:"phase"`
	Detail      string                 `json:"detail"`
	Connected   bool                   `json:"connected"`
	Recording   bool                   `json:"recording"`
	Starting    bool                   `json:"starting"`
	MicReady    bool                   `json:"mic_ready"`
	MicBlocked  bool                   `json:"mic_blocked"`
	AutoListen  bool                   `json:"auto_listen"`
	TextFocused bool                   `json:"text_focused"`
	LiveText    string                 `json:"live_text"`
	Prompt      string                 `json:"prompt"`
	Loading     bool                   `json:"loading"`
	Progress    *protocol.GenProgress  `json:"progress,omitempty"`
	Models      *protocol.Models       `json:"models,omitempty"`
	Result      *protocol.GenResult    `json:"result,omitempty"`
	Gallery     []protocol.GalleryItem `json:"gallery"`
	Style       string                 `json:"style"`
	Autogen     *Countdown             `json:"autogen,omitempty"`
	LastCommand string                 `json:"last_command,omitempty"`
}

// Countdown describes a pending auto-generate.
type Countdown struct {
	StartedAt time.Time     `json:"started_at"`
	Delay     time.Duration `json:"delay"`
}

// Remaining returns the time left at now, never negative.
func (c Countdown) Remaining(now time.Time) time.Duration {
	left := c.Delay - now.Sub(c.StartedAt)
	if left < 0 {
		return 0
	}
	return left
}

// recording is the local recording state. startInFlight and stopInFlight
// are never both set.
type recording struct {
	active        bool
	startInFlight bool
	stopInFlight  bool
}

type inputState struct {
	holdTimer     Timer
	holdActive    bool
	suppressClick bool
	keyDownAt     time.Time
	ignoreKeyUp   bool
}

type autogenState struct {
	timer     Timer
	startedAt time.Time
}
