package session

import (
	"github.com/GriffinCanCode/speaksee/client/internal/command"
	apperrors "github.com/GriffinCanCode/speaksee/client/internal/errors"
	"github.com/GriffinCanCode/speaksee/client/internal/protocol"
)

// HandleMessage applies one server message. Phase changes only ever come
// from here.
func (c *Controller) HandleMessage(msg protocol.ServerMessage) {
	if c.closed {
		return
	}
	switch m := msg.(type) {
	case protocol.Status:
		c.phase = m.Phase
		c.detail = m.Detail
		if m.Phase == protocol.PhaseReady || m.Phase == protocol.PhaseIdle {
			c.loading = false
		}
	case protocol.Models:
		c.models = &m
	case protocol.TranscriptPartial:
		c.liveText = orEllipsis(m.Text)
	case protocol.TranscriptFinal:
		c.liveText = orEllipsis(m.Text)
		c.prompt = m.Text
		c.lastCommand = string(command.Parse(m.Text))
		if c.hist != nil && m.Text != "" {
			c.hist.Add(c.host.Now(), m.Text, c.lastCommand)
		}
		c.scheduleAutogen(m.Text)
	case protocol.GenStarted:
		c.loading = true
		c.progress = &protocol.GenProgress{}
	case protocol.GenProgress:
		c.progress = &m
	case protocol.GenResult:
		c.result = &m
		c.loading = false
		c.notify(info(NoticeGenerated))
	case protocol.Gallery:
		c.gallery = m.Items
	case protocol.Saved:
		c.notify(info(NoticeSaved))
	case protocol.Error:
		text := m.Message
		if text == "" {
			text = NoticeError
		}
		c.log().Warn("server error", "message", m.Message, "detail", m.Detail)
		c.notify(failure(text, apperrors.Server(m.Message, m.Detail)))
		c.phase = protocol.PhaseReady
		c.detail = ""
		c.loading = false
	default:
		return
	}
	c.publish()
}

func orEllipsis(s string) string {
	if s == "" {
		return "…"
	}
	return s
}
