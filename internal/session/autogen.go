package session

import (
	"strings"

	"github.com/GriffinCanCode/speaksee/client/internal/command"
	"github.com/GriffinCanCode/speaksee/client/internal/protocol"
)

// scheduleAutogen arms the auto-generate countdown for text, replacing any
// pending one. Empty text and voice commands do not arm it.
func (c *Controller) scheduleAutogen(text string) {
	c.cancelAutogen()
	if strings.TrimSpace(text) == "" {
		return
	}
	if command.IsCommand(text) {
		return
	}

	var t Timer
	t = c.host.AfterFunc(c.cfg.AutogenDelay, func() {
		if c.autogen.timer != t {
			return
		}
		c.autogen.timer = nil
		c.sendGenerate(c.prompt)
		c.publish()
	})
	c.autogen = autogenState{timer: t, startedAt: c.host.Now()}
}

// cancelAutogen drops a pending countdown, if any.
func (c *Controller) cancelAutogen() {
	if c.autogen.timer == nil {
		return
	}
	c.autogen.timer.Stop()
	c.autogen = autogenState{}
}

// CancelAutogen cancels a pending countdown.
func (c *Controller) CancelAutogen() {
	c.cancelAutogen()
	c.publish()
}

// EditPrompt replaces the prompt text. Any edit cancels the countdown.
func (c *Controller) EditPrompt(text string) {
	c.prompt = text
	c.cancelAutogen()
	c.publish()
}

// Generate sends the current prompt now.
func (c *Controller) Generate() {
	c.cancelAutogen()
	c.sendGenerate(c.prompt)
	c.publish()
}

func (c *Controller) sendGenerate(text string) {
	prompt := strings.TrimSpace(text)
	if prompt == "" || !c.ch.Open() {
		return
	}
	if err := c.ch.Send(protocol.NewGenerate(prompt)); err != nil {
		c.log().Debug("generate send failed", "error", err)
		return
	}
	c.log().Info("generate requested", "prompt", prompt)
}

func (c *Controller) sendAction(name, value string) {
	if !c.ch.Open() {
		return
	}
	if err := c.ch.Send(protocol.NewAction(name, value)); err != nil {
		c.log().Debug("action send failed", "name", name, "error", err)
	}
}
