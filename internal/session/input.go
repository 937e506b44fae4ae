package session

import "time"

// The talk button and the talk key share one rule: a short press toggles, a
// press held for HoldDuration records until release.

// PointerDown arms hold-to-talk on the talk button.
func (c *Controller) PointerDown() {
	c.input.holdActive = false
	c.input.suppressClick = false
	c.cancelHold()

	var t Timer
	t = c.host.AfterFunc(c.cfg.HoldDuration, func() {
		if c.input.holdTimer != t {
			return
		}
		c.input.holdTimer = nil
		c.input.holdActive = true
		if !c.rec.active {
			c.startRecording("hold")
		}
	})
	c.input.holdTimer = t
}

// PointerUp ends a hold. The click that follows a hold is swallowed so it
// does not toggle again.
func (c *Controller) PointerUp() {
	c.cancelHold()
	if !c.input.holdActive {
		return
	}
	c.input.holdActive = false
	c.input.suppressClick = true
	c.StopRecording()
}

// PointerCancel behaves like PointerUp.
func (c *Controller) PointerCancel() { c.PointerUp() }

// Click toggles recording unless it ends a hold.
func (c *Controller) Click() {
	if c.input.suppressClick {
		c.input.suppressClick = false
		return
	}
	c.ToggleRecording()
}

// KeyDown handles the talk key. Auto-repeat and presses while a text field
// has focus are ignored.
func (c *Controller) KeyDown(repeat bool) {
	if repeat || c.textFocused {
		return
	}
	if !c.rec.active {
		c.startRecording("key")
		c.input.keyDownAt = c.host.Now()
		c.input.ignoreKeyUp = false
		return
	}
	c.StopRecording()
	c.input.ignoreKeyUp = true
}

// KeyUp stops recording when the key was held at least HoldDuration. A
// shorter press leaves the recording running.
func (c *Controller) KeyUp() {
	if c.input.ignoreKeyUp {
		c.input.ignoreKeyUp = false
		return
	}
	if c.rec.active && !c.input.keyDownAt.IsZero() {
		if c.host.Now().Sub(c.input.keyDownAt) >= c.cfg.HoldDuration {
			c.StopRecording()
		}
	}
	c.input.keyDownAt = time.Time{}
}

// Escape cancels the countdown and stops recording.
func (c *Controller) Escape() {
	c.cancelAutogen()
	c.stopRecording()
	c.publish()
}

func (c *Controller) cancelHold() {
	if c.input.holdTimer != nil {
		c.input.holdTimer.Stop()
		c.input.holdTimer = nil
	}
}
