package session

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/speaksee/client/internal/protocol"
)

// Styles accepted by set_style.
const (
	StyleNone      = "none"
	StyleRealistic = "realistic"
	StyleAbstract  = "abstract"
)

// Intent names emitted by the presentation layer.
const (
	IntentToggle        = "toggle"
	IntentStart         = "start"
	IntentStop          = "stop"
	IntentPointerDown   = "pointer_down"
	IntentPointerUp     = "pointer_up"
	IntentPointerCancel = "pointer_cancel"
	IntentClick         = "click"
	IntentKeyDown       = "key_down"
	IntentKeyRepeat     = "key_repeat"
	IntentKeyUp         = "key_up"
	IntentEscape        = "escape"
	IntentEditPrompt    = "edit_prompt"
	IntentFocusText     = "focus_text"
	IntentBlurText      = "blur_text"
	IntentGenerate      = "generate"
	IntentRegenerate    = "regenerate"
	IntentSaveImage     = "save_image"
	IntentSetStyle      = "set_style"
	IntentAutoListen    = "auto_listen"
	IntentEnableMic     = "enable_mic"
	IntentCancelAutogen = "cancel_autogen"
)

// ErrClosed is returned for intents applied after Close.
var ErrClosed = errors.New("session closed")

// Intent is one user action.
type Intent struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// Apply dispatches an intent. Unknown intents and invalid values are errors.
func (c *Controller) Apply(in Intent) error {
	if c.closed {
		return ErrClosed
	}
	switch in.Name {
	case IntentToggle:
		c.ToggleRecording()
	case IntentStart:
		c.StartRecording()
	case IntentStop:
		c.StopRecording()
	case IntentPointerDown:
		c.PointerDown()
	case IntentPointerUp:
		c.PointerUp()
	case IntentPointerCancel:
		c.PointerCancel()
	case IntentClick:
		c.Click()
	case IntentKeyDown:
		c.KeyDown(false)
	case IntentKeyRepeat:
		c.KeyDown(true)
	case IntentKeyUp:
		c.KeyUp()
	case IntentEscape:
		c.Escape()
	case IntentEditPrompt:
		c.EditPrompt(in.Value)
	case IntentFocusText:
		c.SetTextFocus(true)
	case IntentBlurText:
		c.SetTextFocus(false)
	case IntentGenerate:
		if in.Value != "" {
			c.prompt = in.Value
		}
		c.Generate()
	case IntentRegenerate:
		c.Regenerate()
	case IntentSaveImage:
		c.SaveImage()
	case IntentSetStyle:
		return c.SetStyle(in.Value)
	case IntentAutoListen:
		on, err := parseSwitch(in.Value)
		if err != nil {
			return err
		}
		c.SetAutoListen(on)
	case IntentEnableMic:
		c.ensureMic(true)
	case IntentCancelAutogen:
		c.CancelAutogen()
	default:
		return fmt.Errorf("unknown intent %q", in.Name)
	}
	return nil
}

// SetTextFocus records whether a text field has focus. Auto-start and the
// single-key shortcuts stay off while it does.
func (c *Controller) SetTextFocus(focused bool) {
	c.textFocused = focused
	c.publish()
}

// Regenerate asks the server to regenerate the last image.
func (c *Controller) Regenerate() { c.sendAction(protocol.ActionRegenerate, "") }

// SaveImage asks the server to save the current image.
func (c *Controller) SaveImage() { c.sendAction(protocol.ActionSaveImage, "") }

// SetStyle selects the generation style.
func (c *Controller) SetStyle(style string) error {
	switch style {
	case StyleNone, StyleRealistic, StyleAbstract:
	default:
		return fmt.Errorf("unknown style %q", style)
	}
	c.style = style
	c.sendAction(protocol.ActionSetStyle, style)
	c.publish()
	return nil
}

// SetAutoListen switches hands-free start. Turning it on enables the
// microphone; turning it off stops any recording.
func (c *Controller) SetAutoListen(on bool) {
	c.autoListen = on
	c.vadState.AboveCount = 0
	if on {
		c.ensureMic(false)
		c.notify(info(NoticeAutoListenOn))
	} else {
		c.stopRecording()
		c.notify(info(NoticeAutoListenOff))
	}
	c.publish()
}

func parseSwitch(v string) (bool, error) {
	switch v {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid switch value %q", v)
}
