package vad

import "time"

// Gate is the session context that may suppress an automatic start.
type Gate struct {
	AutoListen     bool
	Recording      bool
	StartInFlight  bool
	PhaseAllows    bool
	TextFocused    bool
	AutogenPending bool
}

// Allows reports whether an automatic start may fire.
func (g Gate) Allows() bool {
	return g.AutoListen && !g.Recording && !g.StartInFlight && g.PhaseAllows &&
		!g.TextFocused && !g.AutogenPending
}

// Step runs one block through the detector under gate g. While recording the
// silence detector runs; otherwise the onset detector runs only when the gate
// allows it, and the onset count is dropped when it does not.
func Step(rms float64, now time.Time, s State, g Gate, cfg Config) (Action, State) {
	if g.Recording {
		return Silence(rms, now, s, cfg)
	}
	if !g.Allows() {
		s.AboveCount = 0
		return None, s
	}
	return Start(rms, now, s, cfg)
}
