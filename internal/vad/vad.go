// Package vad decides when to start and stop recording from per-block RMS.
// Everything here is a pure function of its inputs; the caller owns State.
package vad

import "time"

// Default detector settings.
const (
	DefaultStartThreshold = 0.015
	DefaultStopThreshold  = 0.013
	DefaultStartFrames    = 2
	DefaultCooldown       = 350 * time.Millisecond
	DefaultSilenceTimeout = 1200 * time.Millisecond
)

// Action is the detector's decision for one block.
type Action int

const (
	None Action = iota
	StartRecording
	StopRecording
)

func (a Action) String() string {
	switch a {
	case StartRecording:
		return "start"
	case StopRecording:
		return "stop"
	default:
		return "none"
	}
}

// Config holds the detector thresholds. StopThreshold sits below
// StartThreshold so a level hovering near one boundary cannot flap.
type Config struct {
	StartThreshold float64
	StopThreshold  float64
	StartFrames    int
	Cooldown       time.Duration
	SilenceTimeout time.Duration
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		StartThreshold: DefaultStartThreshold,
		StopThreshold:  DefaultStopThreshold,
		StartFrames:    DefaultStartFrames,
		Cooldown:       DefaultCooldown,
		SilenceTimeout: DefaultSilenceTimeout,
	}
}

// State is the detector memory carried between blocks.
type State struct {
	AboveCount      int
	LastStopAt      time.Time
	LastNonSilentAt time.Time
}

// Start feeds one block to the onset detector. AboveCount rises on loud
// blocks and decays by one on quiet blocks. StartRecording is returned once
// it reaches StartFrames outside the cooldown window, and the count resets.
func Start(rms float64, now time.Time, s State, cfg Config) (Action, State) {
	if rms > cfg.StartThreshold {
		s.AboveCount++
	} else if s.AboveCount > 0 {
		s.AboveCount--
	}

	if s.AboveCount >= cfg.StartFrames && now.Sub(s.LastStopAt) > cfg.Cooldown {
		s.AboveCount = 0
		return StartRecording, s
	}
	return None, s
}

// Silence feeds one block to the end-of-speech detector while recording.
func Silence(rms float64, now time.Time, s State, cfg Config) (Action, State) {
	if rms > cfg.StopThreshold || s.LastNonSilentAt.IsZero() {
		s.LastNonSilentAt = now
		return None, s
	}
	if now.Sub(s.LastNonSilentAt) > cfg.SilenceTimeout {
		return StopRecording, s
	}
	return None, s
}

// Stopped records a stop so the cooldown applies to the next onset.
func Stopped(now time.Time, s State) State {
	s.LastStopAt = now
	return s
}

// Started marks the start of an utterance as non-silent.
func Started(now time.Time, s State) State {
	s.LastNonSilentAt = now
	return s
}
