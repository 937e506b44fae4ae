// Package audio handles microphone capture, PCM16 encoding and streaming
package audio

import "time"

// Audio pipeline constants
const (
	// Rate of every frame sent over the channel.
	DefaultTargetRate = 16000

	// Capture block size in device frames (~85ms at 48kHz).
	DefaultFramesPerBuffer = 4096

	// Trailing audio kept while not streaming.
	DefaultPreRoll = 320 * time.Millisecond

	// PCM16 is two bytes per mono sample.
	BytesPerSample = 2

	// Wire description sent in audio_start.
	FormatPCM16 = "pcm16"
	Channels    = 1
)
