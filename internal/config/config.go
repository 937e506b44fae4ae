// Package config handles client configuration
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerURL            string
	HTTPAddr             string
	TargetSampleRate     int
	FramesPerBuffer      int
	PreRoll              time.Duration
	VADStartThreshold    float64
	VADStopThreshold     float64
	VADStartFrames       int
	VADCooldown          time.Duration
	VADSilenceTimeout    time.Duration
	HoldDuration         time.Duration
	AutogenDelay         time.Duration
	ReconnectDelay       time.Duration
	AutoListen           bool
	ClientName           string
	UIVersion            string
	LogLevel             string
	ExcludedAudioDevices []string
}

func Load() *Config {
	return &Config{
		ServerURL:            getEnv("SPEAKSEE_URL", "ws://127.0.0.1:7860/ws"),
		HTTPAddr:             getEnv("HTTP_ADDR", "127.0.0.1:7861"),
		TargetSampleRate:     getEnvInt("TARGET_SAMPLE_RATE", 16000),
		FramesPerBuffer:      getEnvInt("FRAMES_PER_BUFFER", 4096),
		PreRoll:              getEnvDuration("PRE_ROLL_MS", 320*time.Millisecond),
		VADStartThreshold:    getEnvFloat("VAD_START_THRESHOLD", 0.015),
		VADStopThreshold:     getEnvFloat("VAD_STOP_THRESHOLD", 0.013),
		VADStartFrames:       getEnvInt("VAD_START_FRAMES", 2),
		VADCooldown:          getEnvDuration("VAD_COOLDOWN", 350*time.Millisecond),
		VADSilenceTimeout:    getEnvDuration("VAD_SILENCE_TIMEOUT", 1200*time.Millisecond),
		HoldDuration:         getEnvDuration("HOLD_DURATION", 200*time.Millisecond),
		AutogenDelay:         getEnvDuration("AUTOGEN_DELAY", 1200*time.Millisecond),
		ReconnectDelay:       getEnvDuration("RECONNECT_DELAY", 600*time.Millisecond),
		AutoListen:           getEnvBool("AUTO_LISTEN", true),
		ClientName:           getEnv("CLIENT_NAME", "cli"),
		UIVersion:            getEnv("UI_VERSION", "1"),
		LogLevel:             getEnv("LOG_LEVEL", "debug"),
		ExcludedAudioDevices: getEnvList("EXCLUDED_AUDIO_DEVICES", nil),
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.ServerURL == "":
		return fmt.Errorf("server url is required")
	case c.TargetSampleRate <= 0:
		return fmt.Errorf("target sample rate must be positive, got %d", c.TargetSampleRate)
	case c.FramesPerBuffer <= 0:
		return fmt.Errorf("frames per buffer must be positive, got %d", c.FramesPerBuffer)
	case c.PreRoll < 0:
		return fmt.Errorf("pre-roll must not be negative, got %v", c.PreRoll)
	case c.VADStartThreshold <= 0:
		return fmt.Errorf("vad start threshold must be positive, got %v", c.VADStartThreshold)
	case c.VADStopThreshold <= 0 || c.VADStopThreshold >= c.VADStartThreshold:
		return fmt.Errorf("vad stop threshold %v must be positive and below start threshold %v", c.VADStopThreshold, c.VADStartThreshold)
	case c.VADStartFrames < 1:
		return fmt.Errorf("vad start frames must be at least 1, got %d", c.VADStartFrames)
	case c.HoldDuration <= 0 || c.AutogenDelay <= 0 || c.ReconnectDelay <= 0:
		return fmt.Errorf("hold, autogen and reconnect delays must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

// getEnvDuration accepts Go durations ("350ms") or bare integers as
// milliseconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
