package config

import (
	"os"
	"testing"
	"time"
)

var envVars = []string{
	"SPEAKSEE_URL", "HTTP_ADDR", "TARGET_SAMPLE_RATE", "FRAMES_PER_BUFFER", "PRE_ROLL_MS",
	"VAD_START_THRESHOLD", "VAD_STOP_THRESHOLD", "VAD_START_FRAMES", "VAD_COOLDOWN",
	"VAD_SILENCE_TIMEOUT", "HOLD_DURATION", "AUTOGEN_DELAY", "RECONNECT_DELAY",
	"AUTO_LISTEN", "CLIENT_NAME", "UI_VERSION", "LOG_LEVEL", "EXCLUDED_AUDIO_DEVICES",
}

func TestLoad(t *testing.T) {
	// Clear environment
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	// Check defaults
	if cfg.ServerURL != "ws://127.0.0.1:7860/ws" {
		t.Errorf("ServerURL = %q, want %q", cfg.ServerURL, "ws://127.0.0.1:7860/ws")
	}
	if cfg.HTTPAddr != "127.0.0.1:7861" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "127.0.0.1:7861")
	}
	if cfg.TargetSampleRate != 16000 {
		t.Errorf("TargetSampleRate = %d, want %d", cfg.TargetSampleRate, 16000)
	}
	if cfg.PreRoll != 320*time.Millisecond {
		t.Errorf("PreRoll = %v, want 320ms", cfg.PreRoll)
	}
	if cfg.VADStartThreshold != 0.015 || cfg.VADStopThreshold != 0.013 {
		t.Errorf("VAD thresholds = %v/%v, want 0.015/0.013", cfg.VADStartThreshold, cfg.VADStopThreshold)
	}
	if cfg.VADStartFrames != 2 {
		t.Errorf("VADStartFrames = %d, want 2", cfg.VADStartFrames)
	}
	if cfg.VADCooldown != 350*time.Millisecond || cfg.VADSilenceTimeout != 1200*time.Millisecond {
		t.Errorf("VAD timing = %v/%v", cfg.VADCooldown, cfg.VADSilenceTimeout)
	}
	if cfg.HoldDuration != 200*time.Millisecond {
		t.Errorf("HoldDuration = %v, want 200ms", cfg.HoldDuration)
	}
	if cfg.AutogenDelay != 1200*time.Millisecond {
		t.Errorf("AutogenDelay = %v, want 1.2s", cfg.AutogenDelay)
	}
	if cfg.ReconnectDelay != 600*time.Millisecond {
		t.Errorf("ReconnectDelay = %v, want 600ms", cfg.ReconnectDelay)
	}
	if !cfg.AutoListen {
		t.Error("AutoListen should default to true")
	}
	if cfg.ClientName != "cli" || cfg.UIVersion != "1" {
		t.Errorf("hello = %q/%q", cfg.ClientName, cfg.UIVersion)
	}
	if len(cfg.ExcludedAudioDevices) != 0 {
		t.Errorf("ExcludedAudioDevices = %v, want empty", cfg.ExcludedAudioDevices)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("SPEAKSEE_URL", "ws://gpu-box:7860/ws")
	t.Setenv("TARGET_SAMPLE_RATE", "24000")
	t.Setenv("PRE_ROLL_MS", "500")
	t.Setenv("VAD_COOLDOWN", "1s")
	t.Setenv("AUTO_LISTEN", "false")
	t.Setenv("EXCLUDED_AUDIO_DEVICES", "iphone, teams ,")

	cfg := Load()

	if cfg.ServerURL != "ws://gpu-box:7860/ws" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.TargetSampleRate != 24000 {
		t.Errorf("TargetSampleRate = %d, want 24000", cfg.TargetSampleRate)
	}
	if cfg.PreRoll != 500*time.Millisecond {
		t.Errorf("PreRoll = %v, want 500ms", cfg.PreRoll)
	}
	if cfg.VADCooldown != time.Second {
		t.Errorf("VADCooldown = %v, want 1s", cfg.VADCooldown)
	}
	if cfg.AutoListen {
		t.Error("AutoListen should be false")
	}
	if len(cfg.ExcludedAudioDevices) != 2 || cfg.ExcludedAudioDevices[1] != "teams" {
		t.Errorf("ExcludedAudioDevices = %v", cfg.ExcludedAudioDevices)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mut     func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty url", func(c *Config) { c.ServerURL = "" }, true},
		{"zero rate", func(c *Config) { c.TargetSampleRate = 0 }, true},
		{"zero frames", func(c *Config) { c.FramesPerBuffer = 0 }, true},
		{"stop above start", func(c *Config) { c.VADStopThreshold = 0.02 }, true},
		{"stop equals start", func(c *Config) { c.VADStopThreshold = c.VADStartThreshold }, true},
		{"zero start frames", func(c *Config) { c.VADStartFrames = 0 }, true},
		{"zero hold", func(c *Config) { c.HoldDuration = 0 }, true},
		{"no pre-roll", func(c *Config) { c.PreRoll = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range envVars {
				t.Setenv(v, "")
			}
			cfg := Load()
			tt.mut(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	// Test getEnv
	os.Setenv("TEST_STRING", "hello")
	defer os.Unsetenv("TEST_STRING")
	if v := getEnv("TEST_STRING", "default"); v != "hello" {
		t.Errorf("getEnv = %q, want %q", v, "hello")
	}
	if v := getEnv("NONEXISTENT", "default"); v != "default" {
		t.Errorf("getEnv = %q, want %q", v, "default")
	}

	// Test getEnvInt
	os.Setenv("TEST_INT", "42")
	defer os.Unsetenv("TEST_INT")
	if v := getEnvInt("TEST_INT", 0); v != 42 {
		t.Errorf("getEnvInt = %d, want %d", v, 42)
	}
	if v := getEnvInt("NONEXISTENT", 99); v != 99 {
		t.Errorf("getEnvInt = %d, want %d", v, 99)
	}
	os.Setenv("TEST_INT_INVALID", "not-a-number")
	defer os.Unsetenv("TEST_INT_INVALID")
	if v := getEnvInt("TEST_INT_INVALID", 100); v != 100 {
		t.Errorf("getEnvInt with invalid = %d, want %d", v, 100)
	}

	// Test getEnvFloat
	os.Setenv("TEST_FLOAT", "3.14")
	defer os.Unsetenv("TEST_FLOAT")
	if v := getEnvFloat("TEST_FLOAT", 0.0); v != 3.14 {
		t.Errorf("getEnvFloat = %f, want %f", v, 3.14)
	}
	if v := getEnvFloat("NONEXISTENT", 2.71); v != 2.71 {
		t.Errorf("getEnvFloat = %f, want %f", v, 2.71)
	}

	// Test getEnvBool
	os.Setenv("TEST_BOOL_TRUE", "true")
	os.Setenv("TEST_BOOL_ONE", "1")
	os.Setenv("TEST_BOOL_FALSE", "false")
	defer func() {
		os.Unsetenv("TEST_BOOL_TRUE")
		os.Unsetenv("TEST_BOOL_ONE")
		os.Unsetenv("TEST_BOOL_FALSE")
	}()
	if !getEnvBool("TEST_BOOL_TRUE", false) {
		t.Error("getEnvBool should return true for 'true'")
	}
	if !getEnvBool("TEST_BOOL_ONE", false) {
		t.Error("getEnvBool should return true for '1'")
	}
	if getEnvBool("TEST_BOOL_FALSE", true) {
		t.Error("getEnvBool should return false for 'false'")
	}
	if !getEnvBool("NONEXISTENT", true) {
		t.Error("getEnvBool should return default true")
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "750ms")
	t.Setenv("TEST_DUR_MS", "250")
	t.Setenv("TEST_DUR_BAD", "soon")

	if v := getEnvDuration("TEST_DUR", 0); v != 750*time.Millisecond {
		t.Errorf("getEnvDuration = %v, want 750ms", v)
	}
	if v := getEnvDuration("TEST_DUR_MS", 0); v != 250*time.Millisecond {
		t.Errorf("getEnvDuration bare int = %v, want 250ms", v)
	}
	if v := getEnvDuration("TEST_DUR_BAD", time.Second); v != time.Second {
		t.Errorf("getEnvDuration invalid = %v, want default", v)
	}
}
