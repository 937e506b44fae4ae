package audio

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

// Source is an audio input device. Open requests access and starts delivering
// float blocks at the device's native rate until Close. onBlock runs on the
// device goroutine and must not retain the slice.
type Source interface {
	Open(ctx context.Context, onBlock func([]float32)) (sampleRate int, err error)
	Close() error
}

// DeviceInfo describes an input device for listing and selection.
type DeviceInfo struct {
	Name        string
	Channels    int
	DefaultRate float64
	Default     bool
}

var loopbackKeywords = []string{"blackhole", "vb-cable", "loopback", "monitor", "soundflower"}

var preferredKeywords = []string{"macbook", "built-in"}

// isLoopback reports whether name looks like a system-audio loopback device.
// Those carry playback audio and must never be picked as the microphone.
func isLoopback(name string) bool {
	for _, kw := range loopbackKeywords {
		if containsIgnoreCase(name, kw) {
			return true
		}
	}
	return false
}

func isExcluded(name string, excluded []string) bool {
	for _, ex := range excluded {
		if ex != "" && containsIgnoreCase(name, ex) {
			return true
		}
	}
	return false
}

func preferDevice(name, current string) bool {
	for _, p := range preferredKeywords {
		if containsIgnoreCase(name, p) && !containsIgnoreCase(current, p) {
			return true
		}
	}
	return false
}

// SelectInput picks the input device: the system default when usable,
// otherwise the best remaining microphone. It returns -1 when nothing fits.
func SelectInput(devices []DeviceInfo, excluded []string) int {
	best := -1
	for i, d := range devices {
		if d.Channels < 1 || isLoopback(d.Name) || isExcluded(d.Name, excluded) {
			continue
		}
		if d.Default {
			return i
		}
		if best < 0 || preferDevice(d.Name, devices[best].Name) {
			best = i
		}
	}
	return best
}

// containsIgnoreCase reports whether substr occurs in s under Unicode case
// folding, so device names like "MICRÓFONO" match too.
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(cases.Fold().String(s), cases.Fold().String(substr))
}
