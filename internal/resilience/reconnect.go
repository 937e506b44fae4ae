// Package resilience provides the channel reconnect policy
package resilience

import (
	"math/rand/v2"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/GriffinCanCode/speaksee/client/internal/errors"
)

// Reconnect policy constants
const (
	DefaultReconnectDelay = 600 * time.Millisecond
	DefaultMaxDelay       = 10 * time.Second
)

// Policy decides whether and when to retry a failed operation. The zero
// values of Growth and JitterFactor give a fixed delay; MaxAttempts of zero
// means unbounded.
type Policy struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Growth       bool
	JitterFactor float64
	MaxAttempts  int
	IsRetryable  func(error) bool
}

// ReconnectPolicy retries channel failures forever at a fixed delay.
func ReconnectPolicy(delay time.Duration) Policy {
	return Policy{BaseDelay: delay, IsRetryable: IsRetryable}
}

// IsRetryable reports whether err may be retried automatically: channel
// failures and transport-level unavailability only.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if apperrors.IsRetryable(err) {
		return true
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.Unavailable {
		return true
	}
	return false
}

// Next returns the delay before attempt (zero-based) and whether to retry.
func (p Policy) Next(attempt int, err error) (time.Duration, bool) {
	p = p.withDefaults()
	if !p.IsRetryable(err) {
		return 0, false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		return 0, false
	}
	return p.Delay(attempt), true
}

// Delay calculates the wait before attempt, with optional exponential growth
// and jitter.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	delay := p.BaseDelay
	if p.Growth {
		delay = p.BaseDelay << min(attempt, 6) // Cap shift to prevent overflow
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	if p.JitterFactor > 0 {
		// delay * (1 ± jitterFactor/2)
		jitter := float64(delay) * p.JitterFactor * (rand.Float64() - 0.5)
		delay = time.Duration(float64(delay) + jitter)
	}
	return delay
}

func (p Policy) withDefaults() Policy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultReconnectDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.IsRetryable == nil {
		p.IsRetryable = IsRetryable
	}
	return p
}
