// Package server exposes the session to local front ends over HTTP and
// WebSocket.
package server

import "time"

// Server configuration constants
const (
	// Per-connection intent rate limit
	RateLimitMessages = 20
	RateLimitWindow   = time.Second

	// Bound on a single push to a front end
	WriteTimeout = 5 * time.Second

	// Upper bound on an intent applied over REST
	RequestTimeout = 5 * time.Second
)
