// Package orchestrator runs the client: one event loop hosting the session
// controller, fed by the microphone and the server channel.
package orchestrator

import "time"

// Orchestrator configuration constants
const (
	// Pending loop functions. Audio blocks are dropped beyond this.
	LoopQueueSize = 256

	// Buffered notices awaiting the presentation layer
	NoticeBuffer = 32

	// Transcript history size
	TranscriptMaxEntries = 50

	// Upper bound on teardown
	ShutdownTimeout = 5 * time.Second
)
