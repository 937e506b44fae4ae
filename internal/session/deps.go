// Package session is the client's state machine: the recording flag, input
// disambiguation, the auto-generate countdown, reconnection and the handling
// of server messages. A Controller is confined to one goroutine; everything
// asynchronous reaches it through its Host.
package session

import (
	"context"
	"time"
)

// Timer is a pending callback scheduled through Host.AfterFunc.
type Timer interface {
	// Stop cancels the callback. It reports false if the callback already ran
	// or was stopped. A stopped callback never runs.
	Stop() bool
}

// Host is the event loop the controller lives on.
type Host interface {
	Now() time.Time
	// AfterFunc runs f on the loop after d.
	AfterFunc(d time.Duration, f func()) Timer
	// Async runs work off the loop, then done on the loop with its result.
	Async(work func(ctx context.Context) error, done func(error))
}

// Audio is the capture pipeline.
type Audio interface {
	Bound() bool
	Enable(ctx context.Context) error
	StartStreaming(ctx context.Context) error
	StopStreaming()
}

// Channel is the outbound control-message side of the duplex channel.
type Channel interface {
	Open() bool
	Send(msg any) error
}

// Connector opens a new channel connection.
type Connector interface {
	Connect(ctx context.Context) error
}

// Presenter renders state and notices for the user.
type Presenter interface {
	Render(Snapshot)
	Notify(Notice)
}

// History records finalized transcripts.
type History interface {
	Add(at time.Time, text, command string)
}

// Deps are the controller's collaborators. History is optional.
type Deps struct {
	Host      Host
	Audio     Audio
	Channel   Channel
	Connector Connector
	Presenter Presenter
	History   History
}
