package channel

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	apperrors "github.com/GriffinCanCode/speaksee/client/internal/errors"
	"github.com/GriffinCanCode/speaksee/client/internal/protocol"
	"github.com/GriffinCanCode/speaksee/client/internal/trace"
)

// Link is the stable handle the rest of the client writes through. Each
// Connect replaces the underlying Client; callbacks from a replaced Client
// are ignored.
type Link struct {
	url       string
	sessionTC trace.Context
	onMessage func(protocol.ServerMessage)
	onClose   func(error)

	mu     sync.Mutex
	client *Client
}

// NewLink creates a disconnected link. onMessage and onClose run on the
// reader goroutine; callers hop to their own goroutine as needed.
func NewLink(url string, session trace.Context, onMessage func(protocol.ServerMessage), onClose func(error)) *Link {
	return &Link{url: url, sessionTC: session, onMessage: onMessage, onClose: onClose}
}

// Connect dials a new connection. Any previous connection is closed first.
func (l *Link) Connect(ctx context.Context) error {
	l.mu.Lock()
	prev := l.client
	l.client = nil
	l.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}

	h := http.Header{}
	trace.Inject(h, trace.NewChild(l.sessionTC))

	var c *Client
	installed := make(chan struct{})
	opts := Options{
		Header: h,
		OnMessage: func(msg protocol.ServerMessage) {
			<-installed
			if l.current(c) && l.onMessage != nil {
				l.onMessage(msg)
			}
		},
		OnClose: func(err error) {
			<-installed
			if l.current(c) && l.onClose != nil {
				l.onClose(err)
			}
		},
	}

	client, err := Dial(ctx, l.url, opts)
	if err != nil {
		slog.Warn("channel connect failed", "url", l.url, "error", err)
		return err
	}
	c = client
	l.mu.Lock()
	l.client = client
	l.mu.Unlock()
	close(installed)
	slog.Info("channel connected", "url", l.url)
	return nil
}

func (l *Link) current(c *Client) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return c != nil && l.client == c
}

func (l *Link) get() *Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client
}

// Open reports whether a connection is up.
func (l *Link) Open() bool {
	c := l.get()
	return c != nil && c.Open()
}

// Send queues a control message.
func (l *Link) Send(msg any) error {
	c := l.get()
	if c == nil {
		return apperrors.Channel(apperrors.ErrChannelClosed)
	}
	return c.Send(msg)
}

// SendBinary queues a data frame.
func (l *Link) SendBinary(data []byte) error {
	c := l.get()
	if c == nil {
		return apperrors.Channel(apperrors.ErrChannelClosed)
	}
	return c.SendBinary(data)
}

// Close closes the current connection without reporting it through onClose.
func (l *Link) Close() error {
	l.mu.Lock()
	c := l.client
	l.client = nil
	l.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}
