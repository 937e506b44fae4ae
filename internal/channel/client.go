// Package channel is the duplex message transport to the backend: text
// control messages both ways, binary PCM16 frames client → server.
package channel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	apperrors "github.com/GriffinCanCode/speaksee/client/internal/errors"
	"github.com/GriffinCanCode/speaksee/client/internal/protocol"
)

// Transport constants
const (
	DefaultSendQueue = 512
	DefaultReadLimit = 1 << 20
	DialTimeout      = 10 * time.Second
	FlushTimeout     = time.Second
)

var errQueueFull = errors.New("send queue full")

// Options configures a Client.
type Options struct {
	Header    http.Header
	SendQueue int
	ReadLimit int64

	// OnMessage receives every decoded control message. Malformed messages
	// are dropped before reaching it.
	OnMessage func(protocol.ServerMessage)
	// OnClose runs exactly once when the connection ends for any reason.
	OnClose func(error)
}

type outbound struct {
	text   any
	binary []byte
}

// Client is one open connection. Sends are queued and written in order by a
// single writer goroutine, so a control message always precedes the frames
// queued after it.
type Client struct {
	conn      *websocket.Conn
	out       chan outbound
	ctx       context.Context
	cancel    context.CancelFunc
	draining  chan struct{}
	drained   chan struct{}
	open      atomic.Bool
	closing   atomic.Bool
	onMessage func(protocol.ServerMessage)
	onClose   func(error)
}

// Dial connects to url and starts the reader and writer goroutines.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	if opts.SendQueue <= 0 {
		opts.SendQueue = DefaultSendQueue
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = DefaultReadLimit
	}

	dialCtx, cancelDial := context.WithTimeout(ctx, DialTimeout)
	defer cancelDial()
	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{HTTPHeader: opts.Header})
	if err != nil {
		return nil, apperrors.Channel(err)
	}
	conn.SetReadLimit(opts.ReadLimit)

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:      conn,
		out:       make(chan outbound, opts.SendQueue),
		ctx:       cctx,
		cancel:    cancel,
		draining:  make(chan struct{}),
		drained:   make(chan struct{}),
		onMessage: opts.OnMessage,
		onClose:   opts.OnClose,
	}
	c.open.Store(true)

	go c.writeLoop()
	go c.readLoop()
	return c, nil
}

// Open reports whether the connection is usable.
func (c *Client) Open() bool { return c.open.Load() }

// Send queues a control message for JSON encoding.
func (c *Client) Send(msg any) error { return c.enqueue(outbound{text: msg}) }

// SendBinary queues one data frame.
func (c *Client) SendBinary(data []byte) error { return c.enqueue(outbound{binary: data}) }

func (c *Client) enqueue(o outbound) error {
	if !c.open.Load() {
		return apperrors.Channel(apperrors.ErrChannelClosed)
	}
	select {
	case c.out <- o:
		return nil
	case <-c.ctx.Done():
		return apperrors.Channel(apperrors.ErrChannelClosed)
	default:
		slog.Warn("channel send queue full, dropping message")
		return apperrors.Channel(errQueueFull)
	}
}

// Close ends the connection normally.
func (c *Client) Close() error {
	c.shutdown(nil)
	return nil
}

func (c *Client) writeLoop() {
	defer close(c.drained)
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.draining:
			c.drain()
			return
		case o := <-c.out:
			if err := c.write(c.ctx, o); err != nil {
				c.shutdown(err)
				return
			}
		}
	}
}

func (c *Client) readLoop() {
	for {
		typ, data, err := c.conn.Read(c.ctx)
		if err != nil {
			c.shutdown(err)
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			slog.Debug("dropping malformed message", "error", err)
			continue
		}
		if c.onMessage != nil {
			c.onMessage(msg)
		}
	}
}

func (c *Client) shutdown(cause error) {
	if !c.closing.CompareAndSwap(false, true) {
		return
	}
	c.open.Store(false)
	if cause == nil {
		close(c.draining)
		select {
		case <-c.drained:
		case <-time.After(FlushTimeout):
		}
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	} else {
		_ = c.conn.CloseNow()
		slog.Debug("channel closed", "error", cause)
	}
	c.cancel()
	if c.onClose != nil {
		c.onClose(cause)
	}
}

func (c *Client) write(ctx context.Context, o outbound) error {
	if o.binary != nil {
		return c.conn.Write(ctx, websocket.MessageBinary, o.binary)
	}
	return wsjson.Write(ctx, c.conn, o.text)
}

// drain writes what is still queued so a normal close keeps a trailing
// control message such as audio_stop.
func (c *Client) drain() {
	ctx, cancel := context.WithTimeout(c.ctx, FlushTimeout)
	defer cancel()
	for {
		select {
		case o := <-c.out:
			if err := c.write(ctx, o); err != nil {
				return
			}
		default:
			return
		}
	}
}
