// Package trace tags the client session, each channel connection and each
// utterance with W3C-style ids so client logs line up with the backend's.
//
// The session owns the root trace. Channel dials and bridge requests open
// child spans of it; an utterance is a span from recording start to stop.
package trace

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Header keys used on the channel handshake and bridge requests.
const (
	TraceIDKey      = "x-trace-id"
	SpanIDKey       = "x-span-id"
	ParentSpanIDKey = "x-parent-span-id"
)

type ctxKey struct{}

// Context identifies one span within a trace.
type Context struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
}

// New starts a trace.
func New() Context {
	return Context{TraceID: newID(16), SpanID: newID(8)}
}

// NewChild opens a span under parent. A parent without a trace id starts a
// new trace instead.
func NewChild(parent Context) Context {
	if parent.TraceID == "" {
		return New()
	}
	return Context{
		TraceID:      parent.TraceID,
		SpanID:       newID(8),
		ParentSpanID: parent.SpanID,
	}
}

// newID returns n random bytes hex-encoded, taken from a v4 UUID.
func newID(n int) string {
	id := uuid.New()
	return hex.EncodeToString(id[:n])
}

// FromContext returns the trace carried by ctx.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

// WithContext returns ctx carrying tc.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// EnsureContext returns ctx unchanged when it already carries a trace, or a
// copy carrying a new one.
func EnsureContext(ctx context.Context) (context.Context, Context) {
	if tc, ok := FromContext(ctx); ok {
		return ctx, tc
	}
	tc := New()
	return WithContext(ctx, tc), tc
}

func (c Context) logArgs() []any {
	args := []any{"trace_id", c.TraceID, "span_id", c.SpanID}
	if c.ParentSpanID != "" {
		args = append(args, "parent_span_id", c.ParentSpanID)
	}
	return args
}

// Logger returns the default logger tagged with ctx's trace ids.
func Logger(ctx context.Context) *slog.Logger {
	tc, ok := FromContext(ctx)
	if !ok {
		return slog.Default()
	}
	return slog.Default().With(tc.logArgs()...)
}

// Span times one operation, such as an utterance or an applied intent. It
// is not safe for concurrent use.
type Span struct {
	name  string
	tc    Context
	start time.Time
	attrs []any

	ended    bool
	duration time.Duration
}

// StartSpan opens a child span of ctx's trace. attrs are slog key/value
// pairs logged when the span ends.
func StartSpan(ctx context.Context, name string, attrs ...any) (context.Context, *Span) {
	parent, _ := FromContext(ctx)
	s := &Span{
		name:  name,
		tc:    NewChild(parent),
		start: time.Now(),
		attrs: attrs,
	}
	return WithContext(ctx, s.tc), s
}

// Name returns the span name.
func (s *Span) Name() string { return s.name }

// IDs returns the span's trace ids.
func (s *Span) IDs() Context { return s.tc }

// Add appends key/value pairs to the span's end record.
func (s *Span) Add(attrs ...any) { s.attrs = append(s.attrs, attrs...) }

// End closes the span, logs it at debug level with any final attrs, and
// returns its duration. Later calls return the same duration and log nothing.
func (s *Span) End(attrs ...any) time.Duration {
	if s.ended {
		return s.duration
	}
	s.ended = true
	s.duration = time.Since(s.start)
	s.attrs = append(s.attrs, attrs...)

	args := append(s.tc.logArgs(), "span", s.name, "duration", s.duration)
	slog.Debug("span ended", append(args, s.attrs...)...)
	return s.duration
}
