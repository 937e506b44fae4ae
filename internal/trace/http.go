package trace

import (
	"encoding/json"
	"net/http"
)

// Middleware opens a span for each bridge request, continuing the caller's
// trace when the request carries one.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := NewChild(fromHeader(r.Header))
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tc)))
	})
}

// Inject writes tc into outgoing headers, e.g. the channel handshake, so the
// backend logs the dial under the client's trace.
func Inject(h http.Header, tc Context) {
	h.Set(TraceIDKey, tc.TraceID)
	h.Set(SpanIDKey, tc.SpanID)
	if tc.ParentSpanID != "" {
		h.Set(ParentSpanIDKey, tc.ParentSpanID)
	}
}

func fromHeader(h http.Header) Context {
	return Context{TraceID: h.Get(TraceIDKey), SpanID: h.Get(SpanIDKey)}
}

// FromMessage opens a span for one bridge WebSocket message. A message that
// names its own trace_id continues that trace; otherwise the span is a
// child of conn, the connection's span.
func FromMessage(data []byte, conn Context) Context {
	var msg struct {
		TraceID string `json:"trace_id"`
	}
	if json.Unmarshal(data, &msg) == nil && msg.TraceID != "" && msg.TraceID != conn.TraceID {
		return NewChild(Context{TraceID: msg.TraceID})
	}
	return NewChild(conn)
}
