package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/speaksee/client/internal/metrics"
	"github.com/GriffinCanCode/speaksee/client/internal/orchestrator"
	"github.com/GriffinCanCode/speaksee/client/internal/session"
	"github.com/GriffinCanCode/speaksee/client/internal/trace"
	"github.com/GriffinCanCode/speaksee/client/internal/transcript"
)

// Session is the part of the orchestrator the server drives.
type Session interface {
	Apply(ctx context.Context, in session.Intent) error
	State() session.Snapshot
	Watch() (session.Snapshot, uint64, <-chan struct{})
	Notices() <-chan session.Notice
	Transcripts() []transcript.Entry
}

// Message types.
type Message struct {
	Type string `json:"type"`
}

type StateMessage struct {
	Type  string           `json:"type"`
	State session.Snapshot `json:"state"`
}

type NoticeMessage struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// IntentMessage carries one user intent. An optional "trace_id" field
// continues the sender's trace.
type IntentMessage struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	// Prune old timestamps
	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	sess    Session
	metrics *metrics.Metrics
	mu      sync.RWMutex
	conns   map[*websocket.Conn]struct{}
}

// New creates a server and starts broadcasting notices until ctx ends. met
// may be nil, in which case /metrics is not served.
func New(ctx context.Context, sess Session, met *metrics.Metrics) *Server {
	s := &Server{
		sess:    sess,
		metrics: met,
		conns:   make(map[*websocket.Conn]struct{}),
	}
	go s.broadcastNotices(ctx)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/state", s.withMetrics("/api/state", s.handleState))
	mux.HandleFunc("GET /api/transcripts", s.withMetrics("/api/transcripts", s.handleTranscripts))
	mux.HandleFunc("POST /api/recording/start", s.withMetrics("/api/recording/start", s.intentHandler(session.IntentStart, "recording_started")))
	mux.HandleFunc("POST /api/recording/stop", s.withMetrics("/api/recording/stop", s.intentHandler(session.IntentStop, "recording_stopped")))
	mux.HandleFunc("POST /api/recording/toggle", s.withMetrics("/api/recording/toggle", s.intentHandler(session.IntentToggle, "recording_toggled")))
	mux.HandleFunc("POST /api/generate", s.withMetrics("/api/generate", s.handleGenerate))
	mux.HandleFunc("POST /api/intent", s.withMetrics("/api/intent", s.handleIntent))

	// Prometheus metrics endpoint
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

// withMetrics counts requests by path and status code.
func (s *Server) withMetrics(path string, handler http.HandlerFunc) http.HandlerFunc {
	if s.metrics == nil {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(ww, r)
		s.metrics.RecordHTTPRequest(path, strconv.Itoa(ww.statusCode))
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	baseCtx, cancel := context.WithCancel(r.Context())
	defer cancel()
	baseCtx, connTC := trace.EnsureContext(baseCtx)
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	go s.pushState(baseCtx, conn)

	rl := &rateLimiter{}
	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, ErrorMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		switch base.Type {
		case "intent":
			var in IntentMessage
			if err := json.Unmarshal(msg, &in); err != nil {
				continue
			}
			ctx := trace.WithContext(baseCtx, trace.FromMessage(msg, connTC))
			if err := s.sess.Apply(ctx, session.Intent{Name: in.Name, Value: in.Value}); err != nil {
				trace.Logger(ctx).Debug("intent rejected", "intent", in.Name, "error", err)
				_ = wsjson.Write(ctx, conn, ErrorMessage{Type: "error", Message: err.Error()})
			}
		}
	}
}

// pushState writes the current snapshot, then each newer one. Bursts of
// changes collapse into the latest snapshot.
func (s *Server) pushState(ctx context.Context, conn *websocket.Conn) {
	for {
		snap, _, changed := s.sess.Watch()
		wctx, cancel := context.WithTimeout(ctx, WriteTimeout)
		err := wsjson.Write(wctx, conn, StateMessage{Type: "state", State: snap})
		cancel()
		if err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-changed:
		}
	}
}

func (s *Server) broadcastNotices(ctx context.Context) {
	for {
		var n session.Notice
		select {
		case <-ctx.Done():
			return
		case n = <-s.sess.Notices():
		}
		msg := NoticeMessage{Type: "notice", Text: n.Text, Code: n.Code, Detail: n.Detail}

		s.mu.RLock()
		for conn := range s.conns {
			go func(c *websocket.Conn) {
				wctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
				defer cancel()
				_ = wsjson.Write(wctx, c, msg)
			}(conn)
		}
		s.mu.RUnlock()
	}
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.State())
}

// handleTranscripts returns the history, optionally limited to the last
// ?seconds=N.
func (s *Server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	entries := s.sess.Transcripts()
	if v := r.URL.Query().Get("seconds"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "seconds must be a positive integer"})
			return
		}
		cutoff := time.Now().Add(-time.Duration(secs) * time.Second)
		var kept []transcript.Entry
		for _, e := range entries {
			if !e.Timestamp.Before(cutoff) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if entries == nil {
		entries = []transcript.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) intentHandler(name, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apply(w, r, session.Intent{Name: name}) {
			writeJSON(w, http.StatusOK, map[string]string{"status": status})
		}
	}
}

// handleGenerate sends the current prompt, or the body's prompt if given.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt *string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if req.Prompt != nil && !s.apply(w, r, session.Intent{Name: session.IntentEditPrompt, Value: *req.Prompt}) {
		return
	}
	if s.apply(w, r, session.Intent{Name: session.IntentGenerate}) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "generate_sent"})
	}
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	var in session.Intent
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid intent"})
		return
	}
	if s.apply(w, r, in) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
	}
}

// apply runs an intent and writes the error response if it fails.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, in session.Intent) bool {
	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	err := s.sess.Apply(ctx, in)
	switch {
	case err == nil:
		return true
	case errors.Is(err, orchestrator.ErrLoopStopped), errors.Is(err, session.ErrClosed),
		errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	trace.Logger(ctx).Debug("intent rejected", "intent", in.Name, "error", err)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
