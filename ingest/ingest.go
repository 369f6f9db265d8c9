// Package ingest receives performance entries from browsers over HTTP and
// feeds them to per-page perflog trackers.
//
// A page loads /perflog.js, which observes every supported entry category and
// posts batches to /entries. Each page load is a session identified by a
// UUID. Sessions own a perflog.Buffer and an Instance whose records are
// timestamped relative to the page's own time origin.
package ingest

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"pkt.systems/perflog"
)

const (
	// DefaultMaxBodyBytes caps the size of one POST /entries body.
	DefaultMaxBodyBytes = 1 << 20
	// DefaultMaxSessions caps the number of concurrently tracked pages.
	DefaultMaxSessions = 64
	// DefaultSessionTTL is how long an idle session is kept.
	DefaultSessionTTL = 30 * time.Minute
	// DefaultSessionBufferLimit caps the entries a session retains per
	// category, matching the browser's default resource timing buffer.
	DefaultSessionBufferLimit = 250
)

//go:embed snippet.js
var assets embed.FS

// Option customises a Handler.
type Option func(*Handler)

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithMaxSessions overrides DefaultMaxSessions. When the cap is reached the
// least recently seen session is evicted.
func WithMaxSessions(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxSessions = n
		}
	}
}

// WithSessionTTL overrides DefaultSessionTTL.
func WithSessionTTL(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.ttl = d
		}
	}
}

// WithSessionBufferLimit overrides DefaultSessionBufferLimit.
func WithSessionBufferLimit(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.bufferLimit = n
		}
	}
}

// WithAllowedOrigins admits cross-origin requests from the listed origins in
// addition to localhost. "*" admits every origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) {
		for _, o := range origins {
			h.origins[o] = true
		}
	}
}

// WithClock replaces time.Now for session bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// Payload is the body of POST /entries.
type Payload struct {
	Session string `json:"session"`
	URL     string `json:"url,omitempty"`
	// TimeOrigin is performance.timeOrigin: epoch milliseconds.
	TimeOrigin float64           `json:"timeOrigin,omitempty"`
	Entries    []json.RawMessage `json:"entries"`
}

// Result is the response to POST /entries.
type Result struct {
	Session  string `json:"session"`
	Accepted int    `json:"accepted"`
	Skipped  int    `json:"skipped"`
}

type session struct {
	id       string
	buffer   *perflog.Buffer
	instance *perflog.Instance
	lastSeen time.Time
}

// Handler serves the ingest endpoints.
type Handler struct {
	formatter   *perflog.Formatter
	options     perflog.Options
	maxBody     int64
	maxSessions int
	ttl         time.Duration
	bufferLimit int
	origins     map[string]bool
	now         func() time.Time
	mux         *http.ServeMux

	mu       sync.Mutex
	sessions map[string]*session
}

// NewHandler returns a Handler writing every session's records to f with the
// tracker options opts.
func NewHandler(f *perflog.Formatter, opts perflog.Options, options ...Option) *Handler {
	if f == nil {
		f = perflog.New(os.Stdout)
	}
	h := &Handler{
		formatter:   f,
		options:     opts,
		maxBody:     DefaultMaxBodyBytes,
		maxSessions: DefaultMaxSessions,
		ttl:         DefaultSessionTTL,
		bufferLimit: DefaultSessionBufferLimit,
		origins:     make(map[string]bool),
		now:         time.Now,
		sessions:    make(map[string]*session),
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	h.mux = http.NewServeMux()
	h.mux.HandleFunc("POST /entries", h.handleEntries)
	h.mux.HandleFunc("GET /perflog.js", h.handleSnippet)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.cors(h.mux.ServeHTTP)(w, r)
}

// Sessions reports the number of live sessions. Sessions idle for longer
// than the TTL are disconnected first.
func (h *Handler) Sessions() int {
	now := h.now()
	h.mu.Lock()
	expired := h.expireLocked(now)
	n := len(h.sessions)
	h.mu.Unlock()
	disconnect(expired)
	return n
}

// Close disconnects every session.
func (h *Handler) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*session)
	h.mu.Unlock()
	for _, s := range sessions {
		s.instance.Disconnect()
	}
}

func disconnect(sessions []*session) {
	for _, s := range sessions {
		s.instance.Disconnect()
	}
}

func (h *Handler) handleEntries(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	var payload Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonResponse(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Request body too large"})
			return
		}
		jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}
	id, err := uuid.Parse(payload.Session)
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid session id"})
		return
	}

	result := Result{Session: id.String()}
	entries := make([]perflog.Entry, 0, len(payload.Entries))
	for _, raw := range payload.Entries {
		entry, err := perflog.DecodeEntry(raw)
		if err != nil {
			result.Skipped++
			continue
		}
		entries = append(entries, entry)
	}
	result.Accepted = len(entries)

	// A session is live only while it is in h.sessions.
	now := h.now()
	h.mu.Lock()
	s, evicted := h.sessionLocked(result.Session, payload, now)
	s.buffer.Publish(entries...)
	h.mu.Unlock()
	disconnect(evicted)

	jsonResponse(w, http.StatusAccepted, result)
}

// sessionLocked returns the live session for id, creating it on first sight
// or once the previous one expired. It also returns the sessions it evicted,
// which the caller disconnects after releasing h.mu.
func (h *Handler) sessionLocked(id string, payload Payload, now time.Time) (*session, []*session) {
	evicted := h.expireLocked(now)
	if s, ok := h.sessions[id]; ok {
		s.lastSeen = now
		return s, evicted
	}
	evicted = append(evicted, h.evictOldestLocked()...)

	origin := now
	if payload.TimeOrigin > 0 {
		origin = time.UnixMicro(int64(payload.TimeOrigin * 1000))
	}
	f := h.formatter.WithOrigin(origin)
	s := &session{id: id, buffer: perflog.NewBuffer(perflog.WithBufferLimit(h.bufferLimit)), lastSeen: now}
	s.instance = perflog.Init(s.buffer, f, h.options)
	if payload.URL != "" {
		f.Log(perflog.KindMisc, fmt.Sprintf("Session %s %s", shortID(id), payload.URL))
	}
	h.sessions[id] = s
	return s, evicted
}

// expireLocked removes sessions idle for longer than the TTL.
func (h *Handler) expireLocked(now time.Time) []*session {
	var expired []*session
	for id, s := range h.sessions {
		if now.Sub(s.lastSeen) > h.ttl {
			delete(h.sessions, id)
			expired = append(expired, s)
		}
	}
	return expired
}

// evictOldestLocked makes room for one session by removing the least
// recently seen ones.
func (h *Handler) evictOldestLocked() []*session {
	var evicted []*session
	for len(h.sessions) >= h.maxSessions {
		var oldest *session
		for _, s := range h.sessions {
			if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
				oldest = s
			}
		}
		delete(h.sessions, oldest.id)
		evicted = append(evicted, oldest)
	}
	return evicted
}

func (h *Handler) handleSnippet(w http.ResponseWriter, r *http.Request) {
	data, err := assets.ReadFile("snippet.js")
	if err != nil {
		http.Error(w, "snippet unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{"status": "ok", "sessions": h.Sessions()})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "[perflog] Error encoding JSON response: %v\n", err)
	}
}
