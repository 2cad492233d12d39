// Package sse implements the legacy push-stream transport: the
// server-to-client channel is a long-lived event stream opened first, with
// the session id assigned at stream creation and advertised in the initial
// endpoint event; the client-to-server channel is a separate POST endpoint
// keyed by a sessionId query parameter.
package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gqlmcp/graphql-mcp/server/transport"
)

// SessionParam keys the client-to-server channel to its session.
const SessionParam = "sessionId"

const (
	defaultURI        = "/sse"
	defaultMessageURI = "/message"
	maxBodyBytes      = 4 << 20
)

// Handler multiplexes legacy SSE traffic onto per-session protocol
// handlers. It expects to be mounted on both the stream URI and the message
// URI.
type Handler struct {
	uri         string
	messageURI  string
	newHandler  transport.NewHandler
	sessions    *transport.Registry[*session]
	idleTimeout time.Duration
	logger      *zap.Logger
}

// Option configures the handler.
type Option func(*Handler)

// WithURI overrides the stream endpoint path.
func WithURI(uri string) Option {
	return func(h *Handler) {
		h.uri = uri
	}
}

// WithMessageURI overrides the client-to-server endpoint path.
func WithMessageURI(uri string) Option {
	return func(h *Handler) {
		h.messageURI = uri
	}
}

// WithIdleTimeout overrides the session idle deadline.
func WithIdleTimeout(ttl time.Duration) Option {
	return func(h *Handler) {
		h.idleTimeout = ttl
	}
}

// WithLogger sets the process logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// New creates an SSE handler that builds a protocol handler per session via
// newHandler.
func New(newHandler transport.NewHandler, options ...Option) *Handler {
	h := &Handler{
		uri:        defaultURI,
		messageURI: defaultMessageURI,
		newHandler: newHandler,
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		option(h)
	}
	h.sessions = transport.NewRegistry[*session](h.idleTimeout, h.logger)
	return h
}

// URI returns the stream endpoint path.
func (h *Handler) URI() string {
	return h.uri
}

// MessageURI returns the client-to-server endpoint path.
func (h *Handler) MessageURI() string {
	return h.messageURI
}

// Sessions exposes the registry size, for observability.
func (h *Handler) Sessions() int {
	return h.sessions.Len()
}

// Shutdown closes every live session.
func (h *Handler) Shutdown() {
	h.sessions.Shutdown()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case h.messageURI:
		h.handleMessage(w, r)
	default:
		h.handleStream(w, r)
	}
}

// handleStream opens the push stream: the session is created and registered
// immediately, and its id is handed to the client in the endpoint event.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess := newSession(uuid.New().String())
	sess.handler = h.newHandler(r.Context(), sess)
	h.sessions.Add(sess)
	h.logger.Debug("push stream opened", zap.String("session", sess.id))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: endpoint\ndata: %s?%s=%s\n\n", h.messageURI, SessionParam, sess.id)
	flusher.Flush()

	defer func() {
		h.sessions.Remove(sess.id)
		if err := sess.Close(); err != nil && !errors.Is(err, transport.ErrSessionClosed) {
			h.logger.Warn("session close failed", zap.String("session", sess.id), zap.Error(err))
		}
		h.logger.Debug("push stream closed", zap.String("session", sess.id))
	}()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-sess.closed:
			return
		case frame := <-sess.outbox:
			if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// handleMessage accepts one client-to-server frame. The frame must carry a
// known session id; the response, if any, is delivered over the push
// stream and the POST answers 202.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get(SessionParam)
	if id == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}
	sess, ok := h.sessions.Lookup(id)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown session: %v", id), http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read body: %v", err), http.StatusBadRequest)
		return
	}
	message, err := transport.DecodeMessage(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if message.IsNotification() {
		sess.handler.OnNotification(r.Context(), message.Notification())
		w.WriteHeader(http.StatusAccepted)
		return
	}

	// The response outlives this POST, so dispatch is detached from its
	// context.
	request := message.Request()
	go func() {
		if err := sess.dispatch(context.Background(), request); err != nil && !errors.Is(err, transport.ErrSessionClosed) {
			h.logger.Warn("dispatch failed", zap.String("session", sess.id), zap.Error(err))
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}
