// Package streamable implements the modern bidirectional HTTP transport:
// all session traffic arrives on one URI, a session is established by an
// initialize request carrying no session id, and subsequent requests echo
// the minted id in the Mcp-Session-Id header.
package streamable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	"go.uber.org/zap"

	"github.com/gqlmcp/graphql-mcp/server/transport"
)

// SessionHeader carries the session id on every non-handshake request.
const SessionHeader = "Mcp-Session-Id"

const (
	defaultURI   = "/mcp"
	maxBodyBytes = 4 << 20
)

// Handler multiplexes streamable-HTTP traffic onto per-session protocol
// handlers.
type Handler struct {
	uri         string
	newHandler  transport.NewHandler
	sessions    *transport.Registry[*session]
	idleTimeout time.Duration
	logger      *zap.Logger
}

// Option configures the handler.
type Option func(*Handler)

// WithURI overrides the endpoint path.
func WithURI(uri string) Option {
	return func(h *Handler) {
		h.uri = uri
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

// New creates a streamable-HTTP handler that builds a protocol handler per
// session via newHandler.
func New(newHandler transport.NewHandler, options ...Option) *Handler {
	h := &Handler{
		uri:        defaultURI,
		newHandler: newHandler,
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		option(h)
	}
	h.sessions = transport.NewRegistry[*session](h.idleTimeout, h.logger)
	return h
}

// URI returns the endpoint path the handler expects to be mounted on.
func (h *Handler) URI() string {
	return h.uri
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
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleStream(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handlePost routes one JSON-RPC frame: a frame without a session id must be
// an initialize request and mints a new session; a frame with a known id is
// dispatched on the existing session.
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, jsonrpc.NewInvalidRequest(fmt.Sprintf("failed to read body: %v", err), nil), nil)
		return
	}
	message, err := transport.DecodeMessage(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, jsonrpc.NewInvalidRequest(err.Error(), nil), nil)
		return
	}

	var sess *session
	if id := r.Header.Get(SessionHeader); id == "" {
		if message.Method != schema.MethodInitialize {
			writeError(w, http.StatusBadRequest,
				jsonrpc.NewInvalidRequest("a request without a session id must be an initialize request", nil), nil)
			return
		}
		sess = h.establish(r.Context())
	} else {
		var ok bool
		if sess, ok = h.sessions.Lookup(id); !ok {
			writeError(w, http.StatusBadRequest, jsonrpc.NewInvalidRequest(fmt.Sprintf("unknown session: %v", id), nil), nil)
			return
		}
	}
	w.Header().Set(SessionHeader, sess.id)

	if message.IsNotification() {
		sess.handler.OnNotification(r.Context(), message.Notification())
		w.WriteHeader(http.StatusAccepted)
		return
	}

	response := sess.serve(r.Context(), message.Request())
	data, err := transport.EncodeResponse(response)
	if err != nil {
		writeError(w, http.StatusInternalServerError, jsonrpc.NewInternalError(err.Error(), nil), response.Id)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handleStream attaches a server-to-client event stream to an existing
// session for notifications.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}
	sess, ok := h.sessions.Lookup(id)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown session: %v", id), http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-sess.closed:
			return
		case frame := <-sess.stream:
			if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// handleDelete tears a session down on client request.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}
	sess, ok := h.sessions.Lookup(id)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown session: %v", id), http.StatusBadRequest)
		return
	}
	h.sessions.Remove(id)
	if err := sess.Close(); err != nil && !errors.Is(err, transport.ErrSessionClosed) {
		h.logger.Warn("session close failed", zap.String("session", id), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) establish(ctx context.Context) *session {
	sess := newSession(uuid.New().String())
	sess.handler = h.newHandler(ctx, sess)
	h.sessions.Add(sess)
	h.logger.Debug("session established", zap.String("session", sess.id))
	return sess
}

func writeError(w http.ResponseWriter, status int, rpcError *jsonrpc.Error, id interface{}) {
	data, err := transport.EncodeResponse(&jsonrpc.Response{Id: id, Error: rpcError})
	if err != nil {
		http.Error(w, rpcError.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
