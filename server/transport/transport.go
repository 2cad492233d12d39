// Package transport defines the contracts shared by the session transports
// and the registry that tracks live sessions. Each transport style keeps its
// own registry; a session id resolves to exactly one live handler for the
// session's entire lifetime.
package transport

import (
	"context"
	"errors"

	"github.com/viant/jsonrpc"
)

// ErrSessionClosed is returned when a transport is closed more than once or
// used after close. Eviction paths ignore it.
var ErrSessionClosed = errors.New("session closed")

// Handler serves JSON-RPC traffic for one session.
type Handler interface {
	Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response)
	OnNotification(ctx context.Context, notification *jsonrpc.Notification)
}

// Notifier pushes server-initiated notifications to the client.
type Notifier interface {
	Notify(ctx context.Context, notification *jsonrpc.Notification) error
}

// Transport is the server-side view of one session's connection.
type Transport interface {
	Notifier
	SessionID() string
	Close() error
}

// NewHandler builds the protocol handler bound 1:1 to a new session's
// transport.
type NewHandler func(ctx context.Context, transport Transport) Handler
