package streamable

import (
	"context"
	"sync"

	"github.com/viant/jsonrpc"

	"github.com/gqlmcp/graphql-mcp/server/transport"
)

// session binds one streamable-HTTP session id to its protocol handler.
// Responses travel on the POST that carried the request; notifications are
// queued for the optional GET stream.
type session struct {
	id      string
	handler transport.Handler

	serveMu sync.Mutex // serializes dispatch within the session

	stream chan []byte

	closeMu sync.Mutex
	closed  chan struct{}
	done    bool
}

func newSession(id string) *session {
	return &session{
		id:     id,
		stream: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (s *session) SessionID() string {
	return s.id
}

// Notify queues a notification for the GET stream. Without an attached
// stream consumer the frame is dropped once the buffer fills.
func (s *session) Notify(_ context.Context, notification *jsonrpc.Notification) error {
	data, err := transport.EncodeNotification(notification)
	if err != nil {
		return err
	}
	select {
	case <-s.closed:
		return transport.ErrSessionClosed
	default:
	}
	select {
	case s.stream <- data:
	default:
	}
	return nil
}

// Close tears the session down; a second close returns ErrSessionClosed.
func (s *session) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.done {
		return transport.ErrSessionClosed
	}
	s.done = true
	close(s.closed)
	return nil
}

// serve dispatches one request, serialized against any other in-flight
// request for this session.
func (s *session) serve(ctx context.Context, request *jsonrpc.Request) *jsonrpc.Response {
	s.serveMu.Lock()
	defer s.serveMu.Unlock()
	response := &jsonrpc.Response{Id: request.Id}
	s.handler.Serve(ctx, request, response)
	return response
}
