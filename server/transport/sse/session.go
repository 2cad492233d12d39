package sse

import (
	"context"
	"sync"

	"github.com/viant/jsonrpc"

	"github.com/gqlmcp/graphql-mcp/server/transport"
)

// session binds one push stream to its protocol handler. Every
// server-to-client frame, responses included, travels over the stream; the
// side-channel POST only acknowledges receipt.
type session struct {
	id      string
	handler transport.Handler

	serveMu sync.Mutex // serializes dispatch within the session

	outbox chan []byte

	closeMu sync.Mutex
	closed  chan struct{}
	done    bool
}

func newSession(id string) *session {
	return &session{
		id:     id,
		outbox: make(chan []byte, 32),
		closed: make(chan struct{}),
	}
}

func (s *session) SessionID() string {
	return s.id
}

// Notify pushes a notification frame onto the stream.
func (s *session) Notify(_ context.Context, notification *jsonrpc.Notification) error {
	data, err := transport.EncodeNotification(notification)
	if err != nil {
		return err
	}
	return s.push(data)
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

// dispatch serves one request and queues the response frame for the stream.
// A response must reach the client, so the send blocks until the stream
// writer drains the outbox or the session closes.
func (s *session) dispatch(ctx context.Context, request *jsonrpc.Request) error {
	s.serveMu.Lock()
	response := &jsonrpc.Response{Id: request.Id}
	s.handler.Serve(ctx, request, response)
	s.serveMu.Unlock()

	data, err := transport.EncodeResponse(response)
	if err != nil {
		return err
	}
	return s.send(data)
}

// send queues a frame, waiting for outbox room.
func (s *session) send(frame []byte) error {
	select {
	case s.outbox <- frame:
		return nil
	case <-s.closed:
		return transport.ErrSessionClosed
	}
}

// push queues a frame best effort; a notification is dropped when the
// stream consumer has fallen too far behind.
func (s *session) push(frame []byte) error {
	select {
	case <-s.closed:
		return transport.ErrSessionClosed
	default:
	}
	select {
	case s.outbox <- frame:
		return nil
	case <-s.closed:
		return transport.ErrSessionClosed
	default:
		return nil
	}
}
