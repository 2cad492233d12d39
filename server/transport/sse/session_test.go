package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"

	"github.com/gqlmcp/graphql-mcp/server/transport"
)

func newLoadedSession(t *testing.T) *session {
	t.Helper()
	sess := newSession("s1")
	sess.handler = echoHandler{}
	for i := 0; i < cap(sess.outbox); i++ {
		require.NoError(t, sess.push([]byte(`{}`)))
	}
	return sess
}

func TestResponseSurvivesFullOutbox(t *testing.T) {
	sess := newLoadedSession(t)

	done := make(chan error, 1)
	go func() {
		done <- sess.dispatch(context.Background(),
			&jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: "ping", Id: 1})
	}()

	select {
	case <-done:
		t.Fatal("dispatch completed against a full outbox")
	case <-time.After(50 * time.Millisecond):
	}

	// draining the stream lets the response through
	for i := 0; i < cap(sess.outbox); i++ {
		<-sess.outbox
	}
	require.NoError(t, <-done)
	frame := <-sess.outbox
	assert.Contains(t, string(frame), `"id":1`)
}

func TestCloseUnblocksPendingResponse(t *testing.T) {
	sess := newLoadedSession(t)

	done := make(chan error, 1)
	go func() {
		done <- sess.dispatch(context.Background(),
			&jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: "ping", Id: 2})
	}()

	require.NoError(t, sess.Close())
	assert.ErrorIs(t, <-done, transport.ErrSessionClosed)
}

func TestNotificationDroppedWhenOutboxFull(t *testing.T) {
	sess := newLoadedSession(t)
	require.NoError(t, sess.Notify(context.Background(),
		&jsonrpc.Notification{Method: "notifications/message"}))
	assert.Equal(t, cap(sess.outbox), len(sess.outbox))
}
