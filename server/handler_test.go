package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/logger"
	"github.com/viant/mcp-protocol/schema"

	"github.com/gqlmcp/graphql-mcp/server/transport"
)

type fakeTransport struct {
	id            string
	notifications []*jsonrpc.Notification
}

func (f *fakeTransport) Notify(_ context.Context, notification *jsonrpc.Notification) error {
	f.notifications = append(f.notifications, notification)
	return nil
}

func (f *fakeTransport) SessionID() string { return f.id }
func (f *fakeTransport) Close() error      { return nil }

type fakeToolset struct {
	calls []string
}

func (f *fakeToolset) List(context.Context) []schema.Tool {
	return []schema.Tool{{Name: "demo", InputSchema: schema.ToolInputSchema{Type: "object"}}}
}

func (f *fakeToolset) Call(_ context.Context, request *schema.CallToolRequest) (*schema.CallToolResult, *jsonrpc.Error) {
	f.calls = append(f.calls, request.Params.Name)
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{
			schema.TextContent{Type: "text", Text: "done"},
		},
	}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeToolset) {
	t.Helper()
	tools := &fakeToolset{}
	srv, err := New(WithNewToolset(func(context.Context, transport.Notifier, logger.Logger) (Toolset, error) {
		return tools, nil
	}))
	require.NoError(t, err)
	return srv, tools
}

func serve(h transport.Handler, method string, params string) *jsonrpc.Response {
	request := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: method, Id: 1}
	if params != "" {
		request.Params = json.RawMessage(params)
	}
	response := &jsonrpc.Response{Id: request.Id}
	h.Serve(context.Background(), request, response)
	return response
}

func TestHandlerInitialize(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHandler(context.Background(), &fakeTransport{id: "s1"})

	response := serve(h, schema.MethodInitialize, `{"protocolVersion":"`+schema.LatestProtocolVersion+`","capabilities":{},"clientInfo":{"name":"test","version":"0"}}`)
	require.Nil(t, response.Error)

	var result schema.InitializeResult
	require.NoError(t, json.Unmarshal(response.Result, &result))
	assert.Equal(t, schema.LatestProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "graphql-mcp", result.ServerInfo.Name)
	assert.NotNil(t, result.Capabilities.Tools)
}

func TestHandlerRejectsWrongVersion(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHandler(context.Background(), &fakeTransport{id: "s1"})

	request := &jsonrpc.Request{Jsonrpc: "1.0", Method: schema.MethodPing, Id: 1}
	response := &jsonrpc.Response{Id: 1}
	h.Serve(context.Background(), request, response)
	assert.NotNil(t, response.Error)
}

func TestHandlerPing(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHandler(context.Background(), &fakeTransport{id: "s1"})

	response := serve(h, schema.MethodPing, "")
	assert.Nil(t, response.Error)
}

func TestHandlerListTools(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHandler(context.Background(), &fakeTransport{id: "s1"})

	response := serve(h, schema.MethodToolsList, "")
	require.Nil(t, response.Error)

	var result schema.ListToolsResult
	require.NoError(t, json.Unmarshal(response.Result, &result))
	require.Equal(t, 1, len(result.Tools))
	assert.Equal(t, "demo", result.Tools[0].Name)
}

func TestHandlerCallTool(t *testing.T) {
	srv, tools := newTestServer(t)
	h := srv.NewHandler(context.Background(), &fakeTransport{id: "s1"})

	response := serve(h, schema.MethodToolsCall, `{"name":"demo","arguments":{}}`)
	require.Nil(t, response.Error)
	assert.Equal(t, []string{"demo"}, tools.calls)

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(response.Result, &result))
	require.NotEmpty(t, result.Content)
	assert.Equal(t, "done", result.Content[0].Text)
}

func TestHandlerMethodNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHandler(context.Background(), &fakeTransport{id: "s1"})

	response := serve(h, "resources/list", "")
	assert.NotNil(t, response.Error)
}

func TestHandlerToolsetFailure(t *testing.T) {
	srv, err := New(WithNewToolset(func(context.Context, transport.Notifier, logger.Logger) (Toolset, error) {
		return nil, errors.New("toolset unavailable")
	}))
	require.NoError(t, err)
	h := srv.NewHandler(context.Background(), &fakeTransport{id: "s1"})

	response := serve(h, schema.MethodPing, "")
	require.NotNil(t, response.Error)
	assert.Contains(t, response.Error.Message, "toolset unavailable")
}

// blockingToolset parks a tools/call until released and records whether its
// context was cancelled in flight.
type blockingToolset struct {
	started chan struct{}
	release chan struct{}
	ctxErr  error
}

func (b *blockingToolset) List(context.Context) []schema.Tool { return nil }

func (b *blockingToolset) Call(ctx context.Context, _ *schema.CallToolRequest) (*schema.CallToolResult, *jsonrpc.Error) {
	close(b.started)
	select {
	case <-ctx.Done():
		b.ctxErr = ctx.Err()
	case <-b.release:
	}
	return &schema.CallToolResult{}, nil
}

func newBlockingServer(t *testing.T) (*Server, *blockingToolset) {
	t.Helper()
	tools := &blockingToolset{started: make(chan struct{}), release: make(chan struct{})}
	srv, err := New(WithNewToolset(func(context.Context, transport.Notifier, logger.Logger) (Toolset, error) {
		return tools, nil
	}))
	require.NoError(t, err)
	return srv, tools
}

func TestCancelAbortsOwnSessionRequest(t *testing.T) {
	srv, tools := newBlockingServer(t)
	h := srv.NewHandler(context.Background(), &fakeTransport{id: "a"})

	done := make(chan *jsonrpc.Response, 1)
	go func() {
		done <- serve(h, schema.MethodToolsCall, `{"name":"demo","arguments":{}}`)
	}()
	<-tools.started

	h.OnNotification(context.Background(),
		&jsonrpc.Notification{Method: schema.MethodNotificationCancel, Params: json.RawMessage(`{"requestId":1}`)})

	<-done
	assert.ErrorIs(t, tools.ctxErr, context.Canceled)
}

func TestCancelDoesNotCrossSessions(t *testing.T) {
	srv, tools := newBlockingServer(t)
	a := srv.NewHandler(context.Background(), &fakeTransport{id: "a"})
	b := srv.NewHandler(context.Background(), &fakeTransport{id: "b"})

	done := make(chan *jsonrpc.Response, 1)
	go func() {
		done <- serve(a, schema.MethodToolsCall, `{"name":"demo","arguments":{}}`)
	}()
	<-tools.started

	// same request id, different session: a's in-flight call must survive
	b.OnNotification(context.Background(),
		&jsonrpc.Notification{Method: schema.MethodNotificationCancel, Params: json.RawMessage(`{"requestId":1}`)})
	close(tools.release)

	response := <-done
	assert.Nil(t, response.Error)
	assert.NoError(t, tools.ctxErr)
}

func TestHandlerInitializedNotification(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.newHandler(context.Background(), &fakeTransport{id: "s1"})

	h.OnNotification(context.Background(), &jsonrpc.Notification{Method: schema.MethodNotificationInitialized})
	assert.True(t, h.Initialized)
}

func TestServerRequiresToolset(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
}
