package streamable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"

	"github.com/gqlmcp/graphql-mcp/server/transport"
)

// echoHandler answers every request with its method name so a test can tell
// which session served it.
type echoHandler struct {
	sessionID     string
	notifications int32
}

func (h *echoHandler) Serve(_ context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Result, _ = json.Marshal(map[string]string{"method": request.Method, "session": h.sessionID})
}

func (h *echoHandler) OnNotification(context.Context, *jsonrpc.Notification) {
	atomic.AddInt32(&h.notifications, 1)
}

func newEchoHandler() (*Handler, *sync.Map) {
	handlers := &sync.Map{}
	h := New(func(_ context.Context, tr transport.Transport) transport.Handler {
		handler := &echoHandler{sessionID: tr.SessionID()}
		handlers.Store(tr.SessionID(), handler)
		return handler
	})
	return h, handlers
}

func post(h *Handler, sessionID, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	if sessionID != "" {
		request.Header.Set(SessionHeader, sessionID)
	}
	recorder := httptest.NewRecorder()
	h.ServeHTTP(recorder, request)
	return recorder
}

const initializeFrame = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`

func TestHandshakeMintsSession(t *testing.T) {
	h, _ := newEchoHandler()

	recorder := post(h, "", initializeFrame)
	assert.Equal(t, http.StatusOK, recorder.Code)
	sessionID := recorder.Header().Get(SessionHeader)
	require.NotEmpty(t, sessionID)
	assert.Contains(t, recorder.Body.String(), `"initialize"`)
	assert.Equal(t, 1, h.Sessions())

	// the minted id is accepted on the next request
	recorder = post(h, sessionID, `{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, sessionID, recorder.Header().Get(SessionHeader))
	assert.Contains(t, recorder.Body.String(), `"ping"`)
}

func TestConcurrentHandshakesAreIsolated(t *testing.T) {
	h, _ := newEchoHandler()

	ids := make([]string, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder := post(h, "", initializeFrame)
			ids[i] = recorder.Header().Get(SessionHeader)
		}()
	}
	wg.Wait()

	require.NotEmpty(t, ids[0])
	require.NotEmpty(t, ids[1])
	assert.NotEqual(t, ids[0], ids[1])
	assert.Equal(t, 2, h.Sessions())

	// each session answers with its own identity
	first := post(h, ids[0], `{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	assert.Contains(t, first.Body.String(), ids[0])
	second := post(h, ids[1], `{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	assert.Contains(t, second.Body.String(), ids[1])
}

func TestNonInitializeWithoutSessionRejected(t *testing.T) {
	h, _ := newEchoHandler()
	recorder := post(h, "", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, 0, h.Sessions())
}

func TestUnknownSessionRejected(t *testing.T) {
	h, _ := newEchoHandler()
	recorder := post(h, "missing", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "unknown session")
}

func TestMalformedBodyRejected(t *testing.T) {
	h, _ := newEchoHandler()
	recorder := post(h, "", `{`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestNotificationAccepted(t *testing.T) {
	h, handlers := newEchoHandler()
	sessionID := post(h, "", initializeFrame).Header().Get(SessionHeader)

	recorder := post(h, sessionID, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Equal(t, http.StatusAccepted, recorder.Code)

	value, ok := handlers.Load(sessionID)
	require.True(t, ok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&value.(*echoHandler).notifications))
}

func TestDeleteClosesSession(t *testing.T) {
	h, _ := newEchoHandler()
	sessionID := post(h, "", initializeFrame).Header().Get(SessionHeader)

	request := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	request.Header.Set(SessionHeader, sessionID)
	recorder := httptest.NewRecorder()
	h.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, 0, h.Sessions())

	// the id is rejected once the session is gone
	recorder = post(h, sessionID, `{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestStreamDeliversNotifications(t *testing.T) {
	h, _ := newEchoHandler()
	live := httptest.NewServer(h)
	defer live.Close()

	response, err := http.Post(live.URL+"/mcp", "application/json", strings.NewReader(initializeFrame))
	require.NoError(t, err)
	response.Body.Close()
	sessionID := response.Header.Get(SessionHeader)
	require.NotEmpty(t, sessionID)

	sess, ok := h.sessions.Lookup(sessionID)
	require.True(t, ok)
	require.NoError(t, sess.Notify(context.Background(), &jsonrpc.Notification{Method: "notifications/message"}))

	request, err := http.NewRequest(http.MethodGet, live.URL+"/mcp", nil)
	require.NoError(t, err)
	request.Header.Set(SessionHeader, sessionID)
	stream, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	defer stream.Body.Close()

	buffer := make([]byte, 512)
	n, err := stream.Body.Read(buffer)
	require.NoError(t, err)
	frame := string(buffer[:n])
	assert.Contains(t, frame, "event: message")
	assert.Contains(t, frame, "notifications/message")
}
