package gql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyOperation(t *testing.T) {
	kind, err := ClassifyOperation("{ __typename }")
	require.NoError(t, err)
	assert.Equal(t, OperationQuery, kind)

	kind, err = ClassifyOperation("query Users { users { id } }")
	require.NoError(t, err)
	assert.Equal(t, OperationQuery, kind)

	kind, err = ClassifyOperation("mutation { deleteUser(id: 1) }")
	require.NoError(t, err)
	assert.Equal(t, OperationMutation, kind)

	_, err = ClassifyOperation("query { unbalanced")
	assert.Error(t, err)

	_, err = ClassifyOperation("fragment F on User { id }")
	assert.Error(t, err)
}

func TestExecutorExecute(t *testing.T) {
	var requests int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "{ __typename }", payload["query"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"__typename":"Query"}}`))
	}))
	defer upstream.Close()

	executor := NewExecutor(upstream.URL)
	result, err := executor.Execute(context.Background(), "{ __typename }", nil)
	require.NoError(t, err)
	assert.False(t, result.HasErrors())
	assert.Contains(t, result.Body(), "__typename")
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestExecutorForwardsVariablesAndHeaders(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		var payload struct {
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "alice", payload.Variables["name"])
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer upstream.Close()

	executor := NewExecutor(upstream.URL, WithHeaders(map[string]string{"Authorization": "Bearer token"}))
	_, err := executor.Execute(context.Background(), "query($name: String) { user(name: $name) { id } }",
		map[string]interface{}{"name": "alice"})
	require.NoError(t, err)
}

func TestExecutorGraphQLErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"field missing"},{"message":"bad cursor"}]}`))
	}))
	defer upstream.Close()

	executor := NewExecutor(upstream.URL)
	result, err := executor.Execute(context.Background(), "{ broken }", nil)
	require.NoError(t, err)
	assert.True(t, result.HasErrors())
	assert.Equal(t, "field missing; bad cursor", result.ErrorsText())
}

func TestExecutorBadStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	executor := NewExecutor(upstream.URL)
	_, err := executor.Execute(context.Background(), "{ __typename }", nil)
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestExecutorInvalidBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer upstream.Close()

	executor := NewExecutor(upstream.URL)
	_, err := executor.Execute(context.Background(), "{ __typename }", nil)
	assert.ErrorIs(t, err, ErrInvalidBody)
}

func TestExecutorUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	executor := NewExecutor(upstream.URL)
	_, err := executor.Execute(context.Background(), "{ __typename }", nil)
	assert.ErrorIs(t, err, ErrUnreachable)
}
