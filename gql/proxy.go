package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Operation kinds reported by ClassifyOperation.
const (
	OperationQuery        = "query"
	OperationMutation     = "mutation"
	OperationSubscription = "subscription"
)

// Sentinel errors distinguishing the proxy failure modes: the request never
// reached the endpoint, the endpoint answered with a non-success status, or
// the endpoint answered with a body that is not JSON. GraphQL-level errors
// arrive as a successful Result with a populated Errors list.
var (
	ErrUnreachable = errors.New("graphql endpoint unreachable")
	ErrBadStatus   = errors.New("graphql endpoint returned non-success status")
	ErrInvalidBody = errors.New("graphql endpoint returned non-JSON body")
)

const maxResponseBytes = 10 << 20

// ClassifyOperation parses source and reports the kind of its first
// operation. A parse failure means the request must be rejected before any
// network call is made.
func ClassifyOperation(source string) (string, error) {
	doc, parseErr := parser.ParseQuery(&ast.Source{Input: source})
	if parseErr != nil {
		return "", fmt.Errorf("invalid GraphQL: %w", parseErr)
	}
	if len(doc.Operations) == 0 {
		return "", fmt.Errorf("invalid GraphQL: no operations found")
	}
	return string(doc.Operations[0].Operation), nil
}

// Result is a decoded GraphQL response body.
type Result struct {
	Data   json.RawMessage   `json:"data"`
	Errors []json.RawMessage `json:"errors"`

	raw []byte
}

// HasErrors reports whether the endpoint returned GraphQL-level errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Body returns the raw response JSON.
func (r *Result) Body() string {
	return string(r.raw)
}

// ErrorsText joins the messages of GraphQL-level errors.
func (r *Result) ErrorsText() string {
	var buf bytes.Buffer
	for i, raw := range r.Errors {
		if i > 0 {
			buf.WriteString("; ")
		}
		var item struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &item); err == nil && item.Message != "" {
			buf.WriteString(item.Message)
		} else {
			buf.Write(raw)
		}
	}
	return buf.String()
}

// Executor posts operations to one GraphQL endpoint.
type Executor struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithHeaders adds headers to every request, e.g. upstream authorization.
func WithHeaders(headers map[string]string) ExecutorOption {
	return func(e *Executor) {
		e.headers = headers
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) ExecutorOption {
	return func(e *Executor) {
		e.client = client
	}
}

// NewExecutor creates an executor for endpoint.
func NewExecutor(endpoint string, options ...ExecutorOption) *Executor {
	e := &Executor{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Execute posts query with optional variables and decodes the response.
// Callers must inspect Result.HasErrors for GraphQL-level failures.
func (e *Executor) Execute(ctx context.Context, query string, variables map[string]interface{}) (*Result, error) {
	payload := map[string]interface{}{"query": query}
	if variables != nil {
		payload["variables"] = variables
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	for name, value := range e.headers {
		request.Header.Set(name, value)
	}
	response, err := e.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer response.Body.Close()
	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: %s", ErrBadStatus, response.Status, truncate(data, 512))
	}
	result := &Result{raw: data}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBody, truncate(data, 512))
	}
	return result, nil
}

func truncate(data []byte, limit int) string {
	if len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "..."
}
