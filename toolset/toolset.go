// Package toolset binds the retrieval pipeline and the GraphQL proxy to the
// tools exposed to each session.
package toolset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/logger"
	"github.com/viant/mcp-protocol/schema"
	"go.uber.org/zap"

	"github.com/gqlmcp/graphql-mcp/gql"
	"github.com/gqlmcp/graphql-mcp/retrieval"
	toolschema "github.com/gqlmcp/graphql-mcp/schema"
	"github.com/gqlmcp/graphql-mcp/server"
	"github.com/gqlmcp/graphql-mcp/server/transport"
)

// Tool names.
const (
	SearchSchemaTool = "search-schema"
	QueryGraphQLTool = "query-graphql"
)

const (
	// chunkDelimiter separates schema fragments in a search result.
	chunkDelimiter = "\n\n---\n\n"
	nothingFound   = "nothing found"
)

// SearchSchemaArgs are the search-schema tool arguments.
type SearchSchemaArgs struct {
	Question string `json:"question" description:"Natural-language question about the GraphQL schema"`
	K        *int   `json:"k,omitempty" description:"How many schema fragments to return, default 5"`
}

// QueryGraphQLArgs are the query-graphql tool arguments.
type QueryGraphQLArgs struct {
	Query     string  `json:"query" description:"GraphQL document to execute"`
	Variables *string `json:"variables,omitempty" description:"JSON-encoded variables object"`
}

// Toolset holds the collaborators shared by every session.
type Toolset struct {
	pipeline       *retrieval.Pipeline
	executor       *gql.Executor
	allowMutations bool
	logger         *zap.Logger
}

// Option configures the toolset.
type Option func(*Toolset)

// WithMutations enables the query-graphql tool to execute mutations.
func WithMutations(enabled bool) Option {
	return func(t *Toolset) {
		t.allowMutations = enabled
	}
}

// WithLogger sets the process logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Toolset) {
		t.logger = logger
	}
}

// New creates a toolset over the retrieval pipeline and the GraphQL
// executor. Mutations are rejected unless enabled via WithMutations.
func New(pipeline *retrieval.Pipeline, executor *gql.Executor, options ...Option) *Toolset {
	t := &Toolset{
		pipeline: pipeline,
		executor: executor,
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// Factory returns the per-session toolset constructor.
func (t *Toolset) Factory() server.NewToolset {
	return func(_ context.Context, _ transport.Notifier, peer logger.Logger) (server.Toolset, error) {
		return &sessionToolset{Toolset: t, peer: peer}, nil
	}
}

// sessionToolset carries the per-session peer logger over the shared
// collaborators.
type sessionToolset struct {
	*Toolset
	peer logger.Logger
}

func (t *sessionToolset) List(_ context.Context) []schema.Tool {
	searchDescription := "Search the GraphQL schema for type and field definitions relevant to a natural-language question."
	queryDescription := "Execute a GraphQL query against the configured endpoint and return the response JSON."
	return []schema.Tool{
		{
			Name:        SearchSchemaTool,
			Description: &searchDescription,
			InputSchema: toolschema.MustToolInput(&SearchSchemaArgs{}),
		},
		{
			Name:        QueryGraphQLTool,
			Description: &queryDescription,
			InputSchema: toolschema.MustToolInput(&QueryGraphQLArgs{}),
		},
	}
}

func (t *sessionToolset) Call(ctx context.Context, request *schema.CallToolRequest) (*schema.CallToolResult, *jsonrpc.Error) {
	data, err := json.Marshal(request.Params.Arguments)
	if err != nil {
		return nil, jsonrpc.NewInternalError(fmt.Sprintf("failed to marshal arguments: %v", err), nil)
	}
	switch request.Params.Name {
	case SearchSchemaTool:
		var args SearchSchemaArgs
		if err := json.Unmarshal(data, &args); err != nil {
			return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err), nil)
		}
		return t.searchSchema(ctx, &args), nil
	case QueryGraphQLTool:
		var args QueryGraphQLArgs
		if err := json.Unmarshal(data, &args); err != nil {
			return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err), nil)
		}
		return t.queryGraphQL(ctx, &args), nil
	default:
		return nil, toolschema.NewUnknownTool(request.Params.Name)
	}
}

func (t *sessionToolset) searchSchema(ctx context.Context, args *SearchSchemaArgs) *schema.CallToolResult {
	if strings.TrimSpace(args.Question) == "" {
		return errorResult("question must not be empty")
	}
	k := 0
	if args.K != nil {
		k = *args.K
	}
	hits, err := t.pipeline.Search(ctx, args.Question, k)
	if err != nil {
		t.logger.Warn("schema search failed", zap.Error(err))
		_ = t.peer.Warning(ctx, fmt.Sprintf("schema search failed: %v", err))
		return errorResult(fmt.Sprintf("schema search failed: %v", err))
	}
	_ = t.peer.Debug(ctx, fmt.Sprintf("search-schema: %d hits for %q", len(hits), args.Question))
	if len(hits) == 0 {
		return textResult(nothingFound)
	}
	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		texts = append(texts, hit.Text)
	}
	return textResult(strings.Join(texts, chunkDelimiter))
}

func (t *sessionToolset) queryGraphQL(ctx context.Context, args *QueryGraphQLArgs) *schema.CallToolResult {
	kind, err := gql.ClassifyOperation(args.Query)
	if err != nil {
		return errorResult(err.Error())
	}
	if kind == gql.OperationMutation && !t.allowMutations {
		return errorResult("mutations are not allowed on this server")
	}
	_ = t.peer.Debug(ctx, fmt.Sprintf("query-graphql: executing %s operation", kind))
	var variables map[string]interface{}
	if args.Variables != nil && strings.TrimSpace(*args.Variables) != "" {
		if err := json.Unmarshal([]byte(*args.Variables), &variables); err != nil {
			return errorResult(fmt.Sprintf("invalid variables JSON: %v", err))
		}
	}
	result, err := t.executor.Execute(ctx, args.Query, variables)
	if err != nil {
		t.logger.Warn("graphql request failed", zap.Error(err))
		switch {
		case errors.Is(err, gql.ErrUnreachable):
			return errorResult(fmt.Sprintf("endpoint unreachable: %v", err))
		case errors.Is(err, gql.ErrBadStatus):
			return errorResult(fmt.Sprintf("endpoint error status: %v", err))
		case errors.Is(err, gql.ErrInvalidBody):
			return errorResult(fmt.Sprintf("endpoint returned invalid body: %v", err))
		default:
			return errorResult(fmt.Sprintf("query failed: %v", err))
		}
	}
	if result.HasErrors() {
		return errorResult(fmt.Sprintf("GraphQL errors: %s", result.ErrorsText()))
	}
	return textResult(result.Body())
}

func textResult(text string) *schema.CallToolResult {
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{
			schema.TextContent{Type: "text", Text: text},
		},
	}
}

func errorResult(text string) *schema.CallToolResult {
	isError := true
	ret := textResult(text)
	ret.IsError = &isError
	return ret
}
