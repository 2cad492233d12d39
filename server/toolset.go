package server

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/logger"
	"github.com/viant/mcp-protocol/schema"

	"github.com/gqlmcp/graphql-mcp/server/transport"
)

// Toolset is the set of tools one session exposes.
type Toolset interface {
	List(ctx context.Context) []schema.Tool
	Call(ctx context.Context, request *schema.CallToolRequest) (*schema.CallToolResult, *jsonrpc.Error)
}

// NewToolset builds the toolset bound 1:1 to a new session.
type NewToolset func(ctx context.Context, notifier transport.Notifier, logger logger.Logger) (Toolset, error)
