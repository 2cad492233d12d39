package schema

import "github.com/viant/jsonrpc"

// NewUnknownTool creates an error for a tools/call naming no known tool.
func NewUnknownTool(toolName string) *jsonrpc.Error {
	return jsonrpc.NewError(jsonrpc.InvalidParams, "Unknown tool:"+toolName, nil)
}
