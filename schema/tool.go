package schema

import (
	"encoding/json"

	"github.com/viant/mcp-protocol/schema"
)

// NewCallToolRequestParams builds tools/call parameters from a typed
// argument struct.
func NewCallToolRequestParams[T any](name string, cmd *T) (*schema.CallToolRequestParams, error) {
	results := &schema.CallToolRequestParams{Name: name, Arguments: map[string]interface{}{}}
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(data, &results.Arguments)
	if err != nil {
		return nil, err
	}
	return results, nil
}
