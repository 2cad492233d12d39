package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	Question string            `json:"question"`
	K        *int              `json:"k,omitempty"`
	Tags     []string          `json:"tags"`
	Labels   map[string]string `json:"labels,omitempty"`
}

func TestToolInput(t *testing.T) {
	input, err := ToolInput(&sampleArgs{})
	require.NoError(t, err)
	assert.Equal(t, "object", input.Type)
	assert.Equal(t, []string{"question", "tags"}, input.Required)

	question, ok := input.Properties["question"]
	require.True(t, ok)
	assert.Equal(t, "string", question["type"])

	k, ok := input.Properties["k"]
	require.True(t, ok)
	assert.Equal(t, "integer", k["type"])
	assert.Equal(t, true, k["nullable"])

	tags, ok := input.Properties["tags"]
	require.True(t, ok)
	assert.Equal(t, "array", tags["type"])
}

func TestToolInputRejectsNonStruct(t *testing.T) {
	_, err := ToolInput("not a struct")
	assert.Error(t, err)
}

func TestNewCallToolRequestParams(t *testing.T) {
	params, err := NewCallToolRequestParams("search-schema", &sampleArgs{Question: "users?", Tags: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "search-schema", params.Name)
	assert.Equal(t, "users?", params.Arguments["question"])
}
