package gql

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTypeRef(t *testing.T) {
	ref := &typeRef{Kind: "NON_NULL", OfType: &typeRef{Kind: "LIST", OfType: &typeRef{Kind: "NON_NULL", OfType: &typeRef{Kind: "OBJECT", Name: "User"}}}}
	assert.Equal(t, "[User!]!", renderTypeRef(ref))

	assert.Equal(t, "ID", renderTypeRef(&typeRef{Kind: "SCALAR", Name: "ID"}))
}

func TestRenderSDL(t *testing.T) {
	schema := &introspectionSchema{
		QueryType: &typeRef{Name: "Query"},
		Types: []fullType{
			{Kind: "OBJECT", Name: "__Schema"},
			{Kind: "SCALAR", Name: "String"},
			{Kind: "SCALAR", Name: "DateTime"},
			{
				Kind: "OBJECT", Name: "User", Description: "A registered user.",
				Fields: []fieldDef{
					{Name: "id", Type: typeRef{Kind: "NON_NULL", OfType: &typeRef{Kind: "SCALAR", Name: "ID"}}},
					{Name: "name", Type: typeRef{Kind: "SCALAR", Name: "String"}},
				},
			},
			{
				Kind: "OBJECT", Name: "Query",
				Fields: []fieldDef{
					{
						Name: "user",
						Args: []inputValue{{Name: "id", Type: typeRef{Kind: "NON_NULL", OfType: &typeRef{Kind: "SCALAR", Name: "ID"}}}},
						Type: typeRef{Kind: "OBJECT", Name: "User"},
					},
				},
			},
			{Kind: "ENUM", Name: "Role", EnumValues: []enumValue{{Name: "ADMIN"}, {Name: "MEMBER"}}},
		},
	}

	sdl := renderSDL(schema)
	// meta types and builtin scalars are dropped
	assert.NotContains(t, sdl, "__Schema")
	assert.NotContains(t, sdl, "scalar String")
	// default root names need no schema block
	assert.NotContains(t, sdl, "schema {")
	assert.Contains(t, sdl, "scalar DateTime")
	assert.Contains(t, sdl, "type User {")
	assert.Contains(t, sdl, "\"\"\"A registered user.\"\"\"")
	assert.Contains(t, sdl, "id: ID!")
	assert.Contains(t, sdl, "user(id: ID!): User")
	assert.Contains(t, sdl, "enum Role {")

	// deterministic output
	assert.Equal(t, sdl, renderSDL(schema))
}

func TestIntrospect(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"__schema":{
			"queryType":{"name":"Query"},
			"types":[
				{"kind":"OBJECT","name":"Query","fields":[{"name":"hello","type":{"kind":"SCALAR","name":"String"}}]},
				{"kind":"OBJECT","name":"User","fields":[{"name":"id","type":{"kind":"NON_NULL","ofType":{"kind":"SCALAR","name":"ID"}}}]}
			]}}}`))
	}))
	defer upstream.Close()

	executor := NewExecutor(upstream.URL)
	sdl, err := executor.Introspect(context.Background())
	require.NoError(t, err)
	assert.Contains(t, sdl, "type Query {")
	assert.Contains(t, sdl, "type User {")
	assert.Contains(t, sdl, "hello: String")
}

func TestIntrospectErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"introspection disabled"}]}`))
	}))
	defer upstream.Close()

	executor := NewExecutor(upstream.URL)
	_, err := executor.Introspect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "introspection disabled")
}
