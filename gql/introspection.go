package gql

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const introspectionQuery = `query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      kind name description
      fields(includeDeprecated: true) {
        name description
        args { ...InputValue }
        type { ...TypeRef }
      }
      inputFields { ...InputValue }
      interfaces { ...TypeRef }
      enumValues(includeDeprecated: true) { name description }
      possibleTypes { ...TypeRef }
    }
  }
}
fragment InputValue on __InputValue { name description type { ...TypeRef } defaultValue }
fragment TypeRef on __Type {
  kind name
  ofType { kind name ofType { kind name ofType { kind name ofType { kind name ofType { kind name ofType { kind name ofType { kind name } } } } } } }
}`

// Introspect runs the standard introspection query against the endpoint and
// renders the result as SDL text.
func (e *Executor) Introspect(ctx context.Context) (string, error) {
	result, err := e.Execute(ctx, introspectionQuery, nil)
	if err != nil {
		return "", fmt.Errorf("introspection: %w", err)
	}
	if result.HasErrors() {
		return "", fmt.Errorf("introspection returned errors: %s", result.ErrorsText())
	}
	var payload struct {
		Schema introspectionSchema `json:"__schema"`
	}
	if err := json.Unmarshal(result.Data, &payload); err != nil {
		return "", fmt.Errorf("decode introspection result: %w", err)
	}
	sdl := renderSDL(&payload.Schema)
	if strings.TrimSpace(sdl) == "" {
		return "", fmt.Errorf("introspection produced an empty schema")
	}
	return sdl, nil
}

type introspectionSchema struct {
	QueryType        *typeRef   `json:"queryType"`
	MutationType     *typeRef   `json:"mutationType"`
	SubscriptionType *typeRef   `json:"subscriptionType"`
	Types            []fullType `json:"types"`
}

type typeRef struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	OfType *typeRef `json:"ofType"`
}

type fullType struct {
	Kind          string       `json:"kind"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Fields        []fieldDef   `json:"fields"`
	InputFields   []inputValue `json:"inputFields"`
	Interfaces    []typeRef    `json:"interfaces"`
	EnumValues    []enumValue  `json:"enumValues"`
	PossibleTypes []typeRef    `json:"possibleTypes"`
}

type fieldDef struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Args        []inputValue `json:"args"`
	Type        typeRef      `json:"type"`
}

type inputValue struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Type         typeRef `json:"type"`
	DefaultValue *string `json:"defaultValue"`
}

type enumValue struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var builtinScalars = map[string]bool{
	"String": true, "Int": true, "Float": true, "Boolean": true, "ID": true,
}

// renderSDL prints the introspected schema as SDL, skipping introspection
// meta types and built-in scalars. Types are sorted by name so two runs over
// the same schema produce identical text.
func renderSDL(schema *introspectionSchema) string {
	var builder strings.Builder

	if needsSchemaBlock(schema) {
		builder.WriteString("schema {\n")
		if schema.QueryType != nil && schema.QueryType.Name != "" {
			fmt.Fprintf(&builder, "  query: %s\n", schema.QueryType.Name)
		}
		if schema.MutationType != nil && schema.MutationType.Name != "" {
			fmt.Fprintf(&builder, "  mutation: %s\n", schema.MutationType.Name)
		}
		if schema.SubscriptionType != nil && schema.SubscriptionType.Name != "" {
			fmt.Fprintf(&builder, "  subscription: %s\n", schema.SubscriptionType.Name)
		}
		builder.WriteString("}\n\n")
	}

	types := make([]fullType, 0, len(schema.Types))
	for _, t := range schema.Types {
		if strings.HasPrefix(t.Name, "__") || builtinScalars[t.Name] {
			continue
		}
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })

	for _, t := range types {
		writeDescription(&builder, t.Description, "")
		switch t.Kind {
		case "OBJECT":
			fmt.Fprintf(&builder, "type %s%s {\n", t.Name, implementsClause(t.Interfaces))
			writeFields(&builder, t.Fields)
			builder.WriteString("}\n\n")
		case "INTERFACE":
			fmt.Fprintf(&builder, "interface %s {\n", t.Name)
			writeFields(&builder, t.Fields)
			builder.WriteString("}\n\n")
		case "INPUT_OBJECT":
			fmt.Fprintf(&builder, "input %s {\n", t.Name)
			for _, input := range t.InputFields {
				writeDescription(&builder, input.Description, "  ")
				fmt.Fprintf(&builder, "  %s: %s%s\n", input.Name, renderTypeRef(&input.Type), defaultClause(input.DefaultValue))
			}
			builder.WriteString("}\n\n")
		case "ENUM":
			fmt.Fprintf(&builder, "enum %s {\n", t.Name)
			for _, value := range t.EnumValues {
				writeDescription(&builder, value.Description, "  ")
				fmt.Fprintf(&builder, "  %s\n", value.Name)
			}
			builder.WriteString("}\n\n")
		case "UNION":
			members := make([]string, 0, len(t.PossibleTypes))
			for _, member := range t.PossibleTypes {
				members = append(members, member.Name)
			}
			fmt.Fprintf(&builder, "union %s = %s\n\n", t.Name, strings.Join(members, " | "))
		case "SCALAR":
			fmt.Fprintf(&builder, "scalar %s\n\n", t.Name)
		}
	}
	return strings.TrimRight(builder.String(), "\n") + "\n"
}

func needsSchemaBlock(schema *introspectionSchema) bool {
	if schema.QueryType != nil && schema.QueryType.Name != "" && schema.QueryType.Name != "Query" {
		return true
	}
	if schema.MutationType != nil && schema.MutationType.Name != "" && schema.MutationType.Name != "Mutation" {
		return true
	}
	if schema.SubscriptionType != nil && schema.SubscriptionType.Name != "" && schema.SubscriptionType.Name != "Subscription" {
		return true
	}
	return false
}

func writeFields(builder *strings.Builder, fields []fieldDef) {
	for _, field := range fields {
		writeDescription(builder, field.Description, "  ")
		fmt.Fprintf(builder, "  %s%s: %s\n", field.Name, argsClause(field.Args), renderTypeRef(&field.Type))
	}
}

func argsClause(args []inputValue) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, fmt.Sprintf("%s: %s%s", arg.Name, renderTypeRef(&arg.Type), defaultClause(arg.DefaultValue)))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func implementsClause(interfaces []typeRef) string {
	if len(interfaces) == 0 {
		return ""
	}
	names := make([]string, 0, len(interfaces))
	for _, iface := range interfaces {
		names = append(names, iface.Name)
	}
	return " implements " + strings.Join(names, " & ")
}

func defaultClause(value *string) string {
	if value == nil {
		return ""
	}
	return " = " + *value
}

func renderTypeRef(ref *typeRef) string {
	if ref == nil {
		return ""
	}
	switch ref.Kind {
	case "NON_NULL":
		return renderTypeRef(ref.OfType) + "!"
	case "LIST":
		return "[" + renderTypeRef(ref.OfType) + "]"
	default:
		return ref.Name
	}
}

func writeDescription(builder *strings.Builder, description, indent string) {
	description = strings.TrimSpace(description)
	if description == "" {
		return
	}
	fmt.Fprintf(builder, "%s\"\"\"%s\"\"\"\n", indent, strings.ReplaceAll(description, `"""`, `\"\"\"`))
}
