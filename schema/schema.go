package schema

import (
	"fmt"
	"reflect"
	"time"

	"github.com/viant/mcp-protocol/schema"
	"github.com/viant/tagly/format"
)

// ToolInput builds a tool input schema from a struct type: exported fields
// become properties, non-pointer fields without omitempty become required.
func ToolInput(v any) (schema.ToolInputSchema, error) {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return schema.ToolInputSchema{}, fmt.Errorf("expected a struct type, got %s", t.Kind())
	}
	properties, required := structToProperties(t)
	return schema.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}, nil
}

// MustToolInput is ToolInput for statically known shapes.
func MustToolInput(v any) schema.ToolInputSchema {
	ret, err := ToolInput(v)
	if err != nil {
		panic(err)
	}
	return ret
}

// schemaForTypeInternal returns a JSON schema representation for a given
// reflect.Type. The inSlice flag is used to determine if we are processing an
// element inside a slice.
func schemaForTypeInternal(t reflect.Type, inSlice bool) map[string]interface{} {
	node := make(map[string]interface{})

	// Special handling for time.Time: treat as ISO 8601 string.
	if t == reflect.TypeOf(time.Time{}) {
		node["type"] = "string"
		node["format"] = "date-time"
		return node
	}

	if t.Kind() == reflect.Ptr {
		// Unwrap pointer; mark as nullable unless we are processing a slice
		// element.
		node = schemaForTypeInternal(t.Elem(), inSlice)
		if !inSlice {
			node["nullable"] = true
		}
		return node
	}

	switch t.Kind() {
	case reflect.Bool:
		node["type"] = "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		node["type"] = "integer"
	case reflect.Float32, reflect.Float64:
		node["type"] = "number"
	case reflect.String:
		node["type"] = "string"
	case reflect.Slice, reflect.Array:
		node["type"] = "array"
		node["items"] = schemaForTypeInternal(t.Elem(), true)
	case reflect.Map:
		node["type"] = "object"
		node["additionalProperties"] = schemaForTypeInternal(t.Elem(), false)
	case reflect.Struct:
		node["type"] = "object"
		properties, required := structToProperties(t)
		node["properties"] = properties
		if len(required) > 0 {
			node["required"] = required
		}
	default:
		// Fallback to string type.
		node["type"] = "string"
	}
	return node
}

func schemaForType(t reflect.Type) map[string]interface{} {
	return schemaForTypeInternal(t, false)
}

// structToProperties converts a struct type into input schema properties and
// required fields.
func structToProperties(t reflect.Type) (schema.ToolInputSchemaProperties, []string) {
	properties := make(schema.ToolInputSchemaProperties)
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag, _ := format.Parse(field.Tag, "json", "format")
		if tag == nil {
			tag = &format.Tag{}
		}
		if tag.Ignore {
			continue
		}

		fieldName := field.Name
		if tag.Name != "" {
			fieldName = tag.Name
		}

		fieldSchema := schemaForType(field.Type)
		if tag.DateFormat != "" {
			fieldSchema["format"] = tag.DateFormat
		}
		if description := field.Tag.Get("description"); description != "" {
			fieldSchema["description"] = description
		}
		properties[fieldName] = fieldSchema
		if field.Type.Kind() != reflect.Ptr && !tag.Omitempty {
			required = append(required, fieldName)
		}
	}

	return properties, required
}
