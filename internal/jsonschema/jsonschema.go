package jsonschema

import (
	"reflect"
	"strconv"
	"strings"
)

// Schema represents the structure of JSON Schema used for defining arguments and responses.
// It follows the JSON Schema standard, supporting various types, properties, and validation rules.
// This structure is typically used to define the expected format of arguments for tools
// and to validate that incoming data conforms to the expected structure.
type Schema struct {
	// Type specifies the data type (e.g., "object", "array", "string", "number")
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of the arguments, each with its own schema
	Properties map[string]*Schema `json:"properties,omitempty"`
	// For array types, defines the schema of items in the array
	Items *Schema `json:"items,omitempty"`
	// Enum contains the list of allowed values for the parameter
	Enum []any `json:"enum,omitempty"`
	// Default value for the parameter
	Default any `json:"default,omitempty"`
}

// GenerateJSONSchema derives a JSON schema from the Go type T via reflection.
// Struct fields are mapped through their json tags; the jsonschema tag refines
// the generated schema with descriptions, enums, defaults, and required markers:
//
//	type SearchInput struct {
//	    Query string `json:"query" jsonschema:"description=Free-text search query,required"`
//	    Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum results,default=10"`
//	}
func GenerateJSONSchema[T any]() *Schema {
	return generate(reflect.TypeOf((*T)(nil)).Elem())
}

func generate(t reflect.Type) *Schema {
	switch t.Kind() {
	case reflect.Ptr:
		return generate(t.Elem())

	case reflect.Struct:
		return generateStruct(t)

	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: generate(t.Elem())}

	case reflect.Map:
		return &Schema{Type: "object"}

	default:
		// Interfaces and anything else without a stable JSON shape.
		return &Schema{}
	}
}

func generateStruct(t reflect.Type) *Schema {
	schema := &Schema{
		Type:       "object",
		Properties: map[string]*Schema{},
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldName := field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			name, _, _ := strings.Cut(jsonTag, ",")
			if name == "-" {
				continue
			}
			if name != "" {
				fieldName = name
			}
		}

		fieldSchema := generate(field.Type)
		required := applyTag(field.Tag.Get("jsonschema"), fieldSchema)
		schema.Properties[fieldName] = fieldSchema

		if required {
			schema.Required = append(schema.Required, fieldName)
		}
	}

	return schema
}

// applyTag parses a jsonschema struct tag and applies its directives to the
// field schema. Supported directives: description=..., enum=... (repeatable),
// default=..., required. Reports whether the field was marked required.
func applyTag(tag string, schema *Schema) bool {
	if tag == "" {
		return false
	}

	required := false
	for _, directive := range splitDirectives(tag) {
		key, value, _ := strings.Cut(directive, "=")
		switch key {
		case "description":
			schema.Description = value
		case "enum":
			schema.Enum = append(schema.Enum, coerce(value, schema.Type))
		case "default":
			schema.Default = coerce(value, schema.Type)
		case "required":
			required = true
		}
	}
	return required
}

// splitDirectives splits a jsonschema tag on commas, except that a comma
// inside a description value (anything after "description=" up to the next
// recognized directive) is kept as part of the description.
func splitDirectives(tag string) []string {
	parts := strings.Split(tag, ",")
	directives := make([]string, 0, len(parts))

	for _, part := range parts {
		isDirective := part == "required" ||
			strings.HasPrefix(part, "description=") ||
			strings.HasPrefix(part, "enum=") ||
			strings.HasPrefix(part, "default=")

		if !isDirective && len(directives) > 0 && strings.HasPrefix(directives[len(directives)-1], "description=") {
			directives[len(directives)-1] += "," + part
			continue
		}
		directives = append(directives, part)
	}

	return directives
}

// coerce converts a tag value string into the Go value matching the schema type,
// so enums and defaults serialize with the right JSON type.
func coerce(value, schemaType string) any {
	switch schemaType {
	case "integer":
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	case "number":
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	case "boolean":
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return value
}
