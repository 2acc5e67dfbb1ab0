package jsonschema

import (
	"encoding/json"
	"strings"
	"testing"
)

type searchInput struct {
	Query string `json:"query" jsonschema:"description=Free-text search query,required"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum results,default=10"`
}

type directionInput struct {
	NodeID    string `json:"node_id" jsonschema:"required"`
	Direction string `json:"direction" jsonschema:"enum=incoming,enum=outgoing,required"`
}

type nestedInput struct {
	IDs    []string `json:"ids" jsonschema:"description=Node identifiers,required"`
	Hops   int      `json:"hops,omitempty"`
	hidden string   //nolint:unused // exercises the unexported-field skip
}

// TestGenerateJSONSchema_Basic verifies type mapping, descriptions, defaults
// and required collection for a flat struct.
func TestGenerateJSONSchema_Basic(t *testing.T) {
	schema := GenerateJSONSchema[searchInput]()

	if schema.Type != "object" {
		t.Fatalf("expected object schema, got %q", schema.Type)
	}

	query, ok := schema.Properties["query"]
	if !ok {
		t.Fatal("expected query property")
	}
	if query.Type != "string" {
		t.Errorf("expected string type for query, got %q", query.Type)
	}
	if query.Description != "Free-text search query" {
		t.Errorf("unexpected query description: %q", query.Description)
	}

	limit, ok := schema.Properties["limit"]
	if !ok {
		t.Fatal("expected limit property")
	}
	if limit.Type != "integer" {
		t.Errorf("expected integer type for limit, got %q", limit.Type)
	}
	if limit.Default != int64(10) {
		t.Errorf("expected default 10, got %v", limit.Default)
	}

	if len(schema.Required) != 1 || schema.Required[0] != "query" {
		t.Errorf("expected required=[query], got %v", schema.Required)
	}
}

// TestGenerateJSONSchema_Enum verifies repeated enum directives accumulate in order.
func TestGenerateJSONSchema_Enum(t *testing.T) {
	schema := GenerateJSONSchema[directionInput]()

	direction := schema.Properties["direction"]
	if direction == nil {
		t.Fatal("expected direction property")
	}
	if len(direction.Enum) != 2 {
		t.Fatalf("expected 2 enum values, got %d", len(direction.Enum))
	}
	if direction.Enum[0] != "incoming" || direction.Enum[1] != "outgoing" {
		t.Errorf("unexpected enum values: %v", direction.Enum)
	}
}

// TestGenerateJSONSchema_ArraysAndUnexported verifies slice mapping and that
// unexported fields are skipped.
func TestGenerateJSONSchema_ArraysAndUnexported(t *testing.T) {
	schema := GenerateJSONSchema[nestedInput]()

	ids := schema.Properties["ids"]
	if ids == nil {
		t.Fatal("expected ids property")
	}
	if ids.Type != "array" {
		t.Errorf("expected array type, got %q", ids.Type)
	}
	if ids.Items == nil || ids.Items.Type != "string" {
		t.Errorf("expected string items, got %+v", ids.Items)
	}

	if _, ok := schema.Properties["hidden"]; ok {
		t.Error("unexported field must not appear in schema")
	}
}

// TestSchema_MarshalOmitsEmpty verifies that empty optional schema fields do
// not leak into the serialized tool definition sent to the provider.
func TestSchema_MarshalOmitsEmpty(t *testing.T) {
	schema := GenerateJSONSchema[nestedInput]()

	encoded, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	for _, forbidden := range []string{"enum", "default"} {
		if strings.Contains(string(encoded), forbidden) {
			t.Errorf("expected %q to be omitted, got %s", forbidden, encoded)
		}
	}
}
