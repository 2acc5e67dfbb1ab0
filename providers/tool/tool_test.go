package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type calcInput struct {
	Value int `json:"value"`
}

type calcOutput struct {
	Result int `json:"result"`
}

// TestNewTool_ToolInfo verifies name, description, and derived schema.
func TestNewTool_ToolInfo(t *testing.T) {
	handler := func(ctx context.Context, input calcInput) (calcOutput, error) {
		return calcOutput{Result: input.Value}, nil
	}

	calcTool := NewTool("calc", handler, WithDescription("doubles things"))

	info := calcTool.ToolInfo()
	if info.Name != "calc" {
		t.Errorf("expected name %q, got %q", "calc", info.Name)
	}
	if info.Description != "doubles things" {
		t.Errorf("expected description set, got %q", info.Description)
	}
	if info.Parameters == nil || info.Parameters.Properties["value"] == nil {
		t.Error("expected derived parameter schema with value property")
	}
}

// TestCall_Success verifies that Call parses JSON input, invokes the handler,
// and returns JSON-encoded output.
func TestCall_Success(t *testing.T) {
	handler := func(ctx context.Context, input calcInput) (calcOutput, error) {
		return calcOutput{Result: input.Value * 2}, nil
	}

	calcTool := NewTool("calc", handler)

	output, err := calcTool.Call(context.Background(), `{"value":21}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != `{"result":42}` {
		t.Errorf("unexpected output: %s", output)
	}
}

// TestCall_SloppyInput verifies that malformed model JSON is repaired before
// being handed to the handler.
func TestCall_SloppyInput(t *testing.T) {
	handler := func(ctx context.Context, input calcInput) (calcOutput, error) {
		return calcOutput{Result: input.Value}, nil
	}

	calcTool := NewTool("calc", handler)

	output, err := calcTool.Call(context.Background(), `{value: 7}`)
	if err != nil {
		t.Fatalf("expected repaired input to succeed, got: %v", err)
	}
	if !strings.Contains(output, "7") {
		t.Errorf("unexpected output: %s", output)
	}
}

// TestCall_StringOutputPassthrough verifies string outputs are not re-quoted.
func TestCall_StringOutputPassthrough(t *testing.T) {
	handler := func(ctx context.Context, input calcInput) (string, error) {
		return "plain text result", nil
	}

	textTool := NewTool("text", handler)

	output, err := textTool.Call(context.Background(), `{"value":1}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "plain text result" {
		t.Errorf("expected passthrough, got %q", output)
	}
}

// TestCall_HandlerError propagates handler failures to the caller.
func TestCall_HandlerError(t *testing.T) {
	wantErr := errors.New("backend unavailable")
	handler := func(ctx context.Context, input calcInput) (calcOutput, error) {
		return calcOutput{}, wantErr
	}

	calcTool := NewTool("calc", handler)

	if _, err := calcTool.Call(context.Background(), `{"value":1}`); !errors.Is(err, wantErr) {
		t.Errorf("expected handler error, got %v", err)
	}
}

// TestCatalog_RegistrationAndLookup covers add, case-insensitive get, and
// registration-ordered descriptions.
func TestCatalog_RegistrationAndLookup(t *testing.T) {
	handler := func(ctx context.Context, input calcInput) (calcOutput, error) {
		return calcOutput{}, nil
	}

	first := NewTool("Alpha", handler)
	second := NewTool("beta", handler)

	catalog := NewCatalogWithTools(first, second)

	if catalog.Size() != 2 {
		t.Fatalf("expected 2 tools, got %d", catalog.Size())
	}
	if !catalog.Has("ALPHA") {
		t.Error("expected case-insensitive lookup to find Alpha")
	}
	if _, found := catalog.Get("gamma"); found {
		t.Error("unexpected hit for unregistered tool")
	}

	descriptions := catalog.Descriptions()
	if len(descriptions) != 2 || descriptions[0].Name != "Alpha" || descriptions[1].Name != "beta" {
		t.Errorf("expected registration order [Alpha beta], got %v", descriptions)
	}
}
