package adaplanner

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"codescout/providers/ai"
	"codescout/providers/tool"
)

type mockProvider struct {
	responses []*ai.ChatResponse
	requests  []ai.ChatRequest
}

func (m *mockProvider) SendMessage(_ context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	m.requests = append(m.requests, request)
	if len(m.responses) == 0 {
		return nil, fmt.Errorf("mock provider: script exhausted after %d calls", len(m.requests))
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next, nil
}

func (m *mockProvider) IsStopMessage(message *ai.ChatResponse) bool {
	return len(message.ToolCalls) == 0
}

func (m *mockProvider) WithAPIKey(string) ai.Provider           { return m }
func (m *mockProvider) WithBaseURL(string) ai.Provider          { return m }
func (m *mockProvider) WithHttpClient(*http.Client) ai.Provider { return m }

type statsTool struct{}

func (statsTool) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{Name: "get_graph_stats", Description: "summarises the code graph"}
}

func (statsTool) Call(context.Context, string) (string, error) {
	return "1200 nodes, 4800 edges", nil
}

func TestRun_SingleStepFinish(t *testing.T) {
	provider := &mockProvider{responses: []*ai.ChatResponse{
		{Content: "1. Search for the parser entry point"},
		{Content: "The entry point is Parse in parser.go."},
		{Content: "DECISION: FINISHED\nANSWER: Parsing starts at Parse in parser.go."},
	}}

	result, err := Run(context.Background(), provider, tool.NewCatalog(), "where does parsing start?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Answer != "Parsing starts at Parse in parser.go." {
		t.Errorf("expected the ANSWER suffix, got %q", result.Answer)
	}

	// The replanner review embeds the recorded step with its result.
	review := provider.requests[2].SystemPrompt
	if !strings.Contains(review, "Step 1: 1. Search for the parser entry point") {
		t.Errorf("replanner prompt missing step record: %q", review)
	}
	if !strings.Contains(review, "Result: The entry point is Parse in parser.go.") {
		t.Errorf("replanner prompt missing step result: %q", review)
	}
}

func TestRun_ModifyReplacesPlanAndRestarts(t *testing.T) {
	provider := &mockProvider{responses: []*ai.ChatResponse{
		{Content: "1. Guess blindly"},
		{Content: "that went nowhere"},
		{Content: "DECISION: MODIFY\nNEW_PLAN: 1. X\n2. Y"},
		{Content: "did X"},
		{Content: "DECISION: CONTINUE"},
		{Content: "did Y"},
		{Content: "DECISION: FINISHED\nANSWER: all done"},
	}}

	result, err := Run(context.Background(), provider, tool.NewCatalog(), "q")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Answer != "all done" {
		t.Errorf("unexpected answer: %q", result.Answer)
	}

	// After MODIFY the executor restarts at the first step of the new plan.
	afterModify := provider.requests[3].SystemPrompt
	if !strings.Contains(afterModify, "You are executing step 1 of") {
		t.Errorf("step cursor not reset after MODIFY: %q", afterModify)
	}
	if !strings.Contains(afterModify, "Current step to execute: 1. X") {
		t.Errorf("new plan not in effect: %q", afterModify)
	}

	// CONTINUE advances to the second step of the revised plan.
	afterContinue := provider.requests[5].SystemPrompt
	if !strings.Contains(afterContinue, "Current step to execute: 2. Y") {
		t.Errorf("cursor did not advance after CONTINUE: %q", afterContinue)
	}
}

func TestRun_UnparseableRevisionKeepsOldPlan(t *testing.T) {
	provider := &mockProvider{responses: []*ai.ChatResponse{
		{Content: "1. Check the config loader"},
		{Content: "saw nothing"},
		{Content: "DECISION: MODIFY\nNEW_PLAN: rethink everything"},
		{Content: "checked again"},
		{Content: "DECISION: FINISHED\nANSWER: the loader reads yaml"},
	}}

	result, err := Run(context.Background(), provider, tool.NewCatalog(), "q")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Answer != "the loader reads yaml" {
		t.Errorf("unexpected answer: %q", result.Answer)
	}

	// The markerless revision is discarded: the retry re-executes the
	// original step.
	retry := provider.requests[3].SystemPrompt
	if !strings.Contains(retry, "Current step to execute: 1. Check the config loader") {
		t.Errorf("old plan not retained: %q", retry)
	}
}

func TestRun_ToolRoundtripStaysInsideStep(t *testing.T) {
	provider := &mockProvider{responses: []*ai.ChatResponse{
		{Content: "1. Get graph stats"},
		{ToolCalls: []ai.ToolCall{{
			ID:       "call_1",
			Type:     "function",
			Function: ai.ToolCallFunction{Name: "get_graph_stats", Arguments: `{}`},
		}}},
		{Content: "The graph has 1200 nodes."},
		{Content: "DECISION: FINISHED\nANSWER: 1200 nodes."},
	}}
	catalog := tool.NewCatalogWithTools(statsTool{})

	result, err := Run(context.Background(), provider, catalog, "how big is the graph?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Answer != "1200 nodes." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}

	// The first executor turn runs on a fresh scratch conversation.
	firstExecutor := provider.requests[1]
	if len(firstExecutor.Messages) != 1 || firstExecutor.Messages[0].Content != "Execute this step: 1. Get graph stats" {
		t.Errorf("unexpected scratch seed: %+v", firstExecutor.Messages)
	}

	// The post-tool executor turn sees the tool result in its scratch
	// conversation.
	secondExecutor := provider.requests[2]
	var sawToolResult bool
	for _, message := range secondExecutor.Messages {
		if message.Role == ai.RoleTool && strings.Contains(message.Content, "1200 nodes") {
			sawToolResult = true
		}
	}
	if !sawToolResult {
		t.Errorf("tool result missing from scratch conversation: %+v", secondExecutor.Messages)
	}
}

func TestRun_ExhaustedPlanWithoutFinishEndsUnanswered(t *testing.T) {
	provider := &mockProvider{responses: []*ai.ChatResponse{
		{Content: "1. Look around"},
		{Content: "looked"},
		{Content: "DECISION: CONTINUE"},
	}}

	result, err := Run(context.Background(), provider, tool.NewCatalog(), "q")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Answered {
		t.Errorf("expected no answer, got %q", result.Answer)
	}
}
