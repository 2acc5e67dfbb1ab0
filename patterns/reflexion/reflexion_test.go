package reflexion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"codescout/patterns"
	"codescout/patterns/graph"
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

type depsTool struct{}

func (depsTool) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{Name: "get_dependencies", Description: "lists graph neighbours"}
}

func (depsTool) Call(context.Context, string) (string, error) {
	return "Scheduler -> Queue, Worker", nil
}

func TestRun_BadVerdictLoopsBackWithFeedback(t *testing.T) {
	provider := &mockProvider{responses: []*ai.ChatResponse{
		{Content: "The scheduler runs jobs."},
		{Content: "VERDICT: BAD\nFEEDBACK: say how jobs are ordered"},
		{Content: "The scheduler runs jobs in priority order."},
		{Content: "VERDICT: GOOD"},
	}}

	result, err := Run(context.Background(), provider, tool.NewCatalog(), "what does the scheduler do?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Answer != "The scheduler runs jobs in priority order." {
		t.Errorf("expected the refined draft, got %q", result.Answer)
	}

	// The second actor turn must carry the critic's feedback.
	secondActor := provider.requests[2]
	if !strings.Contains(secondActor.SystemPrompt, "say how jobs are ordered") {
		t.Errorf("feedback not fed back to actor: %q", secondActor.SystemPrompt)
	}
	if !strings.Contains(secondActor.SystemPrompt, "PREVIOUS ATTEMPT WAS INSUFFICIENT") {
		t.Error("retry framing missing from actor prompt")
	}

	// Critique turns embed the draft and run without tools.
	critiqueRequest := provider.requests[1]
	if !strings.Contains(critiqueRequest.SystemPrompt, "The scheduler runs jobs.") {
		t.Error("critique prompt missing draft answer")
	}
	if len(critiqueRequest.Tools) != 0 {
		t.Error("critique must not receive tools")
	}
}

func TestRun_IterationCapFinalizesLatestDraft(t *testing.T) {
	provider := &mockProvider{responses: []*ai.ChatResponse{
		{Content: "draft one"},
		{Content: "VERDICT: BAD\nFEEDBACK: thin"},
		{Content: "draft two"},
		{Content: "VERDICT: BAD\nFEEDBACK: still thin"},
	}}

	result, err := Run(context.Background(), provider, tool.NewCatalog(), "q",
		patterns.WithMaxIterations(2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Answer != "draft two" {
		t.Errorf("expected the latest draft at the cap, got %q", result.Answer)
	}
	if len(provider.requests) != 4 {
		t.Errorf("expected exactly 4 model calls, got %d", len(provider.requests))
	}
}

func TestRun_ToolRoundtripsDoNotCountAsIterations(t *testing.T) {
	provider := &mockProvider{responses: []*ai.ChatResponse{
		{ToolCalls: []ai.ToolCall{{
			ID:       "call_1",
			Type:     "function",
			Function: ai.ToolCallFunction{Name: "get_dependencies", Arguments: `{"node_id":"sched"}`},
		}}},
		{Content: "The scheduler feeds a queue consumed by workers."},
		{Content: "VERDICT: GOOD"},
	}}
	catalog := tool.NewCatalogWithTools(depsTool{})

	var critiqueVisits int
	hook := func(event graph.Event) {
		if event.Node == "critique" {
			critiqueVisits++
		}
	}

	result, err := Run(context.Background(), provider, catalog, "how is the scheduler wired?",
		patterns.WithMaxIterations(1), patterns.WithTraceHook(hook))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// One critique pass despite two actor turns: the tool roundtrip stays
	// inside the drafting loop.
	if critiqueVisits != 1 {
		t.Errorf("expected 1 critique pass, got %d", critiqueVisits)
	}
	if result.Answer != "The scheduler feeds a queue consumed by workers." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
}
