package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"codescout/internal/config"
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

func TestRun_UnknownStrategy(t *testing.T) {
	provider := &mockProvider{}
	a := New(provider, tool.NewCatalog(), config.Default())

	_, err := a.Run(context.Background(), "tree_of_thought", "q")
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
	if !strings.Contains(err.Error(), "react, plan_solve, reflexion, ada_planner, lats") {
		t.Errorf("error should list valid strategies: %v", err)
	}
	// Validation happens before any model call.
	if len(provider.requests) != 0 {
		t.Errorf("provider called %d times before validation", len(provider.requests))
	}
}

func TestRun_ReActHappyPath(t *testing.T) {
	provider := &mockProvider{responses: []*ai.ChatResponse{
		{Content: "The loader reads YAML."},
	}}
	a := New(provider, tool.NewCatalog(), config.Default())

	result, err := a.Run(context.Background(), StrategyReAct, "what does the loader do?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Answered || result.Answer != "The loader reads YAML." {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("run id not assigned")
	}
	if len(result.Trace) == 0 {
		t.Error("trace not collected")
	}
	// The configured model flows into the provider request.
	if provider.requests[0].Model != "gpt-4o-mini" {
		t.Errorf("configured model not applied: %q", provider.requests[0].Model)
	}
}

func TestRun_NoAnswerSentinel(t *testing.T) {
	// AdaPlanner exhausting its plan without a FINISHED decision produces
	// no answer.
	provider := &mockProvider{responses: []*ai.ChatResponse{
		{Content: "1. Look around"},
		{Content: "looked"},
		{Content: "DECISION: CONTINUE"},
	}}
	a := New(provider, tool.NewCatalog(), config.Default())

	result, err := a.Run(context.Background(), StrategyAdaPlanner, "q")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Answered {
		t.Error("expected unanswered run")
	}
	if result.Answer != NoAnswer {
		t.Errorf("expected sentinel, got %q", result.Answer)
	}
}

func TestRun_ConfigCapsApply(t *testing.T) {
	// Reflexion with max_iterations 1 finalizes after the first bad verdict.
	provider := &mockProvider{responses: []*ai.ChatResponse{
		{Content: "draft"},
		{Content: "VERDICT: BAD\nFEEDBACK: thin"},
	}}
	cfg := config.Default()
	cfg.Reflexion.MaxIterations = 1

	a := New(provider, tool.NewCatalog(), cfg)
	result, err := a.Run(context.Background(), StrategyReflexion, "q")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Answer != "draft" {
		t.Errorf("iteration cap from config not applied: %+v", result)
	}
}

func TestStrategies(t *testing.T) {
	listed := Strategies()
	if len(listed) != len(registry) {
		t.Fatalf("Strategies() lists %d, registry holds %d", len(listed), len(registry))
	}
	for _, strategy := range listed {
		if _, registered := registry[strategy]; !registered {
			t.Errorf("strategy %q listed but not registered", strategy)
		}
	}
}

func TestSession(t *testing.T) {
	session := NewSession()
	if session.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("session id not assigned")
	}

	session.Record(RunResult{Strategy: StrategyReAct, Answer: "first"})
	session.Record(RunResult{Strategy: StrategyLATS, Answer: "second"})

	history := session.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(history))
	}
	if history[0].Answer != "first" || history[1].Answer != "second" {
		t.Errorf("history out of order: %+v", history)
	}

	// History is a copy.
	history[0].Answer = "mutated"
	if session.History()[0].Answer != "first" {
		t.Error("History must return a copy")
	}

	resumed := ResumeSession(session.ID)
	if resumed.ID != session.ID {
		t.Error("resumed session must keep the continuity key")
	}
}
