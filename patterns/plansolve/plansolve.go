// Package plansolve implements the Plan-and-Solve strategy: a planner turn
// produces a complete step list up front, then an executor loop works through
// it with tools until the model responds with content only.
package plansolve

import (
	"context"
	"fmt"
	"strings"

	"codescout/patterns"
	"codescout/patterns/graph"
	"codescout/providers/ai"
	"codescout/providers/tool"
)

// PlannerSystemPrompt asks for a numbered plan and forbids execution.
const PlannerSystemPrompt = `You are a planning assistant for code analysis tasks.
Given a user's question about code, create a detailed step-by-step plan to answer it.

Your plan should include steps like:
1. Search for specific symbols or concepts
2. Explore dependencies between components
3. Read relevant source code
4. Analyze relationships and patterns

Output your plan as a numbered list of concrete steps. Each step should be actionable.
Do NOT execute the plan - only create it.`

// ExecutorSystemPrompt embeds the plan; the %s verb receives the formatted
// step list.
const ExecutorSystemPrompt = `You are a code analysis executor with access to a Semantic Code Graph.
You have been given a plan to follow. Execute each step using the available tools.

The plan is:
%s

Execute all steps systematically and synthesize the results into a comprehensive answer.
When you have completed the plan and gathered enough information, provide your final answer.`

// State extends the base state with the parsed plan.
type State struct {
	patterns.AgentState
	Plan []string
}

// Patch extends the base patch with a plan replacement.
type Patch struct {
	patterns.AgentPatch
	Plan []string
}

func reduce(state State, patch Patch) State {
	state.AgentState = state.AgentState.Apply(patch.AgentPatch)
	if len(patch.Plan) > 0 {
		state.Plan = patch.Plan
	}
	return state
}

// NewGraph builds the compiled Plan-and-Solve graph: planner -> executor,
// with an executor <-> tools cycle until a content-only response.
func NewGraph(provider ai.Provider, catalog *tool.Catalog, opts ...patterns.Option) (*graph.Runnable[State, Patch], error) {
	options := patterns.ApplyOptions(opts...)

	plannerPrompt := PlannerSystemPrompt
	if options.SystemPrompt != "" {
		plannerPrompt = options.SystemPrompt
	}

	planner := func(ctx context.Context, state State) (Patch, error) {
		// The planner reasons without tools: it only writes the plan.
		message, _, err := patterns.CallModel(ctx, provider, ai.ChatRequest{
			Model:        options.Model,
			Messages:     state.Messages,
			SystemPrompt: plannerPrompt,
		})
		if err != nil {
			return Patch{}, fmt.Errorf("planner: %w", err)
		}

		return Patch{
			AgentPatch: patterns.AgentPatch{Messages: []ai.Message{message}},
			Plan:       patterns.ParsePlan(message.Content),
		}, nil
	}

	executor := func(ctx context.Context, state State) (Patch, error) {
		message, _, err := patterns.CallModel(ctx, provider, ai.ChatRequest{
			Model:        options.Model,
			Messages:     state.Messages,
			SystemPrompt: fmt.Sprintf(ExecutorSystemPrompt, strings.Join(state.Plan, "\n")),
			Tools:        catalog.Descriptions(),
		})
		if err != nil {
			return Patch{}, fmt.Errorf("executor: %w", err)
		}

		patch := Patch{AgentPatch: patterns.AgentPatch{Messages: []ai.Message{message}}}
		if !message.HasToolCalls() {
			patch.FinalAnswer = message.Content
		}
		return patch, nil
	}

	tools := func(ctx context.Context, state State) (Patch, error) {
		last, _ := state.LastMessage()
		return Patch{AgentPatch: patterns.AgentPatch{Messages: patterns.ExecuteToolCalls(ctx, catalog, last)}}, nil
	}

	dispatch := func(state State) string {
		if len(state.PendingToolCalls()) > 0 {
			return "tools"
		}
		return graph.End
	}

	return graph.New[State, Patch](reduce).
		AddNode("planner", planner).
		AddNode("executor", executor).
		AddNode("tools", tools).
		SetEntryPoint("planner").
		AddEdge("planner", "executor").
		AddConditionalEdge("executor", dispatch, "tools", graph.End).
		AddEdge("tools", "executor").
		Compile()
}

// Run executes the Plan-and-Solve strategy for a single query.
func Run(ctx context.Context, provider ai.Provider, catalog *tool.Catalog, query string, opts ...patterns.Option) (patterns.Result, error) {
	runnable, err := NewGraph(provider, catalog, opts...)
	if err != nil {
		return patterns.Result{}, err
	}

	options := patterns.ApplyOptions(opts...)
	final, err := runnable.Invoke(ctx, State{AgentState: patterns.InitialState(query)}, options.InvokeOptions()...)
	if err != nil {
		return patterns.Result{}, err
	}
	return patterns.ResultFrom(final.AgentState), nil
}
