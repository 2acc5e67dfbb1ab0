// Package react implements the ReAct strategy: a two-node cycle where the
// model either requests tool calls or answers directly. Tool results feed the
// next model turn until a content-only response ends the run.
package react

import (
	"context"
	"fmt"

	"codescout/patterns"
	"codescout/patterns/graph"
	"codescout/providers/ai"
	"codescout/providers/tool"
)

// SystemPrompt frames the model as a code analysis assistant and instructs it
// to answer directly once it has gathered enough information.
const SystemPrompt = `You are a code analysis assistant with access to a Semantic Code Graph.
Your goal is to help users understand code by searching for symbols, exploring dependencies, and reading source code.

Think step by step:
1. Understand what the user is asking about
2. Search for relevant symbols
3. Explore dependencies and relationships
4. Read source code when needed
5. Synthesize your findings into a clear answer

When you have enough information to answer the user's question, provide your final answer directly without calling any more tools.`

// State is the run state of a ReAct graph: the base message sequence and
// final answer, nothing more.
type State struct {
	patterns.AgentState
}

// Patch is the partial update returned by ReAct nodes.
type Patch = patterns.AgentPatch

func reduce(state State, patch Patch) State {
	state.AgentState = state.AgentState.Apply(patch)
	return state
}

// NewGraph builds the compiled ReAct graph over the given provider and tool
// catalog. The graph cycles agent -> tools -> agent until the model responds
// without tool calls.
func NewGraph(provider ai.Provider, catalog *tool.Catalog, opts ...patterns.Option) (*graph.Runnable[State, Patch], error) {
	options := patterns.ApplyOptions(opts...)

	systemPrompt := SystemPrompt
	if options.SystemPrompt != "" {
		systemPrompt = options.SystemPrompt
	}

	agent := func(ctx context.Context, state State) (Patch, error) {
		message, _, err := patterns.CallModel(ctx, provider, ai.ChatRequest{
			Model:        options.Model,
			Messages:     state.Messages,
			SystemPrompt: systemPrompt,
			Tools:        catalog.Descriptions(),
		})
		if err != nil {
			return Patch{}, fmt.Errorf("agent: %w", err)
		}

		patch := Patch{Messages: []ai.Message{message}}
		if !message.HasToolCalls() {
			patch.FinalAnswer = message.Content
		}
		return patch, nil
	}

	tools := func(ctx context.Context, state State) (Patch, error) {
		last, _ := state.LastMessage()
		return Patch{Messages: patterns.ExecuteToolCalls(ctx, catalog, last)}, nil
	}

	dispatch := func(state State) string {
		if len(state.PendingToolCalls()) > 0 {
			return "tools"
		}
		return graph.End
	}

	return graph.New[State, Patch](reduce).
		AddNode("agent", agent).
		AddNode("tools", tools).
		SetEntryPoint("agent").
		AddConditionalEdge("agent", dispatch, "tools", graph.End).
		AddEdge("tools", "agent").
		Compile()
}

// Run executes the ReAct strategy for a single query.
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
