// Package reflexion implements the Reflexion strategy: an actor drafts an
// answer with tool access, a critic judges it, and bad verdicts feed back into
// the next actor turn until the critic approves or the iteration cap trips.
package reflexion

import (
	"context"
	"fmt"
	"strings"

	"codescout/patterns"
	"codescout/patterns/graph"
	"codescout/providers/ai"
	"codescout/providers/tool"
)

// DefaultMaxIterations caps actor/critique rounds.
const DefaultMaxIterations = 3

// ActorSystemPrompt frames the drafting turn; the %s verb receives the
// critique context, empty on the first pass.
const ActorSystemPrompt = `You are a code analysis assistant with access to a Semantic Code Graph.
Your goal is to provide accurate and comprehensive answers about code.

%s

Use the available tools to gather information and provide a thorough answer.
Think carefully and be precise in your analysis.`

// critiqueContextTemplate wraps a bad verdict's feedback for the next actor
// turn.
const critiqueContextTemplate = `
PREVIOUS ATTEMPT WAS INSUFFICIENT. Please improve based on this feedback:
%s

Try again with more thorough research and analysis.`

// CritiqueSystemPrompt demands a strict verdict format; the %s verb receives
// the draft answer.
const CritiqueSystemPrompt = `You are a critical evaluator of code analysis answers.
Your job is to assess whether an answer is complete, accurate, and helpful.

Evaluate the following answer:
%s

Consider:
1. Does it fully address the user's question?
2. Is the information accurate based on the evidence gathered?
3. Is the reasoning clear and well-supported?
4. Are there any obvious gaps or errors?

Respond with EXACTLY one of these formats:
- If the answer is good: "VERDICT: GOOD"
- If the answer needs improvement: "VERDICT: BAD\nFEEDBACK: [your specific feedback for improvement]"

Be constructive in your feedback.`

// State extends the base state with the refinement loop's bookkeeping.
type State struct {
	patterns.AgentState
	// DraftAnswer is the actor's latest content-only response.
	DraftAnswer string
	// Critique is the critic's latest verdict text.
	Critique string
	// Iteration counts completed critique passes.
	Iteration int
}

// Patch uses pointers for replace-fields so a nil field leaves the state
// untouched while a pointer to the zero value still overwrites.
type Patch struct {
	patterns.AgentPatch
	DraftAnswer *string
	Critique    *string
	Iteration   *int
}

func reduce(state State, patch Patch) State {
	state.AgentState = state.AgentState.Apply(patch.AgentPatch)
	if patch.DraftAnswer != nil {
		state.DraftAnswer = *patch.DraftAnswer
	}
	if patch.Critique != nil {
		state.Critique = *patch.Critique
	}
	if patch.Iteration != nil {
		state.Iteration = *patch.Iteration
	}
	return state
}

// NewGraph builds the compiled Reflexion graph: an actor/tools cycle feeding
// a critique node, looping back to the actor on bad verdicts.
func NewGraph(provider ai.Provider, catalog *tool.Catalog, opts ...patterns.Option) (*graph.Runnable[State, Patch], error) {
	options := patterns.ApplyOptions(opts...)

	maxIterations := DefaultMaxIterations
	if options.MaxIterations > 0 {
		maxIterations = options.MaxIterations
	}
	actorPrompt := ActorSystemPrompt
	if options.SystemPrompt != "" {
		actorPrompt = options.SystemPrompt
	}

	actor := func(ctx context.Context, state State) (Patch, error) {
		critiqueContext := ""
		if strings.Contains(state.Critique, "BAD") {
			critiqueContext = fmt.Sprintf(critiqueContextTemplate, state.Critique)
		}

		message, _, err := patterns.CallModel(ctx, provider, ai.ChatRequest{
			Model:        options.Model,
			Messages:     state.Messages,
			SystemPrompt: fmt.Sprintf(actorPrompt, critiqueContext),
			Tools:        catalog.Descriptions(),
		})
		if err != nil {
			return Patch{}, fmt.Errorf("actor: %w", err)
		}

		patch := Patch{AgentPatch: patterns.AgentPatch{Messages: []ai.Message{message}}}
		if !message.HasToolCalls() {
			patch.DraftAnswer = &message.Content
		}
		return patch, nil
	}

	tools := func(ctx context.Context, state State) (Patch, error) {
		last, _ := state.LastMessage()
		return Patch{AgentPatch: patterns.AgentPatch{Messages: patterns.ExecuteToolCalls(ctx, catalog, last)}}, nil
	}

	critique := func(ctx context.Context, state State) (Patch, error) {
		// The critique runs on a fresh exchange; its verdict lives in the
		// state, not the message sequence.
		message, _, err := patterns.CallModel(ctx, provider, ai.ChatRequest{
			Model:        options.Model,
			Messages:     []ai.Message{{Role: ai.RoleUser, Content: "Please evaluate this answer."}},
			SystemPrompt: fmt.Sprintf(CritiqueSystemPrompt, state.DraftAnswer),
		})
		if err != nil {
			return Patch{}, fmt.Errorf("critique: %w", err)
		}

		iteration := state.Iteration + 1
		return Patch{Critique: &message.Content, Iteration: &iteration}, nil
	}

	finalize := func(_ context.Context, state State) (Patch, error) {
		return Patch{AgentPatch: patterns.AgentPatch{FinalAnswer: state.DraftAnswer}}, nil
	}

	actorDispatch := func(state State) string {
		if len(state.PendingToolCalls()) > 0 {
			return "tools"
		}
		return "critique"
	}

	critiqueDispatch := func(state State) string {
		if strings.Contains(state.Critique, "VERDICT: GOOD") || state.Iteration >= maxIterations {
			return "finalize"
		}
		return "actor"
	}

	return graph.New[State, Patch](reduce).
		AddNode("actor", actor).
		AddNode("tools", tools).
		AddNode("critique", critique).
		AddNode("finalize", finalize).
		SetEntryPoint("actor").
		AddConditionalEdge("actor", actorDispatch, "tools", "critique").
		AddEdge("tools", "actor").
		AddConditionalEdge("critique", critiqueDispatch, "actor", "finalize").
		AddEdge("finalize", graph.End).
		Compile()
}

// Run executes the Reflexion strategy for a single query.
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
