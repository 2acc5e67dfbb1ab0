// Package adaplanner implements the AdaPlanner strategy: an initial plan is
// executed one step at a time, and after each step a replanner reviews the
// accumulated results and decides to continue, rewrite the plan, or finish
// with an answer.
package adaplanner

import (
	"context"
	"fmt"
	"strings"

	"codescout/patterns"
	"codescout/patterns/graph"
	"codescout/providers/ai"
	"codescout/providers/tool"
)

// PlannerSystemPrompt asks for the initial numbered plan.
const PlannerSystemPrompt = `You are a strategic planner for code analysis tasks.
Create a step-by-step plan to answer the user's question about code.

Output your plan as a numbered list. Each step should be:
1. Specific and actionable
2. Focused on a single action (search, explore, read, analyze)
3. Building towards the final answer

Example format:
1. Search for classes related to "caching"
2. Get dependencies of the main cache manager
3. Read the source code of key methods
4. Analyze the caching strategy used`

// ExecutorSystemPrompt scopes one model turn to a single step. Verbs: step
// number, formatted plan, current step, completed-step summary.
const ExecutorSystemPrompt = `You are executing step %d of a code analysis plan.

The full plan is:
%s

Current step to execute: %s

Previously completed steps:
%s

Execute ONLY the current step using the available tools. Be thorough but focused.`

// ReplannerSystemPrompt demands a strict decision format. Verbs: question,
// formatted plan, completed-step summary, step index, plan length.
const ReplannerSystemPrompt = `You are an adaptive planner reviewing the progress of a code analysis task.

Original question: %s

Current plan:
%s

Completed steps and their results:
%s

Current step index: %d of %d

Based on the results so far, decide what to do next. Respond with EXACTLY one of:
1. "DECISION: CONTINUE" - if the plan is working and we should proceed to the next step
2. "DECISION: MODIFY\nNEW_PLAN: [your revised plan as numbered list]" - if we need to change approach
3. "DECISION: FINISHED\nANSWER: [your final answer]" - if we have enough information to answer

Be decisive and practical.`

// State extends the base state with the stepwise execution bookkeeping.
type State struct {
	patterns.AgentState
	// Plan is the current step list; a MODIFY decision replaces it.
	Plan []string
	// CompletedSteps holds one "Step N: ...\nResult: ..." record per
	// finished step.
	CompletedSteps []string
	// StepIndex is the cursor into Plan.
	StepIndex int
	// StepMessages is the scratch conversation of the step in progress,
	// cleared when the step is recorded.
	StepMessages []ai.Message
}

// Patch is the partial update for AdaPlanner nodes. Slice fields replace when
// non-nil except StepMessages, which appends; ResetStepMessages clears the
// scratch conversation instead.
type Patch struct {
	patterns.AgentPatch
	Plan              []string
	CompletedSteps    []string
	StepIndex         *int
	StepMessages      []ai.Message
	ResetStepMessages bool
}

func reduce(state State, patch Patch) State {
	state.AgentState = state.AgentState.Apply(patch.AgentPatch)
	if patch.Plan != nil {
		state.Plan = patch.Plan
	}
	if patch.CompletedSteps != nil {
		state.CompletedSteps = patch.CompletedSteps
	}
	if patch.StepIndex != nil {
		state.StepIndex = *patch.StepIndex
	}
	switch {
	case patch.ResetStepMessages:
		state.StepMessages = nil
	case len(patch.StepMessages) > 0:
		merged := make([]ai.Message, 0, len(state.StepMessages)+len(patch.StepMessages))
		merged = append(merged, state.StepMessages...)
		merged = append(merged, patch.StepMessages...)
		state.StepMessages = merged
	}
	return state
}

func formatCompleted(completed []string) string {
	if len(completed) == 0 {
		return "None yet"
	}
	return strings.Join(completed, "\n")
}

// NewGraph builds the compiled AdaPlanner graph:
// planner -> executor <-> tools -> record_step -> replanner, with the
// replanner looping back to the executor until the plan is exhausted or a
// FINISHED decision lands.
func NewGraph(provider ai.Provider, catalog *tool.Catalog, opts ...patterns.Option) (*graph.Runnable[State, Patch], error) {
	options := patterns.ApplyOptions(opts...)

	plannerPrompt := PlannerSystemPrompt
	if options.SystemPrompt != "" {
		plannerPrompt = options.SystemPrompt
	}

	planner := func(ctx context.Context, state State) (Patch, error) {
		message, _, err := patterns.CallModel(ctx, provider, ai.ChatRequest{
			Model:        options.Model,
			Messages:     state.Messages,
			SystemPrompt: plannerPrompt,
		})
		if err != nil {
			return Patch{}, fmt.Errorf("planner: %w", err)
		}

		zero := 0
		return Patch{
			AgentPatch: patterns.AgentPatch{Messages: []ai.Message{message}},
			Plan:       patterns.ParsePlan(message.Content),
			StepIndex:  &zero,
		}, nil
	}

	executor := func(ctx context.Context, state State) (Patch, error) {
		if state.StepIndex >= len(state.Plan) {
			return Patch{}, nil
		}
		currentStep := state.Plan[state.StepIndex]

		// Each step runs in its own scratch conversation, seeded once.
		var seed []ai.Message
		stepMessages := state.StepMessages
		if len(stepMessages) == 0 {
			seed = []ai.Message{{Role: ai.RoleUser, Content: "Execute this step: " + currentStep}}
			stepMessages = seed
		}

		message, _, err := patterns.CallModel(ctx, provider, ai.ChatRequest{
			Model:    options.Model,
			Messages: stepMessages,
			SystemPrompt: fmt.Sprintf(ExecutorSystemPrompt,
				state.StepIndex+1,
				patterns.FormatPlan(state.Plan),
				currentStep,
				formatCompleted(state.CompletedSteps)),
			Tools: catalog.Descriptions(),
		})
		if err != nil {
			return Patch{}, fmt.Errorf("executor: %w", err)
		}

		return Patch{
			AgentPatch:   patterns.AgentPatch{Messages: []ai.Message{message}},
			StepMessages: append(seed, message),
		}, nil
	}

	tools := func(ctx context.Context, state State) (Patch, error) {
		last, _ := state.LastMessage()
		results := patterns.ExecuteToolCalls(ctx, catalog, last)
		return Patch{
			AgentPatch:   patterns.AgentPatch{Messages: results},
			StepMessages: results,
		}, nil
	}

	recordStep := func(_ context.Context, state State) (Patch, error) {
		if state.StepIndex >= len(state.Plan) {
			return Patch{ResetStepMessages: true}, nil
		}

		record := fmt.Sprintf("Step %d: %s\nResult: %s",
			state.StepIndex+1, state.Plan[state.StepIndex], state.LastAssistantContent())

		completed := make([]string, 0, len(state.CompletedSteps)+1)
		completed = append(completed, state.CompletedSteps...)
		completed = append(completed, record)

		next := state.StepIndex + 1
		return Patch{
			CompletedSteps:    completed,
			StepIndex:         &next,
			ResetStepMessages: true,
		}, nil
	}

	replanner := func(ctx context.Context, state State) (Patch, error) {
		completed := "None"
		if len(state.CompletedSteps) > 0 {
			completed = strings.Join(state.CompletedSteps, "\n")
		}

		message, _, err := patterns.CallModel(ctx, provider, ai.ChatRequest{
			Model:    options.Model,
			Messages: []ai.Message{{Role: ai.RoleUser, Content: "What should we do next?"}},
			SystemPrompt: fmt.Sprintf(ReplannerSystemPrompt,
				state.FirstUserContent(),
				patterns.FormatPlan(state.Plan),
				completed,
				state.StepIndex,
				len(state.Plan)),
		})
		if err != nil {
			return Patch{}, fmt.Errorf("replanner: %w", err)
		}

		content := message.Content
		patch := Patch{AgentPatch: patterns.AgentPatch{Messages: []ai.Message{message}}}

		switch {
		case strings.Contains(content, "DECISION: FINISHED"):
			answer := content
			if idx := strings.LastIndex(content, "ANSWER:"); idx >= 0 {
				answer = strings.TrimSpace(content[idx+len("ANSWER:"):])
			}
			patch.FinalAnswer = answer
		case strings.Contains(content, "DECISION: MODIFY") && strings.Contains(content, "NEW_PLAN:"):
			revised := content[strings.LastIndex(content, "NEW_PLAN:")+len("NEW_PLAN:"):]
			if newPlan := patterns.ParsePlanStrict(revised); len(newPlan) > 0 {
				patch.Plan = newPlan
			}
			zero := 0
			patch.StepIndex = &zero
		}
		return patch, nil
	}

	executorDispatch := func(state State) string {
		if len(state.PendingToolCalls()) > 0 {
			return "tools"
		}
		return "record_step"
	}

	replannerDispatch := func(state State) string {
		if state.StepIndex < len(state.Plan) {
			return "executor"
		}
		return graph.End
	}

	return graph.New[State, Patch](reduce).
		AddNode("planner", planner).
		AddNode("executor", executor).
		AddNode("tools", tools).
		AddNode("record_step", recordStep).
		AddNode("replanner", replanner).
		SetEntryPoint("planner").
		AddEdge("planner", "executor").
		AddConditionalEdge("executor", executorDispatch, "tools", "record_step").
		AddEdge("tools", "executor").
		AddEdge("record_step", "replanner").
		AddConditionalEdge("replanner", replannerDispatch, "executor", graph.End).
		Compile()
}

// Run executes the AdaPlanner strategy for a single query.
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
