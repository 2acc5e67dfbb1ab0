// Package lats implements a best-of-N tree search strategy: each round a
// generator proposes several candidate tool invocations, the candidates are
// executed one by one, an evaluator scores them, and a selector folds the best
// result into a running narrative until the evaluator declares the question
// solved or the round cap trips.
package lats

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"codescout/core/parse"
	"codescout/patterns"
	"codescout/patterns/graph"
	"codescout/providers/ai"
	"codescout/providers/tool"
)

const (
	// DefaultNumCandidates is the number of proposals requested per round.
	DefaultNumCandidates = 3
	// DefaultMaxIterations caps search rounds.
	DefaultMaxIterations = 5

	contextWindow  = 5
	contextBudget  = 200
	rawBudget      = 300
	resultBudget   = 500
	pathItemBudget = 300
	defaultScore   = 0.5
)

// GeneratorSystemPrompt asks for diverse proposals. Verbs: candidate count,
// recent-message context, best path so far.
const GeneratorSystemPrompt = `You are generating candidate approaches for a code analysis task.
Generate %d DIFFERENT approaches or tool calls to make progress on the task.

Current context:
%s

Best path so far:
%s

For each candidate, output in this format:
CANDIDATE 1:
Approach: [description of the approach]
Tool: [tool_name]
Args: [tool arguments as JSON]

CANDIDATE 2:
Approach: [description]
Tool: [tool_name]
Args: [tool arguments as JSON]

...and so on.

Make the candidates diverse - try different tools, different search queries, different nodes to explore.`

// EvaluatorSystemPrompt demands per-candidate scores and a solved flag.
// Verbs: question, formatted candidates with results.
const EvaluatorSystemPrompt = `You are evaluating candidate approaches for a code analysis task.

Original question: %s

Here are the candidates with their executed results:
%s

Score each candidate from 0.0 to 1.0 based on:
- Relevance to the question
- Quality of information obtained
- Progress towards the answer

Output your scores in this exact format:
CANDIDATE 1: [score]
CANDIDATE 2: [score]
...

Then add:
BEST: [candidate number]
SOLVED: [YES/NO] - YES only if we have enough information to fully answer the question`

// SelectorSystemPrompt asks for a progress summary or the final answer.
// Verbs: best candidate result, previous path.
const SelectorSystemPrompt = `You are selecting the best path forward and synthesizing progress.

Best candidate result:
%s

Previous best path:
%s

If SOLVED, provide the final answer.
Otherwise, update the best_path by adding a summary of what we learned.`

// Candidate is one proposed action: the generator's raw text, the extracted
// tool invocation when one was parseable, and the execution result.
type Candidate struct {
	Raw    string
	Tool   string
	Args   map[string]any
	Result string
}

// State extends the base state with the search bookkeeping of one run.
type State struct {
	patterns.AgentState
	// Candidates holds the current round's proposals.
	Candidates []Candidate
	// Scores holds the evaluator's per-candidate scores, index-aligned
	// with Candidates.
	Scores []float64
	// BestPath is the accumulated narrative of the best result per round.
	BestPath string
	// Solved records the evaluator's verdict for the current round.
	Solved bool
	// CandidateIndex is the execution cursor into Candidates.
	CandidateIndex int
	// Iteration counts completed search rounds.
	Iteration int
}

// Patch is the partial update for LATS nodes: slices replace when non-nil,
// scalars replace through pointers.
type Patch struct {
	patterns.AgentPatch
	Candidates     []Candidate
	Scores         []float64
	BestPath       *string
	Solved         *bool
	CandidateIndex *int
	Iteration      *int
}

func reduce(state State, patch Patch) State {
	state.AgentState = state.AgentState.Apply(patch.AgentPatch)
	if patch.Candidates != nil {
		state.Candidates = patch.Candidates
	}
	if patch.Scores != nil {
		state.Scores = patch.Scores
	}
	if patch.BestPath != nil {
		state.BestPath = *patch.BestPath
	}
	if patch.Solved != nil {
		state.Solved = *patch.Solved
	}
	if patch.CandidateIndex != nil {
		state.CandidateIndex = *patch.CandidateIndex
	}
	if patch.Iteration != nil {
		state.Iteration = *patch.Iteration
	}
	return state
}

// parseCandidates splits generator output on "CANDIDATE" markers and extracts
// at most limit proposals. Tool and Args lines are best-effort: a candidate
// whose arguments fail to parse simply carries no invocation.
func parseCandidates(content string, limit int) []Candidate {
	parts := strings.Split(content, "CANDIDATE")
	if len(parts) > 0 {
		parts = parts[1:]
	}
	if len(parts) > limit {
		parts = parts[:limit]
	}

	candidates := make([]Candidate, 0, len(parts))
	for _, part := range parts {
		candidate := Candidate{Raw: strings.TrimSpace(part)}
		for _, line := range strings.Split(candidate.Raw, "\n") {
			switch {
			case strings.HasPrefix(line, "Tool:"):
				candidate.Tool = strings.TrimSpace(strings.TrimPrefix(line, "Tool:"))
			case strings.HasPrefix(line, "Args:"):
				args, err := parse.ParseStringAs[map[string]any](strings.TrimSpace(strings.TrimPrefix(line, "Args:")))
				if err == nil {
					candidate.Args = args
				}
			}
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

// parseScores extracts one score per "CANDIDATE n: x" line, clamped to
// [0, 1]; unparseable lines score the neutral default. The returned slice is
// padded to count.
func parseScores(content string, count int) []float64 {
	scores := make([]float64, 0, count)
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "CANDIDATE") || !strings.Contains(trimmed, ":") {
			continue
		}
		value := strings.TrimSpace(trimmed[strings.LastIndex(trimmed, ":")+1:])
		fields := strings.Fields(value)
		if len(fields) == 0 {
			scores = append(scores, defaultScore)
			continue
		}
		score, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			scores = append(scores, defaultScore)
			continue
		}
		scores = append(scores, min(max(score, 0.0), 1.0))
	}
	for len(scores) < count {
		scores = append(scores, defaultScore)
	}
	return scores
}

// NewGraph builds the compiled LATS graph:
// generator -> execute_candidate <-> tools -> process_result -> evaluator ->
// selector, with the selector looping back to the generator.
func NewGraph(provider ai.Provider, catalog *tool.Catalog, opts ...patterns.Option) (*graph.Runnable[State, Patch], error) {
	options := patterns.ApplyOptions(opts...)

	numCandidates := DefaultNumCandidates
	if options.NumCandidates > 0 {
		numCandidates = options.NumCandidates
	}
	maxIterations := DefaultMaxIterations
	if options.MaxIterations > 0 {
		maxIterations = options.MaxIterations
	}
	generatorPrompt := GeneratorSystemPrompt
	if options.SystemPrompt != "" {
		generatorPrompt = options.SystemPrompt
	}

	generator := func(ctx context.Context, state State) (Patch, error) {
		recent := state.Messages
		if len(recent) > contextWindow {
			recent = recent[len(recent)-contextWindow:]
		}
		lines := make([]string, 0, len(recent))
		for _, message := range recent {
			lines = append(lines, fmt.Sprintf("%s: %s", message.Role, patterns.Truncate(message.Content, contextBudget)))
		}

		bestPath := state.BestPath
		if bestPath == "" {
			bestPath = "No progress yet"
		}

		message, _, err := patterns.CallModel(ctx, provider, ai.ChatRequest{
			Model:        options.Model,
			Messages:     []ai.Message{{Role: ai.RoleUser, Content: "Generate diverse candidate approaches."}},
			SystemPrompt: fmt.Sprintf(generatorPrompt, numCandidates, strings.Join(lines, "\n"), bestPath),
		})
		if err != nil {
			return Patch{}, fmt.Errorf("generator: %w", err)
		}

		zero := 0
		return Patch{
			AgentPatch:     patterns.AgentPatch{Messages: []ai.Message{message}},
			Candidates:     parseCandidates(message.Content, numCandidates),
			CandidateIndex: &zero,
		}, nil
	}

	executeCandidate := func(_ context.Context, state State) (Patch, error) {
		if state.CandidateIndex >= len(state.Candidates) {
			return Patch{}, nil
		}
		candidate := state.Candidates[state.CandidateIndex]

		if candidate.Tool == "" || candidate.Args == nil {
			// Nothing to execute; skip straight to the next candidate.
			next := state.CandidateIndex + 1
			return Patch{CandidateIndex: &next}, nil
		}

		arguments, err := json.Marshal(candidate.Args)
		if err != nil {
			return Patch{}, fmt.Errorf("execute_candidate: marshal args: %w", err)
		}

		// Synthesize the tool-call message the tools node expects.
		return Patch{AgentPatch: patterns.AgentPatch{Messages: []ai.Message{{
			Role: ai.RoleAssistant,
			ToolCalls: []ai.ToolCall{{
				ID:       fmt.Sprintf("call_%d", state.CandidateIndex),
				Type:     "function",
				Function: ai.ToolCallFunction{Name: candidate.Tool, Arguments: string(arguments)},
			}},
		}}}}, nil
	}

	tools := func(ctx context.Context, state State) (Patch, error) {
		last, _ := state.LastMessage()
		return Patch{AgentPatch: patterns.AgentPatch{Messages: patterns.ExecuteToolCalls(ctx, catalog, last)}}, nil
	}

	processResult := func(_ context.Context, state State) (Patch, error) {
		if state.CandidateIndex >= len(state.Candidates) {
			return Patch{}, nil
		}

		result := "No result"
		for i := len(state.Messages) - 1; i >= 0; i-- {
			if state.Messages[i].Role == ai.RoleTool {
				result = patterns.Truncate(state.Messages[i].Content, resultBudget)
				break
			}
		}

		updated := make([]Candidate, len(state.Candidates))
		copy(updated, state.Candidates)
		updated[state.CandidateIndex].Result = result

		next := state.CandidateIndex + 1
		return Patch{Candidates: updated, CandidateIndex: &next}, nil
	}

	evaluator := func(ctx context.Context, state State) (Patch, error) {
		blocks := make([]string, 0, len(state.Candidates))
		for i, candidate := range state.Candidates {
			result := candidate.Result
			if result == "" {
				result = "No result"
			}
			blocks = append(blocks, fmt.Sprintf("CANDIDATE %d:\n%s\nResult: %s",
				i+1, patterns.Truncate(candidate.Raw, rawBudget), patterns.Truncate(result, rawBudget)))
		}

		message, _, err := patterns.CallModel(ctx, provider, ai.ChatRequest{
			Model:        options.Model,
			Messages:     []ai.Message{{Role: ai.RoleUser, Content: "Evaluate and score the candidates."}},
			SystemPrompt: fmt.Sprintf(EvaluatorSystemPrompt, state.FirstUserContent(), strings.Join(blocks, "\n\n")),
		})
		if err != nil {
			return Patch{}, fmt.Errorf("evaluator: %w", err)
		}

		solved := strings.Contains(strings.ToUpper(message.Content), "SOLVED: YES")
		return Patch{
			AgentPatch: patterns.AgentPatch{Messages: []ai.Message{message}},
			Scores:     parseScores(message.Content, len(state.Candidates)),
			Solved:     &solved,
		}, nil
	}

	selector := func(ctx context.Context, state State) (Patch, error) {
		bestResult := "No candidates evaluated"
		if len(state.Candidates) > 0 && len(state.Scores) > 0 {
			bestIdx := 0
			for i, score := range state.Scores {
				if i < len(state.Candidates) && score > state.Scores[bestIdx] {
					bestIdx = i
				}
			}
			bestResult = state.Candidates[bestIdx].Result
			if bestResult == "" {
				bestResult = "No result"
			}
		}

		message, _, err := patterns.CallModel(ctx, provider, ai.ChatRequest{
			Model:        options.Model,
			Messages:     []ai.Message{{Role: ai.RoleUser, Content: "Update the best path or provide final answer if solved."}},
			SystemPrompt: fmt.Sprintf(SelectorSystemPrompt, patterns.Truncate(bestResult, resultBudget), state.BestPath),
		})
		if err != nil {
			return Patch{}, fmt.Errorf("selector: %w", err)
		}

		iteration := state.Iteration + 1
		newPath := state.BestPath + fmt.Sprintf("\n\nIteration %d: %s", iteration, patterns.Truncate(message.Content, pathItemBudget))

		patch := Patch{
			AgentPatch: patterns.AgentPatch{Messages: []ai.Message{message}},
			BestPath:   &newPath,
			Iteration:  &iteration,
		}
		if state.Solved || iteration >= maxIterations {
			solved := true
			patch.Solved = &solved
			patch.FinalAnswer = message.Content
		}
		return patch, nil
	}

	executeDispatch := func(state State) string {
		if len(state.PendingToolCalls()) > 0 {
			return "tools"
		}
		if state.CandidateIndex < len(state.Candidates) {
			return "execute_candidate"
		}
		return "evaluator"
	}

	processDispatch := func(state State) string {
		if state.CandidateIndex < len(state.Candidates) {
			return "execute_candidate"
		}
		return "evaluator"
	}

	selectorDispatch := func(state State) string {
		if state.Solved || state.Completed() {
			return graph.End
		}
		return "generator"
	}

	return graph.New[State, Patch](reduce).
		AddNode("generator", generator).
		AddNode("execute_candidate", executeCandidate).
		AddNode("tools", tools).
		AddNode("process_result", processResult).
		AddNode("evaluator", evaluator).
		AddNode("selector", selector).
		SetEntryPoint("generator").
		AddEdge("generator", "execute_candidate").
		AddConditionalEdge("execute_candidate", executeDispatch, "tools", "execute_candidate", "evaluator").
		AddEdge("tools", "process_result").
		AddConditionalEdge("process_result", processDispatch, "execute_candidate", "evaluator").
		AddEdge("evaluator", "selector").
		AddConditionalEdge("selector", selectorDispatch, "generator", graph.End).
		Compile()
}

// Run executes the LATS strategy for a single query.
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
