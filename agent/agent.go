// Package agent ties the strategies together: a registry mapping strategy
// names to their run functions, per-run trace collection, and an in-memory
// session keyed by UUID for successive runs against the same codebase.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"codescout/internal/config"
	"codescout/internal/logging"
	"codescout/patterns"
	"codescout/patterns/adaplanner"
	"codescout/patterns/graph"
	"codescout/patterns/lats"
	"codescout/patterns/plansolve"
	"codescout/patterns/react"
	"codescout/patterns/reflexion"
	"codescout/providers/ai"
	"codescout/providers/tool"
)

// Strategy names a control-flow strategy.
type Strategy string

const (
	StrategyReAct      Strategy = "react"
	StrategyPlanSolve  Strategy = "plan_solve"
	StrategyReflexion  Strategy = "reflexion"
	StrategyAdaPlanner Strategy = "ada_planner"
	StrategyLATS       Strategy = "lats"
)

// ErrUnknownStrategy is returned before any model call when the requested
// strategy is not registered.
var ErrUnknownStrategy = errors.New("unknown strategy")

// NoAnswer is the answer surfaced when a run terminates without producing one.
const NoAnswer = "No answer produced."

type runFunc func(ctx context.Context, provider ai.Provider, catalog *tool.Catalog, query string, opts ...patterns.Option) (patterns.Result, error)

var registry = map[Strategy]runFunc{
	StrategyReAct:      react.Run,
	StrategyPlanSolve:  plansolve.Run,
	StrategyReflexion:  reflexion.Run,
	StrategyAdaPlanner: adaplanner.Run,
	StrategyLATS:       lats.Run,
}

// Strategies lists the registered strategy names in a stable order.
func Strategies() []Strategy {
	return []Strategy{StrategyReAct, StrategyPlanSolve, StrategyReflexion, StrategyAdaPlanner, StrategyLATS}
}

// Agent runs queries through a chosen strategy with a shared provider, tool
// catalog, and configuration.
type Agent struct {
	provider ai.Provider
	catalog  *tool.Catalog
	config   config.Config
	logger   *slog.Logger
}

// New creates an agent over the given provider and tool catalog.
func New(provider ai.Provider, catalog *tool.Catalog, cfg config.Config) *Agent {
	return &Agent{
		provider: provider,
		catalog:  catalog,
		config:   cfg,
		logger:   logging.New("agent"),
	}
}

// RunResult is the outcome of one run: the answer (or the NoAnswer sentinel),
// the full per-step trace, and the message transcript.
type RunResult struct {
	RunID    uuid.UUID
	Strategy Strategy
	Answer   string
	Answered bool
	Trace    []graph.Event
	Messages []ai.Message
}

// Run executes a single query with the named strategy. The strategy is
// validated before any graph is built or model called.
func (a *Agent) Run(ctx context.Context, strategy Strategy, query string, opts ...patterns.Option) (RunResult, error) {
	run, registered := registry[strategy]
	if !registered {
		return RunResult{}, fmt.Errorf("%w %q (valid: %s)", ErrUnknownStrategy, strategy, strategyNames())
	}

	// Collect every step event; chain a caller-supplied hook if present.
	var trace []graph.Event
	callerHook := patterns.ApplyOptions(opts...).TraceHook
	hook := func(event graph.Event) {
		trace = append(trace, event)
		if callerHook != nil {
			callerHook(event)
		}
	}

	merged := a.configOptions(strategy)
	merged = append(merged, opts...)
	merged = append(merged, patterns.WithTraceHook(hook))

	a.logger.Info("run starting", "strategy", string(strategy), "model", a.config.Model)

	result, err := run(ctx, a.provider, a.catalog, query, merged...)
	if err != nil {
		return RunResult{}, fmt.Errorf("agent: %s run: %w", strategy, err)
	}

	answer := result.Answer
	if !result.Answered {
		answer = NoAnswer
	}

	a.logger.Info("run finished",
		"strategy", string(strategy),
		"answered", result.Answered,
		"steps", len(trace))

	return RunResult{
		RunID:    uuid.New(),
		Strategy: strategy,
		Answer:   answer,
		Answered: result.Answered,
		Trace:    trace,
		Messages: result.Messages,
	}, nil
}

// configOptions translates the static configuration into strategy options.
// Caller-supplied options are appended after these, so they win.
func (a *Agent) configOptions(strategy Strategy) []patterns.Option {
	options := []patterns.Option{
		patterns.WithModel(a.config.Model),
		patterns.WithStepLimit(a.config.StepLimit),
	}
	switch strategy {
	case StrategyReflexion:
		options = append(options, patterns.WithMaxIterations(a.config.Reflexion.MaxIterations))
	case StrategyLATS:
		options = append(options,
			patterns.WithNumCandidates(a.config.LATS.NumCandidates),
			patterns.WithMaxIterations(a.config.LATS.MaxIterations))
	}
	return options
}

func strategyNames() string {
	names := make([]string, 0, len(registry))
	for _, strategy := range Strategies() {
		names = append(names, string(strategy))
	}
	return strings.Join(names, ", ")
}
