package patterns

import (
	"codescout/patterns/graph"
)

// Options is the shared knob set accepted by every strategy builder. Each
// strategy reads the subset it understands.
type Options struct {
	// Model is the model identifier passed to the provider on every call.
	Model string
	// SystemPrompt overrides the strategy's primary system prompt when set.
	SystemPrompt string
	// MaxIterations caps the refinement loop: critique passes for Reflexion
	// (default 3), search rounds for LATS (default 5).
	MaxIterations int
	// NumCandidates is the number of proposals LATS requests per round
	// (default 3).
	NumCandidates int
	// StepLimit overrides the engine's global step guard (default 100).
	StepLimit int
	// TraceHook receives an event after every node execution.
	TraceHook graph.TraceHook
}

// Option mutates the shared strategy option set.
type Option func(options *Options)

// ApplyOptions folds the given options over a zero Options value.
func ApplyOptions(options ...Option) Options {
	var applied Options
	for _, option := range options {
		option(&applied)
	}
	return applied
}

// WithModel sets the model identifier used for every provider call.
func WithModel(model string) Option {
	return func(options *Options) {
		options.Model = model
	}
}

// WithSystemPrompt overrides the strategy's primary system prompt.
func WithSystemPrompt(systemPrompt string) Option {
	return func(options *Options) {
		options.SystemPrompt = systemPrompt
	}
}

// WithMaxIterations caps a strategy's refinement loop.
func WithMaxIterations(maxIterations int) Option {
	return func(options *Options) {
		options.MaxIterations = maxIterations
	}
}

// WithNumCandidates sets how many candidates LATS generates per round.
func WithNumCandidates(numCandidates int) Option {
	return func(options *Options) {
		options.NumCandidates = numCandidates
	}
}

// WithStepLimit overrides the engine's global step guard.
func WithStepLimit(stepLimit int) Option {
	return func(options *Options) {
		options.StepLimit = stepLimit
	}
}

// WithTraceHook registers a per-step event hook on the run.
func WithTraceHook(hook graph.TraceHook) Option {
	return func(options *Options) {
		options.TraceHook = hook
	}
}

// InvokeOptions converts the shared options into engine invoke options.
func (o Options) InvokeOptions() []graph.InvokeOption {
	var invokeOptions []graph.InvokeOption
	if o.StepLimit > 0 {
		invokeOptions = append(invokeOptions, graph.WithStepLimit(o.StepLimit))
	}
	if o.TraceHook != nil {
		invokeOptions = append(invokeOptions, graph.WithTraceHook(o.TraceHook))
	}
	return invokeOptions
}
