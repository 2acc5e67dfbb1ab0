package graph

import (
	"context"
	"errors"
	"fmt"

	"codescout/providers/ai"
)

// DefaultStepLimit bounds the number of node executions in a single run.
// Exceeding it is a fatal execution-budget error, distinct from a run that
// merely ends without producing an answer.
const DefaultStepLimit = 100

// ErrStepLimitExceeded is returned by Invoke when the global step guard trips.
var ErrStepLimitExceeded = errors.New("graph step limit exceeded")

// Event describes one node execution, surfaced through the trace hook.
type Event struct {
	// Node is the name of the node that just executed.
	Node string
	// Step is the 1-based execution step within the run.
	Step int
	// Messages are the messages appended to the state by this node, if any.
	Messages []ai.Message
}

// TraceHook receives an [Event] after each node execution and merge.
type TraceHook func(event Event)

// MessageCarrier is implemented by patch types whose applied messages should
// be surfaced in trace events.
type MessageCarrier interface {
	AppendedMessages() []ai.Message
}

// InvokeOption customizes a single Invoke call.
type InvokeOption func(*invokeConfig)

type invokeConfig struct {
	stepLimit int
	traceHook TraceHook
}

// WithStepLimit overrides the global step guard for this run.
func WithStepLimit(limit int) InvokeOption {
	return func(cfg *invokeConfig) {
		if limit > 0 {
			cfg.stepLimit = limit
		}
	}
}

// WithTraceHook registers a hook invoked after every node execution.
func WithTraceHook(hook TraceHook) InvokeOption {
	return func(cfg *invokeConfig) {
		cfg.traceHook = hook
	}
}

// Runnable is a compiled, executable graph. A Runnable is immutable and safe
// to share; all run-scoped data lives in the state threaded through Invoke.
type Runnable[S State, P any] struct {
	reduce     Reducer[S, P]
	nodes      map[string]NodeFunc[S, P]
	edges      map[string]*edge[S]
	entryPoint string
}

// Invoke drives the graph from its entry point over the initial state until a
// transition resolves to [End], the state reports completion, or the step
// guard trips. It returns the final state; on error, the state as of the last
// successful merge is returned alongside the error.
func (r *Runnable[S, P]) Invoke(ctx context.Context, initial S, opts ...InvokeOption) (S, error) {
	cfg := invokeConfig{stepLimit: DefaultStepLimit}
	for _, opt := range opts {
		opt(&cfg)
	}

	state := initial
	current := r.entryPoint

	for step := 1; ; step++ {
		if step > cfg.stepLimit {
			return state, fmt.Errorf("%w: aborted after %d steps", ErrStepLimitExceeded, cfg.stepLimit)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		patch, err := r.nodes[current](ctx, state)
		if err != nil {
			return state, fmt.Errorf("node %q: %w", current, err)
		}
		state = r.reduce(state, patch)

		if cfg.traceHook != nil {
			event := Event{Node: current, Step: step}
			if carrier, ok := any(patch).(MessageCarrier); ok {
				event.Messages = carrier.AppendedMessages()
			}
			cfg.traceHook(event)
		}

		if state.Completed() {
			return state, nil
		}

		next, err := r.next(current, state)
		if err != nil {
			return state, err
		}
		if next == End {
			return state, nil
		}
		current = next
	}
}

// next resolves the outgoing transition of a node against the current state.
// A node without an outgoing edge is terminal. A dispatch returning a name
// outside its declared target set is an execution error.
func (r *Runnable[S, P]) next(current string, state S) (string, error) {
	e, exists := r.edges[current]
	if !exists {
		return End, nil
	}
	if e.dispatch == nil {
		return e.to, nil
	}

	target := e.dispatch(state)
	if target == End {
		return End, nil
	}
	for _, declared := range e.targets {
		if target == declared {
			return target, nil
		}
	}
	return "", fmt.Errorf("dispatch from %q returned undeclared target %q", current, target)
}
