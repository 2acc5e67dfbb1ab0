// Package graph implements a cyclic state-machine engine for LLM agent
// orchestration. A graph is a set of named nodes over a shared state record:
// each node returns a typed patch that a strategy-supplied reducer merges into
// the state, and edges (fixed or dispatch-resolved) select the next node until
// the terminal sentinel is reached, the state reports completion, or the global
// step guard trips.
//
// Unlike a DAG workflow executor, edges here may form cycles; exactly one node
// executes at a time, driven by a single cursor.
package graph

import (
	"context"
	"errors"
	"fmt"
)

// End is the terminal sentinel. An edge or dispatch resolving to End stops
// graph execution.
const End = "__end__"

// State is the constraint every graph state type must satisfy. Completed is
// checked after every merge: a state reporting completion stops the run
// regardless of the current graph position.
type State interface {
	Completed() bool
}

// NodeFunc is a single unit of work: it observes the current state and returns
// a partial update. Node functions must not mutate the state they receive.
type NodeFunc[S State, P any] func(ctx context.Context, state S) (P, error)

// Dispatch selects the next node name from the current state. The returned
// name must be one of the targets declared when the conditional edge was
// added, or [End].
type Dispatch[S State] func(state S) string

// Reducer merges a node's partial update into the state and returns the new
// state. Merge semantics are strategy-specific but follow one convention:
// message sequences append, every other field replaces.
type Reducer[S State, P any] func(state S, patch P) S

// edge is the outgoing transition of a node: either a fixed target or a
// dispatch function restricted to a declared set of targets.
type edge[S State] struct {
	to       string
	dispatch Dispatch[S]
	targets  []string
}

// StateGraph is a builder for a [Runnable]. Nodes and edges are added
// incrementally; Compile performs structural validation.
type StateGraph[S State, P any] struct {
	reduce      Reducer[S, P]
	nodes       map[string]NodeFunc[S, P]
	nodeOrder   []string
	edges       map[string]*edge[S]
	entryPoint  string
	buildErrors []error
}

// New creates a StateGraph builder with the given patch reducer.
func New[S State, P any](reduce Reducer[S, P]) *StateGraph[S, P] {
	return &StateGraph[S, P]{
		reduce: reduce,
		nodes:  make(map[string]NodeFunc[S, P]),
		edges:  make(map[string]*edge[S]),
	}
}

// AddNode registers a named node. Returns the builder for chaining; duplicate
// or invalid registrations are reported at Compile time.
func (g *StateGraph[S, P]) AddNode(name string, fn NodeFunc[S, P]) *StateGraph[S, P] {
	if name == "" || name == End {
		g.buildErrors = append(g.buildErrors, fmt.Errorf("invalid node name %q", name))
		return g
	}
	if fn == nil {
		g.buildErrors = append(g.buildErrors, fmt.Errorf("node %q has a nil function", name))
		return g
	}
	if _, exists := g.nodes[name]; exists {
		g.buildErrors = append(g.buildErrors, fmt.Errorf("duplicate node %q", name))
		return g
	}

	g.nodes[name] = fn
	g.nodeOrder = append(g.nodeOrder, name)
	return g
}

// AddEdge registers a fixed transition from one node to another (or to [End]).
func (g *StateGraph[S, P]) AddEdge(from, to string) *StateGraph[S, P] {
	if _, exists := g.edges[from]; exists {
		g.buildErrors = append(g.buildErrors, fmt.Errorf("node %q already has an outgoing edge", from))
		return g
	}
	g.edges[from] = &edge[S]{to: to}
	return g
}

// AddConditionalEdge registers a dispatch-resolved transition. The dispatch
// function may only return one of the declared targets or [End]; any other
// value is a runtime execution error.
func (g *StateGraph[S, P]) AddConditionalEdge(from string, dispatch Dispatch[S], targets ...string) *StateGraph[S, P] {
	if dispatch == nil {
		g.buildErrors = append(g.buildErrors, fmt.Errorf("conditional edge from %q has a nil dispatch", from))
		return g
	}
	if _, exists := g.edges[from]; exists {
		g.buildErrors = append(g.buildErrors, fmt.Errorf("node %q already has an outgoing edge", from))
		return g
	}
	g.edges[from] = &edge[S]{dispatch: dispatch, targets: targets}
	return g
}

// SetEntryPoint declares the node where execution starts.
func (g *StateGraph[S, P]) SetEntryPoint(name string) *StateGraph[S, P] {
	g.entryPoint = name
	return g
}

// Compile validates the graph structure and produces an executable [Runnable].
// It checks for accumulated build errors, a declared and existing entry point,
// and that every edge endpoint and dispatch target references an existing node
// or [End].
func (g *StateGraph[S, P]) Compile() (*Runnable[S, P], error) {
	if len(g.buildErrors) > 0 {
		return nil, fmt.Errorf("graph build errors: %w", errors.Join(g.buildErrors...))
	}
	if len(g.nodes) == 0 {
		return nil, fmt.Errorf("graph must contain at least one node")
	}
	if g.entryPoint == "" {
		return nil, fmt.Errorf("graph has no entry point")
	}
	if _, exists := g.nodes[g.entryPoint]; !exists {
		return nil, fmt.Errorf("entry point %q is not a registered node", g.entryPoint)
	}
	if g.reduce == nil {
		return nil, fmt.Errorf("graph has no reducer")
	}

	for from, e := range g.edges {
		if _, exists := g.nodes[from]; !exists {
			return nil, fmt.Errorf("edge from non-existent node %q", from)
		}
		if e.dispatch == nil {
			if err := g.checkTarget(from, e.to); err != nil {
				return nil, err
			}
			continue
		}
		for _, target := range e.targets {
			if err := g.checkTarget(from, target); err != nil {
				return nil, err
			}
		}
	}

	return &Runnable[S, P]{
		reduce:     g.reduce,
		nodes:      g.nodes,
		edges:      g.edges,
		entryPoint: g.entryPoint,
	}, nil
}

func (g *StateGraph[S, P]) checkTarget(from, target string) error {
	if target == End {
		return nil
	}
	if _, exists := g.nodes[target]; !exists {
		return fmt.Errorf("edge from %q references non-existent node %q", from, target)
	}
	return nil
}
