package main

import (
	"fmt"
	"io"

	"codescout/patterns"
	"codescout/patterns/graph"
	"codescout/providers/ai"
)

const resultPreviewLen = 500

// traceHook builds the live trace printer for the given verbosity tier, or
// nil when tracing is off. Tier 1 prints tool-call names, tier 2 adds their
// arguments, tier 3 adds truncated tool results.
func traceHook(w io.Writer, verbosity int) graph.TraceHook {
	if verbosity < 1 {
		return nil
	}

	return func(event graph.Event) {
		for _, message := range event.Messages {
			for _, call := range message.ToolCalls {
				fmt.Fprintf(w, "[Tool Call] %s\n", call.Function.Name)
				if verbosity >= 2 {
					fmt.Fprintf(w, "  Args: %s\n", call.Function.Arguments)
				}
			}
			if message.Role == ai.RoleTool && verbosity >= 3 {
				fmt.Fprintf(w, "[Tool Result] %s:\n  %s\n", message.Name, patterns.Truncate(message.Content, resultPreviewLen))
			}
		}
	}
}
