package patterns

import (
	"context"
	"fmt"

	"codescout/providers/ai"
	"codescout/providers/tool"
)

// ExecuteToolCalls runs every tool call carried by message against the
// catalog and returns one id-correlated tool message per call, preserving
// declaration order. Failures (an unregistered tool name or an execution
// error) become error-text tool messages rather than errors: the model
// observes them on its next turn and may retry with different arguments.
// A message with no tool calls yields nil, making the caller a no-op node.
func ExecuteToolCalls(ctx context.Context, catalog *tool.Catalog, message ai.Message) []ai.Message {
	if len(message.ToolCalls) == 0 {
		return nil
	}

	results := make([]ai.Message, 0, len(message.ToolCalls))
	for _, call := range message.ToolCalls {
		name := call.Function.Name

		var content string
		registered, found := catalog.Get(name)
		switch {
		case !found:
			content = fmt.Sprintf("Error: tool %q is not registered", name)
		default:
			output, err := registered.Call(ctx, call.Function.Arguments)
			if err != nil {
				content = fmt.Sprintf("Error: %s", err)
			} else {
				content = output
			}
		}

		results = append(results, ai.Message{
			Role:       ai.RoleTool,
			Content:    content,
			ToolCallID: call.ID,
			Name:       name,
		})
	}
	return results
}
