package patterns

import (
	"context"
	"fmt"

	"codescout/providers/ai"
)

// CallModel sends a chat request and converts the response into the assistant
// message to append to the state, carrying over any tool-call requests.
func CallModel(ctx context.Context, provider ai.Provider, request ai.ChatRequest) (ai.Message, *ai.ChatResponse, error) {
	response, err := provider.SendMessage(ctx, request)
	if err != nil {
		return ai.Message{}, nil, fmt.Errorf("model call failed: %w", err)
	}

	message := ai.Message{
		Role:      ai.RoleAssistant,
		Content:   response.Content,
		ToolCalls: response.ToolCalls,
	}
	return message, response, nil
}
