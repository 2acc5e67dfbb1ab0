// Package openai adapts any OpenAI-compatible chat completion endpoint to the
// ai.Provider interface using the sashabaranov/go-openai client.
package openai

import (
	"context"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"codescout/providers/ai"
)

// DefaultModel is used when a request carries no model identifier.
const DefaultModel = "gpt-4o-mini"

// Provider implements ai.Provider over the OpenAI chat completions API.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates an unconfigured provider. Chain the With* methods to set the
// API key and, for compatible gateways, the base URL.
func New() *Provider {
	return &Provider{}
}

// WithAPIKey sets the API key used for authenticating requests.
func (p *Provider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the default base URL for API requests.
func (p *Provider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient sets the HTTP client used for outbound requests.
func (p *Provider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.httpClient = httpClient
	return p
}

func (p *Provider) client() *goopenai.Client {
	config := goopenai.DefaultConfig(p.apiKey)
	if p.baseURL != "" {
		config.BaseURL = p.baseURL
	}
	if p.httpClient != nil {
		config.HTTPClient = p.httpClient
	}
	return goopenai.NewClientWithConfig(config)
}

// SendMessage sends a chat request and returns the completed response.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	completion, err := p.client().CreateChatCompletion(ctx, toCompletionRequest(request))
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai: response %s carried no choices", completion.ID)
	}
	return fromCompletionResponse(completion), nil
}

// IsStopMessage reports whether the response is a terminal completion: a
// plain stop without outstanding tool calls.
func (p *Provider) IsStopMessage(message *ai.ChatResponse) bool {
	if message == nil {
		return false
	}
	return len(message.ToolCalls) == 0
}

// toCompletionRequest converts the provider-neutral request into the wire
// format, prepending the system prompt as the first message.
func toCompletionRequest(request ai.ChatRequest) goopenai.ChatCompletionRequest {
	model := request.Model
	if model == "" {
		model = DefaultModel
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, len(request.Messages)+1)
	if request.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: request.SystemPrompt,
		})
	}
	for _, message := range request.Messages {
		messages = append(messages, toCompletionMessage(message))
	}

	var tools []goopenai.Tool
	for _, description := range request.Tools {
		tools = append(tools, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        description.Name,
				Description: description.Description,
				Parameters:  description.Parameters,
			},
		})
	}

	return goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Tools:    tools,
	}
}

func toCompletionMessage(message ai.Message) goopenai.ChatCompletionMessage {
	converted := goopenai.ChatCompletionMessage{
		Role:       string(message.Role),
		Content:    message.Content,
		ToolCallID: message.ToolCallID,
		Name:       message.Name,
	}
	for _, call := range message.ToolCalls {
		converted.ToolCalls = append(converted.ToolCalls, goopenai.ToolCall{
			ID:   call.ID,
			Type: goopenai.ToolTypeFunction,
			Function: goopenai.FunctionCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return converted
}

func fromCompletionResponse(completion goopenai.ChatCompletionResponse) *ai.ChatResponse {
	choice := completion.Choices[0]

	var toolCalls []ai.ToolCall
	for _, call := range choice.Message.ToolCalls {
		toolCalls = append(toolCalls, ai.ToolCall{
			ID:   call.ID,
			Type: string(call.Type),
			Function: ai.ToolCallFunction{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}

	return &ai.ChatResponse{
		Id:           completion.ID,
		Model:        completion.Model,
		Content:      choice.Message.Content,
		ToolCalls:    toolCalls,
		FinishReason: string(choice.FinishReason),
		Usage: &ai.Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
	}
}
