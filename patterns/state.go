// Package patterns holds the plumbing shared by all orchestration strategies:
// the base agent state and patch types, plan parsing, the tool-invocation
// node, and the option set strategy builders accept.
package patterns

import (
	"codescout/providers/ai"
)

// AgentState is the base state record shared by every strategy: the ordered,
// append-only message sequence of one run and the final answer, set at most
// once. Strategy state types embed AgentState and add their own fields.
type AgentState struct {
	Messages    []ai.Message
	FinalAnswer string
}

// Completed reports whether a final answer has been produced. The graph
// engine checks this after every merge, so any node setting the final answer
// ends the run regardless of graph position.
func (s AgentState) Completed() bool {
	return s.FinalAnswer != ""
}

// LastMessage returns the most recent message, if any.
func (s AgentState) LastMessage() (ai.Message, bool) {
	if len(s.Messages) == 0 {
		return ai.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// PendingToolCalls returns the tool calls of the latest message, or nil when
// the latest message requests none.
func (s AgentState) PendingToolCalls() []ai.ToolCall {
	last, ok := s.LastMessage()
	if !ok {
		return nil
	}
	return last.ToolCalls
}

// FirstUserContent returns the content of the earliest user message, which
// is the original question of the run.
func (s AgentState) FirstUserContent() string {
	for _, message := range s.Messages {
		if message.Role == ai.RoleUser {
			return message.Content
		}
	}
	return ""
}

// LastAssistantContent returns the content of the most recent assistant
// message, scanning backwards.
func (s AgentState) LastAssistantContent() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == ai.RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}

// AgentPatch is the base partial update: messages to append and, optionally,
// the final answer. Strategy patch types embed AgentPatch.
type AgentPatch struct {
	Messages    []ai.Message
	FinalAnswer string
}

// AppendedMessages surfaces the patch's messages to the engine's trace hook.
func (p AgentPatch) AppendedMessages() []ai.Message {
	return p.Messages
}

// Apply merges the patch into the state: messages append, the final answer
// replaces when set.
func (s AgentState) Apply(p AgentPatch) AgentState {
	if len(p.Messages) > 0 {
		merged := make([]ai.Message, 0, len(s.Messages)+len(p.Messages))
		merged = append(merged, s.Messages...)
		merged = append(merged, p.Messages...)
		s.Messages = merged
	}
	if p.FinalAnswer != "" {
		s.FinalAnswer = p.FinalAnswer
	}
	return s
}

// InitialState seeds a run's state with the user query.
func InitialState(query string) AgentState {
	return AgentState{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: query}},
	}
}

// Result is the strategy-agnostic outcome of one run.
type Result struct {
	// Answer is the final answer, empty when the run ended without one.
	Answer string
	// Answered reports whether a final answer was produced.
	Answered bool
	// Messages is the full message sequence of the run.
	Messages []ai.Message
}

// ResultFrom builds a Result from a final base state.
func ResultFrom(s AgentState) Result {
	return Result{
		Answer:   s.FinalAnswer,
		Answered: s.FinalAnswer != "",
		Messages: s.Messages,
	}
}
