package domain

import "context"

// FinishReason explains why generation ended.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishToolCalls     FinishReason = "tool-calls"
	FinishContentFilter FinishReason = "content-filter"
	FinishError         FinishReason = "error"
	FinishOther         FinishReason = "other"
)

// FinishInfo is reported by the generation collaborator when it completes.
type FinishInfo struct {
	Reason FinishReason
	Steps  int
}

// HitStepLimit reports whether generation stopped only because it ran out
// of steps.
func (f FinishInfo) HitStepLimit(maxSteps int) bool {
	return maxSteps > 0 && f.Reason == FinishStop && f.Steps >= maxSteps
}

// Message roles understood by the generation collaborator.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the conversation history.
type Message struct {
	Role    string
	Content string
}

// GenerationRequest is everything the generation collaborator consumes.
type GenerationRequest struct {
	Model    string
	System   string
	Messages []Message
	Tools    ToolSet
	MaxSteps int
}

// Generator produces an ordered event stream for a conversation. Events are
// delivered through emit in order; the returned info describes the finish.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest, emit func(StreamEvent)) (FinishInfo, error)
}
