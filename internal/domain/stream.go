package domain

import (
	"context"
	"encoding/json"
)

// EventType is the stable textual tag carried by every outbound record.
type EventType string

const (
	EventStart              EventType = "start"
	EventTextStart          EventType = "text-start"
	EventTextDelta          EventType = "text-delta"
	EventTextEnd            EventType = "text-end"
	EventPing               EventType = "ping"
	EventStartStep          EventType = "start-step"
	EventFinishStep         EventType = "finish-step"
	EventToolInputAvailable EventType = "tool-input-available"
	EventToolOutput         EventType = "tool-output-available"
	EventToolOutputError    EventType = "tool-output-error"
	EventError              EventType = "error"
	EventFinish             EventType = "finish"

	// EventDone is the stream-end sentinel; it has no JSON body on the wire.
	EventDone EventType = "done"
)

// Inline markers carried inside text deltas.
const (
	MarkerStatusConnecting      = "[MCP_STATUS:connecting]"
	MarkerStatusConnected       = "[MCP_STATUS:connected]"
	MarkerErrorBlockOpen        = "[MCP_ERROR_BLOCK]"
	MarkerErrorBlockClose       = "[/MCP_ERROR_BLOCK]"
	MarkerContinuationAvailable = "[CONTINUATION_AVAILABLE]"
)

// StreamEvent is one outbound record.
type StreamEvent struct {
	Type         EventType       `json:"type"`
	ID           string          `json:"id,omitempty"`
	Delta        string          `json:"delta,omitempty"`
	Timestamp    int64           `json:"timestamp,omitempty"`
	ToolCallID   string          `json:"toolCallId,omitempty"`
	ToolName     string          `json:"toolName,omitempty"`
	Input        json.RawMessage `json:"input,omitempty"`
	Output       json.RawMessage `json:"output,omitempty"`
	ErrorText    string          `json:"errorText,omitempty"`
	FinishReason FinishReason    `json:"finishReason,omitempty"`
}

// SessionState is the lifecycle state of one outbound stream.
type SessionState string

const (
	SessionConnecting   SessionState = "connecting"
	SessionReady        SessionState = "ready"
	SessionGenerating   SessionState = "generating"
	SessionContinuation SessionState = "continuation"
	SessionDone         SessionState = "done"
	SessionFailed       SessionState = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	switch s {
	case SessionContinuation, SessionDone, SessionFailed:
		return true
	default:
		return false
	}
}

// EventWriter is the single outbound channel to the caller.
type EventWriter interface {
	WriteEvent(event StreamEvent) error
}

// ConnectFunc runs the connect phase for one session.
type ConnectFunc func(ctx context.Context) ConnectResult
