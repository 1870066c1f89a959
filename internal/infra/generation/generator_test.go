package generation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardiangw/internal/domain"
)

// scriptedModel replays one chunk list per Stream call.
type scriptedModel struct {
	mu        sync.Mutex
	steps     [][]*schema.Message
	repeat    bool
	streamErr error
	calls     [][]*schema.Message
	bound     []*schema.ToolInfo
}

func (m *scriptedModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return nil, errors.New("not implemented")
}

func (m *scriptedModel) Stream(_ context.Context, messages []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	m.calls = append(m.calls, append([]*schema.Message(nil), messages...))
	if len(m.steps) == 0 {
		return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage("", nil)}), nil
	}
	chunks := m.steps[0]
	if !m.repeat {
		m.steps = m.steps[1:]
	}
	return schema.StreamReaderFromArray(chunks), nil
}

func (m *scriptedModel) BindTools(tools []*schema.ToolInfo) error {
	m.bound = tools
	return nil
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.bound = tools
	return m, nil
}

type staticModels struct {
	model model.ToolCallingChatModel
	err   error
}

func (s staticModels) ChatModel(context.Context, string) (model.ToolCallingChatModel, error) {
	return s.model, s.err
}

type echoTool struct {
	name string
	err  error
}

func (t echoTool) Spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        t.name,
		Description: "Echo text",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}}}`),
	}
}

func (t echoTool) Invoke(_ context.Context, args map[string]any) (*domain.ToolResult, error) {
	if t.err != nil {
		return nil, t.err
	}
	text, _ := args["text"].(string)
	return &domain.ToolResult{Text: "echo: " + text}, nil
}

func toolCallChunk(id, name, args string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       id,
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}})
}

func newTestGenerator(m model.ToolCallingChatModel) *EinoGenerator {
	return NewEinoGenerator(GeneratorOptions{
		Models: staticModels{model: m},
		NewID:  func() string { return "1" },
	})
}

func collect() (*[]domain.StreamEvent, func(domain.StreamEvent)) {
	var events []domain.StreamEvent
	return &events, func(event domain.StreamEvent) { events = append(events, event) }
}

func TestGenerate_TextOnly(t *testing.T) {
	m := &scriptedModel{steps: [][]*schema.Message{{
		schema.AssistantMessage("Hel", nil),
		schema.AssistantMessage("lo", nil),
	}}}
	events, emit := collect()

	info, err := newTestGenerator(m).Generate(context.Background(), domain.GenerationRequest{
		System:   "be brief",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	}, emit)
	require.NoError(t, err)

	assert.Equal(t, domain.FinishInfo{Reason: domain.FinishStop, Steps: 1}, info)
	assert.Equal(t, []domain.StreamEvent{
		{Type: domain.EventStartStep},
		{Type: domain.EventTextStart, ID: "text-1"},
		{Type: domain.EventTextDelta, ID: "text-1", Delta: "Hel"},
		{Type: domain.EventTextDelta, ID: "text-1", Delta: "lo"},
		{Type: domain.EventTextEnd, ID: "text-1"},
		{Type: domain.EventFinishStep},
	}, *events)
	assert.Nil(t, m.bound)

	require.Len(t, m.calls, 1)
	require.Len(t, m.calls[0], 2)
	assert.Equal(t, schema.System, m.calls[0][0].Role)
	assert.Equal(t, "be brief", m.calls[0][0].Content)
	assert.Equal(t, schema.User, m.calls[0][1].Role)
}

func TestGenerate_RunsToolCalls(t *testing.T) {
	m := &scriptedModel{steps: [][]*schema.Message{
		{toolCallChunk("call-1", "code_echo", `{"text":"hi"}`)},
		{schema.AssistantMessage("done", nil)},
	}}
	events, emit := collect()

	info, err := newTestGenerator(m).Generate(context.Background(), domain.GenerationRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "echo hi"}},
		Tools:    domain.ToolSet{"code_echo": echoTool{name: "code_echo"}},
	}, emit)
	require.NoError(t, err)

	assert.Equal(t, domain.FinishInfo{Reason: domain.FinishStop, Steps: 2}, info)
	require.Len(t, m.bound, 1)
	assert.Equal(t, "code_echo", m.bound[0].Name)
	assert.Equal(t, "Echo text", m.bound[0].Desc)

	assert.Equal(t, []domain.StreamEvent{
		{Type: domain.EventStartStep},
		{Type: domain.EventToolInputAvailable, ToolCallID: "call-1", ToolName: "code_echo", Input: json.RawMessage(`{"text":"hi"}`)},
		{Type: domain.EventToolOutput, ToolCallID: "call-1", Output: json.RawMessage(`{"text":"echo: hi"}`)},
		{Type: domain.EventFinishStep},
		{Type: domain.EventStartStep},
		{Type: domain.EventTextStart, ID: "text-1"},
		{Type: domain.EventTextDelta, ID: "text-1", Delta: "done"},
		{Type: domain.EventTextEnd, ID: "text-1"},
		{Type: domain.EventFinishStep},
	}, *events)

	require.Len(t, m.calls, 2)
	second := m.calls[1]
	require.Len(t, second, 3)
	assert.Len(t, second[1].ToolCalls, 1)
	assert.Equal(t, schema.Tool, second[2].Role)
	assert.Equal(t, "call-1", second[2].ToolCallID)
	assert.Equal(t, "echo: hi", second[2].Content)
}

func TestGenerate_ToolFailuresReachModel(t *testing.T) {
	tests := []struct {
		name      string
		call      *schema.Message
		tools     domain.ToolSet
		wantError string
	}{
		{
			name:      "unknown tool",
			call:      toolCallChunk("call-1", "code_missing", `{}`),
			tools:     domain.ToolSet{"code_echo": echoTool{name: "code_echo"}},
			wantError: "tool not found: code_missing",
		},
		{
			name:      "backend error",
			call:      toolCallChunk("call-1", "code_echo", `{"text":"hi"}`),
			tools:     domain.ToolSet{"code_echo": echoTool{name: "code_echo", err: errors.New("boom")}},
			wantError: "boom",
		},
		{
			name:      "malformed arguments",
			call:      toolCallChunk("call-1", "code_echo", `{"text":`),
			tools:     domain.ToolSet{"code_echo": echoTool{name: "code_echo"}},
			wantError: "decode arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &scriptedModel{steps: [][]*schema.Message{
				{tt.call},
				{schema.AssistantMessage("sorry", nil)},
			}}
			events, emit := collect()

			info, err := newTestGenerator(m).Generate(context.Background(), domain.GenerationRequest{
				Tools: tt.tools,
			}, emit)
			require.NoError(t, err)
			assert.Equal(t, 2, info.Steps)

			var failed *domain.StreamEvent
			for i := range *events {
				if (*events)[i].Type == domain.EventToolOutputError {
					failed = &(*events)[i]
				}
			}
			require.NotNil(t, failed)
			assert.Equal(t, "call-1", failed.ToolCallID)
			assert.Contains(t, failed.ErrorText, tt.wantError)

			toolMsg := m.calls[1][len(m.calls[1])-1]
			assert.Equal(t, schema.Tool, toolMsg.Role)
			assert.Contains(t, toolMsg.Content, "Error: ")
			assert.Contains(t, toolMsg.Content, tt.wantError)
		})
	}
}

func TestGenerate_StopsAtMaxSteps(t *testing.T) {
	m := &scriptedModel{
		steps:  [][]*schema.Message{{toolCallChunk("call-1", "code_echo", `{"text":"again"}`)}},
		repeat: true,
	}
	_, emit := collect()

	info, err := newTestGenerator(m).Generate(context.Background(), domain.GenerationRequest{
		Tools:    domain.ToolSet{"code_echo": echoTool{name: "code_echo"}},
		MaxSteps: 3,
	}, emit)
	require.NoError(t, err)

	assert.Equal(t, domain.FinishInfo{Reason: domain.FinishStop, Steps: 3}, info)
	assert.True(t, info.HitStepLimit(3))
	assert.Len(t, m.calls, 3)
}

func TestGenerate_MapsFinishReason(t *testing.T) {
	chunk := schema.AssistantMessage("cut", nil)
	chunk.ResponseMeta = &schema.ResponseMeta{FinishReason: "length"}
	m := &scriptedModel{steps: [][]*schema.Message{{chunk}}}
	_, emit := collect()

	info, err := newTestGenerator(m).Generate(context.Background(), domain.GenerationRequest{}, emit)
	require.NoError(t, err)
	assert.Equal(t, domain.FinishLength, info.Reason)
	assert.False(t, info.HitStepLimit(1))
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("model unavailable", func(t *testing.T) {
		gen := NewEinoGenerator(GeneratorOptions{Models: staticModels{err: errors.New("no key")}})
		_, emit := collect()
		_, err := gen.Generate(context.Background(), domain.GenerationRequest{}, emit)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no key")
	})

	t.Run("stream failure", func(t *testing.T) {
		m := &scriptedModel{streamErr: errors.New("upstream 500")}
		events, emit := collect()
		info, err := newTestGenerator(m).Generate(context.Background(), domain.GenerationRequest{}, emit)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upstream 500")
		assert.Equal(t, domain.FinishError, info.Reason)
		assert.Equal(t, []domain.StreamEvent{{Type: domain.EventStartStep}}, *events)
	})
}
