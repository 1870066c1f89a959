package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"guardiangw/internal/domain"
	"guardiangw/internal/infra/telemetry"
)

// EinoGenerator runs a tool-calling loop against an eino chat model and
// reports the loop as stream events.
type EinoGenerator struct {
	models ModelProvider
	newID  func() string
	logger *zap.Logger
}

// GeneratorOptions configures an EinoGenerator.
type GeneratorOptions struct {
	Models ModelProvider
	NewID  func() string
	Logger *zap.Logger
}

func NewEinoGenerator(opts GeneratorOptions) *EinoGenerator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &EinoGenerator{
		models: opts.Models,
		newID:  newID,
		logger: logger.Named("generation"),
	}
}

// Generate streams model steps until the model stops requesting tools or
// MaxSteps steps ran. Tool failures are reported to the model as tool
// messages and never end the loop.
func (g *EinoGenerator) Generate(ctx context.Context, req domain.GenerationRequest, emit func(domain.StreamEvent)) (domain.FinishInfo, error) {
	logger := telemetry.LoggerWithRequest(ctx, g.logger)
	chatModel, err := g.models.ChatModel(ctx, req.Model)
	if err != nil {
		return domain.FinishInfo{}, fmt.Errorf("resolve model: %w", err)
	}
	if len(req.Tools) > 0 {
		chatModel, err = chatModel.WithTools(toolInfos(req.Tools))
		if err != nil {
			return domain.FinishInfo{}, fmt.Errorf("bind tools: %w", err)
		}
	}

	messages := toSchemaMessages(req.System, req.Messages)
	steps := 0
	for {
		emit(domain.StreamEvent{Type: domain.EventStartStep})
		reply, err := g.step(ctx, chatModel, messages, emit)
		if err != nil {
			return domain.FinishInfo{Reason: domain.FinishError, Steps: steps}, err
		}
		steps++
		messages = append(messages, reply)

		if len(reply.ToolCalls) == 0 {
			emit(domain.StreamEvent{Type: domain.EventFinishStep})
			reason := domain.FinishStop
			if reply.ResponseMeta != nil {
				reason = finishReason(reply.ResponseMeta.FinishReason)
			}
			return domain.FinishInfo{Reason: reason, Steps: steps}, nil
		}

		for _, call := range reply.ToolCalls {
			messages = append(messages, g.runTool(ctx, logger, req.Tools, call, emit))
		}
		emit(domain.StreamEvent{Type: domain.EventFinishStep})

		if req.MaxSteps > 0 && steps >= req.MaxSteps {
			logger.Warn("generation stopped at step limit", zap.Int("steps", steps))
			return domain.FinishInfo{Reason: domain.FinishStop, Steps: steps}, nil
		}
		if err := ctx.Err(); err != nil {
			return domain.FinishInfo{Reason: domain.FinishError, Steps: steps}, err
		}
	}
}

// step streams one model turn, forwarding text as it arrives, and returns
// the concatenated assistant message.
func (g *EinoGenerator) step(
	ctx context.Context,
	chatModel model.BaseChatModel,
	messages []*schema.Message,
	emit func(domain.StreamEvent),
) (*schema.Message, error) {
	reader, err := chatModel.Stream(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("model stream: %w", err)
	}
	defer reader.Close()

	var chunks []*schema.Message
	textID := ""
	for {
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("model stream: %w", err)
		}
		if chunk == nil {
			continue
		}
		chunks = append(chunks, chunk)
		if chunk.Content == "" {
			continue
		}
		if textID == "" {
			textID = "text-" + g.newID()
			emit(domain.StreamEvent{Type: domain.EventTextStart, ID: textID})
		}
		emit(domain.StreamEvent{Type: domain.EventTextDelta, ID: textID, Delta: chunk.Content})
	}
	if textID != "" {
		emit(domain.StreamEvent{Type: domain.EventTextEnd, ID: textID})
	}
	if len(chunks) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	return schema.ConcatMessages(chunks)
}

func (g *EinoGenerator) runTool(
	ctx context.Context,
	logger *zap.Logger,
	tools domain.ToolSet,
	call schema.ToolCall,
	emit func(domain.StreamEvent),
) *schema.Message {
	name := call.Function.Name
	input := json.RawMessage(call.Function.Arguments)
	if !json.Valid(input) {
		input = json.RawMessage("{}")
	}
	emit(domain.StreamEvent{
		Type:       domain.EventToolInputAvailable,
		ToolCallID: call.ID,
		ToolName:   name,
		Input:      input,
	})

	fail := func(err error) *schema.Message {
		logger.Debug("tool call failed", telemetry.ToolField(name), zap.Error(err))
		emit(domain.StreamEvent{Type: domain.EventToolOutputError, ToolCallID: call.ID, ErrorText: err.Error()})
		return schema.ToolMessage("Error: "+err.Error(), call.ID)
	}

	tool, ok := tools[name]
	if !ok {
		return fail(fmt.Errorf("%w: %s", domain.ErrToolNotFound, name))
	}
	var args map[string]any
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return fail(domain.E(domain.CodeInvalidArgument, "decode arguments", "", err))
		}
	}

	result, err := tool.Invoke(ctx, args)
	if err != nil {
		return fail(err)
	}
	output, err := json.Marshal(result)
	if err != nil {
		return fail(fmt.Errorf("encode tool output: %w", err))
	}
	emit(domain.StreamEvent{Type: domain.EventToolOutput, ToolCallID: call.ID, Output: output})

	content := result.Text
	if content == "" && len(result.Structured) > 0 {
		content = string(result.Structured)
	}
	return schema.ToolMessage(content, call.ID)
}

var _ domain.Generator = (*EinoGenerator)(nil)
