package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"guardiangw/internal/domain"
)

type remoteSession struct {
	session *mcp.ClientSession
	label   string
}

func newRemoteSession(session *mcp.ClientSession, label string) *remoteSession {
	return &remoteSession{session: session, label: label}
}

// ListTools pages through tools/list until the cursor is exhausted.
func (s *remoteSession) ListTools(ctx context.Context) ([]domain.Tool, error) {
	var tools []domain.Tool
	cursor := ""
	for {
		res, err := s.session.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, err
		}
		for _, tool := range res.Tools {
			if tool == nil {
				continue
			}
			converted, err := newRemoteTool(s.session, tool)
			if err != nil {
				return nil, err
			}
			tools = append(tools, converted)
		}
		if res.NextCursor == "" {
			return tools, nil
		}
		cursor = res.NextCursor
	}
}

func (s *remoteSession) Close() error {
	return s.session.Close()
}

type remoteTool struct {
	session *mcp.ClientSession
	spec    domain.ToolSpec
}

func newRemoteTool(session *mcp.ClientSession, tool *mcp.Tool) (*remoteTool, error) {
	spec := domain.ToolSpec{Name: tool.Name, Description: tool.Description}
	if tool.InputSchema != nil {
		raw, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("encode input schema for %s: %w", tool.Name, err)
		}
		spec.InputSchema = raw
	}
	return &remoteTool{session: session, spec: spec}, nil
}

func (t *remoteTool) Spec() domain.ToolSpec { return t.spec }

func (t *remoteTool) Invoke(ctx context.Context, args map[string]any) (*domain.ToolResult, error) {
	res, err := t.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      t.spec.Name,
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}
	text := joinText(res.Content)
	if res.IsError {
		return nil, &domain.ToolExecutionError{Tool: t.spec.Name, Message: text}
	}
	result := &domain.ToolResult{Text: text}
	if res.StructuredContent != nil {
		raw, err := json.Marshal(res.StructuredContent)
		if err != nil {
			return nil, fmt.Errorf("encode structured content: %w", err)
		}
		result.Structured = raw
	}
	return result, nil
}

func joinText(content []mcp.Content) string {
	parts := make([]string, 0, len(content))
	for _, item := range content {
		if text, ok := item.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
