package chat

import (
	"strings"

	"guardiangw/internal/domain"
)

// Request is the body of POST /api/chat.
type Request struct {
	Messages      []MessagePayload          `json:"messages"`
	Model         string                    `json:"model,omitempty"`
	Backends      map[string]BackendOverlay `json:"backends,omitempty"`
	TunnelSecret  string                    `json:"tunnelSecret,omitempty"`
	SelectedNode  *SelectedNode             `json:"selectedNode,omitempty"`
	PluginContext *PluginContext            `json:"pluginContext,omitempty"`
}

// MessagePayload carries either plain content or a list of typed parts.
type MessagePayload struct {
	Role    string        `json:"role"`
	Content string        `json:"content,omitempty"`
	Parts   []MessagePart `json:"parts,omitempty"`
}

type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// BackendOverlay adjusts one configured backend for a single request, or
// adds an unconfigured one.
type BackendOverlay struct {
	Address     string `json:"address,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	Enabled     *bool  `json:"enabled,omitempty"`
	Transport   string `json:"transport,omitempty"`
}

type SelectedNode struct {
	NodeURL string `json:"nodeUrl,omitempty"`
	Nodes   []any  `json:"nodes,omitempty"`
}

type PluginContext struct {
	FileName    string    `json:"fileName,omitempty"`
	FileKey     string    `json:"fileKey,omitempty"`
	FileURL     string    `json:"fileUrl,omitempty"`
	CurrentPage *PageRef  `json:"currentPage,omitempty"`
	Pages       []PageRef `json:"pages,omitempty"`
	CurrentUser *UserRef  `json:"currentUser,omitempty"`
}

type PageRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UserRef struct {
	Name string `json:"name"`
}

// Text returns the message text. Parts win over content; only text parts
// are kept.
func (m MessagePayload) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	texts := make([]string, 0, len(m.Parts))
	for _, part := range m.Parts {
		if part.Type == "text" && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// history converts the payload into conversation messages, dropping empty
// ones and unknown roles.
func history(payloads []MessagePayload) []domain.Message {
	out := make([]domain.Message, 0, len(payloads))
	for _, payload := range payloads {
		text := payload.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(payload.Role))
		switch role {
		case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
		default:
			continue
		}
		out = append(out, domain.Message{Role: role, Content: text})
	}
	return out
}
