package generation

import (
	"encoding/json"

	"github.com/cloudwego/eino/schema"
	"github.com/eino-contrib/jsonschema"

	"guardiangw/internal/domain"
)

func toolInfos(tools domain.ToolSet) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, name := range tools.Names() {
		spec := tools[name].Spec()
		infos = append(infos, &schema.ToolInfo{
			Name:        name,
			Desc:        spec.Description,
			ParamsOneOf: schema.NewParamsOneOfByJSONSchema(paramsSchema(spec.InputSchema)),
		})
	}
	return infos
}

// paramsSchema decodes a backend input schema, falling back to an empty
// object schema when the declaration is missing or unreadable.
func paramsSchema(raw json.RawMessage) *jsonschema.Schema {
	if len(raw) > 0 {
		var js jsonschema.Schema
		if err := json.Unmarshal(raw, &js); err == nil {
			if js.Type == "" {
				js.Type = "object"
			}
			return &js
		}
	}
	return &jsonschema.Schema{Type: "object"}
}

func toSchemaMessages(system string, history []domain.Message) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+1)
	if system != "" {
		messages = append(messages, schema.SystemMessage(system))
	}
	for _, msg := range history {
		switch msg.Role {
		case domain.RoleSystem:
			messages = append(messages, schema.SystemMessage(msg.Content))
		case domain.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(msg.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(msg.Content))
		}
	}
	return messages
}

func finishReason(raw string) domain.FinishReason {
	switch raw {
	case "length":
		return domain.FinishLength
	case "content_filter":
		return domain.FinishContentFilter
	case "tool_calls":
		return domain.FinishToolCalls
	default:
		return domain.FinishStop
	}
}
