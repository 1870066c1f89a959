package generation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"guardiangw/internal/domain"
)

// ModelProvider returns a chat model by name.
type ModelProvider interface {
	ChatModel(ctx context.Context, name string) (model.ToolCallingChatModel, error)
}

// ModelFactory builds provider chat models on first use and caches them per
// model name.
type ModelFactory struct {
	config domain.ModelConfig

	mu     sync.Mutex
	models map[string]model.ToolCallingChatModel
}

func NewModelFactory(config domain.ModelConfig) *ModelFactory {
	return &ModelFactory{
		config: config,
		models: make(map[string]model.ToolCallingChatModel),
	}
}

func (f *ModelFactory) ChatModel(ctx context.Context, name string) (model.ToolCallingChatModel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = f.config.Default
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if cached, ok := f.models[name]; ok {
		return cached, nil
	}
	built, err := initializeModel(ctx, f.config, name)
	if err != nil {
		return nil, err
	}
	f.models[name] = built
	return built, nil
}

func initializeModel(ctx context.Context, config domain.ModelConfig, name string) (model.ToolCallingChatModel, error) {
	apiKey := strings.TrimSpace(config.APIKey)
	if apiKey == "" {
		envVar := strings.TrimSpace(config.APIKeyEnvVar)
		if envVar == "" {
			return nil, fmt.Errorf("API key is required: set model.apiKey or model.apiKeyEnvVar")
		}
		apiKey = os.Getenv(envVar)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found in env var %s", envVar)
		}
	}

	switch config.Provider {
	case "openai", "":
		cfg := &openai.ChatModelConfig{
			Model:  name,
			APIKey: apiKey,
		}
		if config.BaseURL != "" {
			cfg.BaseURL = config.BaseURL
		}
		return openai.NewChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}
