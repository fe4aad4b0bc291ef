package completion

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"aigate/internal/domain"
)

// ModelFactory returns the chat model that serves a backend.
type ModelFactory interface {
	ChatModel(ctx context.Context, backend domain.Backend) (model.BaseChatModel, error)
}

// OpenAIFactory builds OpenAI-compatible chat models, one per backend id.
// The API key is read from the environment on first use.
type OpenAIFactory struct {
	cfg domain.LLMConfig

	mu     sync.Mutex
	models map[string]model.BaseChatModel
}

func NewOpenAIFactory(cfg domain.LLMConfig) *OpenAIFactory {
	return &OpenAIFactory{cfg: cfg, models: make(map[string]model.BaseChatModel)}
}

func (f *OpenAIFactory) ChatModel(ctx context.Context, backend domain.Backend) (model.BaseChatModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cached, ok := f.models[backend.ID]; ok {
		return cached, nil
	}

	envVar := strings.TrimSpace(f.cfg.APIKeyEnvVar)
	if envVar == "" {
		envVar = domain.DefaultLLMAPIKeyEnvVar
	}
	apiKey := strings.TrimSpace(os.Getenv(envVar))
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in env var %s", envVar)
	}

	cfg := &openai.ChatModelConfig{
		Model:  backend.ID,
		APIKey: apiKey,
	}
	if f.cfg.BaseURL != "" {
		cfg.BaseURL = f.cfg.BaseURL
	}
	chatModel, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create chat model %s: %w", backend.ID, err)
	}
	f.models[backend.ID] = chatModel
	return chatModel, nil
}
