package reasoner

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"tradecouncil/internal/config"
)

// NewChatModel builds the chat model backing every role, selected by
// Config.LLMProvider. Any OpenAI-compatible backend works through the
// openai provider plus Config.BackendURL.
func NewChatModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	switch cfg.LLMProvider {
	case "deepseek":
		return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.DeepThinkLLM,
			MaxTokens: cfg.MaxTokens,
		})
	case "openai", "":
		maxTokens := cfg.MaxTokens
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BackendURL,
			APIKey:    cfg.APIKey,
			Model:     cfg.DeepThinkLLM,
			MaxTokens: &maxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

// NewQuickChatModel builds the lighter model used by tool-calling analysts.
func NewQuickChatModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	switch cfg.LLMProvider {
	case "deepseek":
		return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.QuickThinkLLM,
			MaxTokens: cfg.MaxTokens,
		})
	case "openai", "":
		maxTokens := cfg.MaxTokens
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BackendURL,
			APIKey:    cfg.APIKey,
			Model:     cfg.QuickThinkLLM,
			MaxTokens: &maxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
