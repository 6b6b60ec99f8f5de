package quizgen

import (
	"context"
	"fmt"
	"net/http"

	"quiz-tutor/internal/config"
	"quiz-tutor/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// NewModel builds the langchaingo client for the configured provider. Per-attempt deadlines are
// applied by the generator through the request context, so the HTTP client carries no timeout.
func NewModel(ctx context.Context, llmCfg config.LLMConfig) (llms.Model, error) {
	l := logger.Get()

	switch llmCfg.Provider {
	case config.ProviderOllama:
		l.Info("Using Ollama quiz generator", zap.String("server", llmCfg.Server), zap.String("model", llmCfg.Model))
		return ollama.New(
			ollama.WithServerURL(llmCfg.Server),
			ollama.WithModel(llmCfg.Model),
			ollama.WithHTTPClient(&http.Client{}),
		)
	case config.ProviderGoogleAI:
		if llmCfg.APIKey == "" {
			return nil, fmt.Errorf("llm.api_key is required for provider %s", llmCfg.Provider)
		}
		l.Info("Using Google AI quiz generator", zap.String("model", llmCfg.Model))
		return googleai.New(ctx,
			googleai.WithAPIKey(llmCfg.APIKey),
			googleai.WithDefaultModel(llmCfg.Model),
		)
	case config.ProviderOpenAI:
		if llmCfg.APIKey == "" {
			return nil, fmt.Errorf("llm.api_key is required for provider %s", llmCfg.Provider)
		}
		l.Info("Using OpenAI quiz generator", zap.String("model", llmCfg.Model))
		return openai.New(
			openai.WithToken(llmCfg.APIKey),
			openai.WithModel(llmCfg.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", llmCfg.Provider)
	}
}
