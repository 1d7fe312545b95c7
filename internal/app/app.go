package app

import (
	"context"
	"fmt"

	"github.com/Conceptual-Machines/bidrohi/internal/config"
	"github.com/Conceptual-Machines/bidrohi/internal/generator"
	"github.com/Conceptual-Machines/bidrohi/internal/llm"
	"github.com/Conceptual-Machines/bidrohi/internal/metrics"
	"github.com/Conceptual-Machines/bidrohi/internal/observability"
	"github.com/Conceptual-Machines/bidrohi/internal/presenter"
	"github.com/Conceptual-Machines/bidrohi/internal/prompt"
)

// Core is the wired Generator and Presenter for one process
type Core struct {
	Provider  llm.Provider
	Model     string
	Generator *generator.Generator
	Presenter *presenter.Presenter
}

// BuildCore validates the configuration and wires the backend, prompt and presenter.
// A configuration problem comes back as *config.ConfigurationError.
func BuildCore(ctx context.Context, cfg *config.Config, recorder metrics.Recorder, langfuse *observability.LangfuseClient) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	style, err := prompt.NewPromptLoader(cfg.PromptStylePath).LoadStyle()
	if err != nil {
		return nil, &config.ConfigurationError{Key: "PROMPT_STYLE_PATH", Message: err.Error()}
	}

	factory := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.GeminiAPIKey)
	provider, err := factory.GetProvider(ctx, cfg.Model, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", cfg.Provider, err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel(provider.Name())
	}

	gen := generator.NewGenerator(provider, prompt.NewPromptBuilder(style), model,
		generator.WithRecorder(recorder),
		generator.WithLangfuse(langfuse),
	)
	p := presenter.NewPresenter(gen,
		presenter.WithInterval(cfg.RevealInterval),
		presenter.WithRecorder(recorder),
	)

	return &Core{
		Provider:  provider,
		Model:     model,
		Generator: gen,
		Presenter: p,
	}, nil
}

func defaultModel(providerName string) string {
	if providerName == config.ProviderOpenAI {
		return llm.DefaultOpenAIModel
	}
	return llm.DefaultGeminiModel
}
