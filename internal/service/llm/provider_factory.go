package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/anthropic"
	"github.com/haowjy/meridian-llm-go/providers/lorem"

	"diligence/internal/config"
	svc "diligence/internal/domain/services/diligence"
)

// Supported values of LLM_PROVIDER
const (
	ProviderOffline   = "offline"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderLorem     = "lorem"
)

// ProviderFactory creates the Generator behind the model-backed collaborators
type ProviderFactory struct {
	config *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{config: cfg}
}

// GetGenerator returns a generator for the configured provider, or nil for
// "offline".
//
// Supported providers:
//   - "offline" - keyword heuristics, no model
//   - "anthropic" - Claude models via Anthropic API
//   - "gemini" - Google Gemini models via genai
//   - "lorem" - Mock provider for testing (no API key required)
func (f *ProviderFactory) GetGenerator(ctx context.Context) (Generator, error) {
	switch f.config.LLMProvider {
	case ProviderOffline, "":
		return nil, nil

	case ProviderAnthropic:
		provider, err := f.createAnthropicProvider()
		if err != nil {
			return nil, err
		}
		return NewProviderGenerator(provider, f.config.LLMModel), nil

	case ProviderLorem:
		return NewProviderGenerator(lorem.NewProvider(), f.config.LLMModel), nil

	case ProviderGemini:
		if f.config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
		return NewGeminiGenerator(ctx, f.config.GeminiAPIKey, f.config.LLMModel)

	default:
		return nil, fmt.Errorf("unsupported provider: %s", f.config.LLMProvider)
	}
}

func (f *ProviderFactory) createAnthropicProvider() (llmprovider.Provider, error) {
	if f.config.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	provider, err := anthropic.NewProvider(f.config.AnthropicAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}
	return provider, nil
}

// NewCollaborators builds the four collaborators for the configured provider.
// The reputation prober is wrapped in an LRU cache unless the cache size is 0.
func NewCollaborators(ctx context.Context, cfg *config.Config, client *http.Client, logger *slog.Logger) (svc.Collaborators, error) {
	gen, err := NewProviderFactory(cfg).GetGenerator(ctx)
	if err != nil {
		return svc.Collaborators{}, err
	}

	var collab svc.Collaborators
	var prober svc.ReputationProber
	if gen == nil {
		collab.Classifier = KeywordClassifier{}
		collab.Matcher = KeywordMatcher{}
		prober = OfflineProber{}
		logger.Info("collaborators initialized", "provider", ProviderOffline)
	} else {
		collab.Classifier = NewClassifier(gen, logger)
		collab.Matcher = NewMatcher(gen, logger)
		prober = NewProber(gen, logger)
		logger.Info("collaborators initialized", "provider", cfg.LLMProvider, "generator", gen.Name())
	}
	collab.Analyst = NewSiteAnalyst(client, gen, logger)

	collab.Prober = prober
	if cfg.ReputationCacheSize > 0 {
		cached, err := NewCachedProber(prober, cfg.ReputationCacheSize, logger)
		if err != nil {
			return svc.Collaborators{}, fmt.Errorf("reputation cache: %w", err)
		}
		collab.Prober = cached
	}

	return collab, nil
}
