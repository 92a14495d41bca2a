package llm

import (
	"context"
	"fmt"
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"
)

// Generator produces one text completion for a system + user prompt pair.
// Collaborators only ever need a single JSON answer, never a conversation.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

const defaultMaxTokens = 2048

// ProviderGenerator adapts a meridian-llm-go provider to Generator
type ProviderGenerator struct {
	provider  llmprovider.Provider
	model     string
	maxTokens int
}

// NewProviderGenerator wraps provider, sending every request to model
func NewProviderGenerator(provider llmprovider.Provider, model string) *ProviderGenerator {
	return &ProviderGenerator{provider: provider, model: model, maxTokens: defaultMaxTokens}
}

// Name returns "<provider>:<model>"
func (g *ProviderGenerator) Name() string {
	return g.provider.Name().String() + ":" + g.model
}

// Generate sends a single user message and concatenates the text blocks of the reply
func (g *ProviderGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	text := prompt
	maxTokens := g.maxTokens
	req := &llmprovider.GenerateRequest{
		Messages: []llmprovider.Message{{
			Role: "user",
			Blocks: []*llmprovider.Block{{
				BlockType:   "text",
				Sequence:    0,
				TextContent: &text,
			}},
		}},
		Model: g.model,
		Params: &llmprovider.RequestParams{
			MaxTokens: &maxTokens,
			System:    &system,
		},
	}

	resp, err := g.provider.GenerateResponse(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", g.Name(), err)
	}

	var out strings.Builder
	for _, block := range resp.Blocks {
		if block == nil || block.BlockType != "text" || block.TextContent == nil {
			continue
		}
		out.WriteString(*block.TextContent)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%s returned no text (stop reason %q)", g.Name(), resp.StopReason)
	}
	return out.String(), nil
}
