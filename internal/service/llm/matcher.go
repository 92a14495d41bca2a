package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	models "diligence/internal/domain/models/diligence"
	svc "diligence/internal/domain/services/diligence"
)

const matcherSystem = `You answer one investor due-diligence request using only the company's vault documents.
Respond ONLY with JSON of the form:
{"confidence_score": 0-100, "summary": "...", "evidence": [{"document_id": "...", "document_name": "...", "relevance": "..."}]}
Cite only document ids from the provided list. Use an empty evidence list and a low score when nothing applies.`

type matcherReply struct {
	ConfidenceScore score             `json:"confidence_score"`
	Summary         string            `json:"summary"`
	Evidence        []models.Evidence `json:"evidence"`
}

// Matcher is the LLM-backed EvidenceMatcher
type Matcher struct {
	gen    Generator
	logger *slog.Logger
}

// NewMatcher creates an EvidenceMatcher on top of gen
func NewMatcher(gen Generator, logger *slog.Logger) *Matcher {
	return &Matcher{gen: gen, logger: logger}
}

var _ svc.EvidenceMatcher = (*Matcher)(nil)

// MatchEvidence asks the model to pick supporting documents for request
func (m *Matcher) MatchEvidence(ctx context.Context, request string, docs []models.Document) (*models.SuggestedResponse, error) {
	catalog, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document catalog: %w", err)
	}
	prompt := fmt.Sprintf("Request:\n%s\n\n[VAULT DOCUMENTS]\n%s", request, catalog)

	resp, err := m.gen.Generate(ctx, matcherSystem, prompt)
	if err != nil {
		return nil, err
	}

	var reply matcherReply
	if err := decodeCompletion(resp, &reply); err != nil {
		return nil, fmt.Errorf("evidence matcher: %w", err)
	}
	suggestion := models.SuggestedResponse{
		ConfidenceScore: reply.ConfidenceScore.Int(),
		Summary:         reply.Summary,
		Evidence:        reply.Evidence,
	}
	if suggestion.Evidence == nil {
		suggestion.Evidence = []models.Evidence{}
	}

	m.logger.Debug("evidence matched", "generator", m.gen.Name(), "evidence", len(suggestion.Evidence))
	return &suggestion, nil
}
