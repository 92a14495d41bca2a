package diligence

import (
	"context"

	"diligence/internal/domain/models/diligence"
)

// TextClassifier splits raw request text into discrete, categorized items
type TextClassifier interface {
	Classify(ctx context.Context, text string) ([]diligence.ClassifiedItem, error)
}

// EvidenceMatcher proposes an answer and supporting documents for one request
type EvidenceMatcher interface {
	MatchEvidence(ctx context.Context, request string, docs []diligence.Document) (*diligence.SuggestedResponse, error)
}

// ReputationProber produces a preliminary reputation report for an entity name
type ReputationProber interface {
	Probe(ctx context.Context, entityName string) (*diligence.ReputationReport, error)
}

// SiteAnalyst builds a detailed profile from a confirmed investor URL
type SiteAnalyst interface {
	Analyze(ctx context.Context, url string) (*diligence.SiteProfile, error)
}

// Collaborators groups the external services the engine delegates to
type Collaborators struct {
	Classifier TextClassifier
	Matcher    EvidenceMatcher
	Prober     ReputationProber
	Analyst    SiteAnalyst
}
