package llm

import (
	"context"
	"strings"
	"testing"

	models "diligence/internal/domain/models/diligence"
)

var testDocs = []models.Document{
	{ID: "doc-fin", Name: "FY2024 Audited Financial Statements", Type: "pdf", Summary: "Audited revenue, margin and cash flow for fiscal 2024"},
	{ID: "doc-cap", Name: "Cap Table", Type: "spreadsheet", Summary: "Fully diluted ownership and option pool"},
	{ID: "doc-charter", Name: "Certificate of Incorporation", Type: "pdf", Summary: "Delaware charter and amendments"},
}

func TestMatcher_MatchEvidence(t *testing.T) {
	gen := &fakeGenerator{reply: `{"confidence_score": 140, "summary": "Covered by the audit", "evidence": [{"document_id": "doc-fin", "document_name": "FY2024 Audited Financial Statements", "relevance": "revenue"}]}`}

	got, err := NewMatcher(gen, testLogger()).MatchEvidence(context.Background(), "Send audited revenue", testDocs)
	if err != nil {
		t.Fatalf("MatchEvidence: %v", err)
	}
	if got.ConfidenceScore != 100 {
		t.Errorf("ConfidenceScore = %d, want clamped 100", got.ConfidenceScore)
	}
	if len(got.Evidence) != 1 || got.Evidence[0].DocumentID != "doc-fin" {
		t.Errorf("Evidence = %+v", got.Evidence)
	}
	if !strings.Contains(gen.prompts[0], "doc-charter") {
		t.Error("prompt does not include the document catalog")
	}
}

func TestMatcher_FractionalScore(t *testing.T) {
	gen := &fakeGenerator{reply: `{"confidence_score": 82.5, "summary": "Mostly covered", "evidence": []}`}

	got, err := NewMatcher(gen, testLogger()).MatchEvidence(context.Background(), "Send audited revenue", testDocs)
	if err != nil {
		t.Fatalf("MatchEvidence: %v", err)
	}
	if got.ConfidenceScore != 83 {
		t.Errorf("ConfidenceScore = %d, want rounded 83", got.ConfidenceScore)
	}
	if got.Summary != "Mostly covered" {
		t.Errorf("Summary = %q", got.Summary)
	}
}

func TestMatcher_NilEvidenceBecomesEmpty(t *testing.T) {
	gen := &fakeGenerator{reply: `{"confidence_score": 5, "summary": "nothing fits"}`}

	got, err := NewMatcher(gen, testLogger()).MatchEvidence(context.Background(), "Describe your moat", testDocs)
	if err != nil {
		t.Fatalf("MatchEvidence: %v", err)
	}
	if got.Evidence == nil {
		t.Error("Evidence is nil, want empty slice")
	}
}
