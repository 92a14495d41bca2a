package llm

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	models "diligence/internal/domain/models/diligence"
	svc "diligence/internal/domain/services/diligence"
)

// Offline collaborators need no model or network. They back the default
// "offline" provider so the engine runs end to end on a laptop.

var (
	bulletPrefix  = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)]|[a-zA-Z][.)])\s+`)
	sentenceSplit = regexp.MustCompile(`[.?!;]\s+`)
)

// categoryKeywords maps word prefixes (or phrases, when they contain a space)
// to categories. The first category with a hit wins.
var categoryKeywords = []struct {
	category models.Category
	stems    []string
}{
	{models.CategoryFinancials, []string{"revenue", "financ", "burn", "runway", "cap table", "valuation", "arr", "mrr", "margin", "audit", "budget", "forecast", "p&l", "cash"}},
	{models.CategoryLegal, []string{"legal", "contract", "litigation", "lawsuit", "incorporat", "bylaw", "compliance", "regulat", "gdpr", "agreement", "liabilit"}},
	{models.CategoryIP, []string{"patent", "trademark", "intellectual property", "copyright", "licens", "ip"}},
	{models.CategoryTeam, []string{"team", "founder", "employee", "hire", "hiring", "headcount", "cto", "ceo", "org chart", "advisor", "option pool"}},
	{models.CategoryMarket, []string{"market", "competit", "customer", "pricing", "go-to-market", "segment", "churn"}},
	{models.CategoryProduct, []string{"product", "roadmap", "architecture", "security", "technolog", "feature", "platform", "uptime", "soc"}},
}

// KeywordClassifier splits text into asks by bullets, lines, and sentences,
// and buckets each by keyword.
type KeywordClassifier struct{}

var _ svc.TextClassifier = KeywordClassifier{}

func (KeywordClassifier) Classify(ctx context.Context, text string) ([]models.ClassifiedItem, error) {
	var items []models.ClassifiedItem
	for _, line := range strings.Split(text, "\n") {
		line = bulletPrefix.ReplaceAllString(line, "")
		for _, sentence := range splitSentences(line) {
			sentence = strings.TrimSpace(sentence)
			if countWords(sentence) < 3 {
				continue
			}
			items = append(items, models.ClassifiedItem{
				ID:       fmt.Sprintf("%d", len(items)+1),
				Category: keywordCategory(sentence),
				Request:  sentence,
			})
		}
	}
	return items, nil
}

// splitSentences cuts after sentence punctuation, keeping the punctuation
func splitSentences(line string) []string {
	var out []string
	start := 0
	for _, m := range sentenceSplit.FindAllStringIndex(line, -1) {
		out = append(out, line[start:m[0]+1])
		start = m[1]
	}
	return append(out, line[start:])
}

func keywordCategory(request string) models.Category {
	lower := strings.ToLower(request)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '&' && r != '-'
	})
	for _, entry := range categoryKeywords {
		for _, stem := range entry.stems {
			if strings.Contains(stem, " ") {
				if strings.Contains(lower, stem) {
					return entry.category
				}
				continue
			}
			for _, w := range words {
				if strings.HasPrefix(w, stem) {
					return entry.category
				}
			}
		}
	}
	return models.CategoryOther
}

func countWords(s string) int {
	return len(strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }))
}

// KeywordMatcher scores documents by word overlap between the request and
// the document name and summary.
type KeywordMatcher struct {
	MaxEvidence int
}

var _ svc.EvidenceMatcher = KeywordMatcher{}

func (m KeywordMatcher) MatchEvidence(ctx context.Context, request string, docs []models.Document) (*models.SuggestedResponse, error) {
	limit := m.MaxEvidence
	if limit <= 0 {
		limit = 3
	}
	terms := significantWords(request)

	type scored struct {
		doc   models.Document
		score int
	}
	var hits []scored
	for _, doc := range docs {
		words := significantWords(doc.Name + " " + doc.Summary + " " + doc.Type)
		score := 0
		for term := range terms {
			if words[term] {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{doc: doc, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	resp := &models.SuggestedResponse{Evidence: make([]models.Evidence, 0, len(hits))}
	if len(hits) == 0 {
		resp.Summary = "No vault document matched this request."
		return resp, nil
	}

	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.doc.Name
		resp.Evidence = append(resp.Evidence, models.Evidence{
			DocumentID:   h.doc.ID,
			DocumentName: h.doc.Name,
			Relevance:    fmt.Sprintf("%d matching terms", h.score),
		})
	}
	if len(terms) > 0 {
		resp.ConfidenceScore = models.ClampScore(hits[0].score * 100 / len(terms))
	}
	resp.Summary = "Likely answered by " + strings.Join(names, ", ") + "."
	return resp, nil
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "your": true, "you": true, "our": true,
	"please": true, "share": true, "send": true, "provide": true, "any": true, "all": true,
	"are": true, "was": true, "have": true, "has": true, "from": true, "that": true, "this": true,
	"what": true, "which": true, "can": true, "could": true, "would": true, "about": true,
}

func significantWords(s string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) >= 3 && !stopWords[w] {
			words[w] = true
		}
	}
	return words
}

// OfflineProber reports that no reputation source is configured. Investors
// still advance to PENDING_CONFIRMATION with a neutral score.
type OfflineProber struct{}

var _ svc.ReputationProber = OfflineProber{}

func (OfflineProber) Probe(ctx context.Context, entityName string) (*models.ReputationReport, error) {
	return &models.ReputationReport{
		Summary:      "No reputation source configured; review " + entityName + " manually.",
		CautionScore: models.FallbackReportCautionScore,
		Links:        []string{},
	}, nil
}
