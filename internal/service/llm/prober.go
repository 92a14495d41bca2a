package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	models "diligence/internal/domain/models/diligence"
	svc "diligence/internal/domain/services/diligence"
)

const proberSystem = `You run a preliminary reputation check on a prospective investor for a startup.
Respond ONLY with JSON of the form:
{"summary": "...", "caution_score": 0-100, "links": ["https://..."], "official_site": "https://... or null"}
caution_score is higher when there are lawsuits, regulatory actions, founder complaints or no verifiable track record.
Only list links you are confident exist.`

type proberReply struct {
	Summary      string   `json:"summary"`
	CautionScore score    `json:"caution_score"`
	Links        []string `json:"links"`
	OfficialSite *string  `json:"official_site"`
}

// Prober is the LLM-backed ReputationProber
type Prober struct {
	gen    Generator
	logger *slog.Logger
}

// NewProber creates a ReputationProber on top of gen
func NewProber(gen Generator, logger *slog.Logger) *Prober {
	return &Prober{gen: gen, logger: logger}
}

var _ svc.ReputationProber = (*Prober)(nil)

// Probe asks the model what is publicly known about entityName
func (p *Prober) Probe(ctx context.Context, entityName string) (*models.ReputationReport, error) {
	resp, err := p.gen.Generate(ctx, proberSystem, "Investor: "+entityName)
	if err != nil {
		return nil, err
	}

	var reply proberReply
	if err := decodeCompletion(resp, &reply); err != nil {
		return nil, fmt.Errorf("reputation prober: %w", err)
	}
	report := models.ReputationReport{
		Summary:      reply.Summary,
		CautionScore: reply.CautionScore.Int(),
		Links:        reply.Links,
		OfficialSite: reply.OfficialSite,
	}
	if report.Links == nil {
		report.Links = []string{}
	}

	p.logger.Debug("reputation probed", "generator", p.gen.Name(), "investor", entityName, "caution_score", report.CautionScore)
	return &report, nil
}

// CachedProber memoizes successful reports per normalized entity name.
// Failures are not cached so a later package can try again.
type CachedProber struct {
	next   svc.ReputationProber
	cache  *lru.Cache[string, models.ReputationReport]
	logger *slog.Logger
}

// NewCachedProber wraps next with an LRU cache holding up to size reports
func NewCachedProber(next svc.ReputationProber, size int, logger *slog.Logger) (*CachedProber, error) {
	cache, err := lru.New[string, models.ReputationReport](size)
	if err != nil {
		return nil, fmt.Errorf("create reputation cache: %w", err)
	}
	return &CachedProber{next: next, cache: cache, logger: logger}, nil
}

var _ svc.ReputationProber = (*CachedProber)(nil)

// Probe returns a cached copy when available
func (c *CachedProber) Probe(ctx context.Context, entityName string) (*models.ReputationReport, error) {
	key := strings.ToLower(strings.Join(strings.Fields(entityName), " "))
	if cached, ok := c.cache.Get(key); ok {
		c.logger.Debug("reputation cache hit", "investor", entityName)
		return copyReport(cached), nil
	}

	report, err := c.next.Probe(ctx, entityName)
	if err != nil {
		return nil, err
	}
	if report != nil {
		c.cache.Add(key, *copyReport(*report))
	}
	return report, nil
}

func copyReport(r models.ReputationReport) *models.ReputationReport {
	out := r
	out.Links = append([]string{}, r.Links...)
	if r.OfficialSite != nil {
		site := *r.OfficialSite
		out.OfficialSite = &site
	}
	return &out
}
