package diligence

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"diligence/internal/config"
	models "diligence/internal/domain/models/diligence"
	diligenceRepo "diligence/internal/domain/repositories/diligence"
	svc "diligence/internal/domain/services/diligence"
	"diligence/internal/repository/memory"
)

type fakeClassifier struct {
	fn func(ctx context.Context, text string) ([]models.ClassifiedItem, error)
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) ([]models.ClassifiedItem, error) {
	return f.fn(ctx, text)
}

type fakeMatcher struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, request string, docs []models.Document) (*models.SuggestedResponse, error)
}

func (f *fakeMatcher) MatchEvidence(ctx context.Context, request string, docs []models.Document) (*models.SuggestedResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, request)
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, request, docs)
}

func (f *fakeMatcher) setFn(fn func(ctx context.Context, request string, docs []models.Document) (*models.SuggestedResponse, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
}

func (f *fakeMatcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeProber struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, name string) (*models.ReputationReport, error)
}

func (f *fakeProber) Probe(ctx context.Context, name string) (*models.ReputationReport, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(ctx, name)
}

func (f *fakeProber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAnalyst struct {
	fn func(ctx context.Context, url string) (*models.SiteProfile, error)
}

func (f *fakeAnalyst) Analyze(ctx context.Context, url string) (*models.SiteProfile, error) {
	return f.fn(ctx, url)
}

type failingDocuments struct{}

func (failingDocuments) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return nil, fmt.Errorf("vault unavailable")
}

var testDocs = []models.Document{
	{ID: "doc-fin", Name: "FY24 Financials.pdf", Type: "pdf", Summary: "Audited statements"},
	{ID: "doc-cap", Name: "Cap Table.xlsx", Type: "spreadsheet", Summary: "Fully diluted cap table"},
	{ID: "doc-ip", Name: "Patent Filings.pdf", Type: "pdf", Summary: "Granted and pending patents"},
}

var testPrincipals = []models.Principal{
	{ID: "company", Name: "Genesis Labs", Kind: "company"},
	{ID: "genesis-seed-fund", Name: "Genesis Seed Fund", Kind: "fund", Aliases: []string{"GSF"}},
	{ID: "founders-circle", Name: "Founders Circle Capital", Kind: "fund"},
}

type testEnv struct {
	service    *Service
	classifier *fakeClassifier
	matcher    *fakeMatcher
	prober     *fakeProber
	analyst    *fakeAnalyst
}

type envOption func(*envSettings)

type envSettings struct {
	timeout   time.Duration
	documents diligenceRepo.DocumentRepository
}

func withTimeout(d time.Duration) envOption {
	return func(s *envSettings) { s.timeout = d }
}

func withFailingDocuments() envOption {
	return func(s *envSettings) { s.documents = failingDocuments{} }
}

// newTestEnv wires the engine with well-behaved fakes: the classifier splits
// on lines, the matcher cites the first document, the prober reports low
// caution, and the analyst returns a small profile.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	settings := &envSettings{
		timeout:   2 * time.Second,
		documents: memory.NewDocumentRepository(testDocs),
	}
	for _, opt := range opts {
		opt(settings)
	}

	env := &testEnv{
		classifier: &fakeClassifier{fn: splitLines},
		matcher: &fakeMatcher{fn: func(ctx context.Context, request string, docs []models.Document) (*models.SuggestedResponse, error) {
			return &models.SuggestedResponse{
				ConfidenceScore: 80,
				Summary:         "See " + docs[0].Name,
				Evidence:        []models.Evidence{{DocumentID: docs[0].ID, Relevance: "primary"}},
			}, nil
		}},
		prober: &fakeProber{fn: func(ctx context.Context, name string) (*models.ReputationReport, error) {
			return &models.ReputationReport{Summary: "No concerns found", CautionScore: 10, Links: []string{"https://news.example.com/" + name}}, nil
		}},
		analyst: &fakeAnalyst{fn: func(ctx context.Context, url string) (*models.SiteProfile, error) {
			return &models.SiteProfile{
				KeyPersonnel:      []string{"Jane Doe, Partner"},
				InvestmentThesis:  "Seed-stage developer tools",
				RecentInvestments: []string{"Acme Dev"},
				PublicLinks:       []string{url},
			}, nil
		}},
	}

	registry, err := NewRegistryFromPrincipals(testPrincipals)
	if err != nil {
		t.Fatalf("NewRegistryFromPrincipals() error = %v", err)
	}
	template, err := NewFounderTemplate()
	if err != nil {
		t.Fatalf("NewFounderTemplate() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		CompanyPrincipalID:  "company",
		ShareBaseURL:        "https://share.test",
		CollaboratorTimeout: settings.timeout,
	}

	service, err := NewService(
		memory.NewPackageRepository(logger),
		settings.documents,
		svc.Collaborators{
			Classifier: env.classifier,
			Matcher:    env.matcher,
			Prober:     env.prober,
			Analyst:    env.analyst,
		},
		registry,
		template,
		cfg,
		logger,
	)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	env.service = service

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := service.Drain(ctx); err != nil {
			t.Errorf("Drain() error = %v", err)
		}
	})
	return env
}

// splitLines classifies each non-empty line as its own Financials item
func splitLines(ctx context.Context, text string) ([]models.ClassifiedItem, error) {
	var items []models.ClassifiedItem
	for i, line := range splitNonEmpty(text) {
		items = append(items, models.ClassifiedItem{ID: fmt.Sprintf("c%d", i), Category: models.CategoryFinancials, Request: line})
	}
	return items, nil
}

func splitNonEmpty(text string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			line := text[start:i]
			if len(line) > 0 {
				out = append(out, line)
			}
			start = i + 1
		}
	}
	return out
}

// submit submits raw text for investor and drains background work
func (e *testEnv) submit(t *testing.T, investor, text string) *models.Package {
	t.Helper()
	id, err := e.service.Submit(context.Background(), &svc.SubmitRequest{InvestorName: investor, RawText: text})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	e.drain(t)
	return e.get(t, id)
}

func (e *testEnv) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.service.Drain(ctx); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
}

func (e *testEnv) get(t *testing.T, id string) *models.Package {
	t.Helper()
	pkg, err := e.service.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", id, err)
	}
	return pkg
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func investorItems(p *models.Package) []models.Item {
	var out []models.Item
	for _, item := range p.Items {
		if item.IsInvestorItem() {
			out = append(out, item)
		}
	}
	return out
}

func founderItems(p *models.Package) []models.Item {
	var out []models.Item
	for _, item := range p.Items {
		if !item.IsInvestorItem() {
			out = append(out, item)
		}
	}
	return out
}
