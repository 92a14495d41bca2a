package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	models "diligence/internal/domain/models/diligence"
	svc "diligence/internal/domain/services/diligence"
)

// stubEngine settles after a fixed number of Get calls
type stubEngine struct {
	svc.DiligenceService
	pkg      *models.Package
	settleAt int
	gets     int
}

func (s *stubEngine) Get(ctx context.Context, id string) (*models.Package, error) {
	s.gets++
	out := s.pkg.Clone()
	if s.gets >= s.settleAt {
		out.Enrichment = models.EnrichmentComplete
		out.InvestorProfile.Status = models.InvestorPendingConfirmation
	}
	return out, nil
}

func TestWaitSettled(t *testing.T) {
	engine := &stubEngine{pkg: models.NewPackage("p1", "Acme", models.MethodEmail, time.Now()), settleAt: 3}

	pkg, err := waitSettled(context.Background(), engine, "p1", time.Millisecond)
	if err != nil {
		t.Fatalf("waitSettled: %v", err)
	}
	if !pkg.Settled() || engine.gets != 3 {
		t.Errorf("settled = %v after %d gets", pkg.Settled(), engine.gets)
	}
}

func TestWaitSettled_Timeout(t *testing.T) {
	engine := &stubEngine{pkg: models.NewPackage("p1", "Acme", models.MethodEmail, time.Now()), settleAt: 1 << 30}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := waitSettled(ctx, engine, "p1", time.Millisecond); err == nil {
		t.Error("expected timeout error")
	}
}

func TestRender(t *testing.T) {
	pkg := models.NewPackage("p1", "Acme Ventures", models.MethodEmail, time.Now())
	pkg.Items = []models.Item{{
		ID:       "i1",
		AuthorID: models.InvestorAuthorID,
		Category: models.CategoryFinancials,
		Request:  "Send the P&L",
		Status:   models.ItemSuggested,
		SuggestedResponse: &models.SuggestedResponse{
			ConfidenceScore: 72,
			Evidence:        []models.Evidence{{DocumentID: "d1", DocumentName: "FY24 P&L.pdf"}},
		},
	}}

	var buf bytes.Buffer
	render(&buf, pkg)

	for _, want := range []string{"Acme Ventures", "Send the P&L", "FY24 P&L.pdf", "72", "1 investor, 0 founder"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}
