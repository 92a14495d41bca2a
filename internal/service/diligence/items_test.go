package diligence

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"diligence/internal/domain"
	models "diligence/internal/domain/models/diligence"
	svc "diligence/internal/domain/services/diligence"
)

func TestUpdateItemStatus_Transitions(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.submit(t, "Acme Ventures", "first\nsecond")
	suggested := investorItems(pkg)[0].ID
	founder := founderItems(pkg)[0].ID

	// A Pending investor item
	env.matcher.setFn(func(ctx context.Context, request string, docs []models.Document) (*models.SuggestedResponse, error) {
		return nil, errors.New("down")
	})
	pendingPkg := env.submit(t, "Acme Ventures", "stuck")
	pending := investorItems(pendingPkg)[0].ID

	tests := []struct {
		name      string
		packageID string
		itemID    string
		status    models.ItemStatus
		wantErr   error
	}{
		{name: "pending to approved is not an edge", packageID: pendingPkg.ID, itemID: pending, status: models.ItemApproved, wantErr: domain.ErrInvalidTransition},
		{name: "users cannot suggest", packageID: pendingPkg.ID, itemID: pending, status: models.ItemSuggested, wantErr: domain.ErrInvalidTransition},
		{name: "suggested back to pending", packageID: pkg.ID, itemID: suggested, status: models.ItemPending, wantErr: domain.ErrInvalidTransition},
		{name: "suggested to approved", packageID: pkg.ID, itemID: suggested, status: models.ItemApproved},
		{name: "approved is terminal", packageID: pkg.ID, itemID: suggested, status: models.ItemDenied, wantErr: domain.ErrInvalidTransition},
		{name: "founder to deferred", packageID: pkg.ID, itemID: founder, status: models.ItemDeferred},
		{name: "deferred is terminal", packageID: pkg.ID, itemID: founder, status: models.ItemApproved, wantErr: domain.ErrInvalidTransition},
		{name: "unknown status", packageID: pkg.ID, itemID: investorItems(pkg)[1].ID, status: "Maybe", wantErr: domain.ErrInvalidTransition},
		{name: "missing status", packageID: pkg.ID, itemID: suggested, status: "", wantErr: domain.ErrValidation},
		{name: "unknown item", packageID: pkg.ID, itemID: "nope", status: models.ItemApproved, wantErr: domain.ErrNotFound},
		{name: "unknown package", packageID: "nope", itemID: suggested, status: models.ItemApproved, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.service.UpdateItemStatus(context.Background(), &svc.UpdateItemStatusRequest{
				PackageID: tt.packageID,
				ItemID:    tt.itemID,
				Status:    tt.status,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("UpdateItemStatus() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateItemStatus() error = %v", err)
			}
			if item := got.FindItem(tt.itemID); item.Status != tt.status {
				t.Errorf("status = %s, want %s", item.Status, tt.status)
			}
		})
	}
}

func TestReplaceItemEvidence(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.submit(t, "Acme Ventures", "financials")
	item := investorItems(pkg)[0]
	founder := founderItems(pkg)[0]

	t.Run("round trips exactly", func(t *testing.T) {
		want := []models.Evidence{
			{DocumentID: "doc-ip", DocumentName: "Patent Filings.pdf", Relevance: "supporting"},
			{DocumentID: "doc-fin", DocumentName: "FY24 Financials.pdf", Relevance: "primary"},
		}
		got, err := env.service.ReplaceItemEvidence(context.Background(), &svc.ReplaceEvidenceRequest{
			PackageID: pkg.ID, ItemID: item.ID, Evidence: want,
		})
		if err != nil {
			t.Fatalf("ReplaceItemEvidence() error = %v", err)
		}
		updated := got.FindItem(item.ID)
		if !reflect.DeepEqual(updated.SuggestedResponse.Evidence, want) {
			t.Errorf("evidence = %+v, want %+v", updated.SuggestedResponse.Evidence, want)
		}
		if updated.Status != item.Status {
			t.Errorf("status changed to %s", updated.Status)
		}
		if updated.SuggestedResponse.Summary != item.SuggestedResponse.Summary {
			t.Errorf("summary changed to %q", updated.SuggestedResponse.Summary)
		}
	})

	t.Run("removal is a replace with a shorter list", func(t *testing.T) {
		got, err := env.service.ReplaceItemEvidence(context.Background(), &svc.ReplaceEvidenceRequest{
			PackageID: pkg.ID, ItemID: item.ID, Evidence: []models.Evidence{},
		})
		if err != nil {
			t.Fatalf("ReplaceItemEvidence() error = %v", err)
		}
		if n := len(got.FindItem(item.ID).SuggestedResponse.Evidence); n != 0 {
			t.Errorf("len(evidence) = %d, want 0", n)
		}
	})

	t.Run("creates a suggestion on founder items", func(t *testing.T) {
		got, err := env.service.ReplaceItemEvidence(context.Background(), &svc.ReplaceEvidenceRequest{
			PackageID: pkg.ID, ItemID: founder.ID, Evidence: []models.Evidence{{DocumentID: "doc-cap"}},
		})
		if err != nil {
			t.Fatalf("ReplaceItemEvidence() error = %v", err)
		}
		updated := got.FindItem(founder.ID)
		if updated.SuggestedResponse == nil || updated.SuggestedResponse.ConfidenceScore != 0 {
			t.Fatalf("SuggestedResponse = %+v, want empty suggestion", updated.SuggestedResponse)
		}
		if updated.Status != models.ItemAwaitingResponse {
			t.Errorf("status = %s, want unchanged", updated.Status)
		}
	})

	t.Run("rejects invalid lists", func(t *testing.T) {
		cases := map[string][]models.Evidence{
			"duplicate":  {{DocumentID: "doc-fin"}, {DocumentID: "doc-fin"}},
			"missing id": {{DocumentName: "orphan.pdf"}},
		}
		for name, evidence := range cases {
			_, err := env.service.ReplaceItemEvidence(context.Background(), &svc.ReplaceEvidenceRequest{
				PackageID: pkg.ID, ItemID: item.ID, Evidence: evidence,
			})
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("%s: error = %v, want ErrValidation", name, err)
			}
		}
	})
}

func TestAddFounderRequest(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.submit(t, "Acme Ventures", "financials")

	item, err := env.service.AddFounderRequest(context.Background(), &svc.AddFounderRequestRequest{
		PackageID: pkg.ID,
		Request:   "  Please share LP references  ",
	})
	if err != nil {
		t.Fatalf("AddFounderRequest() error = %v", err)
	}
	if item.Status != models.ItemAwaitingResponse || item.AuthorID != "company" || item.Category != models.CategoryOther {
		t.Errorf("item = %+v", item)
	}
	if item.Request != "Please share LP references" {
		t.Errorf("Request = %q, want trimmed", item.Request)
	}

	after := env.get(t, pkg.ID)
	if last := after.Items[len(after.Items)-1]; last.ID != item.ID {
		t.Errorf("new item not appended last")
	}

	_, err = env.service.AddFounderRequest(context.Background(), &svc.AddFounderRequestRequest{PackageID: pkg.ID, Request: "x", Category: "Gossip"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown category error = %v, want ErrValidation", err)
	}
	_, err = env.service.AddFounderRequest(context.Background(), &svc.AddFounderRequestRequest{PackageID: "missing", Request: "x"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown package error = %v, want ErrNotFound", err)
	}
}
