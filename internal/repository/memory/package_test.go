package memory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"diligence/internal/domain"
	models "diligence/internal/domain/models/diligence"
)

func newTestRepo() *PackageRepository {
	return NewPackageRepository(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPackageRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	pkg := models.NewPackage("pkg-1", "Acme Ventures", models.MethodEmail, now)
	if err := repo.Create(ctx, pkg); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Caller-side edits after Create must not leak into the store
	pkg.InvestorName = "changed"

	got, ok := repo.Get(ctx, "pkg-1")
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got.InvestorName != "Acme Ventures" {
		t.Errorf("InvestorName = %q, want %q", got.InvestorName, "Acme Ventures")
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}

	if _, ok := repo.Get(ctx, "missing"); ok {
		t.Error("Get(missing) ok = true, want false")
	}
}

func TestPackageRepository_KeepsEmptyListsEmpty(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	pkg := models.NewPackage("pkg-empty", "Acme Ventures", models.MethodEmail, time.Now())
	pkg.InvestorProfile.PreliminaryReport = models.FallbackReport()
	pkg.InvestorProfile.DetailedAnalysis = &models.SiteProfile{
		KeyPersonnel:      []string{},
		RecentInvestments: []string{},
		PublicLinks:       []string{},
	}
	pkg.Items = []models.Item{{
		ID:                "item-1",
		AuthorID:          models.InvestorAuthorID,
		Category:          models.CategoryLegal,
		Request:           "Share the cap table",
		Status:            models.ItemSuggested,
		SuggestedResponse: &models.SuggestedResponse{Evidence: []models.Evidence{}},
	}}
	if err := repo.Create(ctx, pkg); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, ok := repo.Get(ctx, "pkg-empty")
	if !ok {
		t.Fatal("Get() ok = false")
	}

	tests := []struct {
		name  string
		value any
	}{
		{"links", got.InvestorProfile.PreliminaryReport.Links},
		{"key personnel", got.InvestorProfile.DetailedAnalysis.KeyPersonnel},
		{"recent investments", got.InvestorProfile.DetailedAnalysis.RecentInvestments},
		{"public links", got.InvestorProfile.DetailedAnalysis.PublicLinks},
		{"evidence", got.Items[0].SuggestedResponse.Evidence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != "[]" {
				t.Errorf("JSON = %s, want []", data)
			}
		})
	}
}

func TestPackageRepository_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()
	now := time.Now()

	if err := repo.Create(ctx, models.NewPackage("dup", "A", models.MethodEmail, now)); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	err := repo.Create(ctx, models.NewPackage("dup", "B", models.MethodEmail, now))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second Create() error = %v, want ErrConflict", err)
	}
}

func TestPackageRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := []struct {
		id string
		at time.Time
	}{
		{"old", base},
		{"new", base.Add(2 * time.Hour)},
		{"tie-a", base.Add(time.Hour)},
		{"tie-b", base.Add(time.Hour)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, models.NewPackage(e.id, e.id, models.MethodEmail, e.at)); err != nil {
			t.Fatalf("Create(%s) error = %v", e.id, err)
		}
	}

	got := repo.List(ctx)
	want := []string{"new", "tie-b", "tie-a", "old"}
	if len(got) != len(want) {
		t.Fatalf("List() returned %d packages, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("List()[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestPackageRepository_Mutate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()
	if err := repo.Create(ctx, models.NewPackage("pkg", "Acme", models.MethodEmail, time.Now())); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("success bumps version", func(t *testing.T) {
		updated, err := repo.Mutate(ctx, "pkg", func(p *models.Package) error {
			p.Status = models.PackageShared
			return nil
		})
		if err != nil {
			t.Fatalf("Mutate() error = %v", err)
		}
		if updated.Version != 2 {
			t.Errorf("Version = %d, want 2", updated.Version)
		}
		stored, _ := repo.Get(ctx, "pkg")
		if stored.Status != models.PackageShared {
			t.Errorf("stored Status = %s, want Shared", stored.Status)
		}
	})

	t.Run("failure leaves package untouched", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := repo.Mutate(ctx, "pkg", func(p *models.Package) error {
			p.Status = models.PackageComplete
			p.Items = append(p.Items, models.Item{ID: "x"})
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Mutate() error = %v, want boom", err)
		}
		stored, _ := repo.Get(ctx, "pkg")
		if stored.Status != models.PackageShared || len(stored.Items) != 0 || stored.Version != 2 {
			t.Errorf("stored package changed after failed mutation: %+v", stored)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.Mutate(ctx, "nope", func(p *models.Package) error { return nil })
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Mutate() error = %v, want ErrNotFound", err)
		}
	})
}

func TestPackageRepository_ConcurrentMutate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()
	if err := repo.Create(ctx, models.NewPackage("pkg", "Acme", models.MethodEmail, time.Now())); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := repo.Mutate(ctx, "pkg", func(p *models.Package) error {
				p.Items = append(p.Items, models.Item{ID: string(rune('a' + n%26)), AuthorID: models.InvestorAuthorID})
				return nil
			})
			if err != nil {
				t.Errorf("Mutate() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := repo.Get(ctx, "pkg")
	if len(got.Items) != writers {
		t.Errorf("len(Items) = %d, want %d", len(got.Items), writers)
	}
	if got.Version != writers+1 {
		t.Errorf("Version = %d, want %d", got.Version, writers+1)
	}
}
