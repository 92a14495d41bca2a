package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"diligence/internal/domain"
	models "diligence/internal/domain/models/diligence"
	diligenceRepo "diligence/internal/domain/repositories/diligence"
)

// packageEntry guards one package. Mutations on different packages never contend.
type packageEntry struct {
	mu  sync.Mutex
	pkg *models.Package
	seq int
}

// PackageRepository is an in-process PackageRepository backed by a map of
// per-package entries.
type PackageRepository struct {
	mu      sync.RWMutex
	entries map[string]*packageEntry
	nextSeq int
	now     func() time.Time
	logger  *slog.Logger
}

// NewPackageRepository creates an empty in-memory package repository
func NewPackageRepository(logger *slog.Logger) *PackageRepository {
	return &PackageRepository{
		entries: make(map[string]*packageEntry),
		now:     time.Now,
		logger:  logger,
	}
}

var _ diligenceRepo.PackageRepository = (*PackageRepository)(nil)

// Create registers a new package. The repository keeps its own copy.
func (r *PackageRepository) Create(ctx context.Context, pkg *models.Package) error {
	if pkg == nil || pkg.ID == "" {
		return fmt.Errorf("%w: package id is required", domain.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[pkg.ID]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("package '%s' already exists", pkg.ID),
			ResourceType: "package",
			ResourceID:   pkg.ID,
		}
	}

	r.entries[pkg.ID] = &packageEntry{pkg: pkg.Clone(), seq: r.nextSeq}
	r.nextSeq++

	r.logger.Debug("package created", "package_id", pkg.ID)
	return nil
}

// Get returns a snapshot of the package, or (nil, false) when absent
func (r *PackageRepository) Get(ctx context.Context, id string) (*models.Package, bool) {
	entry := r.entry(id)
	if entry == nil {
		return nil, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.pkg.Clone(), true
}

// List returns snapshots of every package, newest first. Packages created in
// the same instant keep reverse insertion order.
func (r *PackageRepository) List(ctx context.Context) []*models.Package {
	r.mu.RLock()
	entries := make([]*packageEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	type snapshot struct {
		pkg *models.Package
		seq int
	}
	snapshots := make([]snapshot, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		snapshots = append(snapshots, snapshot{pkg: entry.pkg.Clone(), seq: entry.seq})
		entry.mu.Unlock()
	}

	sort.Slice(snapshots, func(i, j int) bool {
		a, b := snapshots[i], snapshots[j]
		if !a.pkg.CreatedAt.Equal(b.pkg.CreatedAt) {
			return a.pkg.CreatedAt.After(b.pkg.CreatedAt)
		}
		return a.seq > b.seq
	})

	packages := make([]*models.Package, len(snapshots))
	for i, s := range snapshots {
		packages[i] = s.pkg
	}
	return packages
}

// Mutate applies fn to a copy of the package under the package lock. The copy
// replaces the stored package only when fn succeeds; Version and UpdatedAt
// advance on every stored mutation.
func (r *PackageRepository) Mutate(ctx context.Context, id string, fn diligenceRepo.MutateFn) (*models.Package, error) {
	entry := r.entry(id)
	if entry == nil {
		return nil, fmt.Errorf("package %s: %w", id, domain.ErrNotFound)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	draft := entry.pkg.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}

	// fn must not rewrite identity fields
	draft.ID = entry.pkg.ID
	draft.CreatedAt = entry.pkg.CreatedAt
	draft.Version = entry.pkg.Version + 1
	draft.UpdatedAt = r.now()

	entry.pkg = draft
	return draft.Clone(), nil
}

func (r *PackageRepository) entry(id string) *packageEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}
