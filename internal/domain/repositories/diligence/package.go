package diligence

import (
	"context"

	"diligence/internal/domain/models/diligence"
)

// MutateFn edits a package in place. Returning an error discards the edit.
type MutateFn func(pkg *diligence.Package) error

// PackageRepository owns the authoritative set of diligence packages.
// Implementations must allow concurrent mutation of different packages and
// concurrent readers of a package being mutated; readers always see a
// consistent snapshot.
type PackageRepository interface {
	// Create registers a new package
	// Returns domain.ErrConflict if the id is already taken
	Create(ctx context.Context, pkg *diligence.Package) error

	// Get returns a snapshot of the package, or (nil, false) if unknown
	Get(ctx context.Context, id string) (*diligence.Package, bool)

	// List returns snapshots of every package, newest first
	List(ctx context.Context) []*diligence.Package

	// Mutate applies fn as a single read-modify-write and returns the stored result
	// Returns domain.ErrNotFound for unknown ids, or fn's error unchanged
	Mutate(ctx context.Context, id string, fn MutateFn) (*diligence.Package, error)
}
