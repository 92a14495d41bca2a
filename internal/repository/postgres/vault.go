package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	models "diligence/internal/domain/models/diligence"
	diligenceRepo "diligence/internal/domain/repositories/diligence"
)

// Querier is the slice of *pgxpool.Pool the vault needs
type Querier interface {
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// VaultRepository reads evidence documents from the company vault table.
// The engine never writes documents; vault CRUD is owned elsewhere.
type VaultRepository struct {
	db     Querier
	tables *TableNames
	logger *slog.Logger
}

// NewVaultRepository creates a read-only document repository
func NewVaultRepository(config *RepositoryConfig) *VaultRepository {
	return &VaultRepository{
		db:     config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

var _ diligenceRepo.DocumentRepository = (*VaultRepository)(nil)

// ListDocuments returns every live vault document ordered by name
func (r *VaultRepository) ListDocuments(ctx context.Context) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, name, COALESCE(type, ''), COALESCE(summary, '')
		FROM %s
		WHERE deleted_at IS NULL
		ORDER BY name ASC, id ASC
	`, r.tables.VaultDocuments)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		if IsPgUndefinedTableError(err) {
			r.logger.Warn("vault table missing, treating vault as empty", "table", r.tables.VaultDocuments)
			return []models.Document{}, nil
		}
		return nil, fmt.Errorf("list vault documents: %w", err)
	}

	docs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Document])
	if err != nil {
		return nil, fmt.Errorf("scan vault documents: %w", err)
	}
	if docs == nil {
		docs = []models.Document{}
	}

	r.logger.Debug("vault documents listed", "count", len(docs))
	return docs, nil
}

// EnsureSchema creates the vault table when missing. Used by local setups
// that point DATABASE_URL at an empty database.
func (r *VaultRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			name       VARCHAR(255) NOT NULL,
			type       TEXT,
			summary    TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			deleted_at TIMESTAMPTZ
		)
	`, r.tables.VaultDocuments)

	if _, err := r.db.Exec(ctx, query); err != nil {
		if IsPgDuplicateError(err) {
			// concurrent CREATE TABLE IF NOT EXISTS race on the type catalog
			return nil
		}
		return fmt.Errorf("ensure vault schema: %w", err)
	}
	return nil
}
