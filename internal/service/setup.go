package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"diligence/internal/config"
	diligenceRepo "diligence/internal/domain/repositories/diligence"
	"diligence/internal/repository/memory"
	"diligence/internal/repository/postgres"
	"diligence/internal/service/diligence"
	"diligence/internal/service/llm"
)

// Services holds the wired engine and the resources it owns
type Services struct {
	Diligence *diligence.Service
	pool      *pgxpool.Pool
}

// Close releases the database pool, if any. Drain the engine first.
func (s *Services) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SetupServices builds the diligence engine from configuration: the vault
// source, the principal registry, the founder template and the collaborators.
func SetupServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	out := &Services{}

	documents, pool, err := setupDocuments(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	out.pool = pool

	registry, err := setupRegistry(cfg, logger)
	if err != nil {
		out.Close()
		return nil, err
	}

	template, err := setupFounderTemplate(cfg, logger)
	if err != nil {
		out.Close()
		return nil, err
	}

	httpClient := llm.NewSiteClient(30 * time.Second)
	if cfg.AllowPrivateSites {
		logger.Warn("site analysis may reach private addresses")
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	collab, err := llm.NewCollaborators(ctx, cfg, httpClient, logger)
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("collaborators: %w", err)
	}

	engine, err := diligence.NewService(
		memory.NewPackageRepository(logger),
		documents,
		collab,
		registry,
		template,
		cfg,
		logger,
	)
	if err != nil {
		out.Close()
		return nil, err
	}
	out.Diligence = engine

	logger.Info("services initialized",
		"provider", cfg.LLMProvider,
		"principals", len(registry.List()),
		"collaborator_timeout", cfg.CollaboratorTimeout,
	)
	return out, nil
}

// setupDocuments picks the vault source: Postgres when DATABASE_URL is set,
// else the DOCUMENTS_FILE seed, else an empty vault.
func setupDocuments(ctx context.Context, cfg *config.Config, logger *slog.Logger) (diligenceRepo.DocumentRepository, *pgxpool.Pool, error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect vault database: %w", err)
		}
		repo := postgres.NewVaultRepository(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		})
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("vault source", "kind", "postgres", "table_prefix", cfg.TablePrefix)
		return repo, pool, nil

	case cfg.DocumentsFile != "":
		repo, err := memory.LoadDocumentsFile(cfg.DocumentsFile, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("vault source", "kind", "file", "path", cfg.DocumentsFile)
		return repo, nil, nil

	default:
		logger.Warn("no vault configured; evidence suggestions will be empty")
		return memory.NewDocumentRepository(nil), nil, nil
	}
}

func setupRegistry(cfg *config.Config, logger *slog.Logger) (*diligence.Registry, error) {
	if cfg.PrincipalsFile == "" {
		return diligence.NewRegistry()
	}
	registry, err := diligence.LoadRegistryFile(cfg.PrincipalsFile)
	if err != nil {
		return nil, err
	}
	logger.Info("principal registry loaded", "path", cfg.PrincipalsFile)
	return registry, nil
}

func setupFounderTemplate(cfg *config.Config, logger *slog.Logger) (*diligence.FounderTemplate, error) {
	if cfg.FounderTemplateFile == "" {
		return diligence.NewFounderTemplate()
	}
	template, err := diligence.LoadFounderTemplateFile(cfg.FounderTemplateFile)
	if err != nil {
		return nil, fmt.Errorf("founder template: %w", err)
	}
	logger.Info("founder template loaded", "path", cfg.FounderTemplateFile)
	return template, nil
}
