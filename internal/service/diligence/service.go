package diligence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"diligence/internal/config"
	"diligence/internal/domain"
	models "diligence/internal/domain/models/diligence"
	diligenceRepo "diligence/internal/domain/repositories/diligence"
	svc "diligence/internal/domain/services/diligence"
)

// errStateChanged aborts a background mutation whose precondition no longer
// holds. It is never returned to callers.
var errStateChanged = errors.New("package state changed")

// Service implements the DiligenceService interface.
// Consumer operations are synchronous; enrichment runs on the task group and
// writes back through the package repository by id.
type Service struct {
	packages  diligenceRepo.PackageRepository
	documents diligenceRepo.DocumentRepository
	collab    svc.Collaborators
	registry  *Registry
	template  *FounderTemplate
	sanitizer *textSanitizer
	tasks     *taskGroup
	config    *config.Config
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates the orchestration engine
func NewService(
	packages diligenceRepo.PackageRepository,
	documents diligenceRepo.DocumentRepository,
	collab svc.Collaborators,
	registry *Registry,
	template *FounderTemplate,
	cfg *config.Config,
	logger *slog.Logger,
) (*Service, error) {
	if collab.Classifier == nil || collab.Matcher == nil || collab.Prober == nil || collab.Analyst == nil {
		return nil, fmt.Errorf("all four collaborators are required")
	}
	if registry == nil || template == nil {
		return nil, fmt.Errorf("principal registry and founder template are required")
	}
	if _, ok := registry.Get(cfg.CompanyPrincipalID); !ok {
		logger.Warn("company principal not present in registry", "principal_id", cfg.CompanyPrincipalID)
	}

	return &Service{
		packages:  packages,
		documents: documents,
		collab:    collab,
		registry:  registry,
		template:  template,
		sanitizer: newTextSanitizer(),
		tasks:     newTaskGroup(logger),
		config:    cfg,
		now:       time.Now,
		logger:    logger,
	}, nil
}

var _ svc.DiligenceService = (*Service)(nil)

// Get returns a snapshot of the package
func (s *Service) Get(ctx context.Context, packageID string) (*models.Package, error) {
	pkg, ok := s.packages.Get(ctx, packageID)
	if !ok {
		return nil, fmt.Errorf("package %s: %w", packageID, domain.ErrNotFound)
	}
	return pkg, nil
}

// List returns all packages, newest first
func (s *Service) List(ctx context.Context) ([]*models.Package, error) {
	return s.packages.List(ctx), nil
}

// ListPrincipals returns the known-principal registry
func (s *Service) ListPrincipals(ctx context.Context) []models.Principal {
	return s.registry.List()
}

// ListDocuments returns the vault documents available as evidence
func (s *Service) ListDocuments(ctx context.Context) ([]models.Document, error) {
	docs, err := s.documents.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Drain waits for in-flight background tasks or ctx expiry
func (s *Service) Drain(ctx context.Context) error {
	return s.tasks.Wait(ctx)
}

// collaboratorContext bounds one collaborator call. A zero timeout leaves the
// call unbounded.
func (s *Service) collaboratorContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.CollaboratorTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.CollaboratorTimeout)
}

// mutate wraps Mutate for background tasks, which have no caller to report to.
// errStateChanged is expected and logged at debug level.
func (s *Service) mutate(ctx context.Context, packageID, action string, fn diligenceRepo.MutateFn) bool {
	_, err := s.packages.Mutate(ctx, packageID, fn)
	switch {
	case err == nil:
		return true
	case errors.Is(err, errStateChanged):
		s.logger.Debug("background update skipped", "package_id", packageID, "action", action)
	default:
		s.logger.Error("background update failed", "package_id", packageID, "action", action, "error", err)
	}
	return false
}

// recordPanic moves whatever machine the panicking task owned to its failure
// state so no package is left running forever. For the enrichment machine the
// stage follows the package: a panic before items were appended failed
// classification, one after it cut evidence lookups short.
func (s *Service) recordPanic(packageID string, stage models.EnrichmentStage) func(error) {
	return func(err error) {
		s.mutate(context.Background(), packageID, "record panic", func(p *models.Package) error {
			at := s.now()
			failed := stage
			switch stage {
			case models.StageClassification, models.StageEvidence:
				if p.Enrichment.IsTerminal() {
					return errStateChanged
				}
				if p.Enrichment == models.EnrichmentRunning {
					failed = models.StageEvidence
					p.Enrichment = models.EnrichmentPartial
				} else {
					failed = models.StageClassification
					p.Enrichment = models.EnrichmentFailed
				}
			case models.StageReputation:
				if p.InvestorProfile.Status != models.InvestorPendingVerification {
					return errStateChanged
				}
				p.InvestorProfile.Status = models.InvestorPendingConfirmation
				p.InvestorProfile.PreliminaryReport = models.FallbackReport()
			case models.StageAnalysis:
				if p.InvestorProfile.Analysis != models.AnalysisRunning {
					return errStateChanged
				}
				msg := err.Error()
				p.InvestorProfile.Analysis = models.AnalysisFailed
				p.InvestorProfile.AnalysisError = &msg
			}
			p.RecordFailure(failed, err, at)
			return nil
		})
	}
}
