package diligence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"diligence/internal/domain"
	models "diligence/internal/domain/models/diligence"
	svc "diligence/internal/domain/services/diligence"
)

// UpdateItemStatus applies a user decision. Only the decision edges of the
// item machine are accepted; Pending→Suggested belongs to enrichment.
func (s *Service) UpdateItemStatus(ctx context.Context, req *svc.UpdateItemStatusRequest) (*models.Package, error) {
	if err := validateUpdateItemStatusRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	pkg, err := s.packages.Mutate(ctx, req.PackageID, func(p *models.Package) error {
		item, err := findItem(p, req.ItemID)
		if err != nil {
			return err
		}
		if !item.CanDecide(req.Status) {
			return &domain.TransitionError{Machine: "item", From: string(item.Status), To: string(req.Status)}
		}
		item.Status = req.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item status updated", "package_id", req.PackageID, "item_id", req.ItemID, "status", req.Status)
	return pkg, nil
}

// ReplaceItemEvidence overwrites the evidence list with exactly req.Evidence.
// Items without a suggestion get an empty one; status is never touched.
func (s *Service) ReplaceItemEvidence(ctx context.Context, req *svc.ReplaceEvidenceRequest) (*models.Package, error) {
	if err := validateReplaceEvidenceRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	evidence := make([]models.Evidence, len(req.Evidence))
	for i, ev := range req.Evidence {
		ev.DocumentID = strings.TrimSpace(ev.DocumentID)
		evidence[i] = ev
	}

	pkg, err := s.packages.Mutate(ctx, req.PackageID, func(p *models.Package) error {
		item, err := findItem(p, req.ItemID)
		if err != nil {
			return err
		}
		if item.SuggestedResponse == nil {
			item.SuggestedResponse = &models.SuggestedResponse{}
		}
		item.SuggestedResponse.Evidence = evidence
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item evidence replaced", "package_id", req.PackageID, "item_id", req.ItemID, "count", len(evidence))
	return pkg, nil
}

// RetryItemEvidence re-runs the Evidence Matcher for one Pending investor
// item. The lookup runs in the background; poll Get for the outcome.
func (s *Service) RetryItemEvidence(ctx context.Context, packageID, itemID string) error {
	_, err := s.packages.Mutate(ctx, packageID, func(p *models.Package) error {
		if p.Enrichment == models.EnrichmentPending || p.Enrichment == models.EnrichmentRunning {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("package %s is still being enriched", packageID),
				ResourceType: "package",
				ResourceID:   packageID,
			}
		}
		item, err := findItem(p, itemID)
		if err != nil {
			return err
		}
		if !item.CanEnrich() {
			return &domain.TransitionError{Machine: "item", From: string(item.Status), To: string(models.ItemSuggested)}
		}
		item.EvidenceError = nil
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("evidence retry scheduled", "package_id", packageID, "item_id", itemID)
	s.tasks.Go("evidence retry", packageID, func(ctx context.Context) {
		s.retryEvidence(ctx, packageID, itemID)
	}, s.recordPanic(packageID, models.StageEvidence))
	return nil
}

func (s *Service) retryEvidence(ctx context.Context, packageID, itemID string) {
	dctx, cancel := s.collaboratorContext(ctx)
	docs, err := s.documents.ListDocuments(dctx)
	cancel()
	if err != nil {
		msg := fmt.Sprintf("document lookup failed: %v", err)
		s.mutate(ctx, packageID, "record evidence error", func(p *models.Package) error {
			if item := p.FindItem(itemID); item != nil && item.Status == models.ItemPending {
				item.EvidenceError = &msg
			}
			p.RecordFailure(models.StageEvidence, err, s.now())
			return nil
		})
		return
	}

	if err := s.enrichItem(ctx, packageID, itemID, docs); err != nil {
		s.mutate(ctx, packageID, "record retry failure", func(p *models.Package) error {
			p.RecordFailure(models.StageEvidence, err, s.now())
			return nil
		})
		return
	}

	// A partial run becomes complete once no investor item carries an error
	s.mutate(ctx, packageID, "settle enrichment", func(p *models.Package) error {
		if p.Enrichment != models.EnrichmentPartial {
			return errStateChanged
		}
		for _, item := range p.Items {
			if item.IsInvestorItem() && item.EvidenceError != nil {
				return errStateChanged
			}
		}
		p.Enrichment = models.EnrichmentComplete
		if p.LastError != nil && p.LastError.Stage == models.StageEvidence {
			p.LastError = nil
		}
		return nil
	})
}

// AddFounderRequest appends a founder-authored item in Awaiting Response
func (s *Service) AddFounderRequest(ctx context.Context, req *svc.AddFounderRequestRequest) (*models.Item, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is required", domain.ErrValidation)
	}
	normalized := *req
	if normalized.Category == "" {
		normalized.Category = models.CategoryOther
	}
	if err := validateAddFounderRequest(&normalized); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	item := models.Item{
		ID:       uuid.NewString(),
		AuthorID: s.config.CompanyPrincipalID,
		Category: normalized.Category,
		Request:  strings.TrimSpace(normalized.Request),
		Status:   models.ItemAwaitingResponse,
	}

	if _, err := s.packages.Mutate(ctx, normalized.PackageID, func(p *models.Package) error {
		return p.AppendItems(item)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("founder request added", "package_id", normalized.PackageID, "item_id", item.ID)
	return &item, nil
}

func findItem(p *models.Package, itemID string) (*models.Item, error) {
	item := p.FindItem(itemID)
	if item == nil {
		return nil, fmt.Errorf("item %s in package %s: %w", itemID, p.ID, domain.ErrNotFound)
	}
	return item, nil
}
