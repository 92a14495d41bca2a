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

// Submit creates a Draft package and returns its id. Verification and
// decomposition start afterwards on detached tasks; the caller's ctx only
// governs the synchronous part.
func (s *Service) Submit(ctx context.Context, req *svc.SubmitRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: request is required", domain.ErrValidation)
	}
	normalized := *req
	if normalized.Method == "" {
		normalized.Method = models.MethodEmail
	}

	if err := validateSubmitRequest(&normalized); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	pkg := models.NewPackage(uuid.NewString(), strings.TrimSpace(normalized.InvestorName), normalized.Method, s.now())
	if err := s.packages.Create(ctx, pkg); err != nil {
		return "", fmt.Errorf("create package: %w", err)
	}

	s.logger.Info("package submitted",
		"package_id", pkg.ID,
		"investor", pkg.InvestorName,
		"method", pkg.Method,
		"text_length", len(normalized.RawText),
	)

	id := pkg.ID
	rawText := normalized.RawText
	s.tasks.Go("verification", id, func(ctx context.Context) {
		s.verifyInvestor(ctx, id)
	}, s.recordPanic(id, models.StageReputation))
	s.tasks.Go("decomposition", id, func(ctx context.Context) {
		s.decompose(ctx, id, rawText)
	}, s.recordPanic(id, models.StageClassification))

	return id, nil
}

// decompose classifies the raw text into items, adds the founder template,
// then enriches investor items one at a time.
func (s *Service) decompose(ctx context.Context, packageID, rawText string) {
	text := s.sanitizer.Clean(rawText)

	var classified []models.ClassifiedItem
	if text != "" {
		cctx, cancel := s.collaboratorContext(ctx)
		result, err := s.collab.Classifier.Classify(cctx, text)
		cancel()
		if err != nil {
			s.logger.Error("classification failed", "package_id", packageID, "error", err)
			s.mutate(ctx, packageID, "classification failed", func(p *models.Package) error {
				p.Enrichment = models.EnrichmentFailed
				p.RecordFailure(models.StageClassification, err, s.now())
				return nil
			})
			return
		}
		classified = result
	}

	investorItems := stampInvestorItems(classified)
	founderItems := s.template.Items(s.config.CompanyPrincipalID)

	appended := false
	ok := s.mutate(ctx, packageID, "append items", func(p *models.Package) error {
		if err := p.AppendItems(append(investorItems, founderItems...)...); err != nil {
			p.Enrichment = models.EnrichmentFailed
			p.RecordFailure(models.StageClassification, err, s.now())
			return nil
		}
		appended = true
		p.Enrichment = models.EnrichmentRunning
		return nil
	})
	if !ok || !appended {
		return
	}

	s.logger.Info("request decomposed",
		"package_id", packageID,
		"investor_items", len(investorItems),
		"founder_items", len(founderItems),
	)

	itemIDs := make([]string, len(investorItems))
	for i, item := range investorItems {
		itemIDs[i] = item.ID
	}
	s.enrichItems(ctx, packageID, itemIDs)
}

// stampInvestorItems turns classifier output into Pending investor items with
// fresh ids. Unknown categories fall back to Other; blank requests are dropped.
func stampInvestorItems(classified []models.ClassifiedItem) []models.Item {
	items := make([]models.Item, 0, len(classified))
	for _, c := range classified {
		request := strings.TrimSpace(c.Request)
		if request == "" {
			continue
		}
		items = append(items, models.Item{
			ID:       uuid.NewString(),
			AuthorID: models.InvestorAuthorID,
			Category: canonicalCategory(c.Category),
			Request:  request,
			Status:   models.ItemPending,
		})
	}
	return items
}

func canonicalCategory(c models.Category) models.Category {
	for _, known := range models.Categories {
		if strings.EqualFold(strings.TrimSpace(string(c)), string(known)) {
			return known
		}
	}
	return models.CategoryOther
}

// enrichItems runs the Evidence Matcher for each item strictly in order
// against one document snapshot, then settles the enrichment status.
func (s *Service) enrichItems(ctx context.Context, packageID string, itemIDs []string) {
	dctx, cancel := s.collaboratorContext(ctx)
	docs, err := s.documents.ListDocuments(dctx)
	cancel()
	if err != nil {
		s.logger.Error("document snapshot failed", "package_id", packageID, "error", err)
		msg := fmt.Sprintf("document lookup failed: %v", err)
		s.mutate(ctx, packageID, "document snapshot failed", func(p *models.Package) error {
			for _, id := range itemIDs {
				if item := p.FindItem(id); item != nil && item.Status == models.ItemPending {
					item.EvidenceError = &msg
				}
			}
			if len(itemIDs) == 0 {
				p.Enrichment = models.EnrichmentComplete
				return nil
			}
			p.Enrichment = models.EnrichmentPartial
			p.RecordFailure(models.StageEvidence, err, s.now())
			return nil
		})
		return
	}

	failed := 0
	for _, itemID := range itemIDs {
		if err := s.enrichItem(ctx, packageID, itemID, docs); err != nil {
			failed++
		}
	}

	s.mutate(ctx, packageID, "settle enrichment", func(p *models.Package) error {
		if failed > 0 {
			p.Enrichment = models.EnrichmentPartial
			p.RecordFailure(models.StageEvidence,
				fmt.Errorf("%d of %d evidence lookups failed", failed, len(itemIDs)), s.now())
			return nil
		}
		p.Enrichment = models.EnrichmentComplete
		return nil
	})

	s.logger.Info("enrichment finished",
		"package_id", packageID,
		"items", len(itemIDs),
		"failed", failed,
	)
}

// enrichItem asks the matcher about one item. A failure is stored on the item
// and returned; the item stays Pending so it can be retried.
func (s *Service) enrichItem(ctx context.Context, packageID, itemID string, docs []models.Document) error {
	pkg, ok := s.packages.Get(ctx, packageID)
	if !ok {
		return fmt.Errorf("package %s: %w", packageID, domain.ErrNotFound)
	}
	item := pkg.FindItem(itemID)
	if item == nil || !item.CanEnrich() {
		return nil
	}

	cctx, cancel := s.collaboratorContext(ctx)
	resp, err := s.collab.Matcher.MatchEvidence(cctx, item.Request, docs)
	cancel()
	if err == nil && resp == nil {
		err = fmt.Errorf("evidence matcher returned no response")
	}
	if err != nil {
		s.logger.Warn("evidence lookup failed", "package_id", packageID, "item_id", itemID, "error", err)
		msg := err.Error()
		s.mutate(ctx, packageID, "record evidence error", func(p *models.Package) error {
			target := p.FindItem(itemID)
			if target == nil || target.Status != models.ItemPending {
				return errStateChanged
			}
			target.EvidenceError = &msg
			return nil
		})
		return err
	}

	suggestion := normalizeSuggestion(resp, docs)
	s.mutate(ctx, packageID, "apply suggestion", func(p *models.Package) error {
		target := p.FindItem(itemID)
		if target == nil || !target.CanEnrich() {
			return errStateChanged
		}
		if target.SuggestedResponse != nil {
			// Evidence already curated by hand wins over the matcher's list
			suggestion.Evidence = target.SuggestedResponse.Evidence
		}
		target.SuggestedResponse = suggestion
		target.Status = models.ItemSuggested
		target.EvidenceError = nil
		return nil
	})
	return nil
}

// normalizeSuggestion clamps the score and keeps only evidence that points at
// a document from the snapshot, once per document, in matcher order.
func normalizeSuggestion(resp *models.SuggestedResponse, docs []models.Document) *models.SuggestedResponse {
	names := make(map[string]string, len(docs))
	for _, d := range docs {
		names[d.ID] = d.Name
	}

	out := &models.SuggestedResponse{
		ConfidenceScore: models.ClampScore(resp.ConfidenceScore),
		Summary:         strings.TrimSpace(resp.Summary),
		Evidence:        make([]models.Evidence, 0, len(resp.Evidence)),
	}
	seen := make(map[string]bool, len(resp.Evidence))
	for _, ev := range resp.Evidence {
		name, known := names[ev.DocumentID]
		if !known || seen[ev.DocumentID] {
			continue
		}
		seen[ev.DocumentID] = true
		if ev.DocumentName == "" {
			ev.DocumentName = name
		}
		out.Evidence = append(out.Evidence, ev)
	}
	return out
}
