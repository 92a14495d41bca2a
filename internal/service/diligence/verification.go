package diligence

import (
	"context"
	"fmt"
	"strings"

	"diligence/internal/domain"
	models "diligence/internal/domain/models/diligence"
)

// verifyInvestor runs the automatic half of the verification machine. Every
// write is compare-and-set on PENDING_VERIFICATION so a manual link made in
// the meantime is never overwritten.
func (s *Service) verifyInvestor(ctx context.Context, packageID string) {
	pkg, ok := s.packages.Get(ctx, packageID)
	if !ok {
		return
	}

	if principal, found := s.registry.Match(pkg.InvestorName, s.config.CompanyPrincipalID); found {
		principalID := principal.ID
		applied := s.mutate(ctx, packageID, "link known principal", func(p *models.Package) error {
			if p.InvestorProfile.Status != models.InvestorPendingVerification {
				return errStateChanged
			}
			p.InvestorProfile.Status = models.InvestorGenesisPrincipal
			p.InvestorProfile.PrincipalID = &principalID
			return nil
		})
		if applied {
			s.logger.Info("investor matched known principal", "package_id", packageID, "principal_id", principalID)
		}
		return
	}

	cctx, cancel := s.collaboratorContext(ctx)
	report, err := s.collab.Prober.Probe(cctx, pkg.InvestorName)
	cancel()
	if err == nil && report == nil {
		err = fmt.Errorf("reputation prober returned no report")
	}
	if err != nil {
		s.logger.Warn("reputation check failed, using fallback report",
			"package_id", packageID,
			"investor", pkg.InvestorName,
			"error", err,
		)
		report = models.FallbackReport()
	} else {
		report = normalizeReport(report)
	}

	applied := s.mutate(ctx, packageID, "store preliminary report", func(p *models.Package) error {
		if p.InvestorProfile.Status != models.InvestorPendingVerification {
			return errStateChanged
		}
		p.InvestorProfile.Status = models.InvestorPendingConfirmation
		p.InvestorProfile.PreliminaryReport = report
		return nil
	})
	if applied {
		s.logger.Info("investor awaiting confirmation", "package_id", packageID, "caution_score", report.CautionScore)
	}
}

func normalizeReport(r *models.ReputationReport) *models.ReputationReport {
	out := &models.ReputationReport{
		Summary:      strings.TrimSpace(r.Summary),
		CautionScore: models.ClampScore(r.CautionScore),
		Links:        make([]string, 0, len(r.Links)),
	}
	for _, link := range r.Links {
		if link = strings.TrimSpace(link); link != "" {
			out.Links = append(out.Links, link)
		}
	}
	if r.OfficialSite != nil {
		if site := strings.TrimSpace(*r.OfficialSite); site != "" {
			out.OfficialSite = &site
		}
	}
	return out
}

// SetInvestorPrincipal links the investor to a registered principal. Allowed
// from either pending state; the verified states are terminal.
func (s *Service) SetInvestorPrincipal(ctx context.Context, packageID, principalID string) (*models.Package, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return nil, fmt.Errorf("%w: principal_id is required", domain.ErrValidation)
	}
	if _, ok := s.registry.Get(principalID); !ok {
		return nil, fmt.Errorf("%w: unknown principal %q", domain.ErrValidation, principalID)
	}

	pkg, err := s.packages.Mutate(ctx, packageID, func(p *models.Package) error {
		from := p.InvestorProfile.Status
		if from != models.InvestorPendingVerification && from != models.InvestorPendingConfirmation {
			return investorTransition(from, models.InvestorGenesisPrincipal)
		}
		p.InvestorProfile.Status = models.InvestorGenesisPrincipal
		p.InvestorProfile.PrincipalID = &principalID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("investor linked to principal", "package_id", packageID, "principal_id", principalID)
	return pkg, nil
}

// ConfirmInvestorAndAnalyze binds the investor to a URL and starts the site
// analysis in the background.
func (s *Service) ConfirmInvestorAndAnalyze(ctx context.Context, packageID, rawURL string) (*models.Package, error) {
	siteURL, site, err := normalizeSiteURL(rawURL, s.config.AllowPrivateSites)
	if err != nil {
		return nil, err
	}

	pkg, err := s.packages.Mutate(ctx, packageID, func(p *models.Package) error {
		from := p.InvestorProfile.Status
		if from != models.InvestorPendingConfirmation {
			return investorTransition(from, models.InvestorConfirmed)
		}
		p.InvestorProfile.Status = models.InvestorConfirmed
		p.InvestorProfile.ConfirmedURL = &siteURL
		p.InvestorProfile.ConfirmedDomain = &site
		p.InvestorProfile.Analysis = models.AnalysisRunning
		p.InvestorProfile.AnalysisError = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("investor confirmed", "package_id", packageID, "url", siteURL, "domain", site)

	s.tasks.Go("site analysis", packageID, func(ctx context.Context) {
		s.analyzeSite(ctx, packageID, siteURL)
	}, s.recordPanic(packageID, models.StageAnalysis))

	return pkg, nil
}

func (s *Service) analyzeSite(ctx context.Context, packageID, siteURL string) {
	cctx, cancel := s.collaboratorContext(ctx)
	profile, err := s.collab.Analyst.Analyze(cctx, siteURL)
	cancel()
	if err == nil && profile == nil {
		err = fmt.Errorf("site analyst returned no profile")
	}

	if err != nil {
		s.logger.Error("site analysis failed", "package_id", packageID, "url", siteURL, "error", err)
		msg := err.Error()
		s.mutate(ctx, packageID, "record analysis failure", func(p *models.Package) error {
			if p.InvestorProfile.Analysis != models.AnalysisRunning {
				return errStateChanged
			}
			p.InvestorProfile.Analysis = models.AnalysisFailed
			p.InvestorProfile.AnalysisError = &msg
			p.RecordFailure(models.StageAnalysis, err, s.now())
			return nil
		})
		return
	}

	normalized := normalizeProfile(profile)
	if s.mutate(ctx, packageID, "store site analysis", func(p *models.Package) error {
		if p.InvestorProfile.Analysis != models.AnalysisRunning {
			return errStateChanged
		}
		p.InvestorProfile.DetailedAnalysis = normalized
		p.InvestorProfile.Analysis = models.AnalysisComplete
		return nil
	}) {
		s.logger.Info("site analysis complete", "package_id", packageID, "personnel", len(normalized.KeyPersonnel))
	}
}

func normalizeProfile(p *models.SiteProfile) *models.SiteProfile {
	return &models.SiteProfile{
		KeyPersonnel:      nonBlank(p.KeyPersonnel),
		InvestmentThesis:  strings.TrimSpace(p.InvestmentThesis),
		RecentInvestments: nonBlank(p.RecentInvestments),
		PublicLinks:       nonBlank(p.PublicLinks),
	}
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func investorTransition(from, to models.InvestorStatus) error {
	return &domain.TransitionError{Machine: "investor", From: string(from), To: string(to)}
}
