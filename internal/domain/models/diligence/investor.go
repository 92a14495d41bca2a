package diligence

// InvestorStatus is the identity-confidence state of the counter-party.
type InvestorStatus string

const (
	InvestorPendingVerification InvestorStatus = "PENDING_VERIFICATION"
	InvestorPendingConfirmation InvestorStatus = "PENDING_CONFIRMATION"
	InvestorConfirmed           InvestorStatus = "CONFIRMED"
	InvestorGenesisPrincipal    InvestorStatus = "GENESIS_PRINCIPAL"
)

// IsTerminal reports whether the verification machine has finished.
func (s InvestorStatus) IsTerminal() bool {
	return s == InvestorConfirmed || s == InvestorGenesisPrincipal
}

// IsValid reports whether s is one of the four defined states.
func (s InvestorStatus) IsValid() bool {
	switch s {
	case InvestorPendingVerification, InvestorPendingConfirmation, InvestorConfirmed, InvestorGenesisPrincipal:
		return true
	}
	return false
}

// AnalysisStatus tracks the deep site analysis that follows confirmation.
type AnalysisStatus string

const (
	AnalysisNone     AnalysisStatus = ""
	AnalysisRunning  AnalysisStatus = "analyzing"
	AnalysisComplete AnalysisStatus = "complete"
	AnalysisFailed   AnalysisStatus = "failed"
)

// Degraded report values used when the reputation probe fails.
const (
	FallbackReportSummary      = "check failed"
	FallbackReportCautionScore = 50
)

// ReputationReport is the preliminary reputation check on an investor.
type ReputationReport struct {
	Summary      string   `json:"summary"`
	CautionScore int      `json:"caution_score"` // 0-100, higher = more caution
	Links        []string `json:"links"`
	OfficialSite *string  `json:"official_site,omitempty"` // suggested URL to confirm
}

// FallbackReport is stored when the prober fails so the machine never sticks.
func FallbackReport() *ReputationReport {
	return &ReputationReport{
		Summary:      FallbackReportSummary,
		CautionScore: FallbackReportCautionScore,
		Links:        []string{},
	}
}

// SiteProfile is the detailed analysis of a confirmed investor site.
type SiteProfile struct {
	KeyPersonnel      []string `json:"key_personnel"`
	InvestmentThesis  string   `json:"investment_thesis"`
	RecentInvestments []string `json:"recent_investments"`
	PublicLinks       []string `json:"public_links"`
}

// InvestorProfile tracks what is known about the requesting investor.
type InvestorProfile struct {
	Status            InvestorStatus    `json:"status"`
	PrincipalID       *string           `json:"principal_id,omitempty"`
	ConfirmedURL      *string           `json:"confirmed_url,omitempty"`
	ConfirmedDomain   *string           `json:"confirmed_domain,omitempty"`
	PreliminaryReport *ReputationReport `json:"preliminary_report,omitempty"`
	DetailedAnalysis  *SiteProfile      `json:"detailed_analysis,omitempty"`
	Analysis          AnalysisStatus    `json:"analysis,omitempty"`
	AnalysisError     *string           `json:"analysis_error,omitempty"`
}

func (p InvestorProfile) clone() InvestorProfile {
	out := p
	out.PrincipalID = cloneString(p.PrincipalID)
	out.ConfirmedURL = cloneString(p.ConfirmedURL)
	out.ConfirmedDomain = cloneString(p.ConfirmedDomain)
	out.AnalysisError = cloneString(p.AnalysisError)
	if p.PreliminaryReport != nil {
		r := *p.PreliminaryReport
		r.Links = cloneStrings(p.PreliminaryReport.Links)
		r.OfficialSite = cloneString(p.PreliminaryReport.OfficialSite)
		out.PreliminaryReport = &r
	}
	if p.DetailedAnalysis != nil {
		a := *p.DetailedAnalysis
		a.KeyPersonnel = cloneStrings(p.DetailedAnalysis.KeyPersonnel)
		a.RecentInvestments = cloneStrings(p.DetailedAnalysis.RecentInvestments)
		a.PublicLinks = cloneStrings(p.DetailedAnalysis.PublicLinks)
		out.DetailedAnalysis = &a
	}
	return out
}
