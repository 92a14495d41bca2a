package diligence

// Document is a vault document the Evidence Matcher may cite. The engine only
// reads documents; vault CRUD lives elsewhere.
type Document struct {
	ID      string `json:"id" yaml:"id" db:"id"`
	Name    string `json:"name" yaml:"name" db:"name"`
	Type    string `json:"type" yaml:"type" db:"type"`
	Summary string `json:"summary" yaml:"summary" db:"summary"`
}

// Principal is a known, pre-vetted party. Investors matching one skip the
// reputation check.
type Principal struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Kind    string   `json:"kind" yaml:"kind"` // fund, company, individual
	Aliases []string `json:"aliases,omitempty" yaml:"aliases"`
}

// ClassifiedItem is one entry of the Text Classifier's output.
type ClassifiedItem struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Request  string   `json:"request"`
}

// FounderRequest is a standing question the company poses back to investors.
type FounderRequest struct {
	Category Category `json:"category" yaml:"category"`
	Request  string   `json:"request" yaml:"request"`
}
