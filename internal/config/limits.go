package config

const (
	// MaxInvestorNameLength is the maximum length for investor names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxInvestorNameLength = 255

	// MaxRequestTextLength bounds the raw request text handed to the
	// Text Classifier. Long email threads fit; whole data rooms do not.
	MaxRequestTextLength = 100_000

	// MaxItemRequestLength is the maximum length for a single item request,
	// including founder requests added by hand.
	MaxItemRequestLength = 2_000

	// MaxEvidencePerItem caps how many documents one item may cite.
	MaxEvidencePerItem = 50

	// MaxURLLength is the maximum length for a confirmed investor URL.
	MaxURLLength = 2_048
)
