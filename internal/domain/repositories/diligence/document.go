package diligence

import (
	"context"

	"diligence/internal/domain/models/diligence"
)

// DocumentRepository is the read-only view of the document vault
type DocumentRepository interface {
	// ListDocuments returns every document the Evidence Matcher may cite
	ListDocuments(ctx context.Context) ([]diligence.Document, error)
}
