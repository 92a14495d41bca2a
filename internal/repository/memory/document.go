package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	models "diligence/internal/domain/models/diligence"
	diligenceRepo "diligence/internal/domain/repositories/diligence"
)

// documentsFile is the on-disk layout of a vault seed file
type documentsFile struct {
	Documents []models.Document `yaml:"documents"`
}

// DocumentRepository is a static, read-only vault held in memory
type DocumentRepository struct {
	docs []models.Document
}

// NewDocumentRepository creates a vault holding a copy of docs
func NewDocumentRepository(docs []models.Document) *DocumentRepository {
	return &DocumentRepository{docs: append([]models.Document(nil), docs...)}
}

var _ diligenceRepo.DocumentRepository = (*DocumentRepository)(nil)

// LoadDocumentsFile builds a vault from a YAML file of the form
//
//	documents:
//	  - id: doc-1
//	    name: FY24 Audited Financials.pdf
//	    type: pdf
//	    summary: Audited statements for fiscal 2024
func LoadDocumentsFile(path string, logger *slog.Logger) (*DocumentRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read documents file: %w", err)
	}

	var file documentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse documents file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Documents))
	for i, doc := range file.Documents {
		if doc.ID == "" {
			return nil, fmt.Errorf("documents file %s: entry %d has no id", path, i)
		}
		if seen[doc.ID] {
			return nil, fmt.Errorf("documents file %s: duplicate id %q", path, doc.ID)
		}
		seen[doc.ID] = true
	}

	logger.Info("vault documents loaded", "path", path, "count", len(file.Documents))
	return NewDocumentRepository(file.Documents), nil
}

// ListDocuments returns a copy of every vault document
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return append([]models.Document{}, r.docs...), nil
}
