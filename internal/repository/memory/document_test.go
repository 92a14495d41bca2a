package memory

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDocumentsFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name      string
		content   string
		wantCount int
		wantErr   bool
	}{
		{
			name: "valid file",
			content: `documents:
  - id: doc-1
    name: Cap Table.xlsx
    type: spreadsheet
    summary: Fully diluted cap table
  - id: doc-2
    name: SOC2 Report.pdf
    type: pdf
    summary: Type II report
`,
			wantCount: 2,
		},
		{
			name:      "empty list",
			content:   "documents: []\n",
			wantCount: 0,
		},
		{
			name: "missing id",
			content: `documents:
  - name: nameless.pdf
`,
			wantErr: true,
		},
		{
			name: "duplicate id",
			content: `documents:
  - id: a
  - id: a
`,
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			content: "documents: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "documents.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("write fixture: %v", err)
			}

			repo, err := LoadDocumentsFile(path, logger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadDocumentsFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			docs, err := repo.ListDocuments(context.Background())
			if err != nil {
				t.Fatalf("ListDocuments() error = %v", err)
			}
			if len(docs) != tt.wantCount {
				t.Errorf("len(docs) = %d, want %d", len(docs), tt.wantCount)
			}
		})
	}
}

func TestDocumentRepository_ListReturnsCopy(t *testing.T) {
	repo := NewDocumentRepository(nil)
	docs, err := repo.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if docs == nil {
		t.Error("ListDocuments() = nil, want empty slice")
	}
}
