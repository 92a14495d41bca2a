package diligence

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	models "diligence/internal/domain/models/diligence"
)

type founderRequestsFile struct {
	Requests []models.FounderRequest `yaml:"requests"`
}

// FounderTemplate is the fixed list of asks the company adds to every package
type FounderTemplate struct {
	requests []models.FounderRequest
}

// NewFounderTemplate loads the embedded founder request template
func NewFounderTemplate() (*FounderTemplate, error) {
	data, err := configFiles.ReadFile("config/founder_requests.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read founder template: %w", err)
	}
	return parseFounderTemplate(data, "config/founder_requests.yaml")
}

// LoadFounderTemplateFile loads founder requests from a YAML file instead of the embedded template
func LoadFounderTemplateFile(path string) (*FounderTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return parseFounderTemplate(data, path)
}

func parseFounderTemplate(data []byte, source string) (*FounderTemplate, error) {
	var file founderRequestsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", source, err)
	}
	t, err := NewFounderTemplateFromRequests(file.Requests)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return t, nil
}

// NewFounderTemplateFromRequests builds a template from an in-memory list
func NewFounderTemplateFromRequests(requests []models.FounderRequest) (*FounderTemplate, error) {
	for i, r := range requests {
		if strings.TrimSpace(r.Request) == "" {
			return nil, fmt.Errorf("founder request %d: request text is required", i)
		}
		if !r.Category.IsValid() {
			return nil, fmt.Errorf("founder request %d: unknown category %q", i, r.Category)
		}
	}
	return &FounderTemplate{requests: append([]models.FounderRequest(nil), requests...)}, nil
}

// Items synthesizes fresh founder items authored by authorID
func (t *FounderTemplate) Items(authorID string) []models.Item {
	items := make([]models.Item, 0, len(t.requests))
	for _, r := range t.requests {
		items = append(items, models.Item{
			ID:       uuid.NewString(),
			AuthorID: authorID,
			Category: r.Category,
			Request:  r.Request,
			Status:   models.ItemAwaitingResponse,
		})
	}
	return items
}
