package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	models "diligence/internal/domain/models/diligence"
	svc "diligence/internal/domain/services/diligence"
)

const classifierSystem = `You split investor due-diligence requests into discrete asks.
Respond ONLY with JSON of the form:
{"items": [{"id": "1", "category": "Financials", "request": "..."}]}
Allowed categories: %s.
Each request is one self-contained ask, rewritten as a short imperative sentence.
Do not invent asks that are not in the text.`

type classifierResponse struct {
	Items []classifiedItem `json:"items"`
}

// classifiedItem tolerates numeric or string ids
type classifiedItem struct {
	ID       interface{} `json:"id"`
	Category string      `json:"category"`
	Request  string      `json:"request"`
}

// Classifier is the LLM-backed TextClassifier
type Classifier struct {
	gen    Generator
	logger *slog.Logger
}

// NewClassifier creates a TextClassifier on top of gen
func NewClassifier(gen Generator, logger *slog.Logger) *Classifier {
	return &Classifier{gen: gen, logger: logger}
}

var _ svc.TextClassifier = (*Classifier)(nil)

// Classify asks the model for categorized items. Categories are matched
// case-insensitively; anything unrecognized becomes Other.
func (c *Classifier) Classify(ctx context.Context, text string) ([]models.ClassifiedItem, error) {
	system := fmt.Sprintf(classifierSystem, categoryList())
	resp, err := c.gen.Generate(ctx, system, "Request text:\n"+text)
	if err != nil {
		return nil, err
	}

	var parsed classifierResponse
	if err := decodeCompletion(resp, &parsed); err != nil {
		// Some models answer with the bare array
		if arrErr := decodeCompletion(resp, &parsed.Items); arrErr != nil {
			return nil, fmt.Errorf("classifier: %w", err)
		}
	}

	items := make([]models.ClassifiedItem, 0, len(parsed.Items))
	for i, item := range parsed.Items {
		request := strings.TrimSpace(item.Request)
		if request == "" {
			continue
		}
		items = append(items, models.ClassifiedItem{
			ID:       itemID(item.ID, i),
			Category: matchCategory(item.Category),
			Request:  request,
		})
	}

	c.logger.Debug("text classified", "generator", c.gen.Name(), "items", len(items))
	return items, nil
}

func itemID(raw interface{}, index int) string {
	switch v := raw.(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%d", index+1)
}

func categoryList() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// matchCategory canonicalizes a model-supplied category name
func matchCategory(raw string) models.Category {
	raw = strings.TrimSpace(raw)
	for _, c := range models.Categories {
		if strings.EqualFold(raw, string(c)) {
			return c
		}
	}
	return models.CategoryOther
}
