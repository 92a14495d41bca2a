package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	models "diligence/internal/domain/models/diligence"
)

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []models.ClassifiedItem
	}{
		{
			name:  "wrapped items",
			reply: `{"items":[{"id":"1","category":"financials","request":"Send the P&L"},{"id":"2","category":"Legal","request":"Share the charter"}]}`,
			want: []models.ClassifiedItem{
				{ID: "1", Category: models.CategoryFinancials, Request: "Send the P&L"},
				{ID: "2", Category: models.CategoryLegal, Request: "Share the charter"},
			},
		},
		{
			name:  "bare array with numeric ids",
			reply: "```json\n[{\"id\":1,\"category\":\"Team\",\"request\":\"Org chart\"}]\n```",
			want: []models.ClassifiedItem{
				{ID: "1", Category: models.CategoryTeam, Request: "Org chart"},
			},
		},
		{
			name:  "unknown category and blank request",
			reply: `{"items":[{"category":"Vibes","request":"Tell us a story"},{"category":"Legal","request":"   "}]}`,
			want: []models.ClassifiedItem{
				{ID: "1", Category: models.CategoryOther, Request: "Tell us a story"},
			},
		},
		{
			name:  "empty",
			reply: `{"items":[]}`,
			want:  []models.ClassifiedItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: tt.reply}
			got, err := NewClassifier(gen, testLogger()).Classify(context.Background(), "raw text")
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d items, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestClassifier_PromptListsCategories(t *testing.T) {
	gen := &fakeGenerator{reply: `{"items":[]}`}
	if _, err := NewClassifier(gen, testLogger()).Classify(context.Background(), "Please send financials"); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	for _, c := range models.Categories {
		if !strings.Contains(gen.systems[0], string(c)) {
			t.Errorf("system prompt missing category %s", c)
		}
	}
	if !strings.Contains(gen.prompts[0], "Please send financials") {
		t.Error("prompt does not carry the request text")
	}
}

func TestClassifier_Errors(t *testing.T) {
	boom := errors.New("rate limited")
	if _, err := NewClassifier(&fakeGenerator{err: boom}, testLogger()).Classify(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want generator error", err)
	}
	if _, err := NewClassifier(&fakeGenerator{reply: "no idea"}, testLogger()).Classify(context.Background(), "x"); !errors.Is(err, ErrInvalidJSON) {
		t.Errorf("err = %v, want ErrInvalidJSON", err)
	}
}
