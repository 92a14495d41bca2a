package llm

import (
	"errors"
	"testing"
)

func TestDecodeCompletion(t *testing.T) {
	type payload struct {
		Summary string `json:"summary"`
		Score   int    `json:"score"`
	}

	tests := []struct {
		name    string
		input   string
		want    payload
		wantErr bool
	}{
		{
			name:  "plain object",
			input: `{"summary":"ok","score":3}`,
			want:  payload{Summary: "ok", Score: 3},
		},
		{
			name:  "fenced json",
			input: "```json\n{\"summary\":\"fenced\",\"score\":1}\n```",
			want:  payload{Summary: "fenced", Score: 1},
		},
		{
			name:  "chatter around object",
			input: `Sure! Here is the answer: {"summary":"a {brace} inside","score":7} Hope this helps.`,
			want:  payload{Summary: "a {brace} inside", Score: 7},
		},
		{
			name:  "escaped quote in string",
			input: `{"summary":"say \"hi\" }","score":2}`,
			want:  payload{Summary: `say "hi" }`, Score: 2},
		},
		{
			name:    "no json",
			input:   "I cannot help with that.",
			wantErr: true,
		},
		{
			name:    "truncated object",
			input:   `{"summary":"cut`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			err := decodeCompletion(tt.input, &got)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidJSON) {
					t.Fatalf("err = %v, want ErrInvalidJSON", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractFirstJSONValue_Array(t *testing.T) {
	got, ok := extractFirstJSONValue(`result: [{"a":[1,2]}, {"b":"]"}] trailing`)
	if !ok {
		t.Fatal("expected a value")
	}
	want := `[{"a":[1,2]}, {"b":"]"}]`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestScore_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: `82`, want: 82},
		{raw: `82.5`, want: 83},
		{raw: `82.4`, want: 82},
		{raw: `"64"`, want: 64},
		{raw: `"70%"`, want: 70},
		{raw: `-3.2`, want: 0},
		{raw: `1e9`, want: 100},
		{raw: `null`, want: 0},
		{raw: `""`, want: 0},
		{raw: `"high"`, wantErr: true},
		{raw: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var s score
			err := s.UnmarshalJSON([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalJSON(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !tt.wantErr && s.Int() != tt.want {
				t.Errorf("score(%s).Int() = %d, want %d", tt.raw, s.Int(), tt.want)
			}
		})
	}
}
