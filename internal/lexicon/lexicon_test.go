package lexicon

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic sentence",
			text: "Met with Sarah Chen about the infrastructure project.",
			want: []string{"met", "sarah", "chen", "infrastructure", "project"},
		},
		{
			name: "stop words removed",
			text: "the quick brown fox is over a lazy dog",
			want: []string{"quick", "brown", "fox", "lazy", "dog"},
		},
		{
			name: "punctuation stripped",
			text: "budget: $40K (approved!) — ship Q3/Q4",
			want: []string{"budget", "40k", "approved", "ship", "q3", "q4"},
		},
		{
			name: "apostrophes and hyphens preserved",
			text: "Sarah's follow-up on the co-founder question",
			want: []string{"sarah's", "follow-up", "co-founder", "question"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "punctuation only",
			text: "... !!! ???",
			want: nil,
		},
		{
			name: "single characters dropped",
			text: "x y z plan b",
			want: []string{"plan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	text := "Quarterly sync with David Kim about model compression targets"
	a := Tokenize(text)
	b := Tokenize(text)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Tokenize is not deterministic: %v vs %v", a, b)
	}
}

func TestIsStopWord(t *testing.T) {
	if !IsStopWord("The") {
		t.Error("expected 'The' to be a stop word")
	}
	if IsStopWord("transformer") {
		t.Error("did not expect 'transformer' to be a stop word")
	}
}
