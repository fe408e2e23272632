package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/Kyrillus/ClawCRM/internal/extract"
)

func TestParseStructured(t *testing.T) {
	type payload struct {
		Names []string `json:"names"`
	}

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "bare json",
			raw:  `{"names": ["Sarah Chen"]}`,
			want: []string{"Sarah Chen"},
		},
		{
			name: "fenced with language tag",
			raw:  "```json\n{\"names\": [\"David Kim\"]}\n```",
			want: []string{"David Kim"},
		},
		{
			name: "fenced without language tag",
			raw:  "```\n{\"names\": [\"Maria\"]}\n```",
			want: []string{"Maria"},
		},
		{
			name: "prose around json",
			raw:  `Sure, here is the result: {"names": ["Priya"]} Hope that helps!`,
			want: []string{"Priya"},
		},
		{
			name: "unterminated fence",
			raw:  "```json\n{\"names\": [\"Jordan\"]}",
			want: []string{"Jordan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			if err := ParseStructured(tt.raw, &got); err != nil {
				t.Fatalf("ParseStructured: %v", err)
			}
			if len(got.Names) != len(tt.want) || got.Names[0] != tt.want[0] {
				t.Errorf("got %v, want %v", got.Names, tt.want)
			}
		})
	}
}

func TestParseStructuredTopLevelArray(t *testing.T) {
	var got []string
	raw := `The people mentioned are: ["Sarah Chen", "David Kim"] as requested.`
	if err := ParseStructured(raw, &got); err != nil {
		t.Fatalf("ParseStructured: %v", err)
	}
	if len(got) != 2 || got[0] != "Sarah Chen" || got[1] != "David Kim" {
		t.Errorf("got %v, want [Sarah Chen David Kim]", got)
	}
}

func TestParseStructuredNoJSON(t *testing.T) {
	var out map[string]any
	err := ParseStructured("I could not find any people in that note.", &out)
	if err == nil {
		t.Fatal("expected an error for a response with no JSON")
	}
	if !strings.Contains(err.Error(), "no parsable JSON") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseStructuredTruncatesRawInError(t *testing.T) {
	var out map[string]any
	err := ParseStructured(strings.Repeat("x", 1000), &out)
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(err.Error()) > 300 {
		t.Errorf("error message should truncate the raw response: %d chars", len(err.Error()))
	}
}

func TestOfflineProviderExtractStructured(t *testing.T) {
	p := NewOfflineProvider(0)

	var res extract.Result
	err := p.ExtractStructured(context.Background(),
		"Extract people from this meeting note. Met Sarah Chen about the roadmap.", "", &res)
	if err != nil {
		t.Fatalf("ExtractStructured: %v", err)
	}
	if len(res.Names) == 0 || res.Names[0] != "Sarah Chen" {
		t.Errorf("names = %v", res.Names)
	}
	if res.Intent != extract.IntentMeeting {
		t.Errorf("intent = %q", res.Intent)
	}
}

func TestOfflineProviderExtractStructuredGenericTarget(t *testing.T) {
	p := NewOfflineProvider(0)

	var out struct {
		Names []string `json:"names"`
	}
	err := p.ExtractStructured(context.Background(), "Called Maria about the contract.", "", &out)
	if err != nil {
		t.Fatalf("ExtractStructured: %v", err)
	}
	if len(out.Names) == 0 || out.Names[0] != "Maria" {
		t.Errorf("names = %v", out.Names)
	}
}

func TestOfflineProviderEmbed(t *testing.T) {
	p := NewOfflineProvider(64)

	vec, err := p.Embed(context.Background(), "hello world of vectors")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 64 {
		t.Errorf("got %d dims, want 64", len(vec))
	}
	if p.Dimensions() != 64 {
		t.Errorf("Dimensions() = %d", p.Dimensions())
	}
}

func TestOfflineProviderChatIsJSON(t *testing.T) {
	p := NewOfflineProvider(0)

	raw, err := p.Chat(context.Background(), "Met David Kim for coffee.", "")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	var res extract.Result
	if err := ParseStructured(raw, &res); err != nil {
		t.Fatalf("chat output is not parsable JSON: %v", err)
	}
}

func TestOfflineProviderRespectsContext(t *testing.T) {
	p := NewOfflineProvider(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.ExtractStructured(ctx, "anything", "", &extract.Result{}); err == nil {
		t.Error("cancelled context should fail")
	}
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(OpenAIConfig{}, nil); err == nil {
		t.Error("missing api key should fail")
	}
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test"}, nil)
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	if p.Name() != "openai/"+defaultChatModel {
		t.Errorf("Name() = %q", p.Name())
	}
}
