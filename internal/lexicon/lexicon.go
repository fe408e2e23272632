// Package lexicon provides the shared tokenizer for ClawCRM's offline
// semantic layer.
//
// Tokenize is a total function: it never fails, and degenerate input
// (empty string, punctuation soup) yields an empty slice. Output tokens
// are lower-cased, stripped of everything except letters, digits,
// apostrophes and hyphens, and filtered against a fixed English stop
// list. The embedding engine and the topic extractor both consume this
// stream, so any change here changes every stored fingerprint.
package lexicon

import (
	"strings"
	"unicode"
)

// stopWords is the fixed filter set: common English function words plus
// the contraction fragments the apostrophe rule leaves behind.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "the", "this", "that", "these", "those",
		"i", "me", "my", "mine", "we", "us", "our", "ours",
		"you", "your", "yours", "he", "him", "his", "she", "her", "hers",
		"it", "its", "they", "them", "their", "theirs",
		"am", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "having", "do", "does", "did", "doing",
		"will", "would", "shall", "should", "can", "could", "may", "might",
		"must", "ought",
		"and", "or", "but", "nor", "so", "yet", "if", "then", "else",
		"because", "as", "until", "while", "when", "where", "why", "how",
		"what", "which", "who", "whom", "whose",
		"of", "at", "by", "for", "with", "about", "against", "between",
		"into", "through", "during", "before", "after", "above", "below",
		"to", "from", "up", "down", "in", "out", "on", "off", "over",
		"under", "again", "further", "once", "here", "there",
		"all", "any", "both", "each", "few", "more", "most", "other",
		"some", "such", "no", "not", "only", "own", "same", "than", "too",
		"very", "just", "also", "now", "get", "got", "one",
		// contraction fragments left after punctuation stripping
		"s", "t", "d", "ll", "m", "re", "ve", "don't", "won't", "isn't",
		"wasn't", "didn't", "doesn't", "can't", "couldn't", "wouldn't",
		"shouldn't", "it's", "i'm", "we're", "they're", "you're", "he's",
		"she's", "that's", "there's", "let's", "i've", "we've", "i'll",
		"we'll",
	} {
		stopWords[w] = struct{}{}
	}
}

// Tokenize splits text into a normalized token stream. Tokens of length
// one or less and stop words are dropped.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	cleaned := normalize(text)

	var tokens []string
	for _, t := range strings.Fields(cleaned) {
		t = strings.Trim(t, "'-")
		if len(t) <= 1 {
			continue
		}
		if _, stop := stopWords[t]; stop {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// IsStopWord reports whether the lower-cased word is in the stop list.
func IsStopWord(w string) bool {
	_, ok := stopWords[strings.ToLower(w)]
	return ok
}

// normalize lower-cases text and replaces every rune that is not a
// letter, digit, apostrophe, hyphen, or whitespace with a space.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’':
			b.WriteRune('\'')
		case r == '-':
			b.WriteRune('-')
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}
