package extract

import (
	"sort"
	"strings"

	"github.com/Kyrillus/ClawCRM/internal/lexicon"
)

const (
	maxTopics       = 8
	maxBigramTopics = 5
)

// promptVocab filters tokens that belong to the instruction layer of a
// block rather than its content. Without this, every extracted note
// would rank "extract" and "json" as topics.
var promptVocab = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"extract", "extraction", "summary", "summarize", "topics", "topic",
		"json", "format", "return", "valid", "analyze", "analyse", "parse",
		"response", "respond", "following", "content", "text", "output",
		"input", "field", "fields", "list", "identify", "generate",
		"provide", "note", "notes", "please",
	} {
		promptVocab[w] = struct{}{}
	}
}

// Topics ranks the most salient phrases in a text block: up to five
// repeated bigrams first, then high-frequency unigrams to fill out a
// list of at most eight. Tokens from the prompt vocabulary never count.
func Topics(text string) []string {
	var tokens []string
	for _, tok := range lexicon.Tokenize(text) {
		if _, skip := promptVocab[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) == 0 {
		return nil
	}

	uniCount := map[string]int{}
	uniSeen := map[string]int{}
	biCount := map[string]int{}
	biSeen := map[string]int{}

	for i, tok := range tokens {
		if _, ok := uniCount[tok]; !ok {
			uniSeen[tok] = i
		}
		uniCount[tok]++

		if i+1 < len(tokens) {
			bi := tok + " " + tokens[i+1]
			if _, ok := biCount[bi]; !ok {
				biSeen[bi] = i
			}
			biCount[bi]++
		}
	}

	rank := func(count, seen map[string]int) []string {
		keys := make([]string, 0, len(count))
		for k := range count {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if count[keys[i]] != count[keys[j]] {
				return count[keys[i]] > count[keys[j]]
			}
			return seen[keys[i]] < seen[keys[j]]
		})
		return keys
	}

	var topics []string

	// Bigrams qualify only when they repeat; a phrase seen once is
	// usually just adjacency, not a theme.
	for _, bi := range rank(biCount, biSeen) {
		if biCount[bi] < 2 || len(topics) == maxBigramTopics {
			break
		}
		topics = append(topics, bi)
	}

	for _, uni := range rank(uniCount, uniSeen) {
		if len(topics) == maxTopics {
			break
		}
		covered := false
		for _, bi := range topics {
			if strings.Contains(" "+bi+" ", " "+uni+" ") {
				covered = true
				break
			}
		}
		if !covered {
			topics = append(topics, uni)
		}
	}

	return topics
}
