package extract

import (
	"regexp"
	"sort"
	"strings"
)

// A candidate name is a run of 1–4 capitalized tokens. Patterns embed
// nameList where a conjunction-joined run ("Sarah Chen and David Kim")
// should yield multiple candidates, and nameRun where only a single
// name can appear.
const (
	nameToken = `[A-Z][a-zA-Z'’.-]+`
	nameRun   = nameToken + `(?:\s+` + nameToken + `){0,3}`
	nameList  = `(` + nameRun + `(?:\s*(?:,|\band\b|&)\s*` + nameRun + `)*)`
)

// namePatterns is the ordered regex ensemble. Each pattern is an
// independent voter into the candidate frequency table; no single
// pattern is treated as authoritative.
var namePatterns = []*regexp.Regexp{
	// "met Sarah", "called with David Kim", "spoke to Maria"
	regexp.MustCompile(`\b(?i:met|saw|called|emailed|texted|talked to|spoke to|spoke with)\s+(?:(?i:with)\s+)?` + nameList),
	// "coffee with Sarah Chen and David Kim", "meeting yesterday with Alex"
	regexp.MustCompile(`\b(?i:meeting|call|lunch|coffee|dinner|breakfast|chat|sync|drinks|interview)\b[^.!?\n]{0,40}?\b(?i:with)\s+` + nameList),
	// "Sarah told me", "David mentioned"
	regexp.MustCompile(`(` + nameRun + `)\s+(?i:told|said|mentioned|asked|suggested|recommended|shared|explained)`),
	// "Priya from Acme", "Jordan at Vertex Labs"
	regexp.MustCompile(`(` + nameRun + `)\s+(?i:from|at|of)\s+[A-Z]`),
	// sentence-initial subject: "Sarah Chen is joining..."
	regexp.MustCompile(`(?m)(?:^|[.!?]\s+)(` + nameRun + `)\s+(?:is|was|will|and|joined|works|runs|leads)\b`),
}

// listSplitRE splits a conjunction-joined capture into individual names.
var listSplitRE = regexp.MustCompile(`\s*(?:,|\band\b|&)\s*`)

// nameSkipList drops candidates whose first token is a weekday, month,
// platform/company name, determiner, contact verb, or other common
// false positive from sentence-initial capitalization. The contact
// verbs matter: a sentence like "Met Sarah Chen and ..." lets the
// subject pattern capture the leading verb into the name run.
var nameSkipList = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		"january", "february", "march", "april", "may", "june", "july",
		"august", "september", "october", "november", "december",
		"zoom", "teams", "slack", "google", "meet", "skype", "discord",
		"microsoft", "apple", "amazon", "facebook", "linkedin", "twitter", "github",
		"the", "this", "that", "these", "those", "there",
		"today", "yesterday", "tomorrow", "tonight", "next", "last",
		"had", "have", "after", "before", "during", "everyone", "nobody",
		"met", "saw", "called", "spoke", "talked", "emailed", "texted",
		"meeting", "call", "note", "notes", "transcript", "summary",
		"ai", "ok", "hello", "hi", "dear", "thanks", "regards", "also",
	} {
		nameSkipList[w] = struct{}{}
	}
}

// ExtractAllNames returns every surviving candidate name, sorted by
// descending vote count (ties broken by first appearance). If nothing
// survives it returns the single sentinel UnknownPerson.
func ExtractAllNames(text string) []string {
	votes := map[string]int{}
	firstSeen := map[string]int{}
	display := map[string]string{}
	order := 0

	record := func(raw string) {
		name := strings.Join(strings.Fields(raw), " ")
		name = strings.Trim(name, " .,")
		if len(name) <= 2 {
			return
		}
		first := strings.ToLower(strings.Fields(name)[0])
		if _, skip := nameSkipList[first]; skip {
			return
		}
		key := strings.ToLower(name)
		if _, seen := votes[key]; !seen {
			firstSeen[key] = order
			display[key] = name
			order++
		}
		votes[key]++
	}

	for _, pattern := range namePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			for _, part := range listSplitRE.Split(m[1], -1) {
				if strings.TrimSpace(part) != "" {
					record(part)
				}
			}
		}
	}

	if len(votes) == 0 {
		return []string{UnknownPerson}
	}

	keys := make([]string, 0, len(votes))
	for k := range votes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if votes[keys[i]] != votes[keys[j]] {
			return votes[keys[i]] > votes[keys[j]]
		}
		return firstSeen[keys[i]] < firstSeen[keys[j]]
	})

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = display[k]
	}
	return names
}

// ExtractName returns only the highest-voted candidate, or the sentinel
// UnknownPerson when nothing survives.
func ExtractName(text string) string {
	return ExtractAllNames(text)[0]
}
