// Package resolve matches extracted person names against the stored
// roster. Scoring is lexical only: exact match, containment, then token
// overlap. Embedding similarity is deliberately not part of the score;
// names are too short for it to help.
package resolve

import (
	"sort"
	"strings"
)

const (
	// DefaultAcceptThreshold is the minimum score at which a candidate
	// is auto-accepted as the best match.
	DefaultAcceptThreshold = 0.4

	// StrictAcceptThreshold is a preset for callers that prefer an
	// unassigned name over a wrong link. Not the default anywhere.
	StrictAcceptThreshold = 0.7

	exactScore       = 1.0
	containmentScore = 0.8

	maxCandidates = 5
)

// RosterEntry is one stored person, as the resolver sees it.
type RosterEntry struct {
	ID   int64
	Name string
}

// Candidate is a scored roster match for one extracted name.
type Candidate struct {
	PersonID int64   `json:"person_id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
}

// Result holds the ranked candidates for one extracted name. Best is
// nil when no candidate reaches the accept threshold.
type Result struct {
	Query      string      `json:"query"`
	Candidates []Candidate `json:"candidates"`
	Best       *Candidate  `json:"best,omitempty"`
}

// Resolver scores extracted names against a roster.
type Resolver struct {
	threshold    float64
	ownerAliases map[string]struct{}
}

// NewResolver creates a Resolver. A non-positive threshold falls back
// to DefaultAcceptThreshold. Owner aliases are excluded from results so
// the owner never resolves to themselves out of their own notes.
func NewResolver(threshold float64, ownerAliases []string) *Resolver {
	if threshold <= 0 {
		threshold = DefaultAcceptThreshold
	}
	aliases := make(map[string]struct{}, len(ownerAliases))
	for _, a := range ownerAliases {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			aliases[a] = struct{}{}
		}
	}
	return &Resolver{threshold: threshold, ownerAliases: aliases}
}

// Resolve scores name against every roster entry and returns the top
// candidates. Entries scoring zero are dropped; at most five are kept.
func (r *Resolver) Resolve(name string, roster []RosterEntry) Result {
	res := Result{Query: name}

	if r.IsOwner(name) {
		return res
	}

	for _, entry := range roster {
		score := Similarity(name, entry.Name)
		if score <= 0 {
			continue
		}
		res.Candidates = append(res.Candidates, Candidate{
			PersonID: entry.ID,
			Name:     entry.Name,
			Score:    score,
		})
	}

	sort.Slice(res.Candidates, func(i, j int) bool {
		if res.Candidates[i].Score != res.Candidates[j].Score {
			return res.Candidates[i].Score > res.Candidates[j].Score
		}
		return res.Candidates[i].PersonID < res.Candidates[j].PersonID
	})
	if len(res.Candidates) > maxCandidates {
		res.Candidates = res.Candidates[:maxCandidates]
	}

	if len(res.Candidates) > 0 && res.Candidates[0].Score >= r.threshold {
		res.Best = &res.Candidates[0]
	}
	return res
}

// IsOwner reports whether name is one of the configured owner aliases.
func (r *Resolver) IsOwner(name string) bool {
	_, ok := r.ownerAliases[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Similarity scores how likely two person names refer to the same
// person. Case-insensitive. Exact match scores 1.0; one name containing
// the other as a whole scores 0.8; otherwise the score is shared tokens
// over the larger token count.
func Similarity(a, b string) float64 {
	na := normalizeName(a)
	nb := normalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return exactScore
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return containmentScore
	}

	ta := nameTokens(na)
	tb := nameTokens(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(ta))
	for _, t := range ta {
		set[t] = struct{}{}
	}
	shared := 0
	for _, t := range tb {
		if _, ok := set[t]; ok {
			shared++
			delete(set, t)
		}
	}

	max := len(ta)
	if len(tb) > max {
		max = len(tb)
	}
	return float64(shared) / float64(max)
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// nameTokens splits a normalized name into comparison tokens. Unlike
// general tokenization, short tokens and stop words are kept; a name
// like "Al" or "Will" is legitimate.
func nameTokens(s string) []string {
	return strings.Fields(s)
}
