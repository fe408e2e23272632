// Package embed provides ClawCRM's deterministic text-to-vector
// embedding engine.
//
// The engine is fully offline: a token's weight is spread across three
// sign-balanced dimensions selected by seeded polynomial hashes, and
// adjacent token pairs contribute through an independent FNV-1a hash.
// The same text always produces a bit-identical vector, which is what
// makes the stored person/meeting fingerprints comparable across runs
// without any model files or network calls.
package embed

import (
	"context"
	"math"
	"sort"

	"github.com/Kyrillus/ClawCRM/internal/lexicon"
)

// DefaultDimensions is the fixed embedding vector size.
const DefaultDimensions = 384

// numProjections is how many dimensions a single token's weight is
// spread across. Multiple sign-balanced projections reduce the damage
// of any single hash collision.
const numProjections = 3

// bigramWeight scales the contribution of adjacent token pairs relative
// to the unigram term frequency.
const bigramWeight = 0.5

// hashSeeds seed the polynomial hash; one independent function per
// projection.
var hashSeeds = [numProjections]uint64{0x9e3779b97f4a7c15, 0x517cc1b727220a95, 0x2545f4914f6cdd1d}

// Embedder generates embedding vectors from text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// HashEmbedder implements Embedder with the hashing scheme above.
// It is stateless; a single instance can be shared freely.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a HashEmbedder with the given dimensionality.
// Non-positive dims falls back to DefaultDimensions.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Dimensions returns the fixed vector size.
func (e *HashEmbedder) Dimensions() int {
	return e.dims
}

// Embed converts text into an L2-normalized vector. Empty or
// stop-word-only input yields the all-zero vector. The error is always
// nil; the signature matches the provider contract.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dims)

	tokens := lexicon.Tokenize(text)
	if len(tokens) == 0 {
		return vec
	}

	// Term frequency per distinct token.
	tf := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	total := float64(len(tokens))
	for tok := range tf {
		tf[tok] /= total
	}

	// Float accumulation is order sensitive; tokens must be processed
	// in a fixed order or identical text stops producing bit-identical
	// vectors.
	distinct := make([]string, 0, len(tf))
	for tok := range tf {
		distinct = append(distinct, tok)
	}
	sort.Strings(distinct)

	// Unigrams: three seeded projections per token, sign taken from a
	// bit of the same hash so collisions tend to cancel.
	for _, tok := range distinct {
		weight := tf[tok]
		for _, seed := range hashSeeds {
			h := polyHash(tok, seed)
			idx := int(h % uint64(e.dims))
			sign := 1.0
			if (h>>17)&1 == 0 {
				sign = -1.0
			}
			vec[idx] += float32(sign * weight)
		}
	}

	// Bigrams: adjacent pairs through an independent FNV-1a hash, at
	// half the weight of the leading token.
	for i := 0; i+1 < len(tokens); i++ {
		h := fnvHash(tokens[i] + "\x00" + tokens[i+1])
		idx := int(h % uint64(e.dims))
		vec[idx] += float32(tf[tokens[i]] * bigramWeight)
	}

	normalize(vec)
	return vec
}

// polyHash is a seeded rolling polynomial hash over the token bytes.
func polyHash(s string, seed uint64) uint64 {
	h := seed
	for i := 0; i < len(s); i++ {
		h = h*31 + uint64(s[i])
	}
	return h
}

// fnvHash is FNV-1a, 64-bit.
func fnvHash(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// normalize scales vec to unit L2 norm in place. The all-zero vector is
// left untouched.
func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sumSq)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}
