package embed

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func TestEmbedDeterministic(t *testing.T) {
	e := NewHashEmbedder(DefaultDimensions)
	ctx := context.Background()

	text := "Met Sarah Chen to discuss transformer efficiency and model compression."

	a, err := e.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := e.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("identical input produced different vectors")
	}
}

func TestEmbedNormalization(t *testing.T) {
	e := NewHashEmbedder(DefaultDimensions)

	tests := []struct {
		name string
		text string
	}{
		{"short note", "Coffee with David Kim about AI infrastructure"},
		{"single token", "transformer"},
		{"repeated tokens", "budget budget budget review review"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, _ := e.Embed(context.Background(), tt.text)
			if len(vec) != DefaultDimensions {
				t.Fatalf("got %d dimensions, want %d", len(vec), DefaultDimensions)
			}

			var sumSq float64
			for _, v := range vec {
				sumSq += float64(v) * float64(v)
			}
			norm := math.Sqrt(sumSq)
			if math.Abs(norm-1.0) > 1e-6 {
				t.Errorf("norm = %v, want 1.0 ± 1e-6", norm)
			}
		})
	}
}

func TestEmbedEmptyInputIsZeroVector(t *testing.T) {
	e := NewHashEmbedder(DefaultDimensions)

	for _, text := range []string{"", "   ", "the a an of", "!!! ..."} {
		vec, err := e.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("Embed(%q): %v", text, err)
		}
		for i, v := range vec {
			if v != 0 {
				t.Fatalf("Embed(%q): dimension %d = %v, want all-zero vector", text, i, v)
			}
		}
	}
}

func TestEmbedDistinguishesTexts(t *testing.T) {
	e := NewHashEmbedder(DefaultDimensions)
	ctx := context.Background()

	a, _ := e.Embed(ctx, "quarterly earnings review with the finance team")
	b, _ := e.Embed(ctx, "hiking trip planning with college friends")

	if reflect.DeepEqual(a, b) {
		t.Error("unrelated texts produced identical vectors")
	}
	if sim := CosineSimilarity(a, b); sim > 0.9 {
		t.Errorf("unrelated texts too similar: %v", sim)
	}
}

func TestCosineSimilaritySymmetry(t *testing.T) {
	e := NewHashEmbedder(DefaultDimensions)
	ctx := context.Background()

	a, _ := e.Embed(ctx, "machine learning deployment pipeline")
	b, _ := e.Embed(ctx, "dinner reservation for Tuesday")

	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Error("cosine similarity is not symmetric")
	}
}

func TestCosineSimilaritySelf(t *testing.T) {
	e := NewHashEmbedder(DefaultDimensions)
	v, _ := e.Embed(context.Background(), "self similarity check")

	if sim := CosineSimilarity(v, v); math.Abs(sim-1.0) > 1e-6 {
		t.Errorf("self-similarity = %v, want 1.0", sim)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	zero := make([]float32, DefaultDimensions)
	v := make([]float32, DefaultDimensions)
	v[0] = 1

	if sim := CosineSimilarity(zero, v); sim != 0 {
		t.Errorf("similarity against zero vector = %v, want 0", sim)
	}
	if sim := CosineSimilarity(zero, zero); sim != 0 {
		t.Errorf("zero-zero similarity = %v, want 0", sim)
	}
}

func TestCosineSimilarityMismatchedSizes(t *testing.T) {
	a := []float32{1, 0, 0, 0}
	b := []float32{1, 0}

	// Overlapping prefix only; both prefixes are identical unit vectors.
	if sim := CosineSimilarity(a, b); math.Abs(sim-1.0) > 1e-6 {
		t.Errorf("prefix similarity = %v, want 1.0", sim)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := NewHashEmbedder(DefaultDimensions)
	vec, _ := e.Embed(context.Background(), "round trip me through the codec")

	got := Decode(Encode(vec))
	if !reflect.DeepEqual(got, vec) {
		t.Error("decode(encode(v)) != v")
	}

	if len(Encode(vec)) != DefaultDimensions*4 {
		t.Errorf("encoded length = %d, want %d", len(Encode(vec)), DefaultDimensions*4)
	}
}

func TestDecodeEmpty(t *testing.T) {
	if Decode(nil) != nil {
		t.Error("Decode(nil) should be nil")
	}
	if Decode([]byte{}) != nil {
		t.Error("Decode(empty) should be nil")
	}
}

func TestCustomDimensions(t *testing.T) {
	e := NewHashEmbedder(64)
	vec, _ := e.Embed(context.Background(), "small vector")
	if len(vec) != 64 {
		t.Errorf("got %d dimensions, want 64", len(vec))
	}
	if e.Dimensions() != 64 {
		t.Errorf("Dimensions() = %d, want 64", e.Dimensions())
	}

	if NewHashEmbedder(0).Dimensions() != DefaultDimensions {
		t.Error("non-positive dims should fall back to default")
	}
}
