package embed

import (
	"encoding/binary"
	"math"
)

// CosineSimilarity computes the normalized dot product of two vectors.
// Returns 0 when either vector has zero norm. Vectors of different
// lengths are compared over the overlapping prefix.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Encode serializes a vector as contiguous little-endian IEEE-754
// 32-bit floats. This is the only bit-exact wire format ClawCRM defines
// for embeddings; the store persists these blobs as-is.
func Encode(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// Decode is the exact inverse of Encode and round-trips bit-for-bit
// within float32 precision. A nil or empty blob decodes to nil.
func Decode(buf []byte) []float32 {
	if len(buf) == 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
