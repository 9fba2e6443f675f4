package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"unicode"
)

// DefaultDims is the vector width used when none is configured.
const DefaultDims = 256

// Hash is a feature-hashing embedder: each token is hashed into one of a
// fixed number of signed buckets and the resulting vector is L2-normalized.
// It is deterministic, needs no model files, and never fails.
type Hash struct {
	dims int
}

// NewHash returns a hashing embedder with the given vector width. Widths of
// zero or less fall back to DefaultDims.
func NewHash(dims int) *Hash {
	if dims <= 0 {
		dims = DefaultDims
	}
	return &Hash{dims: dims}
}

func (h *Hash) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dims)
	for _, tok := range tokenize(text) {
		if stopwords[tok] {
			continue
		}
		idx, sign := bucket(tok, h.dims)
		vec[idx] += sign
	}
	normalize(vec)
	return vec, nil
}

// bucket maps a token to a vector index and a ±1 sign. The sign comes from
// the hash's top bit so collisions tend to cancel rather than pile up.
func bucket(tok string, dims int) (int, float32) {
	h := fnv.New64a()
	h.Write([]byte(tok))
	sum := h.Sum64()
	sign := float32(1)
	if sum&(1<<63) != 0 {
		sign = -1
	}
	return int(sum % uint64(dims)), sign
}

// tokenize lowercases text and splits it into runs of letters and digits.
func tokenize(text string) []string {
	var tokens []string
	var cur []rune
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur = append(cur, unicode.ToLower(r))
			continue
		}
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
	}
	if len(cur) > 0 {
		tokens = append(tokens, string(cur))
	}
	return tokens
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"has": true, "he": true, "in": true, "is": true, "it": true,
	"its": true, "of": true, "on": true, "that": true, "the": true,
	"to": true, "was": true, "were": true, "will": true, "with": true,
}
