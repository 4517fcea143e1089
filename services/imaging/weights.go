package imaging

import (
	"crypto/sha1"
	"encoding/hex"
	"math/rand"
	"strconv"
)

// WeightSource yields the base condition weights. It isolates the seeded
// pseudo-randomness behind a named interface so the heuristic can later be
// swapped for a real classifier without touching callers.
type WeightSource interface {
	BaseWeight() float64
}

type hashSeededSource struct {
	rng *rand.Rand
}

// newWeightSource seeds a generator from the SHA-1 of the image bytes.
// Identical bytes always produce the identical weight sequence.
func newWeightSource(blob []byte) WeightSource {
	sum := sha1.Sum(blob)
	digest := hex.EncodeToString(sum[:])
	seed, _ := strconv.ParseUint(digest[:8], 16, 64)
	return &hashSeededSource{rng: rand.New(rand.NewSource(int64(seed)))}
}

// BaseWeight draws one uniform weight in [0.5, 1.5).
func (s *hashSeededSource) BaseWeight() float64 {
	return 0.5 + s.rng.Float64()
}
