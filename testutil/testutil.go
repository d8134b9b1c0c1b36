package testutil

import (
	"math"
	"math/rand"
	"sync"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Bool returns a pseudo-random bool.
func (r *RNG) Bool() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(2) == 1
}

// Int32 returns a pseudo-random int32 over the full range, including negatives.
func (r *RNG) Int32() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int32(r.rand.Uint32()) //nolint:gosec // deliberate wraparound
}

// Int64 returns a pseudo-random int64 over the full range, including negatives.
func (r *RNG) Int64() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(r.rand.Uint64()) //nolint:gosec // deliberate wraparound
}

// Float32Bits returns a float32 built from random bits. The result may be
// NaN, infinite or subnormal, which makes it suitable for bit-exact
// round-trip tests.
func (r *RNG) Float32Bits() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return math.Float32frombits(r.rand.Uint32())
}

// Float64Bits returns a float64 built from random bits (see Float32Bits).
func (r *RNG) Float64Bits() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return math.Float64frombits(r.rand.Uint64())
}

// Token returns a lowercase ASCII string of length n.
func (r *RNG) Token(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.rand.Intn(len(alphabet))]
	}
	return string(b)
}

// DistinctTokens returns n distinct tokens of the given length.
// It panics if the alphabet cannot produce n distinct tokens.
func (r *RNG) DistinctTokens(n, length int) []string {
	if float64(n) > math.Pow(float64(len(alphabet)), float64(length)) {
		panic("testutil: not enough distinct tokens")
	}
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		tok := r.Token(length)
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
