package dice

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	mrand "math/rand/v2"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// float53 is 2^53, the number of distinct float64 values in [0, 1) with full
// mantissa precision.
const float53 = 1 << 53

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are cryptographically secure and uniformly
// distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n); every value
// returned by Float64 is in [0, 1).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// Float64 returns a cryptographically secure float in [0, 1) with 53 bits
// of precision.
func (c *cryptoSource) Float64() float64 {
	return float64(c.Intn(float53)) / float53
}

// seededSource is a deterministic PCG-backed Source. The mutex makes a single
// instance safe to share, although simulations give each worker its own.
type seededSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeededSource returns a deterministic Source: equal seeds yield equal
// sequences.
func NewSeededSource(seed uint64) Source {
	return &seededSource{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a pseudo-random int in [0, n).
//
// Precondition: n > 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Float64 returns a pseudo-random float in [0, 1).
func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// SeedFromPhrase derives a seed for NewSeededSource from a human-readable
// phrase, so that a run can be reproduced from a memorable string.
func SeedFromPhrase(phrase string) uint64 {
	sum := blake2b.Sum256([]byte(phrase))
	return binary.LittleEndian.Uint64(sum[:8])
}
