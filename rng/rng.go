// Package rng provides splittable, immutable pseudo-random keys.
//
// A Key is a value type: using it never mutates it. Fresh randomness is
// obtained by splitting a key into independent sub-keys and handing each
// sub-key to exactly one consumer. Reusing a key across two consumers
// produces correlated streams and is a caller bug.
//
// There is deliberately no package-level generator. All randomness in the
// library is threaded explicitly through Key values so that sampling runs
// are reproducible and replayable from a single seed.
package rng

import (
	"fmt"
	"math/rand/v2"
)

// Key is an immutable pseudo-random key. The zero value is a valid
// (if predictable) key; use New to derive one from a seed.
type Key struct {
	hi uint64
	lo uint64
}

// New derives a Key from a seed. Equal seeds yield equal keys.
func New(seed uint64) Key {
	s := seed
	hi := splitmix64(&s)
	lo := splitmix64(&s)
	return Key{hi: hi, lo: lo}
}

// FromWords reconstructs a Key from its two words, as returned by Words.
// Used when restoring persisted sampler state.
func FromWords(hi, lo uint64) Key {
	return Key{hi: hi, lo: lo}
}

// Words returns the raw words of the key for persistence.
func (k Key) Words() (hi, lo uint64) {
	return k.hi, k.lo
}

// Split derives n independent sub-keys from k. The derivation is
// deterministic: the same key always splits into the same sub-keys.
// k itself must not be used again after splitting.
func (k Key) Split(n int) []Key {
	if n < 1 {
		return nil
	}
	keys := make([]Key, n)
	for i := range keys {
		s := k.hi ^ mix(k.lo, uint64(i)+1)
		keys[i] = Key{hi: splitmix64(&s), lo: splitmix64(&s)}
	}
	return keys
}

// Uniform fills out with independent uniform draws in [0, 1),
// consuming the key. The same key always produces the same draws.
func (k Key) Uniform(out []float64) {
	r := rand.New(rand.NewPCG(k.hi, k.lo))
	for i := range out {
		out[i] = r.Float64()
	}
}

func (k Key) String() string {
	return fmt.Sprintf("Key(%016x%016x)", k.hi, k.lo)
}

// splitmix64 advances s and returns the next output of the SplitMix64
// sequence. Used only for key derivation, not for sampling draws.
func splitmix64(s *uint64) uint64 {
	*s += 0x9e3779b97f4a7c15
	z := *s
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func mix(a, b uint64) uint64 {
	s := a ^ (b * 0xff51afd7ed558ccd)
	return splitmix64(&s)
}
