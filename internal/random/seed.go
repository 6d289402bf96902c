// Package random derives game seeds.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed returns a non-zero seed read from crypto/rand.
func NewSeed() (int64, error) {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("read random seed: %w", err)
		}
		// Keep seeds positive so they print and parse cleanly.
		seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
		if seed != 0 {
			return seed, nil
		}
	}
}

// Derive returns the seed of the n-th game in a batch started from base.
// Nearby bases give unrelated sequences.
func Derive(base int64, n int) int64 {
	// splitmix64 step
	z := uint64(base) + uint64(n+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	seed := int64(z >> 1)
	if seed == 0 {
		return 1
	}
	return seed
}
