// Package digest provides the one-way hash function used to identify blocks
// and to solve the proof of work puzzle.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Supported algorithm names.
const (
	SHA256    = "sha256"
	Keccak256 = "keccak256"
)

// ErrUnsupportedAlgorithm is returned when a hasher is requested for an
// algorithm this package does not implement.
var ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")

// Size is the length of every digest in hex characters.
const Size = 64

// =============================================================================

// Hasher produces lowercase hex digests of text.
type Hasher struct {
	name string
	sum  func(data []byte) []byte
}

// New constructs a hasher for the named algorithm.
func New(algorithm string) (Hasher, error) {
	switch strings.ToLower(algorithm) {
	case "", SHA256:
		return Hasher{name: SHA256, sum: sum256}, nil

	case Keccak256:
		return Hasher{name: Keccak256, sum: sumKeccak256}, nil
	}

	return Hasher{}, fmt.Errorf("%q: %w", algorithm, ErrUnsupportedAlgorithm)
}

// Default returns the sha256 hasher.
func Default() Hasher {
	return Hasher{name: SHA256, sum: sum256}
}

// Name returns the algorithm name.
func (h Hasher) Name() string {
	return h.name
}

// Hash returns the digest of the text as 64 lowercase hex characters.
func (h Hasher) Hash(text string) string {
	sum := h.sum
	if sum == nil {
		sum = sum256
	}

	return hex.EncodeToString(sum([]byte(text)))
}

// Hash is a convenience function using the sha256 hasher.
func Hash(text string) string {
	return Default().Hash(text)
}

func sum256(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

func sumKeccak256(data []byte) []byte {
	return crypto.Keccak256(data)
}
