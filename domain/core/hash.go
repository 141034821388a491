package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// SignatureHash identifies a model's boolean-equation structure. Two models
// with the same link-operator encoding hash identically, independent of
// their model IDs.
type SignatureHash Hash

// NewSignatureHash hashes a link-operator encoding in equation-position order.
// The encoding must already be positionally ordered by the upstream producer;
// hashing preserves that order so structurally distinct models never collide
// by reordering.
func NewSignatureHash(operators []string) SignatureHash {
	return SignatureHash(NewHash([]byte(strings.Join(operators, "|"))))
}

func (h SignatureHash) String() string { return Hash(h).String() }
