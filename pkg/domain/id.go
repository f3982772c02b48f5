package domain

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random 128-bit hex identifier. IDs are globally unique
// within an experiment's lifetime and never reused after deletion, which is
// what makes tombstone comparison across replicas safe.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}
