// Package idgen wraps identifier generation so that it can be stubbed in
// tests. Callers should treat returned identifiers as opaque strings.
package idgen

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewFunc produces a new globally unique identifier. Tests may replace it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier as string.
func New() string { return NewFunc() }

// Deterministic derives a stable identifier from the given text by hashing
// its raw UTF-8 bytes. Identical inputs always map to the same identifier,
// which lets duplicate submissions collapse onto one record.
func Deterministic(text string) string {
	digest := sha256.Sum256([]byte(text))
	return hex.EncodeToString(digest[:])
}
