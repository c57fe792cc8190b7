// Package bcrypt adapts golang.org/x/crypto/bcrypt to the PasswordHasher port.
package bcrypt

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tranquilhq/tranquil-api/internal/ports"
)

var _ ports.PasswordHasher = (*Hasher)(nil)

// Hasher hashes passwords with bcrypt. The salt is generated per call and
// embedded in the output blob together with the cost, so Verify needs no
// extra state.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the given work factor. Costs outside
// bcrypt's supported range fall back to the library default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a salted bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(out), nil
}

// Verify reports whether plaintext matches the hash. bcrypt recomputes with
// the embedded salt and cost and compares in constant time; any error,
// including a malformed hash blob, is a mismatch.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
