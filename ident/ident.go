// Package ident generates the opaque identifiers used for owner hashes,
// anonymous passwords, and password-reset tickets.
package ident

import (
	"strings"

	"github.com/google/uuid"
)

// defaultLength is the id length used when a caller asks for length 0. Ids
// appear in database names and document ids, so they stay short.
const defaultLength = 7

// Generator produces random lowercase hex identifiers derived from UUIDv4.
type Generator struct{}

func New() *Generator {
	return &Generator{}
}

// UUID returns a random identifier of the given length. Length 0 requests the
// default of 7 characters.
func (g *Generator) UUID(length int) string {
	if length <= 0 {
		length = defaultLength
	}

	var b strings.Builder
	b.Grow(length)
	for b.Len() < length {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		remain := length - b.Len()
		if remain < len(raw) {
			raw = raw[:remain]
		}
		b.WriteString(raw)
	}
	return b.String()
}
