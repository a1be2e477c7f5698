// Package ids generates the 26-character sortable identifiers used as
// primary keys for users and sessions.
package ids

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// Len is the encoded length of every identifier produced by New.
const Len = 26

// New returns a lexicographically sortable identifier suitable for storage keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// Valid reports whether s is a well-formed 26-character sortable identifier.
func Valid(s string) bool {
	if len(s) != Len {
		return false
	}
	_, err := ulid.ParseStrict(s)
	return err == nil
}
