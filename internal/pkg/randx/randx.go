/*
Package randx provides functions for generating unique identifiers and validating
client-supplied names.

It is primarily used to generate connection IDs for live sockets and to reject
malformed usernames before they reach the registries.
*/
package randx

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaxUsernameLength is the maximum accepted length, in bytes, for a username.
const MaxUsernameLength = 64

// ConnectionID generates a standard UUID v4 string to serve as a unique
// identifier for a live connection.
func ConnectionID() string {
	return uuid.New().String()
}

// IsValidUsername checks if the given string is acceptable as a username.
// Validity criteria: non-empty, at most MaxUsernameLength bytes, no leading or
// trailing whitespace, and no control characters.
func IsValidUsername(name string) bool {
	if name == "" || len(name) > MaxUsernameLength {
		return false
	}

	if strings.TrimSpace(name) != name {
		return false
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}

	return true
}
