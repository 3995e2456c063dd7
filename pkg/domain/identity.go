package domain

import (
	"unicode"
	"unicode/utf8"

	dErrors "shareledger/pkg/domain-errors"
)

// MaxIdentityLength bounds identities accepted at trust boundaries.
const MaxIdentityLength = 128

// Identity is an opaque caller or shareholder token, typically an account
// address. Only equality is meaningful; identities are never normalized.
type Identity string

// String returns the identity as supplied.
func (i Identity) String() string {
	return string(i)
}

// IsZero reports whether the identity is empty.
func (i Identity) IsZero() bool {
	return i == ""
}

// ParseIdentity validates raw input from a trust boundary.
// Rejects empty, oversized, non-UTF-8 input and any whitespace, control
// or invisible formatting characters.
func ParseIdentity(raw string) (Identity, error) {
	if raw == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	if len(raw) > MaxIdentityLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity exceeds maximum length")
	}
	if !utf8.ValidString(raw) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity must be valid UTF-8")
	}
	for _, r := range raw {
		if unicode.IsSpace(r) || unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "identity contains invalid characters")
		}
	}
	return Identity(raw), nil
}
