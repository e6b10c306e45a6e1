// Package id generates opaque record identifiers.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ProvisionalPrefix marks identifiers assigned locally before the backend
// confirms a record.
const ProvisionalPrefix = "tmp-"

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a random v4 UUID as 26 lowercase base32 characters.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(u[:])), nil
}

// NewProvisionalID returns a fresh identifier carrying ProvisionalPrefix.
func NewProvisionalID() (string, error) {
	value, err := NewID()
	if err != nil {
		return "", err
	}
	return ProvisionalPrefix + value, nil
}

// IsProvisional reports whether value was produced by NewProvisionalID.
func IsProvisional(value string) bool {
	return strings.HasPrefix(value, ProvisionalPrefix)
}
