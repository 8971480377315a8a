// Package identifier derives and verifies the stored form of submitted
// identifiers. Records never keep the raw value past their first matching
// pass; matching compares candidates against a salted PBKDF2 digest.
package identifier

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	dErrors "tandem/pkg/domain-errors"
)

const (
	saltLen    = 16
	keyLen     = 32
	iterations = 100_000
)

// Hash derives the stored digest for an identifier. The encoded form is
// "iterations$salt$key" with base64 raw-URL segments, self-describing so the
// iteration count can be raised without invalidating existing records.
func Hash(identifier string) (string, error) {
	return hashWithIterations(identifier, iterations)
}

func hashWithIterations(identifier string, iter int) (string, error) {
	if identifier == "" {
		return "", dErrors.New(dErrors.CodeValidation, "identifier cannot be empty")
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate salt")
	}
	key := pbkdf2.Key([]byte(identifier), salt, iter, keyLen, sha256.New)
	return fmt.Sprintf("%d$%s$%s",
		iter,
		base64.RawURLEncoding.EncodeToString(salt),
		base64.RawURLEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether candidate derives to the encoded digest.
// Malformed digests verify as false rather than erroring: a corrupt record
// must never match anything.
func Verify(candidate, encoded string) bool {
	if candidate == "" || encoded == "" {
		return false
	}
	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 {
		return false
	}
	iter, err := strconv.Atoi(parts[0])
	if err != nil || iter <= 0 {
		return false
	}
	salt, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	key, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil || len(key) == 0 {
		return false
	}
	derived := pbkdf2.Key([]byte(candidate), salt, iter, len(key), sha256.New)
	return subtle.ConstantTimeCompare(derived, key) == 1
}
