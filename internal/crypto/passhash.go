// Package crypto implements password verifiers for stored credential records.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters.
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
	saltLen             = 16
)

// legacyPrefix marks placeholder verifiers written by early client versions.
const legacyPrefix = "hashed_"

var b64 = base64.RawStdEncoding

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword returns Argon2id hash of password using the provided salt.
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// NewVerifier derives a self-describing verifier string for password with a fresh salt:
//
//	argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
func NewVerifier(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	salt, err := RandBytes(saltLen)
	if err != nil {
		return "", err
	}
	hash := HashPassword([]byte(password), salt)
	return fmt.Sprintf("argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		b64.EncodeToString(salt), b64.EncodeToString(hash)), nil
}

// CheckVerifier reports whether password matches verifier. Parameters are read
// from the verifier itself so records survive parameter changes.
func CheckVerifier(password, verifier string) bool {
	parts := strings.Split(verifier, "$")
	if len(parts) != 5 || parts[0] != "argon2id" {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var (
		mem, iters uint32
		threads    uint8
	)
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &mem, &iters, &threads); err != nil {
		return false
	}
	if mem == 0 || iters == 0 || threads == 0 {
		return false
	}
	salt, err := b64.DecodeString(parts[3])
	if err != nil {
		return false
	}
	want, err := b64.DecodeString(parts[4])
	if err != nil || len(want) == 0 {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, iters, mem, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// IsLegacyVerifier reports whether verifier is an early placeholder.
func IsLegacyVerifier(verifier string) bool {
	return strings.HasPrefix(verifier, legacyPrefix)
}

// CheckLegacyVerifier compares password against a placeholder verifier.
// Callers must replace the record with NewVerifier after a successful check.
func CheckLegacyVerifier(password, verifier string) bool {
	if !IsLegacyVerifier(verifier) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(legacyPrefix+password), []byte(verifier)) == 1
}
