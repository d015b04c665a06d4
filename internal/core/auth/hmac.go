package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"strings"
)

// Key format: <keyPrefix>-<keyVersion>-<secret_id>-<random_data>. secret_id
// is a 32-hex-char UUID (hyphens stripped); random_data is not actually
// random in this scheme — it is hex(HMAC-SHA256(secret, secret_id)), which
// is what lets Authenticate (auth.go) verify a key by recomputing the HMAC
// instead of looking up a stored hash in a database.
const (
	keyPrefix        = "ck"
	keyVersion       = "v1"
	secretIDHexLen   = 32
	randomDataHexLen = 64
)

// ParseAPIKey splits a submitted key into its secret_id and random_data
// segments, validating the fixed prefix/version and the hex-digit
// alphabet and length of each identifier segment. It does not check that
// random_data is the correct HMAC for secret_id — that check belongs to
// Authenticate, which is the only place that has the secret.
func ParseAPIKey(key string) (secretID, randomData string, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 4 || parts[0] != keyPrefix || parts[1] != keyVersion {
		return "", "", ErrInvalidKeyFormat
	}

	secretID, randomData = parts[2], parts[3]
	if len(secretID) != secretIDHexLen || len(randomData) != randomDataHexLen {
		return "", "", ErrInvalidKeyFormat
	}
	if !isHexDigits(secretID) || !isHexDigits(randomData) {
		return "", "", ErrInvalidKeyFormat
	}

	return secretID, randomData, nil
}

func isHexDigits(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// ComputeHMAC derives the random_data segment of an API key: an
// HMAC-SHA256 of message (always a secret_id in this scheme), keyed by
// secret. Binding random_data to secret_id this way is what makes a key
// self-verifying — Authenticate recomputes this on every request rather
// than comparing against a value stored anywhere.
func ComputeHMAC(secret []byte, message string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(message))
	return h.Sum(nil)
}

// VerifyHMAC compares two HMAC digests in constant time, so a mismatch at
// an early byte position never resolves faster than one at the last byte.
func VerifyHMAC(expected, computed []byte) bool {
	return hmac.Equal(expected, computed)
}

// FormatAPIKey assembles a key from its components in wire format.
func FormatAPIKey(secretID, randomData string) string {
	return fmt.Sprintf("%s-%s-%s-%s", keyPrefix, keyVersion, secretID, randomData)
}
