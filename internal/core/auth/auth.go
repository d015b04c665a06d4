// Package auth provides HMAC-based API key authentication for
// clausekeeper's HTTP service. Adapted from the gRPC sensor API's
// interceptor (secret map, 5-tier error taxonomy) into net/http
// middleware, minus the per-tenant database lookup: clausekeeper has no
// tenant concept, so a key's random_data segment is itself HMAC-derived
// from the configured secret and its secret_id rather than looked up
// against a stored per-key hash.
package auth

import (
	"context"
	"encoding/hex"
	"net/http"
)

// Authenticator validates API keys using HMAC-SHA256 signatures. Holds an
// in-memory secret map for O(1) lookup, keyed by the secret_id segment of
// a submitted key.
type Authenticator struct {
	secrets map[string][]byte
	revoked map[string]bool
}

// NewAuthenticator creates an authenticator with HMAC secrets keyed by
// secret_id (the map HMACSecrets returns), and a set of secret IDs that
// have been revoked and must no longer authenticate even though their
// secret is still configured (mid-rotation revocation).
func NewAuthenticator(secrets map[string][]byte, revokedSecretIDs []string) *Authenticator {
	revoked := make(map[string]bool, len(revokedSecretIDs))
	for _, id := range revokedSecretIDs {
		revoked[id] = true
	}
	return &Authenticator{secrets: secrets, revoked: revoked}
}

// GenerateAPIKey produces a key bound to secretID and secret: its
// random_data segment is hex(HMAC-SHA256(secret, secretID)), so
// Authenticate can recompute and compare it without ever storing the key
// itself.
func GenerateAPIKey(secretID string, secret []byte) string {
	sig := ComputeHMAC(secret, secretID)
	return FormatAPIKey(secretID, hex.EncodeToString(sig))
}

// Authenticate validates an API key and returns its secret_id on success.
// Returns a distinct error for each failure mode (5-tier taxonomy):
// missing, malformed, unknown secret_id, revoked, or signature mismatch.
func (a *Authenticator) Authenticate(apiKey string) (string, error) {
	if apiKey == "" {
		return "", ErrMissingKey
	}

	secretID, randomData, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	if a.revoked[secretID] {
		return "", ErrKeyRevoked
	}

	provided, err := hex.DecodeString(randomData)
	if err != nil {
		return "", ErrInvalidKey
	}

	expected := ComputeHMAC(secret, secretID)
	if !VerifyHMAC(expected, provided) {
		return "", ErrInvalidKey
	}

	return secretID, nil
}

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

const secretIDKey = contextKey("secret_id")

// Middleware wraps next with X-API-Key enforcement. When no secrets are
// configured, it runs open — convenient for local/CLI use and tests,
// matching the supplemental auth layer's opt-in design.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	if len(a.secrets) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secretID, err := a.Authenticate(r.Header.Get("X-API-Key"))
		if err != nil {
			status := http.StatusUnauthorized
			if err == ErrKeyRevoked {
				status = http.StatusForbidden
			}
			http.Error(w, err.Error(), status)
			return
		}
		ctx := context.WithValue(r.Context(), secretIDKey, secretID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SecretIDFromContext extracts the authenticated secret_id from context.
// Returns empty string if not found (unauthenticated request on an open
// server).
func SecretIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(secretIDKey).(string); ok {
		return id
	}
	return ""
}
