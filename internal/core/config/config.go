// Package config provides configuration management for clausekeeper's HTTP
// service.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// ServerConfig holds configuration for the net/http evaluation service.
// Adapted from the gRPC sensor API's connection-oriented fields
// (MaxConnections, MaxBatchSize) into the fields an HTTP request/response
// service actually needs.
type ServerConfig struct {
	Host            string
	Port            int
	RequestTimeout  time.Duration
	MaxRuleTextSize int
	DataDir         string

	// DBURL, when set, backs the supplemental ruleset cache (CK_DB_URL).
	// Empty means no persistent bookkeeping; repeated rule text is still
	// served from the in-memory parse cache.
	DBURL string

	// EnvID, AgentID, ProjectID identify the feature-flag environment
	// this instance is running under (FF_ENV_ID, FF_AGENT_ID,
	// FF_PROJECT_ID). They are logged at startup and otherwise inert —
	// the core never branches on them.
	EnvID     string
	AgentID   string
	ProjectID string
}

// DefaultServerConfig returns configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		RequestTimeout:  30 * time.Second,
		MaxRuleTextSize: 64 * 1024,
		DataDir:         "./data",
	}
}

// HMACSecrets extracts HMAC secrets from environment variables: CK_HMAC_SECRET
// for a single secret and CK_HMAC_SECRET_1, CK_HMAC_SECRET_2, ... for
// rotation (old and new keys both valid while callers migrate). Both forms
// share one <secret_id>:<base64_secret> grammar, so they're collected into
// one name list and parsed through the same loop rather than two near-
// identical blocks.
// Returns map of secret_id -> decoded secret bytes. Secret IDs are UUIDv7
// (32 hex chars without hyphens), matching the ID segment of an API key.
func HMACSecrets() (map[string][]byte, error) {
	names := []string{"CK_HMAC_SECRET"}
	for i := 1; ; i++ {
		name := fmt.Sprintf("CK_HMAC_SECRET_%d", i)
		if os.Getenv(name) == "" {
			break
		}
		names = append(names, name)
	}

	secrets := make(map[string][]byte)
	for _, name := range names {
		val := os.Getenv(name)
		if val == "" {
			continue
		}
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, exists := secrets[secretID]; exists {
			return nil, fmt.Errorf("secret_id %q is configured more than once across CK_HMAC_SECRET/CK_HMAC_SECRET_*", secretID)
		}
		secrets[secretID] = decoded
	}

	return secrets, nil
}

// ParseHMACSecret decodes and length-checks a bare base64-encoded secret,
// with no secret_id attached. Shared by ParseHMACSecretWithID so the
// decode-and-validate step exists in exactly one place.
func ParseHMACSecret(envValue string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envValue))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(decoded) < 32 {
		return nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

// ParseHMACSecretWithID parses the <secret_id>:<base64_secret> grammar
// every HMAC env var uses. secret_id must be 32 hex chars (a UUIDv7
// without hyphens); the secret half is delegated to ParseHMACSecret.
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 || !isHexDigits(secretID) {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}

	secret, err = ParseHMACSecret(parts[1])
	if err != nil {
		return "", nil, err
	}

	return secretID, secret, nil
}

func isHexDigits(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// FeatureFlagIdentity bundles the three FF_* environment values a running
// instance logs at startup. None of them are validated or parsed further —
// they are opaque labels the hosting feature-flag environment assigns.
type FeatureFlagIdentity struct {
	EnvID     string
	AgentID   string
	ProjectID string
}

// LoadFeatureFlagIdentity reads FF_ENV_ID, FF_AGENT_ID, FF_PROJECT_ID
// directly from the environment. Unlike ServerConfig's fields, these never
// go through viper: they have no config-file or default-value story, just
// an environment passthrough for log lines.
func LoadFeatureFlagIdentity() FeatureFlagIdentity {
	return FeatureFlagIdentity{
		EnvID:     os.Getenv("FF_ENV_ID"),
		AgentID:   os.Getenv("FF_AGENT_ID"),
		ProjectID: os.Getenv("FF_PROJECT_ID"),
	}
}
