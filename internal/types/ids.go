package types

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewRequestID generates a UUIDv7 request identifier for correlating an
// HTTP evaluation request across logs and (when enabled) its trace.
// Panics on clock regression (uuid.Must); acceptable for ID generation,
// same tradeoff the teacher's NewEventID/NewRuleID make.
func NewRequestID() RequestID {
	return RequestID(uuid.Must(uuid.NewV7()).String())
}

// ComputeRuleSetHash returns the content hash of a rule set's normalized
// source, used both as the RuleSet.Hash field (spec.md §3 addition, SPEC_FULL
// §3) and as the cache key for the supplemental ruleset cache (SPEC_FULL
// §7). Grounded on sync_rules.go's computeETAG: a stable SHA-256 digest,
// hex-encoded.
func ComputeRuleSetHash(normalizedSource string) string {
	sum := sha256.Sum256([]byte(normalizedSource))
	return hex.EncodeToString(sum[:])
}
