package auth

import "errors"

// Authentication error types enable a 5-tier error taxonomy, same
// discipline the gRPC interceptor this is adapted from used: missing and
// malformed keys never confirm whether any key could have worked, while
// unknown/invalid/revoked states are each distinguishable for callers that
// need to tell rotation-in-progress apart from outright forgery.
var (
	ErrMissingKey       = errors.New("API key required in X-API-Key header")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown secret ID")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key has been revoked")
)
