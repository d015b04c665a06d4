package api

// Error mapping is done inline in handlers.
// Auth errors mapped in auth package middleware (401 for missing/invalid/
// unknown, 403 for revoked).
// Decode and load-time errors (ParseError, DuplicateDefinitionError,
// UnknownReferenceError, CyclicReferenceError, ErrGoldenRuleAmbiguous,
// ErrNoGoldenRule, ErrRuleTextTooLarge) map to 400 Bad Request.
// Evaluation-time errors (ErrTimeout) map to 422 Unprocessable Entity.
