package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestAuthenticate(t *testing.T) {
	secretID := "0123456789abcdef0123456789abcdef"
	key := GenerateAPIKey(secretID, testSecret)
	a := NewAuthenticator(map[string][]byte{secretID: testSecret}, nil)

	tests := []struct {
		name    string
		key     string
		auth    *Authenticator
		wantErr error
	}{
		{"valid key", key, a, nil},
		{"missing key", "", a, ErrMissingKey},
		{"malformed key", "not-a-key", a, ErrInvalidKeyFormat},
		{"unknown secret_id", GenerateAPIKey(strings.Repeat("f", 32), testSecret), a, ErrUnknownKey},
		{"tampered signature", key[:len(key)-2] + "00", a, ErrInvalidKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.auth.Authenticate(tt.key)
			if err != tt.wantErr {
				t.Errorf("Authenticate(%q) err = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestAuthenticate_Revoked(t *testing.T) {
	secretID := "0123456789abcdef0123456789abcdef"
	key := GenerateAPIKey(secretID, testSecret)
	a := NewAuthenticator(map[string][]byte{secretID: testSecret}, []string{secretID})

	_, err := a.Authenticate(key)
	if err != ErrKeyRevoked {
		t.Errorf("err = %v, want ErrKeyRevoked", err)
	}
}

func TestMiddleware_OpenWhenNoSecretsConfigured(t *testing.T) {
	a := NewAuthenticator(nil, nil)
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	a.Middleware(next).ServeHTTP(rec, req)

	if !called {
		t.Errorf("handler was not called on an open server")
	}
}

func TestMiddleware_RejectsMissingKeyWhenConfigured(t *testing.T) {
	secretID := "0123456789abcdef0123456789abcdef"
	a := NewAuthenticator(map[string][]byte{secretID: testSecret}, nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a valid API key")
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	a.Middleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestMiddleware_AcceptsValidKey(t *testing.T) {
	secretID := "0123456789abcdef0123456789abcdef"
	key := GenerateAPIKey(secretID, testSecret)
	a := NewAuthenticator(map[string][]byte{secretID: testSecret}, nil)

	var gotSecretID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecretID = SecretIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-API-Key", key)
	rec := httptest.NewRecorder()
	a.Middleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotSecretID != secretID {
		t.Errorf("SecretIDFromContext = %q, want %q", gotSecretID, secretID)
	}
}

func TestParseAPIKey_RoundTrip(t *testing.T) {
	key := FormatAPIKey("0123456789abcdef0123456789abcdef", strings.Repeat("a", 64))
	secretID, randomData, err := ParseAPIKey(key)
	if err != nil {
		t.Fatalf("ParseAPIKey returned error: %v", err)
	}
	if secretID != "0123456789abcdef0123456789abcdef" {
		t.Errorf("secretID = %q", secretID)
	}
	if randomData != strings.Repeat("a", 64) {
		t.Errorf("randomData = %q", randomData)
	}
}

func TestParseAPIKey_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"wrong prefix", "tk-v1-" + strings.Repeat("0", 32) + "-" + strings.Repeat("a", 64)},
		{"wrong version", "ck-v2-" + strings.Repeat("0", 32) + "-" + strings.Repeat("a", 64)},
		{"short secret_id", "ck-v1-abc-" + strings.Repeat("a", 64)},
		{"non-hex random_data", "ck-v1-" + strings.Repeat("0", 32) + "-" + strings.Repeat("z", 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseAPIKey(tt.key); err != ErrInvalidKeyFormat {
				t.Errorf("err = %v, want ErrInvalidKeyFormat", err)
			}
		})
	}
}
