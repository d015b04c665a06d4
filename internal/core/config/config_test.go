package config

import (
	"os"
	"testing"
	"time"
)

func TestHMACSecrets(t *testing.T) {
	// Clean environment
	os.Unsetenv("CK_HMAC_SECRET")
	os.Unsetenv("CK_HMAC_SECRET_1")
	os.Unsetenv("CK_HMAC_SECRET_2")

	t.Run("single secret", func(t *testing.T) {
		os.Setenv("CK_HMAC_SECRET", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		defer os.Unsetenv("CK_HMAC_SECRET")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 1 {
			t.Errorf("expected 1 secret, got %d", len(secrets))
		}
		if _, ok := secrets["0123456789abcdef0123456789abcdef"]; !ok {
			t.Errorf("secret_id not found in map")
		}
	})

	t.Run("multiple numbered secrets", func(t *testing.T) {
		os.Setenv("CK_HMAC_SECRET_1", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		os.Setenv("CK_HMAC_SECRET_2", "fedcba9876543210fedcba9876543210:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		defer os.Unsetenv("CK_HMAC_SECRET_1")
		defer os.Unsetenv("CK_HMAC_SECRET_2")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 2 {
			t.Errorf("expected 2 secrets, got %d", len(secrets))
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		os.Setenv("CK_HMAC_SECRET", "invalid_format")
		defer os.Unsetenv("CK_HMAC_SECRET")

		_, err := HMACSecrets()
		if err == nil {
			t.Error("expected error for invalid format")
		}
	})

	t.Run("invalid secret_id length", func(t *testing.T) {
		os.Setenv("CK_HMAC_SECRET", "short:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		defer os.Unsetenv("CK_HMAC_SECRET")

		_, err := HMACSecrets()
		if err == nil {
			t.Error("expected error for short secret_id")
		}
	})

	t.Run("non-hex secret_id", func(t *testing.T) {
		os.Setenv("CK_HMAC_SECRET", "0123456789abcdefGHIJKLMNOPQRSTUV:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		defer os.Unsetenv("CK_HMAC_SECRET")

		_, err := HMACSecrets()
		if err == nil {
			t.Error("expected error for non-hex secret_id")
		}
	})

	t.Run("duplicate secret_id in numbered secrets", func(t *testing.T) {
		os.Setenv("CK_HMAC_SECRET_1", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		os.Setenv("CK_HMAC_SECRET_2", "0123456789abcdef0123456789abcdef:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		defer os.Unsetenv("CK_HMAC_SECRET_1")
		defer os.Unsetenv("CK_HMAC_SECRET_2")

		_, err := HMACSecrets()
		if err == nil {
			t.Error("expected error for duplicate secret_id")
		}
	})

	t.Run("duplicate secret_id between single and numbered", func(t *testing.T) {
		os.Setenv("CK_HMAC_SECRET", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		os.Setenv("CK_HMAC_SECRET_1", "0123456789abcdef0123456789abcdef:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		defer os.Unsetenv("CK_HMAC_SECRET")
		defer os.Unsetenv("CK_HMAC_SECRET_1")

		_, err := HMACSecrets()
		if err == nil {
			t.Error("expected error for duplicate secret_id between CK_HMAC_SECRET and CK_HMAC_SECRET_1")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	// Clean environment
	os.Unsetenv("CK_SERVER_HOST")
	os.Unsetenv("PORT")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Host != "0.0.0.0" {
			t.Errorf("expected host 0.0.0.0, got %s", cfg.Host)
		}
		if cfg.Port != 8080 {
			t.Errorf("expected port 8080, got %d", cfg.Port)
		}
		if cfg.RequestTimeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", cfg.RequestTimeout)
		}
		if cfg.MaxRuleTextSize != 64*1024 {
			t.Errorf("expected max_rule_text_size 65536, got %d", cfg.MaxRuleTextSize)
		}
		if cfg.DataDir != "./data" {
			t.Errorf("expected data_dir ./data, got %s", cfg.DataDir)
		}
	})

	t.Run("bare PORT overrides default", func(t *testing.T) {
		os.Setenv("PORT", "9999")
		os.Setenv("CK_SERVER_HOST", "127.0.0.1")
		defer os.Unsetenv("PORT")
		defer os.Unsetenv("CK_SERVER_HOST")

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Port != 9999 {
			t.Errorf("expected port 9999, got %d", cfg.Port)
		}
		if cfg.Host != "127.0.0.1" {
			t.Errorf("expected host 127.0.0.1, got %s", cfg.Host)
		}
	})

	t.Run("CK_DB_URL populates DBURL", func(t *testing.T) {
		os.Setenv("CK_DB_URL", "sqlite://clausekeeper.db")
		defer os.Unsetenv("CK_DB_URL")

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.DBURL != "sqlite://clausekeeper.db" {
			t.Errorf("expected DBURL sqlite://clausekeeper.db, got %s", cfg.DBURL)
		}
	})

	t.Run("invalid port range", func(t *testing.T) {
		os.Setenv("PORT", "70000")
		defer os.Unsetenv("PORT")

		_, err := LoadConfig("")
		if err == nil {
			t.Error("expected error for port > 65535")
		}
	})

	t.Run("feature flag identity passthrough", func(t *testing.T) {
		os.Setenv("FF_ENV_ID", "staging")
		os.Setenv("FF_AGENT_ID", "agent-7")
		os.Setenv("FF_PROJECT_ID", "proj-42")
		defer os.Unsetenv("FF_ENV_ID")
		defer os.Unsetenv("FF_AGENT_ID")
		defer os.Unsetenv("FF_PROJECT_ID")

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.EnvID != "staging" || cfg.AgentID != "agent-7" || cfg.ProjectID != "proj-42" {
			t.Errorf("feature flag identity = %+v, want staging/agent-7/proj-42", cfg)
		}
	})
}

func TestParseHMACSecret(t *testing.T) {
	t.Run("valid base64", func(t *testing.T) {
		secret, err := ParseHMACSecret("dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		if err != nil {
			t.Fatalf("ParseHMACSecret failed: %v", err)
		}
		if len(secret) < 32 {
			t.Errorf("secret too short: %d bytes", len(secret))
		}
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := ParseHMACSecret("not-valid-base64!!!")
		if err == nil {
			t.Error("expected error for invalid base64")
		}
	})

	t.Run("secret too short", func(t *testing.T) {
		_, err := ParseHMACSecret("c2hvcnQ=") // "short" in base64
		if err == nil {
			t.Error("expected error for secret < 32 bytes")
		}
	})
}

func TestParseHMACSecretWithID(t *testing.T) {
	t.Run("valid format", func(t *testing.T) {
		secretID, secret, err := ParseHMACSecretWithID("0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		if err != nil {
			t.Fatalf("ParseHMACSecretWithID failed: %v", err)
		}
		if secretID != "0123456789abcdef0123456789abcdef" {
			t.Errorf("unexpected secret_id: %s", secretID)
		}
		if len(secret) == 0 {
			t.Error("secret should not be empty")
		}
	})

	t.Run("missing colon", func(t *testing.T) {
		_, _, err := ParseHMACSecretWithID("0123456789abcdef0123456789abcdef")
		if err == nil {
			t.Error("expected error for missing colon")
		}
	})

	t.Run("invalid secret_id length", func(t *testing.T) {
		_, _, err := ParseHMACSecretWithID("tooshort:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		if err == nil {
			t.Error("expected error for short secret_id")
		}
	})

	t.Run("non-hex chars in secret_id", func(t *testing.T) {
		_, _, err := ParseHMACSecretWithID("0123456789abcdefGHIJKLMNOPQRSTUV:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		if err == nil {
			t.Error("expected error for non-hex secret_id")
		}
	})
}
