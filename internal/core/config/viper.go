package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
//
// Port is bound bare as PORT (not CK_PORT) to match the hosting
// platform's conventional listen-port variable; everything else under
// the CK_ prefix.
func LoadConfig(configPath string) (*ServerConfig, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.max_rule_text_size", 64*1024)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("server.db_url", "")

	v.SetEnvPrefix("CK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// PORT is bound without the CK_ prefix, on top of automatic env,
	// so a bare PORT (the convention most hosting platforms assign)
	// still reaches server.port.
	if err := v.BindEnv("server.port", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind PORT: %w", err)
	}
	if err := v.BindEnv("server.db_url", "CK_DB_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind CK_DB_URL: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Security check: reject secrets in config files
	// Secrets must be environment-only per 12-factor principles
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &ServerConfig{
		Host:            v.GetString("server.host"),
		Port:            v.GetInt("server.port"),
		RequestTimeout:  v.GetDuration("server.request_timeout"),
		MaxRuleTextSize: v.GetInt("server.max_rule_text_size"),
		DataDir:         v.GetString("server.data_dir"),
		DBURL:           v.GetString("server.db_url"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	identity := LoadFeatureFlagIdentity()
	cfg.EnvID, cfg.AgentID, cfg.ProjectID = identity.EnvID, identity.AgentID, identity.ProjectID

	return cfg, nil
}

// validateConfig checks port range and positive values for timeout and
// the rule-text size ceiling.
func validateConfig(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxRuleTextSize <= 0 {
		return fmt.Errorf("max_rule_text_size must be positive, got %d", cfg.MaxRuleTextSize)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.IsSet("hmac_secret") || v.IsSet("server.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use CK_HMAC_SECRET environment variable)")
	}
	return nil
}
