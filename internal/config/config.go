// Package config loads the server configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use human-readable
// values like "30s" or "1h".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML accepts duration strings ("1h30m") and raw nanosecond
// integers.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Config is the full server configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Redis        RedisConfig        `yaml:"redis"`
	WhatsApp     WhatsAppConfig     `yaml:"whatsapp"`
	Integrations IntegrationsConfig `yaml:"integrations"`
	Flows        FlowsConfig        `yaml:"flows"`
	Logging      LoggingConfig      `yaml:"logging"`
	Environment  string             `yaml:"environment"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// RedisConfig configures the session backend. An empty Addr selects the
// in-memory store, suitable for single-replica and development setups.
type RedisConfig struct {
	Addr       string   `yaml:"addr"`
	Password   string   `yaml:"password"`
	DB         int      `yaml:"db"`
	SessionTTL Duration `yaml:"sessionTtl"`
}

// WhatsAppConfig configures the WhatsApp channel. Disabled unless both the
// phone number id and access token are present.
type WhatsAppConfig struct {
	PhoneNumberID string `yaml:"phoneNumberId"`
	AccessToken   string `yaml:"accessToken"`
	VerifyToken   string `yaml:"verifyToken"`
}

// Enabled reports whether the channel can be mounted.
func (c WhatsAppConfig) Enabled() bool {
	return c.PhoneNumberID != "" && c.AccessToken != ""
}

// IntegrationsConfig wires the optional integration collaborators. Blocks
// whose collaborator is left unconfigured fail softly at runtime.
type IntegrationsConfig struct {
	// SheetsGatewayURL points at the spreadsheet REST gateway holding the
	// OAuth credentials. Empty disables Google Sheets blocks.
	SheetsGatewayURL string `yaml:"sheetsGatewayUrl"`
	// AnalyticsEnabled turns on the Google Analytics collect client.
	AnalyticsEnabled bool       `yaml:"analyticsEnabled"`
	SMTP             SMTPConfig `yaml:"smtp"`
}

// SMTPConfig configures the transactional mailer. Disabled unless Addr and
// From are present.
type SMTPConfig struct {
	Addr     string `yaml:"addr"` // host:port
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Enabled reports whether the mailer can be built.
func (c SMTPConfig) Enabled() bool {
	return c.Addr != "" && c.From != ""
}

// FlowsConfig locates the published flow snapshots.
type FlowsConfig struct {
	// Dir is scanned for *.json snapshot files at startup.
	Dir string `yaml:"dir"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Redis: RedisConfig{
			SessionTTL: Duration(24 * time.Hour),
		},
		Flows: FlowsConfig{
			Dir: "./flows",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Environment: "production",
	}
}

// Load reads the config file at path, applying defaults for absent fields
// and environment overrides for secrets. An empty path yields defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if v := os.Getenv("CHATFLOW_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CHATFLOW_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CHATFLOW_WHATSAPP_TOKEN"); v != "" {
		cfg.WhatsApp.AccessToken = v
	}
	if v := os.Getenv("CHATFLOW_WHATSAPP_VERIFY_TOKEN"); v != "" {
		cfg.WhatsApp.VerifyToken = v
	}
	if v := os.Getenv("CHATFLOW_SMTP_PASSWORD"); v != "" {
		cfg.Integrations.SMTP.Password = v
	}
	return cfg, nil
}
