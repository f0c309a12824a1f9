/*
Package config loads the clipping configuration from YAML and applies
environment-variable overrides for credentials.
*/
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/GGRoca/dou-antt-clipping/internal/types"
)

// Environment variables that override file values. Secrets are injected this
// way in CI runs instead of living in the config file.
const (
	inlabsEmailEnv    = "INLABS_EMAIL"
	inlabsPasswordEnv = "INLABS_PASSWORD"
	smtpUserEnv       = "SMTP_USER"
	smtpPassEnv       = "SMTP_PASS"
)

const defaultLookbackDays = 2

// InlabsConfig holds the portal endpoint and account.
type InlabsConfig struct {
	BaseURL  string `yaml:"base_url"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// MailConfig holds SMTP settings for the digest email.
type MailConfig struct {
	Enabled       bool     `yaml:"enabled"`
	SMTPHost      string   `yaml:"smtp_host"`
	SMTPPort      int      `yaml:"smtp_port"`
	SMTPUser      string   `yaml:"smtp_user"`
	SMTPPass      string   `yaml:"smtp_pass"`
	FromEmail     string   `yaml:"from_email"`
	ToEmails      []string `yaml:"to_emails"`
	SubjectPrefix string   `yaml:"subject_prefix"`
}

// StorageConfig holds the SQLite database location.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// Config is the full application configuration. It is a plain value passed
// into the pipeline entry point; nothing here is process-global.
type Config struct {
	Inlabs       InlabsConfig         `yaml:"inlabs"`
	Filters      []types.FilterConfig `yaml:"filters"`
	Mail         MailConfig           `yaml:"mail"`
	Storage      StorageConfig        `yaml:"storage"`
	LookbackDays int                  `yaml:"lookback_days"`
}

// Load reads the YAML file at path, applies env overrides and validates.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Config{LookbackDays: defaultLookbackDays}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(inlabsEmailEnv); v != "" {
		c.Inlabs.Email = v
	}
	if v := os.Getenv(inlabsPasswordEnv); v != "" {
		c.Inlabs.Password = v
	}
	if v := os.Getenv(smtpUserEnv); v != "" {
		c.Mail.SMTPUser = v
	}
	if v := os.Getenv(smtpPassEnv); v != "" {
		c.Mail.SMTPPass = v
	}
}

func (c *Config) validate() error {
	if c.Inlabs.BaseURL == "" {
		return fmt.Errorf("config: inlabs.base_url is required")
	}
	if c.Inlabs.Email == "" || c.Inlabs.Password == "" {
		return fmt.Errorf("config: INLABS credentials are required (file or %s/%s)", inlabsEmailEnv, inlabsPasswordEnv)
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("config: storage.db_path is required")
	}
	if len(c.Filters) == 0 {
		return fmt.Errorf("config: at least one filter is required")
	}
	for i, f := range c.Filters {
		if f.Section == "" {
			return fmt.Errorf("config: filters[%d] (%s): section is required", i, f.Name)
		}
		if f.OrgaoContains == "" {
			return fmt.Errorf("config: filters[%d] (%s): orgao_contains is required", i, f.Name)
		}
		if len(f.KeywordsAny) == 0 {
			return fmt.Errorf("config: filters[%d] (%s): keywords_any is required", i, f.Name)
		}
	}
	if c.LookbackDays < 0 {
		return fmt.Errorf("config: lookback_days must not be negative")
	}
	if c.Mail.Enabled {
		if c.Mail.SMTPHost == "" || c.Mail.SMTPPort == 0 {
			return fmt.Errorf("config: mail.smtp_host and mail.smtp_port are required when mail is enabled")
		}
		if c.Mail.FromEmail == "" || len(c.Mail.ToEmails) == 0 {
			return fmt.Errorf("config: mail.from_email and mail.to_emails are required when mail is enabled")
		}
	}
	return nil
}
