// Package config loads the engine's configuration bundle from the
// environment, an optional .env file and an optional YAML synonym table.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/warp/reminder-engine/registry"
	"github.com/warp/reminder-engine/reminder"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverCSV    = "csv"
)

// Email providers.
const (
	ProviderSMTP  = "smtp"
	ProviderBrevo = "brevo"
	ProviderLog   = "log"
)

type Config struct {
	Env         string
	HTTPAddr    string
	CORSOrigins []string

	StoreDriver       string
	StoreDSN          string
	SourceSheet       string
	PresentationSheet string
	AuditSheet        string

	EmailProvider    string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	BrevoAPIKey      string
	EmailFromName    string
	EmailFromAddress string

	ServiceIntervalMonths int
	AdvanceNoticeDays     int
	StatusPolicy          reminder.StatusPolicy
	Location              *time.Location

	SendRatePerSecond float64
	SendBurst         int
	SyncInterval      time.Duration

	Synonyms registry.Synonyms
}

// Default returns a configuration that runs entirely in memory and only
// logs messages.
func Default() *Config {
	return &Config{
		Env:                   "development",
		HTTPAddr:              ":8080",
		StoreDriver:           DriverMemory,
		SourceSheet:           "Master",
		PresentationSheet:     "Reminders",
		AuditSheet:            "Audit",
		EmailProvider:         ProviderLog,
		SMTPPort:              587,
		EmailFromName:         "Service Reminders",
		ServiceIntervalMonths: registry.DefaultServiceIntervalMonths,
		AdvanceNoticeDays:     reminder.DefaultAdvanceDays,
		StatusPolicy:          reminder.PolicyDateOnly,
		Location:              time.UTC,
		SendRatePerSecond:     1,
		SendBurst:             1,
		SyncInterval:          24 * time.Hour,
		Synonyms:              registry.DefaultSynonyms(),
	}
}

// Load reads the env files (./.env when none are given, ignored if absent)
// and the process environment. Malformed values are reported as
// ConfigError; missing ones take defaults.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, &registry.ConfigError{Field: "env file", Reason: err.Error()}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	var err error
	cfg.Env = get("ENV", cfg.Env)
	cfg.HTTPAddr = get("HTTP_ADDR", cfg.HTTPAddr)
	cfg.CORSOrigins = splitCSV(get("CORS_ORIGINS", ""))
	cfg.StoreDriver = strings.ToLower(get("STORE_DRIVER", cfg.StoreDriver))
	cfg.StoreDSN = get("STORE_DSN", "")
	cfg.SourceSheet = get("SOURCE_SHEET", cfg.SourceSheet)
	cfg.PresentationSheet = get("PRESENTATION_SHEET", cfg.PresentationSheet)
	cfg.AuditSheet = get("AUDIT_SHEET", cfg.AuditSheet)

	cfg.EmailProvider = strings.ToLower(get("EMAIL_PROVIDER", cfg.EmailProvider))
	cfg.SMTPHost = get("SMTP_HOST", "")
	cfg.SMTPUsername = get("SMTP_USERNAME", "")
	cfg.SMTPPassword = get("SMTP_PASSWORD", "")
	cfg.BrevoAPIKey = get("BREVO_API_KEY", "")
	cfg.EmailFromName = get("EMAIL_FROM_NAME", cfg.EmailFromName)
	cfg.EmailFromAddress = get("EMAIL_FROM_ADDRESS", "")

	if cfg.SMTPPort, err = intEnv(get, "SMTP_PORT", cfg.SMTPPort); err != nil {
		return nil, err
	}
	if cfg.ServiceIntervalMonths, err = intEnv(get, "SERVICE_INTERVAL_MONTHS", cfg.ServiceIntervalMonths); err != nil {
		return nil, err
	}
	if cfg.AdvanceNoticeDays, err = intEnv(get, "ADVANCE_NOTICE_DAYS", cfg.AdvanceNoticeDays); err != nil {
		return nil, err
	}
	if cfg.SendBurst, err = intEnv(get, "SEND_BURST", cfg.SendBurst); err != nil {
		return nil, err
	}
	if raw := get("SEND_RATE_PER_SECOND", ""); raw != "" {
		if cfg.SendRatePerSecond, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, &registry.ConfigError{Field: "SEND_RATE_PER_SECOND", Reason: "not a number"}
		}
	}
	if raw := get("SYNC_INTERVAL", ""); raw != "" {
		if cfg.SyncInterval, err = time.ParseDuration(raw); err != nil {
			return nil, &registry.ConfigError{Field: "SYNC_INTERVAL", Reason: "not a duration"}
		}
	}

	policy, err := reminder.ParseStatusPolicy(get("STATUS_POLICY", ""))
	if err != nil {
		return nil, &registry.ConfigError{Field: "STATUS_POLICY", Reason: err.Error()}
	}
	cfg.StatusPolicy = policy

	if tz := get("TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, &registry.ConfigError{Field: "TIMEZONE", Reason: err.Error()}
		}
		cfg.Location = loc
	}

	if path := get("SCHEMA_SYNONYMS_FILE", ""); path != "" {
		extra, err := LoadSynonyms(path)
		if err != nil {
			return nil, err
		}
		cfg.Synonyms = cfg.Synonyms.Merge(extra)
	}

	return cfg, nil
}

func splitCSV(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intEnv(get func(string, string) string, key string, fallback int) (int, error) {
	raw := get(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &registry.ConfigError{Field: key, Reason: "not an integer"}
	}
	return n, nil
}

// synonymFile is the YAML layout:
//
//	fields:
//	  - field: email
//	    headers: [Email, Correo]
type synonymFile struct {
	Fields registry.Synonyms `yaml:"fields"`
}

// LoadSynonyms reads a YAML synonym table.
func LoadSynonyms(path string) (registry.Synonyms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &registry.ConfigError{Field: "SCHEMA_SYNONYMS_FILE", Reason: err.Error()}
	}
	return ParseSynonyms(data)
}

// ParseSynonyms decodes a YAML synonym table, rejecting unknown fields.
func ParseSynonyms(data []byte) (registry.Synonyms, error) {
	var f synonymFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &registry.ConfigError{Field: "SCHEMA_SYNONYMS_FILE", Reason: err.Error()}
	}
	for _, s := range f.Fields {
		if !registry.KnownField(s.Field) {
			return nil, &registry.ConfigError{
				Field:  "SCHEMA_SYNONYMS_FILE",
				Reason: fmt.Sprintf("unknown field %q", s.Field),
			}
		}
		if len(s.Headers) == 0 {
			return nil, &registry.ConfigError{
				Field:  "SCHEMA_SYNONYMS_FILE",
				Reason: fmt.Sprintf("field %q has no headers", s.Field),
			}
		}
	}
	return f.Fields, nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks that every identifier and credential the selected store
// and provider need is present. It runs before any I/O.
func (c *Config) Validate() error {
	required := []struct{ field, value string }{
		{"SOURCE_SHEET", c.SourceSheet},
		{"PRESENTATION_SHEET", c.PresentationSheet},
		{"AUDIT_SHEET", c.AuditSheet},
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite, DriverCSV:
		required = append(required, struct{ field, value string }{"STORE_DSN", c.StoreDSN})
	default:
		return &registry.ConfigError{Field: "STORE_DRIVER", Reason: fmt.Sprintf("unknown driver %q", c.StoreDriver)}
	}

	switch c.EmailProvider {
	case ProviderLog:
	case ProviderSMTP:
		required = append(required,
			struct{ field, value string }{"SMTP_HOST", c.SMTPHost},
			struct{ field, value string }{"EMAIL_FROM_ADDRESS", c.EmailFromAddress},
		)
	case ProviderBrevo:
		required = append(required,
			struct{ field, value string }{"BREVO_API_KEY", c.BrevoAPIKey},
			struct{ field, value string }{"EMAIL_FROM_ADDRESS", c.EmailFromAddress},
		)
	default:
		return &registry.ConfigError{Field: "EMAIL_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", c.EmailProvider)}
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &registry.ConfigError{Field: r.field, Reason: "required"}
		}
	}

	if c.SourceSheet == c.PresentationSheet || c.SourceSheet == c.AuditSheet || c.PresentationSheet == c.AuditSheet {
		return &registry.ConfigError{Field: "SOURCE_SHEET", Reason: "source, presentation and audit sheets must differ"}
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return &registry.ConfigError{Field: "SMTP_PORT", Reason: "out of range"}
	}
	if c.AdvanceNoticeDays < 0 {
		return &registry.ConfigError{Field: "ADVANCE_NOTICE_DAYS", Reason: "negative"}
	}
	if c.SyncInterval < 0 {
		return &registry.ConfigError{Field: "SYNC_INTERVAL", Reason: "negative"}
	}
	return nil
}
