package config

import (
	"os"
	"strconv"
	"time"

	dErrors "fieldsync/pkg/domain-errors"
)

// SourceAPI holds credentials for the field-service management API.
type SourceAPI struct {
	BaseURL string
	Token   string
}

// CRMAPI holds credentials for the retention CRM API.
type CRMAPI struct {
	BaseURL string
	APIKey  string
}

// Config captures process level configuration for the sync service.
type Config struct {
	Addr        string
	Environment string

	Source SourceAPI
	CRM    CRMAPI

	// Contact index tuning.
	IndexTTL         time.Duration
	ContactPageLimit int
	ContactMaxPages  int

	// Delay enforced between downstream writes during batch runs.
	WriteInterval time.Duration

	// Per-call timeout for both external APIs.
	HTTPTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// Unset tuning values fall back to defaults; credentials are validated
// separately because the two binaries need different subsets.
func FromEnv() Config {
	cfg := Config{
		Addr:        envOr("FIELDSYNC_ADDR", ":8080"),
		Environment: envOr("FIELDSYNC_ENV", "development"),
		Source: SourceAPI{
			BaseURL: os.Getenv("SOURCE_API_URL"),
			Token:   os.Getenv("SOURCE_API_TOKEN"),
		},
		CRM: CRMAPI{
			BaseURL: os.Getenv("CRM_API_URL"),
			APIKey:  os.Getenv("CRM_API_KEY"),
		},
		IndexTTL:         durationOr("CONTACT_INDEX_TTL", 5*time.Minute),
		ContactPageLimit: intOr("CONTACT_PAGE_LIMIT", 200),
		ContactMaxPages:  intOr("CONTACT_MAX_PAGES", 50),
		WriteInterval:    durationOr("SYNC_WRITE_INTERVAL", 100*time.Millisecond),
		HTTPTimeout:      durationOr("HTTP_TIMEOUT", 30*time.Second),
	}
	return cfg
}

// ValidateSource reports a fatal configuration error when the field-service
// API credentials are missing.
func (c Config) ValidateSource() error {
	if c.Source.BaseURL == "" || c.Source.Token == "" {
		return dErrors.New(dErrors.CodeConfig, "SOURCE_API_URL and SOURCE_API_TOKEN must be set")
	}
	return nil
}

// ValidateCRM reports a fatal configuration error when the CRM API
// credentials are missing.
func (c Config) ValidateCRM() error {
	if c.CRM.BaseURL == "" || c.CRM.APIKey == "" {
		return dErrors.New(dErrors.CodeConfig, "CRM_API_URL and CRM_API_KEY must be set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
