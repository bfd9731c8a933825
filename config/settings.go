package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SiteFieldIDs are the Yuman blueprint ids of the site custom fields this
// tool owns. They differ per Yuman tenant, hence configurable.
type SiteFieldIDs struct {
	SystemKey      int64 `yaml:"system_key"`
	NominalPower   int64 `yaml:"nominal_power"`
	CommissionDate int64 `yaml:"commission_date"`
}

// Settings are the non-secret tunables, loaded from sync.yaml when present.
type Settings struct {
	// Calls per minute admitted towards each remote API.
	VCOMRateLimit  int `yaml:"vcom_rate_limit"`
	YumanRateLimit int `yaml:"yuman_rate_limit"`

	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`

	// Parallelism of independent patch items within one hop.
	ApplyConcurrency int `yaml:"apply_concurrency"`

	// DryRun makes every run a dry run; the -dry-run flag also forces it.
	DryRun bool `yaml:"dry_run"`

	// Yuman client every newly created site is attached to.
	YumanDefaultClientID int64 `yaml:"yuman_default_client_id"`

	YumanSiteFields SiteFieldIDs `yaml:"yuman_site_fields"`
}

// DefaultSettings mirrors the production Yuman tenant.
func DefaultSettings() Settings {
	return Settings{
		VCOMRateLimit:         60,
		YumanRateLimit:        60,
		RequestTimeoutSeconds: 30,
		ApplyConcurrency:      4,
		YumanSiteFields: SiteFieldIDs{
			SystemKey:      13583,
			NominalPower:   13585,
			CommissionDate: 13586,
		},
	}
}

// LoadSettings parses path over the defaults. A missing file is not an
// error; a malformed one is.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return Settings{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if s.VCOMRateLimit <= 0 || s.YumanRateLimit <= 0 {
		return Settings{}, fmt.Errorf("rate limits must be positive in %s", path)
	}
	if s.ApplyConcurrency <= 0 {
		s.ApplyConcurrency = 1
	}

	return s, nil
}

// RequestTimeout returns the HTTP client timeout.
func (s Settings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}
