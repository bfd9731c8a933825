// Package config loads credentials from the environment (optionally seeded
// from a settings.env file) and sync tunables from an optional sync.yaml.
// Secrets never live in the yaml file.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Credentials for the three systems of record. All fields are required: a
// missing credential is a configuration error and aborts before any fetch.
type Credentials struct {
	VCOMBaseURL   string
	VCOMAPIKey    string
	YumanBaseURL  string
	YumanAPIToken string
	DatabaseURL   string
}

// LoadEnv reads envPath (when the file exists) into the process environment
// and validates the credential set.
func LoadEnv(envPath string) (Credentials, error) {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return Credentials{}, fmt.Errorf("load %s: %w", envPath, err)
			}
		}
	}

	c := Credentials{
		VCOMBaseURL:   os.Getenv("VCOM_BASE_URL"),
		VCOMAPIKey:    os.Getenv("VCOM_API_KEY"),
		YumanBaseURL:  os.Getenv("YUMAN_BASE_URL"),
		YumanAPIToken: os.Getenv("YUMAN_API_TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
	}

	var missing []string
	for name, v := range map[string]string{
		"VCOM_BASE_URL":   c.VCOMBaseURL,
		"VCOM_API_KEY":    c.VCOMAPIKey,
		"YUMAN_BASE_URL":  c.YumanBaseURL,
		"YUMAN_API_TOKEN": c.YumanAPIToken,
		"DATABASE_URL":    c.DatabaseURL,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Credentials{}, fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}

	return c, nil
}
