package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvsync/config"
)

func setAllEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VCOM_BASE_URL", "https://vcom.example")
	t.Setenv("VCOM_API_KEY", "vcom-key")
	t.Setenv("YUMAN_BASE_URL", "https://yuman.example")
	t.Setenv("YUMAN_API_TOKEN", "yuman-token")
	t.Setenv("DATABASE_URL", "postgres://localhost/pvsync")
}

func TestLoadEnv_AllPresent(t *testing.T) {
	setAllEnv(t)

	creds, err := config.LoadEnv("")
	require.NoError(t, err)

	assert.Equal(t, "https://vcom.example", creds.VCOMBaseURL)
	assert.Equal(t, "postgres://localhost/pvsync", creds.DatabaseURL)
}

func TestLoadEnv_MissingCredentialFailsBeforeAnyFetch(t *testing.T) {
	setAllEnv(t)
	t.Setenv("YUMAN_API_TOKEN", "")

	_, err := config.LoadEnv("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "YUMAN_API_TOKEN")
}

func TestLoadEnv_ReadsEnvFile(t *testing.T) {
	setAllEnv(t)
	// godotenv never overrides a variable that is already set, even to "".
	t.Setenv("VCOM_API_KEY", "restored-after-test")
	require.NoError(t, os.Unsetenv("VCOM_API_KEY"))

	path := filepath.Join(t.TempDir(), "settings.env")
	require.NoError(t, os.WriteFile(path, []byte("VCOM_API_KEY=from-file\n"), 0o600))

	creds, err := config.LoadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", creds.VCOMAPIKey)
}

func TestLoadEnv_MissingFileIsNotAnError(t *testing.T) {
	setAllEnv(t)

	_, err := config.LoadEnv(filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := config.LoadSettings("")
	require.NoError(t, err)

	assert.Equal(t, 60, s.VCOMRateLimit)
	assert.Equal(t, 60, s.YumanRateLimit)
	assert.Equal(t, int64(13583), s.YumanSiteFields.SystemKey)
}

func TestLoadSettings_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"yuman_rate_limit: 30\napply_concurrency: 2\ndry_run: true\n"), 0o600))

	s, err := config.LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, 30, s.YumanRateLimit)
	assert.Equal(t, 2, s.ApplyConcurrency)
	assert.True(t, s.DryRun)
	assert.Equal(t, 60, s.VCOMRateLimit, "unset keys keep their defaults")
}

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	s, err := config.LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings(), s)
}

func TestLoadSettings_RejectsNonPositiveRateLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vcom_rate_limit: 0\n"), 0o600))

	_, err := config.LoadSettings(path)
	assert.Error(t, err)
}
