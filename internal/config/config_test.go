package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acounter/leumi-scraper/internal/scraper/bank"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.Stealth)
	assert.True(t, cfg.Leumi.StartDate.IsZero())
	assert.Equal(t, 60*time.Second, cfg.Timeouts.Login)
	assert.Equal(t, 3*time.Second, cfg.Timeouts.PopupProbe)

	opts, err := cfg.ScraperOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 3)
}

func TestLoadWith_Values(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"APP_DEBUG":                       "true",
		"LEUMI_USERNAME":                  "user",
		"LEUMI_PASSWORD":                  "secret",
		"LEUMI_START_DATE":                "2024-08-01",
		"LEUMI_CONTINUE_ON_ACCOUNT_ERROR": "true",
		"BROWSER_HEADLESS":                "false",
		"BROWSER_BIN":                     "/usr/bin/google-chrome",
		"TIMEOUT_RESPONSE":                "90s",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, bank.Credentials{Username: "user", Password: "secret"}, cfg.Credentials())
	assert.Equal(t, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), cfg.Leumi.StartDate.Time)
	assert.True(t, cfg.Leumi.ContinueOnAccountError)

	launch := cfg.LaunchOptions()
	assert.False(t, launch.Headless)
	assert.Equal(t, "/usr/bin/google-chrome", launch.Bin)

	assert.Equal(t, 90*time.Second, cfg.ScraperTimeouts().Response)

	opts, err := cfg.ScraperOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 4)
}

func TestLoadWith_InvalidStartDate(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"LEUMI_START_DATE": "01/08/2024",
	}))

	assert.ErrorIs(t, err, bank.ErrConfiguration)
}

func TestSite_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: broken"), 0o600))

	cfg := Config{Leumi: LeumiConfig{SiteFile: path}}
	_, err := cfg.Site()
	assert.ErrorIs(t, err, bank.ErrConfiguration)

	_, err = cfg.ScraperOptions()
	assert.ErrorIs(t, err, bank.ErrConfiguration)

	site, err := Config{}.Site()
	require.NoError(t, err)
	assert.NotEmpty(t, site.Version)
}
