package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/funnel")
	t.Setenv("FACEBOOK_PIXEL_ID", "")
	t.Setenv("VITE_FACEBOOK_PIXEL_ID", "")
	t.Setenv("FUNNEL_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "v24.0", cfg.Meta.APIVersion)
	assert.Equal(t, 5*time.Second, cfg.Meta.Timeout)
	assert.Equal(t, 5, cfg.Attribution.MaxAttempts)
	assert.Equal(t, RateLimitConfig{Requests: 10, Interval: time.Minute}, cfg.RateLimit)
	assert.False(t, cfg.Hotmart.InsecureSkipVerify)
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("FUNNEL_CONFIG_FILE", "")

	_, err := Load()

	var missing *MissingConfigError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"DATABASE_URL"}, missing.Keys)
}

func TestLoadPixelIDFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/funnel")
	t.Setenv("FACEBOOK_PIXEL_ID", "")
	t.Setenv("VITE_FACEBOOK_PIXEL_ID", "123456")
	t.Setenv("FUNNEL_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123456", cfg.Meta.PixelID)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/funnel")
	t.Setenv("META_TIMEOUT", "five seconds")

	_, err := Load()
	assert.Error(t, err)
}

func TestMetaConfigValidate(t *testing.T) {
	err := MetaConfig{}.Validate()

	var missing *MissingConfigError
	require.True(t, errors.As(err, &missing))
	assert.ElementsMatch(t, []string{"FACEBOOK_PIXEL_ID", "FACEBOOK_ACCESS_TOKEN"}, missing.Keys)

	assert.NoError(t, MetaConfig{PixelID: "1", AccessToken: "EAA"}.Validate())
}

func TestParseRateLimit(t *testing.T) {
	cases := map[string]RateLimitConfig{
		"10/min": {Requests: 10, Interval: time.Minute},
		"3/s":    {Requests: 3, Interval: time.Second},
		"100/h":  {Requests: 100, Interval: time.Hour},
	}
	for input, want := range cases {
		got, err := ParseRateLimit(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, bad := range []string{"ten/min", "10", "0/min", "5/day"} {
		_, err := ParseRateLimit(bad)
		assert.Error(t, err, bad)
	}
}

func TestApplyFunnelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "funnel.yaml")
	content := []byte("meta:\n  lead_content_name: Quiz - Rotina\n  lead_source_url: https://example.com/results\nphone_region: PT\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg := &Config{Meta: MetaConfig{LeadContentName: "old", PurchaseSourceURL: "https://keep.me"}}
	require.NoError(t, ApplyFunnelFile(cfg, path))

	assert.Equal(t, "Quiz - Rotina", cfg.Meta.LeadContentName)
	assert.Equal(t, "https://example.com/results", cfg.Meta.LeadSourceURL)
	assert.Equal(t, "https://keep.me", cfg.Meta.PurchaseSourceURL)
	assert.Equal(t, "PT", cfg.Meta.PhoneRegion)
}

func TestLoadMetaWithoutDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("FACEBOOK_PIXEL_ID", "123456")
	t.Setenv("FACEBOOK_ACCESS_TOKEN", "tok")
	t.Setenv("META_TIMEOUT", "")

	path := filepath.Join(t.TempDir(), "funnel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meta:\n  lead_content_name: Quiz - Rotina\n"), 0o600))
	t.Setenv("FUNNEL_CONFIG_FILE", path)

	cfg, err := LoadMeta()
	require.NoError(t, err)

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "123456", cfg.PixelID)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "Quiz - Rotina", cfg.LeadContentName)
}

func TestLoadMetaInvalidTimeout(t *testing.T) {
	t.Setenv("META_TIMEOUT", "five seconds")

	_, err := LoadMeta()
	assert.Error(t, err)
}
