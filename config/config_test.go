package config

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func TestParseValidConfig(t *testing.T) {
	path := writeConfig(t, `{
		"server": {
			"base_url": "https://api.example.com",
			"upload_path": "/api/v1/files",
			"auth_token": "secret"
		},
		"max_concurrent": 5,
		"default_category": "photo"
	}`)

	err := Parse(path)
	require.NoError(t, err)

	cfg := Get()
	assert.Equal(t, "https://api.example.com", cfg.Server.BaseUrl)
	assert.Equal(t, "/api/v1/files", cfg.Server.UploadPath)
	assert.Equal(t, "secret", cfg.Server.AuthToken)
	assert.Equal(t, 5, cfg.MaxConcurrent)
	assert.Equal(t, CATEGORY_PHOTO, cfg.DefaultCategory)

	// unset fields fall back to the defaults
	assert.Equal(t, int64(DEFAULT_COMPRESS_THRESHOLD_BYTES), cfg.CompressThresholdBytes)
	assert.Equal(t, gzip.DefaultCompression, *cfg.CompressLevel)
	assert.Equal(t, DEFAULT_RETRY_AFTER_SECONDS, cfg.DefaultRetryAfterSeconds)
	assert.Equal(t, DEFAULT_MAX_RATE_LIMIT_RETRIES, cfg.MaxRateLimitRetries)

	assert.Equal(t, path, GetConfigPath())
}

func TestParseExplicitZeroCompressLevel(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"base_url": "https://api.example.com", "upload_path": "/x"},
		"compress_level": 0
	}`)

	err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, gzip.NoCompression, *Get().CompressLevel)
}

func TestParseMissingFile(t *testing.T) {
	err := Parse(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "could not open config file")
}

func TestParseMalformedJson(t *testing.T) {
	path := writeConfig(t, `{"server": `)
	err := Parse(path)
	assert.ErrorContains(t, err, "malformed config")
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"missing server section",
			`{"max_concurrent": 2}`,
			"server section is missing",
		},
		{
			"bad base url",
			`{"server": {"base_url": "not a url", "upload_path": "/x"}}`,
			"server.base_url is not a valid url",
		},
		{
			"missing upload path",
			`{"server": {"base_url": "https://api.example.com"}}`,
			"server.upload_path is missing",
		},
		{
			"negative concurrency",
			`{"server": {"base_url": "https://api.example.com", "upload_path": "/x"}, "max_concurrent": -1}`,
			"max_concurrent must be >= 1",
		},
		{
			"bad compress level",
			`{"server": {"base_url": "https://api.example.com", "upload_path": "/x"}, "compress_level": 42}`,
			"compress_level must be between",
		},
		{
			"unknown category",
			`{"server": {"base_url": "https://api.example.com", "upload_path": "/x"}, "default_category": "selfie"}`,
			"unknown category",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			err := Parse(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDumpDefaultConfigRoundTrips(t *testing.T) {
	path := writeConfig(t, DumpDefaultConfig())
	err := Parse(path)
	require.NoError(t, err)

	cfg := Get()
	assert.Equal(t, DEFAULT_MAX_CONCURRENT, cfg.MaxConcurrent)
	assert.Equal(t, int64(DEFAULT_COMPRESS_THRESHOLD_BYTES), cfg.CompressThresholdBytes)
	assert.Equal(t, DEFAULT_MAX_RATE_LIMIT_RETRIES, cfg.MaxRateLimitRetries)
}

func TestGetDefaultConfigPathCreatesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "upstack", "config.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	// second call reuses the existing file
	again, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestParseEntityType(t *testing.T) {
	e, err := ParseEntityType("Property")
	require.NoError(t, err)
	assert.Equal(t, ENTITY_PROPERTY, e)

	_, err = ParseEntityType("warehouse")
	assert.ErrorContains(t, err, "invalid entity type")
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("FLOORPLAN")
	require.NoError(t, err)
	assert.Equal(t, CATEGORY_FLOORPLAN, c)

	c, err = ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, Category(""), c)

	_, err = ParseCategory("selfie")
	assert.ErrorContains(t, err, "invalid category")
}
