package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every config location at an empty directory and clears the
// environment overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, k := range []string{
		"PORT", "EXPLORER_PORT", "EXPLORER_SOURCE", "EXPLORER_SHEET", "EXPLORER_GEONAMES",
		"EXPLORER_GEONAMES_URL", "EXPLORER_LOG_LEVEL", "EXPLORER_LOG_FORMAT",
		"EXPLORER_SESSION_SECRET", "EXPLORER_SESSION_TTL", "EXPLORER_DENSITY_PRECISION",
		"EXPLORER_S3_REGION", "EXPLORER_S3_ENDPOINT",
	} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.File)
	assert.Equal(t, "Strategic_Account_Ownership_Master.xlsx", cfg.Source)
	assert.Equal(t, "Database", cfg.Sheet)
	assert.Equal(t, ":9595", cfg.Addr())
	assert.Equal(t, filepath.Join("geonames", "US.zip"), cfg.GeoNames.Path)
	assert.Equal(t, 4, cfg.DensityPrecision)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	yml := `
source: s3://bucket/accounts.xlsx
sheet: Master
port: "8080"
session:
  ttl: 30m
s3:
  region: us-west-2
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(yml), 0o644))
	t.Setenv("EXPLORER_SHEET", "Override")
	t.Setenv("PORT", "7000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.File)
	assert.Equal(t, "s3://bucket/accounts.xlsx", cfg.Source)
	assert.Equal(t, "Override", cfg.Sheet)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "us-west-2", cfg.S3.Region)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Unset keys keep their defaults.
	assert.Equal(t, 4, cfg.DensityPrecision)

	t.Setenv("EXPLORER_PORT", "7100")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "7100", cfg.Port)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"EXPLORER_PORT": "http"}},
		{"bad ttl", map[string]string{"EXPLORER_SESSION_TTL": "soon"}},
		{"precision out of range", map[string]string{"EXPLORER_DENSITY_PRECISION": "20"}},
		{"short secret", map[string]string{"EXPLORER_SESSION_SECRET": "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
