package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custodia.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[Verification]
DefaultTimeoutSeconds = 3600
MaxTimeoutSeconds = 7200

[Fees]
MaxBaseFeeBps = 500
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(3600), cfg.Verification.DefaultTimeoutSeconds)
	require.Equal(t, uint64(7200), cfg.Verification.MaxTimeoutSeconds)
	require.Equal(t, uint32(500), cfg.Fees.MaxBaseFeeBps)
	// Untouched sections keep their defaults.
	require.Equal(t, Default().Oracle, cfg.Oracle)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custodia.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[Verification]
DefaultTimeoutSeconds = 7200
MaxTimeoutSeconds = 3600
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero default timeout", func(c *Config) { c.Verification.DefaultTimeoutSeconds = 0 }},
		{"max timeout below default", func(c *Config) { c.Verification.MaxTimeoutSeconds = c.Verification.DefaultTimeoutSeconds - 1 }},
		{"zero min staleness", func(c *Config) { c.Oracle.MinStalenessSeconds = 0 }},
		{"inverted staleness bounds", func(c *Config) { c.Oracle.MaxStalenessSeconds = c.Oracle.MinStalenessSeconds - 1 }},
		{"default staleness below min", func(c *Config) { c.Oracle.DefaultStalenessSeconds = c.Oracle.MinStalenessSeconds - 1 }},
		{"default staleness above max", func(c *Config) { c.Oracle.DefaultStalenessSeconds = c.Oracle.MaxStalenessSeconds + 1 }},
		{"base fee above 100 percent", func(c *Config) { c.Fees.MaxBaseFeeBps = 10_001 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
