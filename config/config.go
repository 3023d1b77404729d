package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config carries the operational parameters for the custody settlement
// protocol. Values absent from the file keep their defaults.
type Config struct {
	Verification VerificationConfig `toml:"Verification"`
	Oracle       OracleConfig       `toml:"Oracle"`
	Fees         FeesConfig         `toml:"Fees"`
}

// VerificationConfig bounds the post-sale verification workflow. The default
// timeout seeds each sale's verification deadline; the max timeout is the
// absolute ceiling recorded alongside it.
type VerificationConfig struct {
	DefaultTimeoutSeconds uint64 `toml:"DefaultTimeoutSeconds"`
	MaxTimeoutSeconds     uint64 `toml:"MaxTimeoutSeconds"`
}

// OracleConfig fixes the legal range for the oracle staleness period so an
// administrator cannot disable staleness protection with an absurd value.
type OracleConfig struct {
	MinStalenessSeconds     uint64 `toml:"MinStalenessSeconds"`
	MaxStalenessSeconds     uint64 `toml:"MaxStalenessSeconds"`
	DefaultStalenessSeconds uint64 `toml:"DefaultStalenessSeconds"`
}

// FeesConfig caps the base protocol fee the external settlement protocol may
// report before the engine refuses to settle against it.
type FeesConfig struct {
	MaxBaseFeeBps uint32 `toml:"MaxBaseFeeBps"`
}

// Default returns the configuration used when no file overrides are present.
func Default() *Config {
	return &Config{
		Verification: VerificationConfig{
			DefaultTimeoutSeconds: 14 * 24 * 60 * 60,
			MaxTimeoutSeconds:     30 * 24 * 60 * 60,
		},
		Oracle: OracleConfig{
			MinStalenessSeconds:     60,
			MaxStalenessSeconds:     24 * 60 * 60,
			DefaultStalenessSeconds: 60 * 60,
		},
		Fees: FeesConfig{
			MaxBaseFeeBps: 1_000,
		},
	}
}

// Load reads the configuration from the given path, applying defaults for
// missing sections. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the protocol modules would refuse at
// runtime, so operators learn about bad values at load time.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if c.Verification.DefaultTimeoutSeconds == 0 {
		return fmt.Errorf("config: verification default timeout must be positive")
	}
	if c.Verification.MaxTimeoutSeconds < c.Verification.DefaultTimeoutSeconds {
		return fmt.Errorf("config: verification max timeout below default")
	}
	if c.Oracle.MinStalenessSeconds == 0 {
		return fmt.Errorf("config: oracle min staleness must be positive")
	}
	if c.Oracle.MaxStalenessSeconds < c.Oracle.MinStalenessSeconds {
		return fmt.Errorf("config: oracle staleness bounds inverted")
	}
	if c.Oracle.DefaultStalenessSeconds < c.Oracle.MinStalenessSeconds ||
		c.Oracle.DefaultStalenessSeconds > c.Oracle.MaxStalenessSeconds {
		return fmt.Errorf("config: oracle default staleness outside [min, max]")
	}
	if c.Fees.MaxBaseFeeBps > 10_000 {
		return fmt.Errorf("config: max base fee bps must not exceed 10000")
	}
	return nil
}
