// ABOUTME: Configuration loading and parsing for tuxedo-vault
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yusefmosiah/tuxedo-vault/internal/crypto"
)

// Config represents the complete tuxedo-vault configuration
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Store      StoreConfig      `yaml:"store"`
	Chains     ChainsConfig     `yaml:"chains"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EncryptionConfig holds the master secret and key derivation settings.
// The master key is normally injected via ${VAULT_MASTER_KEY}.
type EncryptionConfig struct {
	MasterKey     string `yaml:"master_key"`
	KDFIterations int    `yaml:"kdf_iterations"`
}

// StoreConfig holds store access tuning
type StoreConfig struct {
	Timeout     time.Duration `yaml:"-"`
	ReadRetries int           `yaml:"read_retries"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// ChainsConfig holds per-chain adapter configuration
type ChainsConfig struct {
	Stellar StellarConfig `yaml:"stellar"`
}

// StellarConfig holds the Stellar adapter configuration
type StellarConfig struct {
	Enabled bool   `yaml:"enabled"`
	Network string `yaml:"network"` // "pubnet" or "testnet"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Encryption.MasterKey == "" {
		return fmt.Errorf("encryption.master_key is required (set VAULT_MASTER_KEY)")
	}
	if c.Encryption.KDFIterations != 0 && c.Encryption.KDFIterations < crypto.MinKDFIterations {
		return fmt.Errorf("encryption.kdf_iterations must be at least %d", crypto.MinKDFIterations)
	}

	if c.Store.ReadRetries < 0 {
		return fmt.Errorf("store.read_retries must not be negative")
	}

	if c.Chains.Stellar.Enabled {
		switch c.Chains.Stellar.Network {
		case "", "pubnet", "testnet":
		default:
			return fmt.Errorf("chains.stellar.network must be pubnet or testnet, got %q", c.Chains.Stellar.Network)
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Store.TimeoutRaw != "" {
		cfg.Store.Timeout, err = time.ParseDuration(cfg.Store.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing store timeout %q: %w", cfg.Store.TimeoutRaw, err)
		}
	}

	return nil
}
