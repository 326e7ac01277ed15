// Package config provides configuration management for Shade.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Version   int             `yaml:"version"`
	Home      string          `yaml:"home"`
	Network   NetworkConfig   `yaml:"network"`
	Provider  ProviderConfig  `yaml:"provider"`
	Contracts ContractsConfig `yaml:"contracts"`
	Confirm   ConfirmConfig   `yaml:"confirm"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NetworkConfig defines the target ledger network.
type NetworkConfig struct {
	ID  string `yaml:"id"`  // Network identifier (devnet, testnet, mainnet)
	RPC string `yaml:"rpc"` // JSON-RPC endpoint for confirmation polling and queries
}

// ProviderConfig defines wallet provider discovery settings.
type ProviderConfig struct {
	// Kind selects the provider family: "bridge" probes wallet host
	// endpoints, "sim" runs the in-process simulated wallet.
	Kind string `yaml:"kind"`

	// Endpoint is the primary wallet host endpoint probed first.
	Endpoint string `yaml:"endpoint"`

	// LegacyEndpoint is the fallback endpoint for older wallet hosts.
	LegacyEndpoint string `yaml:"legacy_endpoint"`

	// Keystore is the path to the sim provider's encrypted keystore.
	Keystore string `yaml:"keystore"`

	// Approval controls how the sim provider resolves approval prompts:
	// "approve", "reject", or "prompt".
	Approval string `yaml:"approval"`
}

// ContractsConfig holds deployed contract addresses for the three families.
type ContractsConfig struct {
	DataContribution string `yaml:"data_contribution"`
	Governance       string `yaml:"governance"`
	Treasury         string `yaml:"treasury"`
}

// ConfirmConfig defines confirmation polling behavior.
type ConfirmConfig struct {
	PollIntervalMS int `yaml:"poll_interval_ms"` // Delay between status polls
	RetryBudget    int `yaml:"retry_budget"`     // Transient failures tolerated per wait
	MinConfs       int `yaml:"min_confirmations"`
}

// PollInterval returns the poll interval as a duration.
func (c ConfirmConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the shade home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetNetworkID returns the target network identifier.
func (c *Config) GetNetworkID() string {
	return c.Network.ID
}

// GetRPC returns the ledger JSON-RPC endpoint.
func (c *Config) GetRPC() string {
	return c.Network.RPC
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// ExpandHome replaces a leading "~" in path with the user's home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// DefaultHome returns the default shade home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shade"
	}
	return filepath.Join(home, ".shade")
}
