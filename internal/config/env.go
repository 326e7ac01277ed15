package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome                   = "SHADE_HOME"
	EnvNetwork                = "SHADE_NETWORK"
	EnvRPC                    = "SHADE_RPC"
	EnvProvider               = "SHADE_PROVIDER"
	EnvProviderEndpoint       = "SHADE_PROVIDER_ENDPOINT"
	EnvProviderLegacyEndpoint = "SHADE_PROVIDER_LEGACY_ENDPOINT"
	EnvDataContributionAddr   = "SHADE_DATA_CONTRIBUTION_ADDR"
	EnvGovernanceAddr         = "SHADE_GOVERNANCE_ADDR"
	EnvTreasuryAddr           = "SHADE_TREASURY_ADDR"
	EnvOutputFormat           = "SHADE_OUTPUT_FORMAT"
	EnvVerbose                = "SHADE_VERBOSE"
	EnvLogLevel               = "SHADE_LOG_LEVEL"
	EnvNoColor                = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Network.ID = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvRPC); v != "" {
		cfg.Network.RPC = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvProvider); v != "" {
		cfg.Provider.Kind = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvProviderEndpoint); v != "" {
		cfg.Provider.Endpoint = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvProviderLegacyEndpoint); v != "" {
		cfg.Provider.LegacyEndpoint = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvDataContributionAddr); v != "" {
		cfg.Contracts.DataContribution = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvGovernanceAddr); v != "" {
		cfg.Contracts.Governance = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvTreasuryAddr); v != "" {
		cfg.Contracts.Treasury = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
