package config

// DefaultRPCURL is the default ledger JSON-RPC endpoint.
const DefaultRPCURL = "https://rpc.devnet.midnight.network"

// DefaultNetworkID is the network targeted when none is configured.
const DefaultNetworkID = "devnet"

// Default wallet host endpoints probed during provider detection.
// The primary endpoint is always probed before the legacy one.
const (
	DefaultProviderEndpoint       = "http://127.0.0.1:9132/midnight/lace"
	DefaultProviderLegacyEndpoint = "http://127.0.0.1:9132/cardano/midnight"
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.shade",
		Network: NetworkConfig{
			ID:  DefaultNetworkID,
			RPC: DefaultRPCURL,
		},
		Provider: ProviderConfig{
			Kind:           "bridge",
			Endpoint:       DefaultProviderEndpoint,
			LegacyEndpoint: DefaultProviderLegacyEndpoint,
			Keystore:       "~/.shade/keystore.age",
			Approval:       "prompt",
		},
		Contracts: ContractsConfig{
			DataContribution: "",
			Governance:       "",
			Treasury:         "",
		},
		Confirm: ConfirmConfig{
			PollIntervalMS: 2000,
			RetryBudget:    3,
			MinConfs:       1,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.shade/shade.log",
		},
	}
}
