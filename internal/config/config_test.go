package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shade/internal/config"
)

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "devnet", cfg.Network.ID)
	assert.Equal(t, config.DefaultRPCURL, cfg.Network.RPC)
	assert.Equal(t, "bridge", cfg.Provider.Kind)
	assert.Equal(t, config.DefaultProviderEndpoint, cfg.Provider.Endpoint)
	assert.Equal(t, config.DefaultProviderLegacyEndpoint, cfg.Provider.LegacyEndpoint)
	assert.Equal(t, 2*time.Second, cfg.Confirm.PollInterval())
	assert.Equal(t, 3, cfg.Confirm.RetryBudget)
	assert.Equal(t, 1, cfg.Confirm.MinConfs)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := config.Path(dir)

	cfg := config.Defaults()
	cfg.Home = dir
	cfg.Network.ID = "testnet"
	cfg.Contracts.DataContribution = "mn1contrib000000000000000000000000000000"
	cfg.Contracts.Governance = "mn1gov0000000000000000000000000000000000"
	cfg.Contracts.Treasury = "mn1treasury00000000000000000000000000000"

	require.NoError(t, config.Save(cfg, path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "testnet", loaded.Network.ID)
	assert.Equal(t, cfg.Contracts, loaded.Contracts)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("network:\n  id: testnet\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "testnet", cfg.Network.ID)
	// Unspecified fields keep their defaults
	assert.Equal(t, config.DefaultRPCURL, cfg.Network.RPC)
	assert.Equal(t, 3, cfg.Confirm.RetryBudget)
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network: [unclosed"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}
