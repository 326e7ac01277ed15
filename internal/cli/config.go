package cli

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/shade/internal/config"
	"github.com/mrz1836/shade/internal/output"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage shade configuration",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show the effective configuration",
	Example: `  shade config show`,
	RunE:    runConfigShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to the shade home directory. Fails
if a configuration file already exists there.`,
	Example: `  shade config init
  shade config init --home /tmp/shade-dev`,
	RunE: runConfigInit,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	if formatter.IsJSON() {
		return formatter.Print(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return formatter.Printf("%s", data)
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	path := config.Path(config.ExpandHome(cfg.Home))
	if _, err := os.Stat(path); err == nil {
		return shadeerr.WithDetails(shadeerr.ErrConfigInvalid, map[string]string{
			"config": path,
			"reason": "configuration file already exists",
		})
	}

	defaults := config.Defaults()
	defaults.Home = cfg.Home
	if err := config.Save(defaults, path); err != nil {
		return err
	}
	return output.FormatSuccess(formatter.Writer(), "wrote "+path, formatter.Format())
}
