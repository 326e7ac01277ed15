package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/shade/internal/config"
	"github.com/mrz1836/shade/internal/output"
	"github.com/mrz1836/shade/internal/provider/sim"
)

// keystoreCmd is the parent command for simulated-wallet keystore
// operations. The bridge provider keeps keys inside the wallet itself and
// never touches these files.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "Manage the simulated wallet keystore",
	Long: `Create or import the encrypted keystore used by the simulated
wallet provider. The keystore holds a BIP39 recovery phrase encrypted with a
passphrase; keys are derived from it on load and never written to disk.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keystoreCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a new keystore with a fresh recovery phrase",
	Example: `  shade keystore create`,
	RunE:    runKeystoreCreate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keystoreImportCmd = &cobra.Command{
	Use:     "import",
	Short:   "Import an existing recovery phrase into a keystore",
	Example: `  shade keystore import`,
	RunE:    runKeystoreImport,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keystoreShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show the addresses derived from the keystore",
	Example: `  shade keystore show`,
	RunE:    runKeystoreShow,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	keystoreCmd.AddCommand(keystoreCreateCmd)
	keystoreCmd.AddCommand(keystoreImportCmd)
	keystoreCmd.AddCommand(keystoreShowCmd)
	rootCmd.AddCommand(keystoreCmd)
}

// keystoreView is the display projection of a derived wallet.
type keystoreView struct {
	Keystore        string `json:"keystore"`
	Address         string `json:"address"`
	ShieldedAddress string `json:"shielded_address"`
}

func runKeystoreCreate(_ *cobra.Command, _ []string) error {
	path := config.ExpandHome(cfg.Provider.Keystore)

	passphrase, err := promptNewPassphrase()
	if err != nil {
		return err
	}

	wallet, err := sim.CreateKeystore(path, passphrase)
	if err != nil {
		return err
	}

	output.Warn("Back up the keystore file; the recovery phrase cannot be re-displayed.")
	return renderKeystore(keystoreView{
		Keystore:        path,
		Address:         wallet.Address,
		ShieldedAddress: wallet.ShieldedAddress,
	})
}

func runKeystoreImport(_ *cobra.Command, _ []string) error {
	path := config.ExpandHome(cfg.Provider.Keystore)

	mnemonic, err := promptMnemonic()
	if err != nil {
		return err
	}
	passphrase, err := promptNewPassphrase()
	if err != nil {
		return err
	}

	wallet, err := sim.ImportKeystore(path, passphrase, mnemonic)
	if err != nil {
		return err
	}

	return renderKeystore(keystoreView{
		Keystore:        path,
		Address:         wallet.Address,
		ShieldedAddress: wallet.ShieldedAddress,
	})
}

func runKeystoreShow(_ *cobra.Command, _ []string) error {
	path := config.ExpandHome(cfg.Provider.Keystore)

	passphrase, err := promptPassphrase("Keystore passphrase: ")
	if err != nil {
		return err
	}

	wallet, err := sim.LoadKeystore(path, passphrase)
	if err != nil {
		return err
	}

	return renderKeystore(keystoreView{
		Keystore:        path,
		Address:         wallet.Address,
		ShieldedAddress: wallet.ShieldedAddress,
	})
}

func renderKeystore(v keystoreView) error {
	if formatter.IsJSON() {
		return formatter.Print(v)
	}

	table := output.NewTable("FIELD", "VALUE")
	table.AddRow("keystore", v.Keystore)
	table.AddRow("address", v.Address)
	table.AddRow("shielded address", v.ShieldedAddress)
	return table.Render(formatter.Writer())
}
