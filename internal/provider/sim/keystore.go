package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrz1836/shade/internal/crypto"
	"github.com/mrz1836/shade/internal/fileutil"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

const (
	keystoreFilePermissions = 0o600
	keystoreDirPermissions  = 0o750
)

// keystoreFile is the plaintext keystore layout before age encryption.
type keystoreFile struct {
	Mnemonic  string    `json:"mnemonic"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateKeystore generates a wallet, encrypts it with the passphrase, and
// writes it atomically to path. Fails if a keystore already exists there.
func CreateKeystore(path, passphrase string) (*Wallet, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, shadeerr.WithDetails(shadeerr.ErrConfigInvalid, map[string]string{
			"keystore": path,
			"reason":   "keystore already exists",
		})
	}

	mnemonic, err := NewMnemonic()
	if err != nil {
		return nil, err
	}
	return writeKeystore(path, passphrase, mnemonic)
}

// ImportKeystore encrypts an existing mnemonic into a keystore at path.
func ImportKeystore(path, passphrase, mnemonic string) (*Wallet, error) {
	if _, err := DeriveWallet(mnemonic); err != nil {
		return nil, err
	}
	return writeKeystore(path, passphrase, mnemonic)
}

// LoadKeystore decrypts the keystore at path and derives its wallet.
func LoadKeystore(path, passphrase string) (*Wallet, error) {
	ciphertext, err := os.ReadFile(path) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shadeerr.WithDetails(shadeerr.ErrKeystoreNotFound, map[string]string{"keystore": path})
		}
		return nil, fmt.Errorf("reading keystore: %w", err)
	}

	plaintext, err := crypto.Decrypt(ciphertext, passphrase)
	if err != nil {
		return nil, shadeerr.WithDetails(shadeerr.ErrKeystoreDecryption, map[string]string{"keystore": path})
	}

	var file keystoreFile
	if err := json.Unmarshal(plaintext, &file); err != nil {
		return nil, shadeerr.WithDetails(shadeerr.ErrKeystoreDecryption, map[string]string{"keystore": path})
	}

	return DeriveWallet(file.Mnemonic)
}

func writeKeystore(path, passphrase, mnemonic string) (*Wallet, error) {
	wallet, err := DeriveWallet(mnemonic)
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(keystoreFile{Mnemonic: mnemonic, CreatedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("encoding keystore: %w", err)
	}

	ciphertext, err := crypto.Encrypt(plaintext, passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypting keystore: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), keystoreDirPermissions); err != nil {
		return nil, fmt.Errorf("creating keystore directory: %w", err)
	}
	if err := fileutil.WriteAtomic(path, ciphertext, keystoreFilePermissions); err != nil {
		return nil, fmt.Errorf("writing keystore: %w", err)
	}
	return wallet, nil
}
