// Package sim implements an in-process simulated wallet provider bound to
// a simulated ledger node. Keys are BIP39/BIP32-derived and persisted in an
// age-encrypted keystore; approvals follow a configurable policy instead of
// a wallet UI. Signatures are structural only, no circuit proofs.
package sim

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"

	"github.com/mrz1836/shade/internal/provider"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// Derivation indexes under m/44'/2400'/0': one branch for the public coin
// key, one for the shielded key.
const (
	purposeIndex   = bip32.FirstHardenedChild + 44
	coinTypeIndex  = bip32.FirstHardenedChild + 2400
	accountIndex   = bip32.FirstHardenedChild
	coinBranch     = 0
	shieldedBranch = 1
)

// Address prefixes for the two key roles.
const (
	coinAddressPrefix     = "mn1q"
	shieldedAddressPrefix = "mn1s"
)

// Wallet holds the derived key material for the simulated wallet.
type Wallet struct {
	mnemonic    string
	coinKey     *bip32.Key
	shieldedKey *bip32.Key

	Address         string
	ShieldedAddress string
}

// NewMnemonic generates a fresh 12-word mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", fmt.Errorf("generating entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("building mnemonic: %w", err)
	}
	return mnemonic, nil
}

// DeriveWallet derives the coin and shielded keys from a mnemonic.
func DeriveWallet(mnemonic string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, shadeerr.ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}

	account, err := deriveAccount(master)
	if err != nil {
		return nil, err
	}

	coinKey, err := account.NewChildKey(coinBranch)
	if err != nil {
		return nil, fmt.Errorf("deriving coin key: %w", err)
	}
	shieldedKey, err := account.NewChildKey(shieldedBranch)
	if err != nil {
		return nil, fmt.Errorf("deriving shielded key: %w", err)
	}

	return &Wallet{
		mnemonic:        mnemonic,
		coinKey:         coinKey,
		shieldedKey:     shieldedKey,
		Address:         keyAddress(coinAddressPrefix, coinKey),
		ShieldedAddress: keyAddress(shieldedAddressPrefix, shieldedKey),
	}, nil
}

// deriveAccount walks m/44'/2400'/0'.
func deriveAccount(master *bip32.Key) (*bip32.Key, error) {
	purpose, err := master.NewChildKey(purposeIndex)
	if err != nil {
		return nil, fmt.Errorf("deriving purpose: %w", err)
	}
	coinType, err := purpose.NewChildKey(coinTypeIndex)
	if err != nil {
		return nil, fmt.Errorf("deriving coin type: %w", err)
	}
	account, err := coinType.NewChildKey(accountIndex)
	if err != nil {
		return nil, fmt.Errorf("deriving account: %w", err)
	}
	return account, nil
}

// keyAddress derives a bech32-style address from a key's public half:
// prefix plus the first 20 bytes of the BLAKE2b-256 public key digest.
func keyAddress(prefix string, key *bip32.Key) string {
	sum := blake2b.Sum256(key.PublicKey().Key)
	return prefix + hex.EncodeToString(sum[:20])
}

// Sign produces a deterministic structural signature over an intent with
// the shielded key. It binds the signer to the payload without modeling
// real proof generation.
func (w *Wallet) Sign(intent provider.TxIntent) (string, error) {
	payload, err := json.Marshal(intent)
	if err != nil {
		return "", fmt.Errorf("encoding intent: %w", err)
	}

	mac, err := blake2b.New256(w.shieldedKey.Key)
	if err != nil {
		return "", fmt.Errorf("keying signature: %w", err)
	}
	mac.Write(payload)
	return "sim:" + hex.EncodeToString(mac.Sum(nil)), nil
}
