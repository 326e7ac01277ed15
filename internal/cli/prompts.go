package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// promptPassphrase prompts for a passphrase with hidden input.
func promptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	passphrase, err := term.ReadPassword(syscall.Stdin)
	fmt.Fprintln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(passphrase), nil
}

// promptNewPassphrase prompts for a new keystore passphrase with
// confirmation.
func promptNewPassphrase() (string, error) {
	passphrase, err := promptPassphrase("Enter keystore passphrase: ")
	if err != nil {
		return "", err
	}

	if len(passphrase) < 8 {
		return "", shadeerr.WithSuggestion(
			shadeerr.ErrInvalidParameters,
			"passphrase must be at least 8 characters",
		)
	}

	confirm, err := promptPassphrase("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if passphrase != confirm {
		return "", shadeerr.WithSuggestion(
			shadeerr.ErrInvalidParameters,
			"passphrases do not match",
		)
	}
	return passphrase, nil
}

// promptMnemonic prompts for a multi-word recovery phrase on one line.
func promptMnemonic() (string, error) {
	fmt.Fprintln(os.Stderr, "Enter your recovery phrase (all words on one line):")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", shadeerr.WithSuggestion(shadeerr.ErrInvalidMnemonic, "no input provided")
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		return "", shadeerr.WithSuggestion(shadeerr.ErrInvalidMnemonic, "no input provided")
	}
	return strings.Join(words, " "), nil
}

// promptApproval asks the user to approve a wallet action. Declining is an
// answer, not an error.
func promptApproval(action, detail string) (bool, error) {
	fmt.Fprintf(os.Stderr, "\n%s request: %s\nApprove? [y/N]: ", action, detail)

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false, nil
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
