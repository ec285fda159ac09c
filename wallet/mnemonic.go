// ABOUTME: Provides BIP39 mnemonic phrase generation and import for wallet recovery.
// ABOUTME: Users store the 12-word phrase for cross-device wallet restoration.
package wallet

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// MnemonicWordCount is the fixed phrase length for generated wallets.
const MnemonicWordCount = 12

// NewMnemonic generates a new 12-word BIP39 mnemonic and derives the wallet
// identity. The phrase should be displayed once to the user for backup.
func NewMnemonic() (Identity, string, error) {
	entropy, err := bip39.NewEntropy(128) // 128 bits = 12 words
	if err != nil {
		return Identity{}, "", err
	}

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return Identity{}, "", err
	}

	id, err := DeriveIdentity(phrase)
	if err != nil {
		return Identity{}, "", err
	}
	return id, phrase, nil
}

// ImportMnemonic validates a user-supplied 12-word phrase and derives the
// wallet identity. Words are trimmed and lowercased before checksum
// validation; a phrase with the right word count but a bad checksum is
// rejected, never silently accepted.
func ImportMnemonic(words []string) (Identity, string, error) {
	if len(words) != MnemonicWordCount {
		return Identity{}, "", fmt.Errorf("%w: expected %d words, got %d", ErrInvalidMnemonic, MnemonicWordCount, len(words))
	}

	normalized := make([]string, len(words))
	for i, w := range words {
		normalized[i] = strings.ToLower(strings.TrimSpace(w))
	}
	phrase := strings.Join(normalized, " ")

	if !bip39.IsMnemonicValid(phrase) {
		return Identity{}, "", fmt.Errorf("%w: checksum validation failed", ErrInvalidMnemonic)
	}

	id, err := DeriveIdentity(phrase)
	if err != nil {
		return Identity{}, "", err
	}
	return id, phrase, nil
}

// ValidateMnemonic reports whether the phrase passes BIP39 checksum rules.
// Used for form-level feedback before committing to an import.
func ValidateMnemonic(phrase string) bool {
	return bip39.IsMnemonicValid(normalizePhrase(phrase))
}

// SplitMnemonic splits a phrase into its words, dropping empty tokens.
func SplitMnemonic(phrase string) []string {
	return strings.Fields(phrase)
}

// JoinMnemonic joins words into a single-space-separated phrase.
func JoinMnemonic(words []string) string {
	return strings.TrimSpace(strings.Join(words, " "))
}

// AutoArrange splits pasted text into exactly 12 words for a 12-box import
// form. Returns nil unless the text splits into exactly 12 whitespace
// delimited tokens; callers must treat nil as "not auto-fillable".
func AutoArrange(pasted string) []string {
	words := SplitMnemonic(pasted)
	if len(words) != MnemonicWordCount {
		return nil
	}
	return words
}

func normalizePhrase(phrase string) string {
	return strings.ToLower(strings.Join(strings.Fields(phrase), " "))
}
