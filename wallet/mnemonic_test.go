// ABOUTME: Tests for mnemonic generation, import normalization, and auto-arrange.
// ABOUTME: Verifies 12-word format, checksum rejection, and wordlist membership.
package wallet

import (
	"strings"
	"testing"

	"github.com/tyler-smith/go-bip39"
)

func TestNewMnemonic(t *testing.T) {
	id, phrase, err := NewMnemonic()
	if err != nil {
		t.Fatalf("NewMnemonic failed: %v", err)
	}

	words := strings.Fields(phrase)
	if len(words) != 12 {
		t.Errorf("expected 12 words, got %d", len(words))
	}

	wordlist := make(map[string]bool)
	for _, w := range bip39.GetWordList() {
		wordlist[w] = true
	}
	for _, w := range words {
		if !wordlist[w] {
			t.Errorf("word %q not in BIP39 wordlist", w)
		}
	}

	if !strings.HasPrefix(id.Address, "0x") || len(id.Address) != 42 {
		t.Errorf("unexpected address format: %q", id.Address)
	}
}

func TestImportMnemonicRoundTrip(t *testing.T) {
	id, phrase, err := NewMnemonic()
	if err != nil {
		t.Fatalf("NewMnemonic failed: %v", err)
	}

	imported, importedPhrase, err := ImportMnemonic(strings.Fields(phrase))
	if err != nil {
		t.Fatalf("ImportMnemonic failed: %v", err)
	}
	if importedPhrase != phrase {
		t.Errorf("phrase changed on import: %q vs %q", importedPhrase, phrase)
	}
	if imported.Address != id.Address {
		t.Errorf("address mismatch: %q vs %q", imported.Address, id.Address)
	}
}

func TestImportMnemonicNormalizes(t *testing.T) {
	_, phrase, err := NewMnemonic()
	if err != nil {
		t.Fatalf("NewMnemonic failed: %v", err)
	}

	words := strings.Fields(phrase)
	messy := make([]string, len(words))
	for i, w := range words {
		messy[i] = "  " + strings.ToUpper(w) + "\t"
	}

	_, importedPhrase, err := ImportMnemonic(messy)
	if err != nil {
		t.Fatalf("import of messy words failed: %v", err)
	}
	if importedPhrase != phrase {
		t.Errorf("normalization lost: %q vs %q", importedPhrase, phrase)
	}
}

func TestImportMnemonicWordCount(t *testing.T) {
	_, phrase, err := NewMnemonic()
	if err != nil {
		t.Fatalf("NewMnemonic failed: %v", err)
	}

	words := strings.Fields(phrase)[:11]
	if _, _, err := ImportMnemonic(words); err == nil {
		t.Fatal("expected error for 11 words")
	} else if !strings.Contains(err.Error(), "11") {
		t.Errorf("error should mention word count: %v", err)
	}
}

func TestImportMnemonicBadChecksum(t *testing.T) {
	// Right word count, all wordlist words, invalid checksum.
	words := strings.Fields("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon")
	if _, _, err := ImportMnemonic(words); err == nil {
		t.Fatal("expected checksum error")
	}
}

func TestValidateMnemonic(t *testing.T) {
	_, phrase, err := NewMnemonic()
	if err != nil {
		t.Fatalf("NewMnemonic failed: %v", err)
	}
	if !ValidateMnemonic(phrase) {
		t.Error("generated phrase should validate")
	}
	if !ValidateMnemonic("  " + strings.ToUpper(phrase) + " ") {
		t.Error("validation should normalize case and whitespace")
	}
	if ValidateMnemonic("definitely not a mnemonic") {
		t.Error("garbage should not validate")
	}
}

func TestAutoArrange(t *testing.T) {
	_, phrase, err := NewMnemonic()
	if err != nil {
		t.Fatalf("NewMnemonic failed: %v", err)
	}

	words := AutoArrange(" " + strings.ReplaceAll(phrase, " ", "\n") + " ")
	if len(words) != 12 {
		t.Fatalf("expected 12 words, got %d", len(words))
	}
	for i, w := range strings.Fields(phrase) {
		if words[i] != w {
			t.Errorf("word %d: got %q want %q", i, words[i], w)
		}
	}

	if got := AutoArrange("only three words"); got != nil {
		t.Errorf("expected nil for 3 tokens, got %v", got)
	}
	if got := AutoArrange(phrase + " extra"); got != nil {
		t.Errorf("expected nil for 13 tokens, got %v", got)
	}
	if got := AutoArrange(""); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}
