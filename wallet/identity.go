package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// Identity is the public wallet identity derived from a mnemonic phrase.
// One phrase always derives exactly one Identity.
type Identity struct {
	Address   string // 0x-prefixed EVM address
	PublicKey string // hex-encoded uncompressed secp256k1 public key
}

// bip44Path is the standard Ethereum derivation path m/44'/60'/0'/0/0.
var bip44Path = []uint32{
	bip32.FirstHardenedChild + 44,
	bip32.FirstHardenedChild + 60,
	bip32.FirstHardenedChild + 0,
	0,
	0,
}

// DeriveIdentity derives the wallet address and public key from a mnemonic
// phrase. Pure function: no state, no I/O beyond key math. The phrase is
// normalized before seeding, so case and whitespace variants of the same
// words always derive the same identity.
func DeriveIdentity(phrase string) (Identity, error) {
	phrase = normalizePhrase(phrase)
	if !bip39.IsMnemonicValid(phrase) {
		return Identity{}, fmt.Errorf("%w: checksum validation failed", ErrInvalidMnemonic)
	}
	seed := bip39.NewSeed(phrase, "")

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return Identity{}, fmt.Errorf("derive master key: %w", err)
	}
	for _, idx := range bip44Path {
		if key, err = key.NewChildKey(idx); err != nil {
			return Identity{}, fmt.Errorf("derive child key: %w", err)
		}
	}

	priv, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return Identity{}, fmt.Errorf("derive ecdsa key: %w", err)
	}

	return Identity{
		Address:   crypto.PubkeyToAddress(priv.PublicKey).Hex(),
		PublicKey: hex.EncodeToString(crypto.FromECDSAPub(&priv.PublicKey)),
	}, nil
}
