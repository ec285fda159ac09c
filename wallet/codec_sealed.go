package wallet

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// sealedPrefix versions authenticated blobs so they are distinguishable from
// legacy XOR blobs. Format: sealed:v1:<nonce-b64>:<ct-b64>
const sealedPrefix = "sealed:v1:"

const sealedSalt = "walletkit:v1:argon2id"

// SealedCodec is the authenticated alternative to XORCodec: argon2id key
// derivation, HKDF subkey expansion, XChaCha20-Poly1305 sealing. Tampering
// and wrong passphrases are detected at decode time.
type SealedCodec struct{}

// Encode seals plain under a key derived from the passphrase.
func (SealedCodec) Encode(plain, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty codec key", ErrNotConfigured)
	}
	encKey, err := sealKey(key)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(encKey[:])
	if err != nil {
		return "", err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ct := aead.Seal(nil, nonce, []byte(plain), nil)
	return sealedPrefix +
		base64.StdEncoding.EncodeToString(nonce) + ":" +
		base64.StdEncoding.EncodeToString(ct), nil
}

// Decode reverses Encode, failing on malformed framing, tampering, or a
// wrong passphrase.
func (SealedCodec) Decode(blob, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty codec key", ErrNotConfigured)
	}
	rest, ok := strings.CutPrefix(blob, sealedPrefix)
	if !ok {
		return "", fmt.Errorf("%w: missing sealed framing", ErrDecodeFailed)
	}
	nonceB64, ctB64, ok := strings.Cut(rest, ":")
	if !ok {
		return "", fmt.Errorf("%w: malformed sealed blob", ErrDecodeFailed)
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if len(nonce) != chacha20poly1305.NonceSizeX {
		return "", fmt.Errorf("%w: invalid nonce size", ErrDecodeFailed)
	}
	ct, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	encKey, err := sealKey(key)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(encKey[:])
	if err != nil {
		return "", err
	}
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return string(plain), nil
}

// sealKey expands a passphrase into the 32-byte sealing key.
func sealKey(passphrase string) ([32]byte, error) {
	var out [32]byte

	mk := argon2.IDKey([]byte(passphrase), []byte(sealedSalt), 2, 64*1024, 1, 32)

	kdf := hkdf.New(sha256.New, mk, nil, []byte("walletkit:v1:enc"))
	if _, err := io.ReadFull(kdf, out[:]); err != nil {
		return [32]byte{}, err
	}

	for i := range mk {
		mk[i] = 0
	}
	return out, nil
}
