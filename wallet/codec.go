package wallet

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DefaultPassphrase is the obfuscation key used for stored mnemonic blobs.
// A constant passphrase provides no real confidentiality; it only keeps the
// phrase out of plaintext storage. Callers wanting actual protection should
// pass a user-supplied passphrase and use SealedCodec.
const DefaultPassphrase = "demos-wallet"

// Codec reversibly transforms a mnemonic phrase for at-rest storage.
// Implementations must satisfy Decode(Encode(p, k), k) == p byte for byte.
type Codec interface {
	Encode(plain, key string) (string, error)
	Decode(blob, key string) (string, error)
}

// XORCodec is the legacy obfuscation scheme: each byte XORed with the key
// stream, base64 framed. It is NOT encryption. There is no integrity check:
// decoding with the wrong key silently returns garbage rather than failing.
// Kept wire-compatible with existing stored blobs.
type XORCodec struct{}

// Encode XORs plain with the repeating key and base64-encodes the result.
func (XORCodec) Encode(plain, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty codec key", ErrNotConfigured)
	}
	return base64.StdEncoding.EncodeToString(xorBytes([]byte(plain), key)), nil
}

// Decode reverses Encode. Fails only on malformed base64; a wrong key is
// undetectable here.
func (XORCodec) Decode(blob, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty codec key", ErrNotConfigured)
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return string(xorBytes(raw, key)), nil
}

func xorBytes(data []byte, key string) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}

// DetectCodec picks the codec that produced a stored blob. Sealed blobs carry
// the sealedPrefix; everything else is treated as a legacy XOR blob.
func DetectCodec(blob string) Codec {
	if strings.HasPrefix(blob, sealedPrefix) {
		return SealedCodec{}
	}
	return XORCodec{}
}
