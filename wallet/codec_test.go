// ABOUTME: Tests for the XOR obfuscation codec and the sealed AEAD codec.
// ABOUTME: Covers the round-trip law, wrong-key behavior, and blob detection.
package wallet

import (
	"errors"
	"testing"
)

func TestXORCodecRoundTrip(t *testing.T) {
	phrases := []string{
		testPhrase,
		"legal winner thank year wave sausage worth useful legal winner thank yellow",
		"",
		"short",
	}
	keys := []string{DefaultPassphrase, "a", "another-key-longer-than-the-phrase-itself"}

	var c XORCodec
	for _, p := range phrases {
		for _, k := range keys {
			blob, err := c.Encode(p, k)
			if err != nil {
				t.Fatalf("encode(%q, %q): %v", p, k, err)
			}
			got, err := c.Decode(blob, k)
			if err != nil {
				t.Fatalf("decode(%q, %q): %v", blob, k, err)
			}
			if got != p {
				t.Errorf("round trip with key %q: got %q want %q", k, got, p)
			}
		}
	}
}

func TestXORCodecWrongKeySilentGarbage(t *testing.T) {
	var c XORCodec
	blob, err := c.Encode(testPhrase, "key-one")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Wrong key must NOT error: the scheme has no integrity check. It just
	// returns a different string.
	got, err := c.Decode(blob, "key-two")
	if err != nil {
		t.Fatalf("wrong-key decode should not error, got %v", err)
	}
	if got == testPhrase {
		t.Error("wrong key round-tripped to the original phrase")
	}
}

func TestXORCodecMalformedBase64(t *testing.T) {
	var c XORCodec
	if _, err := c.Decode("not valid base64!!!", DefaultPassphrase); !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("expected ErrDecodeFailed, got %v", err)
	}
}

func TestXORCodecEmptyKey(t *testing.T) {
	var c XORCodec
	if _, err := c.Encode("x", ""); err == nil {
		t.Error("expected error for empty key on encode")
	}
	if _, err := c.Decode("eA==", ""); err == nil {
		t.Error("expected error for empty key on decode")
	}
}

func TestSealedCodecRoundTrip(t *testing.T) {
	var c SealedCodec
	blob, err := c.Encode(testPhrase, "user passphrase")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(blob, "user passphrase")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != testPhrase {
		t.Errorf("round trip: got %q", got)
	}
}

func TestSealedCodecWrongKeyFails(t *testing.T) {
	var c SealedCodec
	blob, err := c.Encode(testPhrase, "right")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := c.Decode(blob, "wrong"); !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("expected ErrDecodeFailed for wrong key, got %v", err)
	}
}

func TestSealedCodecTamperDetected(t *testing.T) {
	var c SealedCodec
	blob, err := c.Encode(testPhrase, "k")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tampered := blob[:len(blob)-2] + "A="
	if _, err := c.Decode(tampered, "k"); err == nil {
		t.Error("tampered blob decoded without error")
	}
}

func TestDetectCodec(t *testing.T) {
	xorBlob, err := XORCodec{}.Encode(testPhrase, DefaultPassphrase)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	sealedBlob, err := SealedCodec{}.Encode(testPhrase, "k")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if _, ok := DetectCodec(xorBlob).(XORCodec); !ok {
		t.Error("legacy blob should detect as XORCodec")
	}
	if _, ok := DetectCodec(sealedBlob).(SealedCodec); !ok {
		t.Error("sealed blob should detect as SealedCodec")
	}
}
