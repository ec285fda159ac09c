// ABOUTME: Typed errors for wallet session and storage operations.
// ABOUTME: Enables programmatic error handling with errors.Is() and errors.As().
package wallet

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic handling.
var (
	ErrInvalidMnemonic    = errors.New("invalid mnemonic")
	ErrDecodeFailed       = errors.New("decode failed")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrNotConfigured      = errors.New("not configured")
	ErrClosed             = errors.New("store closed")
)

// OpError wraps errors with operation context. Error strings must never
// include mnemonic words or key material.
type OpError struct {
	Op      string // "connect", "disconnect", "reveal", "balance", ...
	Err     error  // underlying typed error
	Retries int    // attempts made, if retried
}

func (e *OpError) Error() string {
	if e.Retries > 1 {
		return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Retries, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// DecodeError provides context when a stored blob cannot be decoded.
// Wrong-key decodes do not produce this error: the XOR codec has no
// integrity check, so a wrong key silently yields garbage.
type DecodeError struct {
	Key   string // storage key holding the blob, not the passphrase
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failed for %s: %v", e.Key, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecodeFailed
}
