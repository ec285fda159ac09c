// ABOUTME: SessionStore is the single source of truth for wallet connection state.
// ABOUTME: Persists to Storage and stays consistent across contexts via key watching.
package wallet

import (
	"fmt"
	"sync"
)

// Storage keys. Stable across restarts; the blob under keyWalletData is
// codec output, never a plaintext phrase.
const (
	keyWalletAddress = "demos_wallet_address"
	keyWalletData    = "demos_wallet_data"
	keyWalletFlag    = "demos_wallet_connected"
	keyDemosAddress  = "demos_address"
)

// SessionRecord is the observable connection state. Empty strings stand in
// for "null": Connected == false implies both addresses are empty.
type SessionRecord struct {
	Connected    bool
	Address      string
	DemosAddress string
}

// HasConnectedAccounts reports whether any identity is active.
func (r SessionRecord) HasConnectedAccounts() bool {
	return r.Connected || r.DemosAddress != ""
}

// SessionStore tracks connection state, persists it, and notifies local
// subscribers plus (via the backend's watcher) other storage contexts.
//
// Two states only: Disconnected <-> Connected. Async work such as mnemonic
// generation happens before Connect is called, never as a session state.
type SessionStore struct {
	storage    Storage
	codec      Codec
	passphrase string

	mu     sync.RWMutex
	rec    SessionRecord
	subs   map[int]func(SessionRecord)
	nextID int
	closed bool

	cancelWatch func()
	watchDone   chan struct{}
}

// NewSessionStore hydrates state from storage and, when the backend supports
// watching, begins tracking changes made by other contexts. A nil codec
// defaults to the legacy XORCodec with DefaultPassphrase.
func NewSessionStore(storage Storage, codec Codec, passphrase string) (*SessionStore, error) {
	if codec == nil {
		codec = XORCodec{}
	}
	if passphrase == "" {
		passphrase = DefaultPassphrase
	}

	s := &SessionStore{
		storage:    storage,
		codec:      codec,
		passphrase: passphrase,
		subs:       make(map[int]func(SessionRecord)),
	}

	rec, err := s.readRecord()
	if err != nil {
		return nil, err
	}
	s.rec = rec

	if w, ok := storage.(Watcher); ok {
		events, cancel := w.Watch()
		s.cancelWatch = cancel
		s.watchDone = make(chan struct{})
		go s.watchLoop(events)
	}
	return s, nil
}

// Connect stores the encoded phrase and address, flips the connected flag,
// and notifies subscribers. Write order puts the flag last so a partial
// write is always re-read as disconnected.
func (s *SessionStore) Connect(address, demosAddress, phrase string) error {
	if address == "" {
		return &OpError{Op: "connect", Err: fmt.Errorf("empty address")}
	}
	blob, err := s.codec.Encode(phrase, s.passphrase)
	if err != nil {
		return &OpError{Op: "connect", Err: err}
	}

	if err := s.storage.Set(keyWalletAddress, address); err != nil {
		return &OpError{Op: "connect", Err: err}
	}
	if err := s.storage.Set(keyWalletData, blob); err != nil {
		return &OpError{Op: "connect", Err: err}
	}
	if demosAddress != "" {
		if err := s.storage.Set(keyDemosAddress, demosAddress); err != nil {
			return &OpError{Op: "connect", Err: err}
		}
	} else {
		// A previous session's demos address must not survive into this
		// one; a reload would resurrect it.
		if err := s.storage.Delete(keyDemosAddress); err != nil {
			return &OpError{Op: "connect", Err: err}
		}
	}
	if err := s.storage.Set(keyWalletFlag, "true"); err != nil {
		return &OpError{Op: "connect", Err: err}
	}

	s.setRecord(SessionRecord{Connected: true, Address: address, DemosAddress: demosAddress})
	return nil
}

// Disconnect clears all session keys and notifies subscribers. The flag is
// cleared first so a partial clear still reads as disconnected.
func (s *SessionStore) Disconnect() error {
	for _, key := range []string{keyWalletFlag, keyWalletAddress, keyWalletData, keyDemosAddress} {
		if err := s.storage.Delete(key); err != nil {
			return &OpError{Op: "disconnect", Err: err}
		}
	}
	s.setRecord(SessionRecord{})
	return nil
}

// Current returns the cached session record. Reads always reflect the most
// recent local write; cross-context changes arrive via the watcher.
func (s *SessionStore) Current() SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec
}

// RevealMnemonic decodes the stored phrase blob. ErrDecodeFailed means the
// blob is malformed ("seed phrase unavailable"); re-import recovers.
func (s *SessionStore) RevealMnemonic() (string, error) {
	blob, ok, err := s.storage.Get(keyWalletData)
	if err != nil {
		return "", &OpError{Op: "reveal", Err: err}
	}
	if !ok || blob == "" {
		return "", &DecodeError{Key: keyWalletData, Cause: fmt.Errorf("no stored phrase")}
	}
	phrase, err := DetectCodec(blob).Decode(blob, s.passphrase)
	if err != nil {
		return "", &DecodeError{Key: keyWalletData, Cause: err}
	}
	return phrase, nil
}

// Subscribe registers fn for session changes; the returned func cancels.
// fn runs on the mutating goroutine and must not block.
func (s *SessionStore) Subscribe(fn func(SessionRecord)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Close stops the cross-context watcher. The record remains readable.
func (s *SessionStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.cancelWatch != nil {
		s.cancelWatch()
		<-s.watchDone
	}
	return nil
}

// readRecord assembles a record from the individual keys, repairing partial
// writes: an address without the flag, or the flag without an address, both
// read as disconnected.
func (s *SessionStore) readRecord() (SessionRecord, error) {
	addr, _, err := s.storage.Get(keyWalletAddress)
	if err != nil {
		return SessionRecord{}, err
	}
	flag, _, err := s.storage.Get(keyWalletFlag)
	if err != nil {
		return SessionRecord{}, err
	}
	demosAddr, _, err := s.storage.Get(keyDemosAddress)
	if err != nil {
		return SessionRecord{}, err
	}

	if flag != "true" || addr == "" {
		return SessionRecord{}, nil
	}
	return SessionRecord{Connected: true, Address: addr, DemosAddress: demosAddr}, nil
}

func (s *SessionStore) setRecord(rec SessionRecord) {
	s.mu.Lock()
	s.rec = rec
	fns := make([]func(SessionRecord), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(rec)
	}
}

func (s *SessionStore) watchLoop(events <-chan string) {
	defer close(s.watchDone)
	for key := range events {
		switch key {
		case keyWalletAddress, keyWalletData, keyWalletFlag, keyDemosAddress:
		default:
			continue
		}
		rec, err := s.readRecord()
		if err != nil {
			continue // transient read failure; next event converges
		}
		s.mu.RLock()
		same := rec == s.rec
		s.mu.RUnlock()
		if !same {
			s.setRecord(rec)
		}
	}
}
