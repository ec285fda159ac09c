// ABOUTME: Key-value storage abstraction behind the session store.
// ABOUTME: Backends: in-memory (tests/multi-context), JSON file, SQLite.
package wallet

import "sync"

// Storage is simple key-value persistence with no multi-key transaction
// guarantee. Callers needing atomicity across keys must write in a fixed
// order and treat partial writes as recoverable.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Watcher is implemented by backends that can report key changes made by
// other contexts (other handles or other processes). A context's own writes
// are not delivered back to it. Delivery is soft-realtime: slow consumers
// may miss intermediate events but always converge by re-reading storage.
type Watcher interface {
	Watch() (events <-chan string, cancel func())
}

const watchBuffer = 32

// memoryCore is shared by all handles of one MemoryStorage.
type memoryCore struct {
	mu      sync.RWMutex
	data    map[string]string
	handles []*MemoryStorage
}

// MemoryStorage is an in-process backend. Context() creates sibling handles
// sharing the same data; a write through one handle notifies the watchers of
// every other handle, mirroring browser storage-event semantics across tabs.
type MemoryStorage struct {
	core *memoryCore

	mu       sync.Mutex
	watchers map[int]chan string
	nextID   int
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	core := &memoryCore{data: make(map[string]string)}
	h := &MemoryStorage{core: core, watchers: make(map[int]chan string)}
	core.handles = append(core.handles, h)
	return h
}

// Context returns a new handle over the same underlying data, usable as an
// independent storage context for cross-context consistency tests.
func (m *MemoryStorage) Context() *MemoryStorage {
	h := &MemoryStorage{core: m.core, watchers: make(map[int]chan string)}
	m.core.mu.Lock()
	m.core.handles = append(m.core.handles, h)
	m.core.mu.Unlock()
	return h
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.core.mu.RLock()
	defer m.core.mu.RUnlock()
	v, ok := m.core.data[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.core.mu.Lock()
	m.core.data[key] = value
	handles := append([]*MemoryStorage(nil), m.core.handles...)
	m.core.mu.Unlock()

	m.notifyOthers(handles, key)
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.core.mu.Lock()
	delete(m.core.data, key)
	handles := append([]*MemoryStorage(nil), m.core.handles...)
	m.core.mu.Unlock()

	m.notifyOthers(handles, key)
	return nil
}

func (m *MemoryStorage) Close() error { return nil }

// Watch returns a channel of keys changed by other handles.
func (m *MemoryStorage) Watch() (<-chan string, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	ch := make(chan string, watchBuffer)
	m.watchers[id] = ch
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.watchers[id]; ok {
			delete(m.watchers, id)
			close(c)
		}
	}
}

// notifyOthers delivers key to every handle except the writer.
func (m *MemoryStorage) notifyOthers(handles []*MemoryStorage, key string) {
	for _, h := range handles {
		if h == m {
			continue
		}
		h.mu.Lock()
		for _, ch := range h.watchers {
			select {
			case ch <- key:
			default: // slow consumer, it will converge on next read
			}
		}
		h.mu.Unlock()
	}
}
