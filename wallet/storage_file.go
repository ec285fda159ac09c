// ABOUTME: JSON-file storage backend with cross-process change notification.
// ABOUTME: Watches the file via fsnotify and emits keys whose values changed.
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const fileWatchDebounce = 100 * time.Millisecond

// FileStorage persists keys as a JSON object in a single file. Writes are
// atomic (temp file + rename). Other processes writing the same file are
// observed through fsnotify; a process's own writes produce no events for
// itself because the in-memory cache is updated before the file.
type FileStorage struct {
	path string

	mu    sync.Mutex
	cache map[string]string

	fw       *fsnotify.Watcher
	watchers map[int]chan string
	nextID   int
	done     chan struct{}
}

// OpenFileStorage opens or creates the JSON store at path and starts the
// file watcher.
func OpenFileStorage(path string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	s := &FileStorage{
		path:     path,
		cache:    make(map[string]string),
		watchers: make(map[int]chan string),
		done:     make(chan struct{}),
	}
	if err := s.loadLocked(); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: atomic renames replace the inode, so watching the
	// file itself would go stale after the first external write.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	s.fw = fw
	go s.watchLoop()
	return s, nil
}

func (s *FileStorage) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache[key]
	return v, ok, nil
}

func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = value
	return s.flushLocked()
}

func (s *FileStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, key)
	return s.flushLocked()
}

// Close stops the watcher and closes all watch channels.
func (s *FileStorage) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	err := s.fw.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
	return err
}

// Watch returns a channel of keys changed by other processes.
func (s *FileStorage) Watch() (<-chan string, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan string, watchBuffer)
	s.watchers[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(c)
		}
	}
}

func (s *FileStorage) loadLocked() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read storage: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.cache); err != nil {
		return fmt.Errorf("storage corrupted: %w", err)
	}
	return nil
}

func (s *FileStorage) flushLocked() error {
	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace storage: %w", err)
	}
	return nil
}

// watchLoop debounces fsnotify events for our file and re-reads it, emitting
// only keys whose values actually differ from the cache. The writer's own
// flush leaves cache and file identical, so self-writes emit nothing.
func (s *FileStorage) watchLoop() {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(fileWatchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			s.reloadAndNotify()
		case _, ok := <-s.fw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (s *FileStorage) reloadAndNotify() {
	s.mu.Lock()
	old := s.cache
	s.cache = make(map[string]string)
	if err := s.loadLocked(); err != nil {
		s.cache = old // keep the last good view on a torn read
		s.mu.Unlock()
		return
	}

	var changed []string
	for k, v := range s.cache {
		if ov, ok := old[k]; !ok || ov != v {
			changed = append(changed, k)
		}
	}
	for k := range old {
		if _, ok := s.cache[k]; !ok {
			changed = append(changed, k)
		}
	}

	chans := make([]chan string, 0, len(s.watchers))
	for _, ch := range s.watchers {
		chans = append(chans, ch)
	}
	s.mu.Unlock()

	for _, k := range changed {
		for _, ch := range chans {
			select {
			case ch <- k:
			default:
			}
		}
	}
}
