// Package cache stores analysis results keyed by source hash, so
// unchanged cells skip re-parsing between runs. Entries are bounded by
// an LRU policy and persist to disk as msgpack.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// Result is one cell's analysis outcome: the names it reads and writes.
type Result struct {
	Reads  []string `msgpack:"reads"`
	Writes []string `msgpack:"writes"`
}

// entry pairs a result with its key and access time for persistence.
type entry struct {
	Key        string    `msgpack:"key"`
	Result     Result    `msgpack:"result"`
	AccessedAt time.Time `msgpack:"accessed_at"`
}

// Store is an in-memory LRU store of analysis results with optional
// disk persistence.
type Store struct {
	mu         sync.RWMutex
	items      map[string]*list.Element // values are *entry
	lru        *list.List               // most recent at front
	maxEntries int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries bounds the store to n entries; 0 means unlimited.
func WithMaxEntries(n int) Option {
	return func(s *Store) { s.maxEntries = n }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		items: make(map[string]*list.Element),
		lru:   list.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key derives the cache key for a cell source.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Get retrieves the result for key, marking it recently used.
func (s *Store) Get(key string) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, found := s.items[key]
	if !found {
		return Result{}, false
	}

	e := elem.Value.(*entry)
	e.AccessedAt = time.Now()
	s.lru.MoveToFront(elem)
	return e.Result, true
}

// Put stores the result for key, evicting the least recently used
// entries when the store is over capacity.
func (s *Store) Put(key string, r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, exists := s.items[key]; exists {
		e := elem.Value.(*entry)
		e.Result = r
		e.AccessedAt = time.Now()
		s.lru.MoveToFront(elem)
		return
	}

	elem := s.lru.PushFront(&entry{Key: key, Result: r, AccessedAt: time.Now()})
	s.items[key] = elem
	s.evictIfNeeded()
}

// Delete removes a key from the store.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, found := s.items[key]; found {
		s.lru.Remove(elem)
		delete(s.items, key)
	}
}

// Len returns the number of entries in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) evictIfNeeded() {
	if s.maxEntries <= 0 {
		return
	}
	for s.lru.Len() > s.maxEntries {
		back := s.lru.Back()
		if back == nil {
			break
		}
		s.lru.Remove(back)
		delete(s.items, back.Value.(*entry).Key)
	}
}

// Save persists the store to a writer using msgpack, most recent first.
func (s *Store) Save(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]entry, 0, s.lru.Len())
	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		entries = append(entries, *elem.Value.(*entry))
	}

	return msgpack.NewEncoder(w).Encode(entries)
}

// Load replaces the store contents from a reader.
func (s *Store) Load(r io.Reader) error {
	var entries []entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*list.Element, len(entries))
	s.lru = list.New()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		s.items[e.Key] = s.lru.PushFront(&e)
	}
	s.evictIfNeeded()

	return nil
}

// SaveFile persists the store to path, creating parent directories.
func (s *Store) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()
	return s.Save(f)
}

// LoadFile restores the store from path. A missing file leaves the
// store empty without error.
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()
	return s.Load(f)
}
