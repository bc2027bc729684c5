package catalog

import (
	"sync"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

// Store holds loaded catalog snapshots keyed by content hash, bounded by an
// LRU policy. Snapshots are immutable, so concurrent readers share them
// freely; entries from different datasets are never merged. Re-submitting
// identical content lands on the existing entry.
type Store struct {
	maxEntries int

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key     string
	catalog *domain.Catalog
	prev    *entry
	next    *entry
}

// NewStore creates a snapshot store holding at most maxEntries catalogs.
func NewStore(maxEntries int) *Store {
	return &Store{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// Put stores a snapshot and returns its dataset id (the content hash).
func (s *Store) Put(c *domain.Catalog) string {
	key := c.Hash()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.catalog = c
		s.moveToFront(e)
		return key
	}

	e := &entry{key: key, catalog: c}
	s.entries[key] = e
	s.addToFront(e)

	if len(s.entries) > s.maxEntries {
		s.evictTail()
	}
	return key
}

// Get returns the snapshot for a dataset id, marking it recently used.
func (s *Store) Get(id string) (*domain.Catalog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	s.moveToFront(e)
	return e.catalog, true
}

// Len returns the number of stored snapshots.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) moveToFront(e *entry) {
	if e == s.head {
		return
	}
	s.remove(e)
	s.addToFront(e)
}

func (s *Store) addToFront(e *entry) {
	e.next = s.head
	e.prev = nil
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *Store) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
}

func (s *Store) evictTail() {
	if s.tail == nil {
		return
	}
	delete(s.entries, s.tail.key)
	s.remove(s.tail)
}
