package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Catalog is an immutable, ordered collection of seismic events sharing one
// content hash. All analytics and factor derivation are pure reads over it;
// nothing mutates a catalog after construction.
type Catalog struct {
	events []SeismicEvent
	hash   string
}

// NewCatalog builds a catalog from parsed events. The slice is copied so the
// caller cannot alias the catalog's backing storage.
func NewCatalog(events []SeismicEvent) *Catalog {
	copied := make([]SeismicEvent, len(events))
	copy(copied, events)
	return &Catalog{
		events: copied,
		hash:   hashEvents(copied),
	}
}

// Events returns the catalog's events in load order. Callers must treat the
// returned slice as read-only.
func (c *Catalog) Events() []SeismicEvent {
	return c.events
}

// Len returns the number of events in the catalog.
func (c *Catalog) Len() int {
	return len(c.events)
}

// Hash returns the catalog's content hash. Two catalogs built from the same
// rows in the same order share a hash, which makes it usable as a cache key
// for dataset snapshots.
func (c *Catalog) Hash() string {
	return c.hash
}

// Newest returns the time of the most recent event, or the zero time for an
// empty catalog.
func (c *Catalog) Newest() time.Time {
	var newest time.Time
	for i := range c.events {
		if c.events[i].Time.After(newest) {
			newest = c.events[i].Time
		}
	}
	return newest
}

// hashEvents folds the identifying fields of every event into one SHA-256.
// Event IDs are already deterministic digests of the raw row, so hashing the
// ID sequence is equivalent to hashing the canonical row content.
func hashEvents(events []SeismicEvent) string {
	h := sha256.New()
	for i := range events {
		fmt.Fprintf(h, "%s\n", events[i].ID)
	}
	return hex.EncodeToString(h.Sum(nil))
}
