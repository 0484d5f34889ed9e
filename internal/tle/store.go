package tle

import (
	"sync/atomic"
	"time"
)

// Catalog is an immutable snapshot of loaded element sets.
type Catalog struct {
	Source     string
	LoadedAt   time.Time
	EpochRange EpochRange
	Sets       []ElementSet

	byID map[int]int
}

// NewCatalog indexes sets by catalog number. When a number appears more than
// once the newest epoch wins.
func NewCatalog(source string, sets []ElementSet) *Catalog {
	c := &Catalog{
		Source:     source,
		LoadedAt:   time.Now(),
		EpochRange: RangeOf(sets),
		Sets:       sets,
		byID:       make(map[int]int, len(sets)),
	}
	for i, s := range sets {
		if j, ok := c.byID[s.NORADID]; ok && !s.Epoch.After(sets[j].Epoch) {
			continue
		}
		c.byID[s.NORADID] = i
	}
	return c
}

// Lookup returns the element set for a catalog number.
func (c *Catalog) Lookup(noradID int) (ElementSet, bool) {
	i, ok := c.byID[noradID]
	if !ok {
		return ElementSet{}, false
	}
	return c.Sets[i], true
}

// Store provides thread-safe access to the current catalog.
type Store struct {
	catalog atomic.Pointer[Catalog]
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current catalog, or nil if none has been loaded.
func (s *Store) Get() *Catalog {
	return s.catalog.Load()
}

// Set atomically replaces the current catalog.
func (s *Store) Set(c *Catalog) {
	s.catalog.Store(c)
}

// AgeSeconds returns the age of the current catalog in seconds.
// Returns -1 if no catalog is loaded.
func (s *Store) AgeSeconds() float64 {
	c := s.catalog.Load()
	if c == nil {
		return -1
	}
	return time.Since(c.LoadedAt).Seconds()
}
