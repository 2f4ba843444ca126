package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/kbase/internal/domain"
)

// MemoryIndex is the in-memory mirror of the persisted catalog used for display.
// It is only ever written with values the catalog store has accepted.
type MemoryIndex struct {
	mu       sync.RWMutex
	catalog  domain.Catalog
	lastSync time.Time // last time the whole catalog was adopted from the store
}

// NewMemoryIndex creates an empty memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		catalog: domain.NewCatalog(),
	}
}

// Replace adopts c as the whole mirror
func (idx *MemoryIndex) Replace(c domain.Catalog) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.catalog = c.Clone()
	idx.lastSync = time.Now()
}

// Snapshot returns a copy of the whole mirror
func (idx *MemoryIndex) Snapshot() domain.Catalog {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.catalog.Clone()
}

// Entries returns the entries of a category in insertion order
func (idx *MemoryIndex) Entries(cat domain.Category) []domain.Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.catalog.Entries(cat)
}

// Get retrieves an entry by category and ID
func (idx *MemoryIndex) Get(cat domain.Category, id string) (domain.Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.catalog.Find(cat, id)
}

// Append adds an entry at the end of its category
func (idx *MemoryIndex) Append(cat domain.Category, e domain.Entry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.catalog.Append(cat, e)
}

// ReplaceEntry overwrites the entry sharing e.ID in place
func (idx *MemoryIndex) ReplaceEntry(cat domain.Category, e domain.Entry) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.catalog.ReplaceEntry(cat, e)
}

// Remove drops an entry from its category
func (idx *MemoryIndex) Remove(cat domain.Category, id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.catalog.RemoveEntry(cat, id)
}

// Count returns the number of entries in a category
func (idx *MemoryIndex) Count(cat domain.Category) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.catalog.Len(cat)
}

// Counts returns the number of entries per category
func (idx *MemoryIndex) Counts() map[domain.Category]int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.catalog.Counts()
}

// GetLastSync returns the timestamp of the last full adoption from the store
func (idx *MemoryIndex) GetLastSync() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastSync
}
