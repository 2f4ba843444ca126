// Package catalog persists the knowledge-base catalog as a single document in a kv.Store.
//
// Every mutation re-reads the whole document, applies a delta to one category,
// and writes the whole document back with one Set. The backend has no
// transactions, so this is what keeps partial updates from ever being visible.
// The Store takes no locks: callers serialize mutations.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/kbase/internal/domain"
	"github.com/MrSnakeDoc/kbase/internal/kv"
)

// DefaultKey is the storage key the catalog document lives under.
const DefaultKey = "knowledge_base"

var (
	// ErrNotInitialized is returned by mutations when no document is persisted.
	// Nothing is written; call Initialize first.
	ErrNotInitialized = errors.New("catalog store not initialized")
	// ErrMalformed is returned when the persisted document cannot be parsed.
	ErrMalformed = errors.New("malformed catalog document")
)

// Store provides category-scoped CRUD over the persisted catalog.
type Store struct {
	kv  kv.Store
	key string
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// NewStore creates a catalog store over backend.
func NewStore(backend kv.Store, opts ...Option) *Store {
	s := &Store{kv: backend, key: DefaultKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key in use.
func (s *Store) Key() string { return s.key }

// Initialize returns the persisted catalog. When nothing is persisted or the
// document is malformed, a fresh empty catalog is persisted and returned. A
// document missing some category keys is normalized and written back.
func (s *Store) Initialize(ctx context.Context) (domain.Catalog, error) {
	c, missing, err := s.read(ctx)
	switch {
	case err == nil && len(missing) == 0:
		return c, nil
	case err == nil:
		// partial document: keep what is there, add the absent categories
	case errors.Is(err, ErrNotInitialized), errors.Is(err, ErrMalformed):
		c = domain.NewCatalog()
	default:
		return domain.Catalog{}, err
	}

	if err := s.write(ctx, c); err != nil {
		return domain.Catalog{}, err
	}
	return c, nil
}

// Load returns the persisted entries of cat. A missing or malformed document
// reads as an empty catalog; only backend failures are reported.
func (s *Store) Load(ctx context.Context, cat domain.Category) ([]domain.Entry, error) {
	c, _, err := s.read(ctx)
	if err != nil {
		if errors.Is(err, ErrNotInitialized) || errors.Is(err, ErrMalformed) {
			return []domain.Entry{}, nil
		}
		return nil, err
	}
	return c.Entries(cat), nil
}

// Create appends e to cat and persists the catalog.
// It returns domain.ErrDuplicateID if e.ID already exists in cat.
func (s *Store) Create(ctx context.Context, cat domain.Category, e domain.Entry) error {
	return s.mutate(ctx, func(c *domain.Catalog) (bool, error) {
		if err := c.Append(cat, e); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Update replaces the entry of cat sharing e.ID, keeping its position.
// An unknown id leaves the document untouched and is not an error.
func (s *Store) Update(ctx context.Context, cat domain.Category, e domain.Entry) error {
	return s.mutate(ctx, func(c *domain.Catalog) (bool, error) {
		return c.ReplaceEntry(cat, e), nil
	})
}

// Delete removes the entry with id from cat. An unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, cat domain.Category, id string) error {
	return s.mutate(ctx, func(c *domain.Catalog) (bool, error) {
		return c.RemoveEntry(cat, id), nil
	})
}

// Save persists c as the whole catalog.
func (s *Store) Save(ctx context.Context, c domain.Catalog) error {
	return s.write(ctx, c)
}

// mutate runs the read-modify-write cycle. apply reports whether it changed
// anything; unchanged catalogs are not written back.
func (s *Store) mutate(ctx context.Context, apply func(*domain.Catalog) (bool, error)) error {
	c, _, err := s.read(ctx)
	if err != nil {
		return err
	}
	changed, err := apply(&c)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.write(ctx, c)
}

func (s *Store) read(ctx context.Context) (domain.Catalog, []domain.Category, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return domain.Catalog{}, nil, ErrNotInitialized
		}
		return domain.Catalog{}, nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return decode(data)
}

func (s *Store) write(ctx context.Context, c domain.Catalog) error {
	data, err := encode(c)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}
