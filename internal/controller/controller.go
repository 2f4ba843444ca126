// Package controller orchestrates catalog mutations. It calls the catalog store,
// applies the same delta to the in-memory mirror, and raises a Signal for each
// outcome.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/kbase/internal/domain"
	"github.com/MrSnakeDoc/kbase/internal/index"
	"github.com/MrSnakeDoc/kbase/internal/logger"
	"github.com/MrSnakeDoc/kbase/internal/store/catalog"
)

// CatalogStore is the persistence the controller drives.
type CatalogStore interface {
	Initialize(ctx context.Context) (domain.Catalog, error)
	Create(ctx context.Context, cat domain.Category, e domain.Entry) error
	Update(ctx context.Context, cat domain.Category, e domain.Entry) error
	Delete(ctx context.Context, cat domain.Category, id string) error
	Save(ctx context.Context, c domain.Catalog) error
	Imported(ctx context.Context) (map[string]struct{}, error)
	RecordImported(ctx context.Context, ledger map[string]struct{}) error
}

// Controller serializes mutations and keeps the mirror consistent with the store.
type Controller struct {
	store  CatalogStore
	mirror *index.MemoryIndex
	log    logger.Logger
	newID  func() string

	mu sync.Mutex // one mutation in flight

	obsMu     sync.RWMutex
	observers []Observer
}

// Option configures a Controller.
type Option func(*Controller)

// WithIDGenerator overrides how ids are assigned to new entries.
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithObservers registers observers at construction time.
func WithObservers(obs ...Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, obs...)
	}
}

// New initializes the store once and adopts the result as the mirror.
func New(ctx context.Context, store CatalogStore, log logger.Logger, opts ...Option) (*Controller, error) {
	c := &Controller{
		store:  store,
		mirror: index.NewMemoryIndex(),
		log:    log,
		newID:  domain.NewID,
	}
	for _, opt := range opts {
		opt(c)
	}

	initial, err := store.Initialize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	c.mirror.Replace(initial)

	log.Info("catalog loaded", countFields(c.mirror.Counts())...)
	return c, nil
}

// Subscribe registers an observer for future signals.
func (c *Controller) Subscribe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, o)
}

// ─── Mutations ──────────────────────────────────────────────────────────────

// Add persists e at the end of cat. An empty id is replaced with a fresh one.
func (c *Controller) Add(ctx context.Context, cat domain.Category, e domain.Entry) (domain.Entry, error) {
	if !cat.Valid() {
		return domain.Entry{}, c.fail(ActionAdd, cat, e.ID, fmt.Errorf("%w: %v", domain.ErrUnknownCategory, cat))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e.ID == "" {
		e.ID = c.newID()
	}

	err := c.withRecovery(ctx, func() error {
		return c.store.Create(ctx, cat, e)
	})
	if err != nil {
		return domain.Entry{}, c.fail(ActionAdd, cat, e.ID, err)
	}

	if err := c.mirror.Append(cat, e); err != nil {
		// store accepted it, so the mirror is stale
		c.resync(ctx)
	}
	c.log.Debug("entry added",
		logger.Stringer("category", cat),
		logger.Int("entries", c.mirror.Count(cat)))

	c.emit(OutcomeSignal(ActionAdd, cat, e.ID, nil))
	return e, nil
}

// Update replaces the entry of cat with e.ID, keeping its position.
func (c *Controller) Update(ctx context.Context, cat domain.Category, e domain.Entry) (domain.Entry, error) {
	if !cat.Valid() {
		return domain.Entry{}, c.fail(ActionUpdate, cat, e.ID, fmt.Errorf("%w: %v", domain.ErrUnknownCategory, cat))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.mirror.Get(cat, e.ID); !ok {
		return domain.Entry{}, c.fail(ActionUpdate, cat, e.ID, fmt.Errorf("%w: %q", domain.ErrEntryNotFound, e.ID))
	}

	err := c.withRecovery(ctx, func() error {
		return c.store.Update(ctx, cat, e)
	})
	if err != nil {
		return domain.Entry{}, c.fail(ActionUpdate, cat, e.ID, err)
	}

	// a recovery may have dropped the entry along with the broken document
	if !c.mirror.ReplaceEntry(cat, e) {
		return domain.Entry{}, c.fail(ActionUpdate, cat, e.ID, fmt.Errorf("%w: %q", domain.ErrEntryNotFound, e.ID))
	}

	c.emit(OutcomeSignal(ActionUpdate, cat, e.ID, nil))
	return e, nil
}

// Delete removes the entry of cat with id.
func (c *Controller) Delete(ctx context.Context, cat domain.Category, id string) error {
	if !cat.Valid() {
		return c.fail(ActionDelete, cat, id, fmt.Errorf("%w: %v", domain.ErrUnknownCategory, cat))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.mirror.Get(cat, id); !ok {
		return c.fail(ActionDelete, cat, id, fmt.Errorf("%w: %q", domain.ErrEntryNotFound, id))
	}

	err := c.withRecovery(ctx, func() error {
		return c.store.Delete(ctx, cat, id)
	})
	if err != nil {
		return c.fail(ActionDelete, cat, id, err)
	}

	c.mirror.Remove(cat, id)
	c.log.Debug("entry deleted",
		logger.Stringer("category", cat),
		logger.Int("entries", c.mirror.Count(cat)))

	c.emit(OutcomeSignal(ActionDelete, cat, id, nil))
	return nil
}

// Import adds every entry of incoming that was never imported before and whose
// id is not yet in its category, then persists the result in one write. Entries
// imported once are recorded, so deleting one keeps it deleted on later imports.
// It returns how many entries were added.
func (c *Controller) Import(ctx context.Context, incoming domain.Catalog) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.store.Initialize(ctx)
	if err != nil {
		return 0, c.fail(ActionImport, 0, "", err)
	}
	ledger, err := c.store.Imported(ctx)
	if err != nil {
		return 0, c.fail(ActionImport, 0, "", err)
	}

	added, recorded := 0, 0
	for _, cat := range domain.Categories {
		for _, e := range incoming.Entries(cat) {
			key := catalog.ImportedKey(cat, e.ID)
			if _, seen := ledger[key]; seen {
				continue
			}
			ledger[key] = struct{}{}
			recorded++
			if err := current.Append(cat, e); err == nil {
				added++
			}
		}
	}

	if added > 0 {
		if err := c.store.Save(ctx, current); err != nil {
			return 0, c.fail(ActionImport, 0, "", err)
		}
	}
	c.mirror.Replace(current)

	if recorded > 0 {
		if err := c.store.RecordImported(ctx, ledger); err != nil {
			// the entries are saved; only their deletion may not stick
			c.log.Warn("failed to record imported entries", logger.Error(err))
		}
	}

	c.emit(Signal{Kind: KindInfo, Action: ActionImport, Message: fmt.Sprintf("Imported %d new entries", added)})
	return added, nil
}

// ─── Reads ──────────────────────────────────────────────────────────────────

// Catalog returns a copy of the mirror.
func (c *Controller) Catalog() domain.Catalog { return c.mirror.Snapshot() }

// Entries returns the mirrored entries of cat.
func (c *Controller) Entries(cat domain.Category) []domain.Entry { return c.mirror.Entries(cat) }

// Entry returns the mirrored entry of cat with id.
func (c *Controller) Entry(cat domain.Category, id string) (domain.Entry, bool) {
	return c.mirror.Get(cat, id)
}

// Counts returns the number of entries per category.
func (c *Controller) Counts() map[domain.Category]int { return c.mirror.Counts() }

// LastSync returns when the mirror last adopted the whole persisted catalog.
func (c *Controller) LastSync() time.Time { return c.mirror.GetLastSync() }

// ─── Internals ──────────────────────────────────────────────────────────────

// withRecovery runs op and, when the persisted document is missing or
// unreadable, reinitializes the store, re-adopts the mirror and retries once.
func (c *Controller) withRecovery(ctx context.Context, op func() error) error {
	err := op()
	if !errors.Is(err, catalog.ErrNotInitialized) && !errors.Is(err, catalog.ErrMalformed) {
		return err
	}

	c.log.Warn("catalog document unusable, reinitializing", logger.Error(err))
	fresh, ierr := c.store.Initialize(ctx)
	if ierr != nil {
		return fmt.Errorf("failed to reinitialize catalog: %w", ierr)
	}
	c.mirror.Replace(fresh)

	return op()
}

func (c *Controller) resync(ctx context.Context) {
	fresh, err := c.store.Initialize(ctx)
	if err != nil {
		c.log.Error("failed to resync mirror", logger.Error(err))
		return
	}
	c.mirror.Replace(fresh)
}

func (c *Controller) fail(action Action, cat domain.Category, id string, err error) error {
	c.emit(OutcomeSignal(action, cat, id, err))
	return err
}

func (c *Controller) emit(s Signal) {
	c.obsMu.RLock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.obsMu.RUnlock()

	for _, o := range observers {
		o.Notify(s)
	}
}

func countFields(counts map[domain.Category]int) []logger.Field {
	fields := make([]logger.Field, 0, len(counts))
	for _, cat := range domain.Categories {
		fields = append(fields, logger.Int(cat.String(), counts[cat]))
	}
	return fields
}
