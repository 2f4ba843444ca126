package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/kbase/internal/domain"
	"github.com/MrSnakeDoc/kbase/internal/kv"
	"github.com/MrSnakeDoc/kbase/internal/kv/memory"
	"github.com/MrSnakeDoc/kbase/internal/logger"
	"github.com/MrSnakeDoc/kbase/internal/store/catalog"
)

// switchableKV fails writes while failSet is true.
type switchableKV struct {
	kv.Store
	mu      sync.Mutex
	failSet bool
	sets    int
}

func (s *switchableKV) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errors.New("disk full")
	}
	s.sets++
	return s.Store.Set(ctx, key, value)
}

func (s *switchableKV) setFailing(v bool) {
	s.mu.Lock()
	s.failSet = v
	s.mu.Unlock()
}

func (s *switchableKV) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

type recorder struct {
	mu      sync.Mutex
	signals []Signal
}

func (r *recorder) Notify(s Signal) {
	r.mu.Lock()
	r.signals = append(r.signals, s)
	r.mu.Unlock()
}

func (r *recorder) last(t *testing.T) Signal {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.signals, "no signal raised")
	return r.signals[len(r.signals)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.signals)
}

type fixture struct {
	ctl     *Controller
	backend *switchableKV
	store   *catalog.Store
	rec     *recorder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	backend := &switchableKV{Store: memory.New()}
	store := catalog.NewStore(backend)
	rec := &recorder{}

	opts = append(opts, WithObservers(rec))
	ctl, err := New(context.Background(), store, logger.NewNop(), opts...)
	require.NoError(t, err)
	return &fixture{ctl: ctl, backend: backend, store: store, rec: rec}
}

func (f *fixture) persisted(t *testing.T, cat domain.Category) []domain.Entry {
	t.Helper()
	entries, err := f.store.Load(context.Background(), cat)
	require.NoError(t, err)
	return entries
}

func (f *fixture) raw(t *testing.T) []byte {
	t.Helper()
	data, err := f.backend.Get(context.Background(), catalog.DefaultKey)
	require.NoError(t, err)
	return data
}

func TestNewBootstrapsEmptyStore(t *testing.T) {
	f := newFixture(t)

	var doc map[string][]domain.Entry
	require.NoError(t, json.Unmarshal(f.raw(t), &doc))
	assert.Len(t, doc, 4)
	for _, cat := range domain.Categories {
		assert.Empty(t, f.ctl.Entries(cat))
	}
	assert.False(t, f.ctl.LastSync().IsZero())
}

func TestNewAdoptsPersistedCatalog(t *testing.T) {
	backend := memory.New()
	store := catalog.NewStore(backend)
	_, err := store.Initialize(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), domain.CategoryERP, domain.Entry{ID: "e1", Name: "Ledger", Link: "https://erp.example.com"}))

	ctl, err := New(context.Background(), store, logger.NewNop())
	require.NoError(t, err)

	got, ok := ctl.Entry(domain.CategoryERP, "e1")
	require.True(t, ok)
	assert.Equal(t, "Ledger", got.Name)
}

func TestNewFailsOnBackendError(t *testing.T) {
	backend := &switchableKV{Store: memory.New(), failSet: true}
	_, err := New(context.Background(), catalog.NewStore(backend), logger.NewNop())
	require.Error(t, err)
}

func TestAdd(t *testing.T) {
	f := newFixture(t, WithIDGenerator(func() string { return "generated" }))
	ctx := context.Background()

	e, err := f.ctl.Add(ctx, domain.CategoryApp, domain.Entry{Name: "Guide", Link: "https://x.com"})
	require.NoError(t, err)
	assert.Equal(t, "generated", e.ID)

	assert.Equal(t, []domain.Entry{e}, f.persisted(t, domain.CategoryApp))
	assert.Equal(t, []domain.Entry{e}, f.ctl.Entries(domain.CategoryApp))

	assert.Equal(t, Signal{
		Kind:     KindSuccess,
		Action:   ActionAdd,
		Category: "App",
		EntryID:  "generated",
		Message:  MsgAdded,
	}, f.rec.last(t))
}

func TestAddKeepsGivenID(t *testing.T) {
	f := newFixture(t)

	e, err := f.ctl.Add(context.Background(), domain.CategoryFlow, domain.Entry{ID: "mine", Name: "n", Link: "https://x.com"})
	require.NoError(t, err)
	assert.Equal(t, "mine", e.ID)
}

func TestAddDefaultIDsAreUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.ctl.Add(ctx, domain.CategoryApp, domain.Entry{Name: "a", Link: "https://a.com"})
	require.NoError(t, err)
	b, err := f.ctl.Add(ctx, domain.CategoryApp, domain.Entry{Name: "b", Link: "https://b.com"})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAddDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctl.Add(ctx, domain.CategoryChat, domain.Entry{ID: "1", Name: "a", Link: "https://a.com"})
	require.NoError(t, err)

	_, err = f.ctl.Add(ctx, domain.CategoryChat, domain.Entry{ID: "1", Name: "b", Link: "https://b.com"})
	require.ErrorIs(t, err, domain.ErrDuplicateID)

	sig := f.rec.last(t)
	assert.Equal(t, KindError, sig.Kind)
	assert.Equal(t, ActionAdd, sig.Action)
	assert.Len(t, f.ctl.Entries(domain.CategoryChat), 1)
}

func TestAddUnknownCategory(t *testing.T) {
	f := newFixture(t)
	before := f.backend.writes()

	_, err := f.ctl.Add(context.Background(), domain.Category(42), domain.Entry{Name: "a", Link: "https://a.com"})
	require.ErrorIs(t, err, domain.ErrUnknownCategory)
	assert.Equal(t, before, f.backend.writes())
	assert.Equal(t, KindError, f.rec.last(t).Kind)
}

func TestAddStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.setFailing(true)

	_, err := f.ctl.Add(context.Background(), domain.CategoryApp, domain.Entry{ID: "1", Name: "a", Link: "https://a.com"})
	require.Error(t, err)

	sig := f.rec.last(t)
	assert.Equal(t, KindError, sig.Kind)
	assert.Contains(t, sig.Message, "disk full")
	assert.Empty(t, f.ctl.Entries(domain.CategoryApp), "mirror must not change when the write fails")
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := f.ctl.Add(ctx, domain.CategoryERP, domain.Entry{ID: fmt.Sprint(i), Name: fmt.Sprint("n", i), Link: "https://x.com"})
		require.NoError(t, err)
	}

	updated := domain.Entry{ID: "2", Name: "renamed", Description: "d", Link: "https://y.com"}
	_, err := f.ctl.Update(ctx, domain.CategoryERP, updated)
	require.NoError(t, err)

	persisted := f.persisted(t, domain.CategoryERP)
	require.Len(t, persisted, 3)
	assert.Equal(t, updated, persisted[1])
	assert.Equal(t, persisted, f.ctl.Entries(domain.CategoryERP))

	sig := f.rec.last(t)
	assert.Equal(t, KindSuccess, sig.Kind)
	assert.Equal(t, MsgUpdated, sig.Message)
}

func TestUpdateUnknownID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctl.Add(ctx, domain.CategoryERP, domain.Entry{ID: "1", Name: "a", Link: "https://a.com"})
	require.NoError(t, err)
	before := f.raw(t)
	writes := f.backend.writes()

	_, err = f.ctl.Update(ctx, domain.CategoryERP, domain.Entry{ID: "zzz", Name: "b", Link: "https://b.com"})
	require.ErrorIs(t, err, domain.ErrEntryNotFound)

	assert.Equal(t, before, f.raw(t))
	assert.Equal(t, writes, f.backend.writes())
	assert.Equal(t, KindError, f.rec.last(t).Kind)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctl.Add(ctx, domain.CategoryFlow, domain.Entry{ID: "1", Name: "a", Link: "https://a.com"})
	require.NoError(t, err)
	_, err = f.ctl.Add(ctx, domain.CategoryFlow, domain.Entry{ID: "2", Name: "b", Link: "https://b.com"})
	require.NoError(t, err)

	require.NoError(t, f.ctl.Delete(ctx, domain.CategoryFlow, "1"))

	assert.Equal(t, []domain.Entry{{ID: "2", Name: "b", Link: "https://b.com"}}, f.persisted(t, domain.CategoryFlow))
	_, ok := f.ctl.Entry(domain.CategoryFlow, "1")
	assert.False(t, ok)

	sig := f.rec.last(t)
	assert.Equal(t, KindInfo, sig.Kind)
	assert.Equal(t, MsgDeleted, sig.Message)
}

func TestDeleteUnknownID(t *testing.T) {
	f := newFixture(t)
	writes := f.backend.writes()

	err := f.ctl.Delete(context.Background(), domain.CategoryFlow, "nope")
	require.ErrorIs(t, err, domain.ErrEntryNotFound)
	assert.Equal(t, writes, f.backend.writes())
}

func TestCategoryIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctl.Add(ctx, domain.CategoryApp, domain.Entry{ID: "same", Name: "app", Link: "https://a.com"})
	require.NoError(t, err)
	_, err = f.ctl.Add(ctx, domain.CategoryChat, domain.Entry{ID: "same", Name: "chat", Link: "https://c.com"})
	require.NoError(t, err, "ids are unique per category only")

	require.NoError(t, f.ctl.Delete(ctx, domain.CategoryChat, "same"))

	assert.Len(t, f.persisted(t, domain.CategoryApp), 1)
	assert.Empty(t, f.persisted(t, domain.CategoryChat))
}

func TestSelfHealsMissingDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctl.Add(ctx, domain.CategoryApp, domain.Entry{ID: "old", Name: "a", Link: "https://a.com"})
	require.NoError(t, err)

	// the document vanishes behind our back
	require.NoError(t, f.backend.Delete(ctx, catalog.DefaultKey))

	_, err = f.ctl.Add(ctx, domain.CategoryApp, domain.Entry{ID: "new", Name: "b", Link: "https://b.com"})
	require.NoError(t, err)

	assert.Equal(t, []domain.Entry{{ID: "new", Name: "b", Link: "https://b.com"}}, f.persisted(t, domain.CategoryApp))
	assert.Equal(t, f.persisted(t, domain.CategoryApp), f.ctl.Entries(domain.CategoryApp))
}

func TestSelfHealsMalformedDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctl.Add(ctx, domain.CategoryERP, domain.Entry{ID: "1", Name: "a", Link: "https://a.com"})
	require.NoError(t, err)
	require.NoError(t, f.backend.Store.Set(ctx, catalog.DefaultKey, []byte("{not json")))

	// the entry existed in the mirror, but recovery drops the broken document with it
	_, err = f.ctl.Update(ctx, domain.CategoryERP, domain.Entry{ID: "1", Name: "b", Link: "https://b.com"})
	require.ErrorIs(t, err, domain.ErrEntryNotFound)
	assert.Empty(t, f.ctl.Entries(domain.CategoryERP))

	_, err = f.ctl.Add(ctx, domain.CategoryERP, domain.Entry{ID: "2", Name: "c", Link: "https://c.com"})
	require.NoError(t, err)
	assert.Len(t, f.persisted(t, domain.CategoryERP), 1)
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctl.Add(ctx, domain.CategoryApp, domain.Entry{ID: "existing", Name: "mine", Link: "https://mine.com"})
	require.NoError(t, err)

	seed := domain.NewCatalog()
	seed.Set(domain.CategoryApp, []domain.Entry{
		{ID: "existing", Name: "seeded", Link: "https://seed.com"},
		{ID: "s1", Name: "one", Link: "https://one.com"},
	})
	seed.Set(domain.CategoryChat, []domain.Entry{{ID: "s2", Name: "two", Link: "https://two.com"}})

	added, err := f.ctl.Import(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	app := f.persisted(t, domain.CategoryApp)
	require.Len(t, app, 2)
	assert.Equal(t, "mine", app[0].Name, "existing entries are not overwritten")
	assert.Len(t, f.persisted(t, domain.CategoryChat), 1)
	assert.Equal(t, ActionImport, f.rec.last(t).Action)

	writes := f.backend.writes()
	added, err = f.ctl.Import(ctx, seed)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Equal(t, writes, f.backend.writes(), "a no-op import writes nothing")
}

func TestImportKeepsDeletedEntriesDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seed := domain.NewCatalog()
	seed.Set(domain.CategoryChat, []domain.Entry{{ID: "s1", Name: "Seeded", Link: "https://x.com"}})

	added, err := f.ctl.Import(ctx, seed)
	require.NoError(t, err)
	require.Equal(t, 1, added)

	require.NoError(t, f.ctl.Delete(ctx, domain.CategoryChat, "s1"))

	added, err = f.ctl.Import(ctx, seed)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Empty(t, f.ctl.Entries(domain.CategoryChat))
	assert.Empty(t, f.persisted(t, domain.CategoryChat))

	// a new seed entry still comes in
	seed.Set(domain.CategoryChat, []domain.Entry{
		{ID: "s1", Name: "Seeded", Link: "https://x.com"},
		{ID: "s2", Name: "Later", Link: "https://y.com"},
	})
	added, err = f.ctl.Import(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []domain.Entry{{ID: "s2", Name: "Later", Link: "https://y.com"}}, f.persisted(t, domain.CategoryChat))
}

func TestImportMergesPersistedDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// written behind the controller's back
	require.NoError(t, f.store.Create(ctx, domain.CategoryFlow, domain.Entry{ID: "ext", Name: "external", Link: "https://ext.com"}))

	seed := domain.NewCatalog()
	seed.Set(domain.CategoryApp, []domain.Entry{{ID: "s1", Name: "one", Link: "https://one.com"}})

	added, err := f.ctl.Import(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	assert.Len(t, f.persisted(t, domain.CategoryFlow), 1, "import must not drop entries it did not mirror")
	assert.Len(t, f.ctl.Entries(domain.CategoryFlow), 1)
}

func TestImportStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.setFailing(true)

	seed := domain.NewCatalog()
	seed.Set(domain.CategoryApp, []domain.Entry{{ID: "s1", Name: "one", Link: "https://one.com"}})

	_, err := f.ctl.Import(context.Background(), seed)
	require.Error(t, err)
	assert.Empty(t, f.ctl.Entries(domain.CategoryApp))
	assert.Equal(t, KindError, f.rec.last(t).Kind)
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)
	extra := &recorder{}
	f.ctl.Subscribe(extra)

	_, err := f.ctl.Add(context.Background(), domain.CategoryApp, domain.Entry{Name: "a", Link: "https://a.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, extra.count())
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.ctl.Add(ctx, domain.CategoryChat, domain.Entry{ID: fmt.Sprintf("id-%d", i), Name: "n", Link: "https://x.com"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, f.persisted(t, domain.CategoryChat), 50, "no write may be lost")
	assert.Equal(t, 50, f.ctl.Counts()[domain.CategoryChat])
}

func TestChatScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctl.Add(ctx, domain.CategoryChat, domain.Entry{ID: "1", Name: "Guide", Link: "https://x.com"})
	require.NoError(t, err)
	_, err = f.ctl.Update(ctx, domain.CategoryChat, domain.Entry{ID: "1", Name: "Guide v2", Link: "https://x.com"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Entry{{ID: "1", Name: "Guide v2", Link: "https://x.com"}}, f.persisted(t, domain.CategoryChat))

	require.NoError(t, f.ctl.Delete(ctx, domain.CategoryChat, "1"))
	assert.Empty(t, f.persisted(t, domain.CategoryChat))

	kinds := make([]SignalKind, 0, 3)
	for _, s := range f.rec.signals {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []SignalKind{KindSuccess, KindSuccess, KindInfo}, kinds)
}

func TestOutcomeSignal(t *testing.T) {
	tests := []struct {
		name     string
		action   Action
		cat      domain.Category
		err      error
		expected Signal
	}{
		{
			name:     "add",
			action:   ActionAdd,
			cat:      domain.CategoryERP,
			expected: Signal{Kind: KindSuccess, Action: ActionAdd, Category: "ERP", EntryID: "id", Message: MsgAdded},
		},
		{
			name:     "update",
			action:   ActionUpdate,
			cat:      domain.CategoryFlow,
			expected: Signal{Kind: KindSuccess, Action: ActionUpdate, Category: "Flow", EntryID: "id", Message: MsgUpdated},
		},
		{
			name:     "delete",
			action:   ActionDelete,
			cat:      domain.CategoryChat,
			expected: Signal{Kind: KindInfo, Action: ActionDelete, Category: "Chat", EntryID: "id", Message: MsgDeleted},
		},
		{
			name:     "failure",
			action:   ActionDelete,
			cat:      domain.CategoryChat,
			err:      domain.ErrEntryNotFound,
			expected: Signal{Kind: KindError, Action: ActionDelete, Category: "Chat", EntryID: "id", Message: "Failed to delete entry: entry not found"},
		},
		{
			name:     "import failure has no category",
			action:   ActionImport,
			cat:      domain.CategoryApp,
			err:      errors.New("boom"),
			expected: Signal{Kind: KindError, Action: ActionImport, EntryID: "id", Message: "Failed to import entries: boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OutcomeSignal(tt.action, tt.cat, "id", tt.err))
		})
	}
}
