package domain

import (
	"encoding/json"
	"fmt"
)

// Catalog maps every Category to its ordered list of entries.
// The mapping is total: a Category with no entries maps to an empty list,
// never to a missing key. The zero value is an empty catalog.
type Catalog struct {
	entries [categoryCount][]Entry
}

// NewCatalog returns an empty catalog with all four categories present.
func NewCatalog() Catalog {
	var c Catalog
	for _, cat := range Categories {
		c.entries[cat] = []Entry{}
	}
	return c
}

// Entries returns a copy of the entries of cat, in insertion order.
// The result is never nil.
func (c *Catalog) Entries(cat Category) []Entry {
	if !cat.Valid() {
		return []Entry{}
	}
	out := make([]Entry, len(c.entries[cat]))
	copy(out, c.entries[cat])
	return out
}

// Set replaces the entries of cat with a copy of entries.
func (c *Catalog) Set(cat Category, entries []Entry) {
	if !cat.Valid() {
		return
	}
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	c.entries[cat] = cp
}

// Len returns the number of entries in cat.
func (c *Catalog) Len(cat Category) int {
	if !cat.Valid() {
		return 0
	}
	return len(c.entries[cat])
}

// Find returns the entry of cat with the given id.
func (c *Catalog) Find(cat Category, id string) (Entry, bool) {
	if !cat.Valid() {
		return Entry{}, false
	}
	for _, e := range c.entries[cat] {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Append adds e at the end of cat. It fails if the id is already used in cat.
func (c *Catalog) Append(cat Category, e Entry) error {
	if !cat.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(cat))
	}
	if _, exists := c.Find(cat, e.ID); exists {
		return fmt.Errorf("%w: %s in %s", ErrDuplicateID, e.ID, cat)
	}
	c.entries[cat] = append(c.entries[cat], e)
	return nil
}

// ReplaceEntry overwrites the fields of the entry sharing e.ID, keeping its position.
// It reports whether a matching entry was found.
func (c *Catalog) ReplaceEntry(cat Category, e Entry) bool {
	if !cat.Valid() {
		return false
	}
	found := false
	for i := range c.entries[cat] {
		if c.entries[cat][i].ID == e.ID {
			c.entries[cat][i] = e
			found = true
		}
	}
	return found
}

// RemoveEntry drops the entry with the given id from cat.
// It reports whether anything was removed.
func (c *Catalog) RemoveEntry(cat Category, id string) bool {
	if !cat.Valid() {
		return false
	}
	kept := make([]Entry, 0, len(c.entries[cat]))
	for _, e := range c.entries[cat] {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	removed := len(kept) != len(c.entries[cat])
	c.entries[cat] = kept
	return removed
}

// Clone returns a deep copy of c.
func (c *Catalog) Clone() Catalog {
	var out Catalog
	for _, cat := range Categories {
		out.entries[cat] = c.Entries(cat)
	}
	return out
}

// Counts returns the number of entries per category.
func (c *Catalog) Counts() map[Category]int {
	counts := make(map[Category]int, categoryCount)
	for _, cat := range Categories {
		counts[cat] = len(c.entries[cat])
	}
	return counts
}

// document is the persisted shape: one array per category label.
type document struct {
	App  []Entry `json:"App"`
	ERP  []Entry `json:"ERP"`
	Flow []Entry `json:"Flow"`
	Chat []Entry `json:"Chat"`
}

// MarshalJSON always emits the four category keys, empty categories as [].
func (c Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{
		App:  c.Entries(CategoryApp),
		ERP:  c.Entries(CategoryERP),
		Flow: c.Entries(CategoryFlow),
		Chat: c.Entries(CategoryChat),
	})
}

// UnmarshalJSON accepts a document keyed by category label.
// Missing categories decode as empty and unknown keys are ignored.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	decoded, _, err := DecodeDocument(data)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

// DecodeDocument parses a label-keyed document. Only the four category keys are
// decoded, so extra top-level keys of any type are ignored. It also returns the
// categories whose key was absent.
func DecodeDocument(data []byte) (Catalog, []Category, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Catalog{}, nil, err
	}

	out := NewCatalog()
	var missing []Category
	for _, cat := range Categories {
		field, ok := raw[cat.String()]
		if !ok {
			missing = append(missing, cat)
			continue
		}
		var entries []Entry
		if err := json.Unmarshal(field, &entries); err != nil {
			return Catalog{}, nil, fmt.Errorf("category %s: %w", cat, err)
		}
		out.Set(cat, entries)
	}
	return out, missing, nil
}
