package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/MrSnakeDoc/kbase/internal/domain"
	"github.com/MrSnakeDoc/kbase/internal/kv"
)

// importedSuffix is appended to the catalog key to name the ledger of seed
// entries already imported once.
const importedSuffix = ":imported"

// ImportedKey identifies one seeded entry in the import ledger.
func ImportedKey(cat domain.Category, id string) string {
	return cat.String() + "/" + id
}

// Imported returns the ledger of seed entries imported so far, keyed by
// ImportedKey. A missing or unreadable ledger reads as empty.
func (s *Store) Imported(ctx context.Context) (map[string]struct{}, error) {
	data, err := s.kv.Get(ctx, s.key+importedSuffix)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("failed to read import ledger: %w", err)
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return map[string]struct{}{}, nil
	}
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out, nil
}

// RecordImported persists ledger as the set of imported seed entries.
func (s *Store) RecordImported(ctx context.Context, ledger map[string]struct{}) error {
	keys := make([]string, 0, len(ledger))
	for k := range ledger {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("failed to marshal import ledger: %w", err)
	}
	if err := s.kv.Set(ctx, s.key+importedSuffix, data); err != nil {
		return fmt.Errorf("failed to write import ledger: %w", err)
	}
	return nil
}
