package seed

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/MrSnakeDoc/kbase/internal/domain"
	"github.com/MrSnakeDoc/kbase/internal/validation"
)

// ErrEmpty is returned when a seed file holds no entries.
var ErrEmpty = errors.New("no entries found in seed file")

// Mapper converts a seed File into a catalog.
type Mapper struct{}

// NewMapper creates a new mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapCatalog validates every item and files it under its category. Items
// sharing a link within a category collapse to the first one.
func (m *Mapper) MapCatalog(file File) (domain.Catalog, error) {
	c := domain.NewCatalog()
	total := 0

	// map order is random, sort labels so errors are reproducible
	labels := make([]string, 0, len(file))
	for label := range file {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		cat, err := domain.ParseCategory(label)
		if err != nil {
			return domain.Catalog{}, err
		}

		for i, item := range file[label] {
			in, err := validation.EntryInput{
				Name:        item.Name,
				Description: item.Description,
				Link:        item.Link,
			}.Validate()
			if err != nil {
				return domain.Catalog{}, fmt.Errorf("%s entry %d: %w", cat, i+1, err)
			}

			if err := c.Append(cat, in.Entry(EntryID(cat, in.Link))); err != nil {
				if errors.Is(err, domain.ErrDuplicateID) {
					continue
				}
				return domain.Catalog{}, err
			}
			total++
		}
	}

	if total == 0 {
		return domain.Catalog{}, ErrEmpty
	}

	return c, nil
}

// EntryID derives a stable id from the category and link, so importing the
// same file twice yields the same ids.
func EntryID(cat domain.Category, link string) string {
	hash := sha256.Sum256([]byte(cat.String() + "|" + link))
	return hex.EncodeToString(hash[:])[:16]
}
