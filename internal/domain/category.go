package domain

import (
	"fmt"
	"strings"
)

// Category is one of the four fixed groupings entries are filed under.
// The set is closed: values outside Categories are never stored.
type Category uint8

const (
	CategoryApp Category = iota
	CategoryERP
	CategoryFlow
	CategoryChat

	categoryCount = 4
)

// Categories lists every category in document order.
var Categories = [categoryCount]Category{CategoryApp, CategoryERP, CategoryFlow, CategoryChat}

var categoryLabels = [categoryCount]string{"App", "ERP", "Flow", "Chat"}

var categoryDescriptions = [categoryCount]string{
	"Guides for using the mobile application.",
	"Resources and manuals for the management system (ERP).",
	"Material about automations and service flows.",
	"Tutorials and resources for the chat support system.",
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	return c < categoryCount
}

// String returns the label used as the document key ("App", "ERP", "Flow", "Chat").
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
	return categoryLabels[c]
}

// Description returns the human-readable blurb shown next to the category.
func (c Category) Description() string {
	if !c.Valid() {
		return ""
	}
	return categoryDescriptions[c]
}

// ParseCategory maps a label to its category, ignoring case. On error the
// returned category is not Valid.
func ParseCategory(label string) (Category, error) {
	label = strings.TrimSpace(label)
	for i, l := range categoryLabels {
		if strings.EqualFold(l, label) {
			return Category(i), nil
		}
	}
	return categoryCount, fmt.Errorf("%w: %q", ErrUnknownCategory, label)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
