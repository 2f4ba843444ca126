package domain

import (
	"net/url"

	"github.com/google/uuid"
)

// Entry represents one reference link of the knowledge base.
type Entry struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is unique within its category and never changes once created.
	ID string `json:"id"`

	// ─────────────────────────────
	// Content (replaced as a whole on update)
	// ─────────────────────────────

	// Name is the required display title.
	Name string `json:"name"`

	// Description is free text and may be empty.
	Description string `json:"description"`

	// Link is an absolute URL.
	// Example: https://docs.example.com/erp/getting-started
	Link string `json:"link"`
}

// NewID returns a random collision-resistant entry id.
func NewID() string {
	return uuid.NewString()
}

// ValidateURL reports whether candidate is a syntactically valid absolute URL,
// meaning it has both a scheme and an authority. Any scheme is accepted.
func ValidateURL(candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
