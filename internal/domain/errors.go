package domain

import "errors"

var (
	// ErrUnknownCategory is returned when a label does not name one of the four categories.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrDuplicateID is returned when an entry id already exists in its category.
	ErrDuplicateID = errors.New("duplicate entry id")
	// ErrEntryNotFound is returned when no entry with the requested id exists in the category.
	ErrEntryNotFound = errors.New("entry not found")
)
