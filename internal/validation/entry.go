// Package validation checks user-submitted entry fields before they reach the catalog.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/kbase/internal/domain"
)

// Field messages shown next to the offending input.
const (
	MsgNameRequired = "name is required"
	MsgLinkRequired = "link is required"
	MsgLinkInvalid  = "invalid URL, include http:// or https://"
)

// EntryInput is the form payload for creating or editing an entry.
type EntryInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Link        string `json:"link" validate:"required,absurl"`
}

// FieldErrors maps a JSON field name to its validation message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "invalid entry: " + strings.Join(parts, ", ")
}

var (
	once sync.Once
	v    *validator.Validate
)

// V returns the shared validator with the custom rules registered. It panics
// when a rule cannot be registered.
func V() *validator.Validate {
	once.Do(func() {
		var err error
		if v, err = newValidator(); err != nil {
			panic(fmt.Sprintf("❌ FATAL: %v", err))
		}
	})
	return v
}

func newValidator() (*validator.Validate, error) {
	val := validator.New()
	if err := val.RegisterValidation("absurl", absoluteURLValidator); err != nil {
		return nil, fmt.Errorf("failed to register absurl validation: %w", err)
	}
	return val, nil
}

func absoluteURLValidator(fl validator.FieldLevel) bool {
	return domain.ValidateURL(fl.Field().String())
}

// Normalize trims surrounding whitespace from name and link.
func (in EntryInput) Normalize() EntryInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Link = strings.TrimSpace(in.Link)
	return in
}

// Validate normalizes the input and returns FieldErrors when a field is rejected.
func (in EntryInput) Validate() (EntryInput, error) {
	in = in.Normalize()
	err := V().Struct(in)
	if err == nil {
		return in, nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return in, err
	}

	fe := FieldErrors{}
	for _, e := range ve {
		switch {
		case e.StructField() == "Name":
			fe["name"] = MsgNameRequired
		case e.StructField() == "Link" && e.Tag() == "required":
			fe["link"] = MsgLinkRequired
		case e.StructField() == "Link":
			fe["link"] = MsgLinkInvalid
		}
	}
	return in, fe
}

// Entry builds a domain entry from validated input.
func (in EntryInput) Entry(id string) domain.Entry {
	return domain.Entry{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Link:        in.Link,
	}
}
