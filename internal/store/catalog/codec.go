package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/MrSnakeDoc/kbase/internal/domain"
)

// documentSchema describes the persisted shape: an object whose category keys
// hold arrays of entries. Other top-level keys are allowed and left alone. It
// checks structure only, never content.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "entries": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "link"],
        "properties": {
          "id":          {"type": "string"},
          "name":        {"type": "string"},
          "description": {"type": ["string", "null"]},
          "link":        {"type": "string"}
        }
      }
    }
  },
  "properties": {
    "App":  {"$ref": "#/definitions/entries"},
    "ERP":  {"$ref": "#/definitions/entries"},
    "Flow": {"$ref": "#/definitions/entries"},
    "Chat": {"$ref": "#/definitions/entries"}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func schema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return compiledSchema, schemaErr
}

// decode parses a persisted document. It returns ErrMalformed when the bytes are
// not JSON or do not match the document schema. missing lists the category keys
// that were absent; they decode as empty.
func decode(data []byte) (c domain.Catalog, missing []domain.Category, err error) {
	s, err := schema()
	if err != nil {
		return domain.Catalog{}, nil, fmt.Errorf("failed to compile document schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		// the loader could not even parse the bytes as JSON
		return domain.Catalog{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !result.Valid() {
		return domain.Catalog{}, nil, fmt.Errorf("%w: %s", ErrMalformed, describe(result.Errors()))
	}

	c, missing, err = domain.DecodeDocument(data)
	if err != nil {
		return domain.Catalog{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return c, missing, nil
}

func encode(c domain.Catalog) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return data, nil
}

// describe keeps the first three schema errors.
func describe(errs []gojsonschema.ResultError) string {
	msgs := make([]string, 0, 3)
	for i, e := range errs {
		if i == 3 {
			msgs = append(msgs, fmt.Sprintf("... and %d more", len(errs)-3))
			break
		}
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}
