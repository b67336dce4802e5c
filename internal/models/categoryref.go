package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CategoryRef normalizes the two shapes the backend uses for a product's
// category: sometimes a bare id string, sometimes the populated category
// document. Decoding happens once at the API boundary so callers never
// branch on the wire shape.
type CategoryRef struct {
	id        string
	populated *Category
}

// CategoryID builds a reference that carries only the id.
func CategoryID(id string) CategoryRef {
	return CategoryRef{id: id}
}

// PopulatedCategory builds a reference carrying the full document.
func PopulatedCategory(c Category) CategoryRef {
	return CategoryRef{id: c.ID, populated: &c}
}

// ID returns the category id regardless of which shape was decoded.
func (r CategoryRef) ID() string {
	return r.id
}

// Populated returns the full category document when the backend sent one.
func (r CategoryRef) Populated() (Category, bool) {
	if r.populated == nil {
		return Category{}, false
	}
	return *r.populated, true
}

// IsZero reports whether the reference is empty.
func (r CategoryRef) IsZero() bool {
	return r.id == "" && r.populated == nil
}

func (r CategoryRef) String() string {
	if c, ok := r.Populated(); ok {
		return c.Name
	}
	return r.id
}

// UnmarshalJSON accepts either "cat-123" or {"_id":"cat-123","name":...}.
func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = CategoryRef{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return fmt.Errorf("decode category id: %w", err)
		}
		*r = CategoryRef{id: id}
		return nil
	case '{':
		var c Category
		if err := json.Unmarshal(trimmed, &c); err != nil {
			return fmt.Errorf("decode category object: %w", err)
		}
		*r = CategoryRef{id: c.ID, populated: &c}
		return nil
	default:
		return fmt.Errorf("category must be a string or an object, got %q", trimmed)
	}
}

// MarshalJSON writes the populated document when present, the id otherwise.
func (r CategoryRef) MarshalJSON() ([]byte, error) {
	if r.populated != nil {
		return json.Marshal(r.populated)
	}
	return json.Marshal(r.id)
}
