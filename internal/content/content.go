// Package content is the store of content items: leaf verses and the structural
// nodes (chapters, divisions, book roots) that share their storage.
package content

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an item does not exist.
var ErrNotFound = errors.New("content item not found")

// Item is one stored content item.
type Item struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`

	// Number is the ordinal of a chapter or division.
	Number int `json:"number,omitempty"`

	// DivisionRef points a chapter at its division.
	DivisionRef string `json:"division_ref,omitempty"`

	// BookRef points a structural node at its book root.
	BookRef string `json:"book_ref,omitempty"`

	// Label is the display name of a named division ("adi").
	Label string `json:"label,omitempty"`

	Published bool   `json:"published"`
	Langcode  string `json:"langcode,omitempty"`
}

// Filter selects items by attribute equality. Zero fields are ignored.
type Filter struct {
	Type        string
	Number      int
	DivisionRef string
	Limit       int
}

// Store is the content store collaborator.
type Store interface {
	Create(ctx context.Context, item Item) (string, error)
	Load(ctx context.Context, id string) (Item, error)
	LoadMany(ctx context.Context, ids []string) (map[string]Item, error)
	Update(ctx context.Context, item Item) error
	DeleteMany(ctx context.Context, ids []string) error
	Query(ctx context.Context, f Filter) ([]string, error)
}
