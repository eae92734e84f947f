// Package structure builds, fills and tears down book outlines: the chapter and
// division nodes of a book type, and the links that hang each verse under its chapter.
package structure

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackzampolin/outline/internal/books"
	"github.com/jackzampolin/outline/internal/content"
	"github.com/jackzampolin/outline/internal/slug"
)

// Resolver finds existing structural nodes by coordinates.
// Every lookup returns (nil, nil) when nothing matches.
type Resolver struct {
	items content.Store
}

// NewResolver creates a resolver over the content store.
func NewResolver(items content.Store) *Resolver {
	return &Resolver{items: items}
}

// first loads the first match, in store order.
func (r *Resolver) first(ctx context.Context, f content.Filter) (*content.Item, error) {
	f.Limit = 1
	ids, err := r.items.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", f.Type, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	item, err := r.items.Load(ctx, ids[0])
	if errors.Is(err, content.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindChapter finds a chapter of a single-level book.
func (r *Resolver) FindChapter(ctx context.Context, bt books.BookType, number int) (*content.Item, error) {
	if number <= 0 {
		return nil, nil
	}
	return r.first(ctx, content.Filter{Type: bt.ChapterType(), Number: number})
}

// FindDivision finds a division by ordinal or by name.
func (r *Resolver) FindDivision(ctx context.Context, bt books.BookType, key books.DivisionKey) (*content.Item, error) {
	if !bt.HasDivisions() {
		return nil, nil
	}
	ordinal, ok := key.Ordinal(bt.Grammar)
	if !ok {
		return nil, nil
	}
	return r.first(ctx, content.Filter{Type: bt.DivisionType(), Number: ordinal})
}

// FindChapterInDivision finds a chapter inside a division.
func (r *Resolver) FindChapterInDivision(ctx context.Context, bt books.BookType, key books.DivisionKey, number int) (*content.Item, error) {
	if number <= 0 {
		return nil, nil
	}
	div, err := r.FindDivision(ctx, bt, key)
	if err != nil || div == nil {
		return nil, err
	}
	return r.first(ctx, content.Filter{Type: bt.ChapterType(), Number: number, DivisionRef: div.ID})
}

// Resolve returns the chapter a set of parsed coordinates points at.
func (r *Resolver) Resolve(ctx context.Context, bt books.BookType, c slug.Coords) (*content.Item, error) {
	if bt.HasDivisions() {
		return r.FindChapterInDivision(ctx, bt, c.DivisionKey(), c.Chapter)
	}
	return r.FindChapter(ctx, bt, c.Chapter)
}
