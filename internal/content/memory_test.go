package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.Create(ctx, Item{Type: "bg_chapter", Title: "Chapter 1", Number: 1})
	require.NoError(t, err)

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1", got.Title)
	assert.Equal(t, id, got.ID)

	got.Title = "Chapter One"
	require.NoError(t, s.Update(ctx, got))
	got, _ = s.Load(ctx, id)
	assert.Equal(t, "Chapter One", got.Title)

	require.NoError(t, s.DeleteMany(ctx, []string{id, "missing"}))
	_, err = s.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_ExplicitIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.Create(ctx, Item{ID: "root", Type: "book"})
	require.NoError(t, err)
	assert.Equal(t, "root", id)

	_, err = s.Create(ctx, Item{ID: "root", Type: "book"})
	assert.Error(t, err)
}

func TestMemoryStore_Query(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	div, _ := s.Create(ctx, Item{Type: "sb_song", Number: 1})
	a, _ := s.Create(ctx, Item{Type: "sb_chapter", Number: 3, DivisionRef: div})
	b, _ := s.Create(ctx, Item{Type: "sb_chapter", Number: 3, DivisionRef: "other"})
	_, _ = s.Create(ctx, Item{Type: "sb_chapter", Number: 4, DivisionRef: div})

	ids, err := s.Query(ctx, Filter{Type: "sb_chapter", Number: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, ids)

	ids, _ = s.Query(ctx, Filter{Type: "sb_chapter", Number: 3, DivisionRef: div})
	assert.Equal(t, []string{a}, ids)

	ids, _ = s.Query(ctx, Filter{Type: "sb_chapter", Limit: 1})
	assert.Equal(t, []string{a}, ids)

	ids, _ = s.Query(ctx, Filter{Type: "bg"})
	assert.Empty(t, ids)

	many, err := s.LoadMany(ctx, []string{a, b, "missing"})
	require.NoError(t, err)
	assert.Len(t, many, 2)
}

func TestMemoryStore_ErrorInjection(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	s := NewMemoryStore()

	id, _ := s.Create(ctx, Item{Type: "bg"})
	s.ErrOnID = map[string]error{id: boom}
	s.ErrOnCreateType = map[string]error{"bg_chapter": boom}
	s.QueryErr = boom

	_, err := s.Load(ctx, id)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Update(ctx, Item{ID: id}), boom)
	assert.ErrorIs(t, s.DeleteMany(ctx, []string{id}), boom)
	_, err = s.Create(ctx, Item{Type: "bg_chapter"})
	assert.ErrorIs(t, err, boom)
	_, err = s.Query(ctx, Filter{})
	assert.ErrorIs(t, err, boom)
}

func TestMemoryStore_DeleteManyPartialFailure(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a, _ := s.Create(ctx, Item{Type: "bg_chapter", Number: 1})
	b, _ := s.Create(ctx, Item{Type: "bg_chapter", Number: 2})
	c, _ := s.Create(ctx, Item{Type: "bg_chapter", Number: 3})
	s.ErrOnID = map[string]error{b: errors.New("locked")}

	err := s.DeleteMany(ctx, []string{a, b, c})
	require.Error(t, err)
	s.ErrOnID = nil

	ids, err := s.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{b}, ids, "only the failed item remains listed")
	assert.Equal(t, 1, s.Len())
	for _, id := range ids {
		_, err := s.Load(ctx, id)
		assert.NoError(t, err)
	}
}
