package outline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "v1")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing link is a no-op
	assert.NoError(t, s.Delete(ctx, "v1"))

	link := Link{ItemID: "v1", ContainerID: "root", ParentID: "c1", Weight: 4, IsLeaf: true}
	require.NoError(t, s.Put(ctx, link))
	got, err := s.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, link, got)

	link.Weight = 5
	require.NoError(t, s.Put(ctx, link))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "v1"))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_ErrorInjection(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	s := NewMemoryStore()
	s.ErrOnPut = map[string]error{"a": boom}
	s.ErrOnDelete = map[string]error{"b": boom}

	assert.ErrorIs(t, s.Put(ctx, Link{ItemID: "a"}), boom)
	assert.ErrorIs(t, s.Delete(ctx, "b"), boom)
}

func TestLink_IsRoot(t *testing.T) {
	assert.True(t, Link{ItemID: "r", ContainerID: "r"}.IsRoot())
	assert.False(t, Link{ItemID: "c", ContainerID: "r", ParentID: "r"}.IsRoot())
}
