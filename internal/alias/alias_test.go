package alias

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/outline/internal/defra"
	"github.com/jackzampolin/outline/internal/testutil"
)

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "aliases.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// storeContract runs the behaviour every backend shares.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.AliasByPath(ctx, "/node/1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.PathByAlias(ctx, "/books/bg/1")
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := EnsureAlias(ctx, s, Alias{Path: "/node/1", Alias: "/books/bg/1"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureAlias(ctx, s, Alias{Path: "/node/1", Alias: "/books/bg/1"})
	require.NoError(t, err)
	assert.False(t, created, "identical alias must not be written twice")

	got, err := s.AliasByPath(ctx, "/node/1")
	require.NoError(t, err)
	assert.Equal(t, "/books/bg/1", got)

	path, err := s.PathByAlias(ctx, "/books/bg/1")
	require.NoError(t, err)
	assert.Equal(t, "/node/1", path)

	ok, err := s.Exists(ctx, "/books/bg/1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeleteByPath(ctx, "/node/1"))
	ok, err = s.Exists(ctx, "/books/bg/1")
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting again is fine
	require.NoError(t, s.DeleteByPath(ctx, "/node/1"))

	// a rebuild writes the same alias again
	created, err = EnsureAlias(ctx, s, Alias{Path: "/node/1", Alias: "/books/bg/1"})
	require.NoError(t, err)
	assert.True(t, created)
	got, err = s.AliasByPath(ctx, "/node/1")
	require.NoError(t, err)
	assert.Equal(t, "/books/bg/1", got)
}

func openDefra(t *testing.T) *DefraStore {
	t.Helper()
	return NewDefraStore(defra.NewClient(testutil.NewDefraFake(t).URL()))
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestSQLiteStore_Contract(t *testing.T) {
	storeContract(t, openSQLite(t))
}

func TestDefraStore_Contract(t *testing.T) {
	storeContract(t, openDefra(t))
}

func TestNewestAliasWins(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return openSQLite(t) },
		"defra":  func(t *testing.T) Store { return openDefra(t) },
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			require.NoError(t, s.Create(ctx, Alias{Path: "/node/7", Alias: "/books/bg/2/old"}))
			require.NoError(t, s.Create(ctx, Alias{Path: "/node/7", Alias: "/books/bg/2/7", Langcode: "en"}))

			got, err := s.AliasByPath(ctx, "/node/7")
			require.NoError(t, err)
			assert.Equal(t, "/books/bg/2/7", got)
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "aliases.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, Alias{Path: "/node/1", Alias: "/books/sb/1/1/1"}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	ok, err := s.Exists(ctx, "/books/sb/1/1/1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEnsureAlias_CreateError(t *testing.T) {
	s := NewMemoryStore()
	s.CreateErr = errors.New("boom")
	_, err := EnsureAlias(context.Background(), s, Alias{Path: "/node/1", Alias: "/x"})
	assert.Error(t, err)
}

func TestSystemPath(t *testing.T) {
	assert.Equal(t, "/node/abc", SystemPath("abc"))

	id, ok := ItemID("/node/abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	for _, bad := range []string{"/node/", "/books/bg/1", "/node/a/b", ""} {
		_, ok := ItemID(bad)
		assert.False(t, ok, bad)
	}
}
