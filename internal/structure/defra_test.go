package structure

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/outline/internal/alias"
	"github.com/jackzampolin/outline/internal/books"
	"github.com/jackzampolin/outline/internal/content"
	"github.com/jackzampolin/outline/internal/defra"
	"github.com/jackzampolin/outline/internal/outline"
	"github.com/jackzampolin/outline/internal/testutil"
)

// DefraDB refuses to re-create a deleted document ID, and IDs follow content,
// so re-running and rebuilding must never write a byte-identical document.
func TestDefraStores_RerunAndRebuild(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewDefraFake(t)
	client := defra.NewClient(fake.URL())
	items := content.NewDefraStore(client)
	links := outline.NewDefraStore(client)
	aliases := alias.NewDefraStore(client)

	root, err := items.Create(ctx, content.Item{Type: "book", Title: "Bhagavad-gita", Published: true})
	require.NoError(t, err)
	for i := 0; i < 36; i++ {
		path := fmt.Sprintf("/books/bg/%d/%d", i%18+1, i/18+1)
		id, err := items.Create(ctx, content.Item{Type: "bg", Title: path, Published: true})
		require.NoError(t, err)
		require.NoError(t, aliases.Create(ctx, alias.Alias{Path: alias.SystemPath(id), Alias: path, Langcode: "en"}))
	}

	plan := Plan{RootID: root, Shape: books.BhagavadGita.Shape(0, nil, 0), Langcode: "en"}
	builder := NewBuilder(items, links, aliases, nil)
	assigner := NewAssigner(items, aliases, links, nil)
	destroyer := NewDestroyer(items, links, aliases, nil)

	built, err := builder.Build(ctx, books.BhagavadGita, plan)
	require.NoError(t, err)
	assert.Equal(t, 18, built.ChaptersCreated)

	for run := 1; run <= 2; run++ {
		report, err := assigner.Assign(ctx, books.BhagavadGita)
		require.NoError(t, err)
		assert.Equal(t, 36, report.Assigned, "run %d", run)
		assert.Empty(t, report.Failures, "run %d", run)
	}
	assert.Equal(t, 1+18+36, fake.Count(outline.Collection), "one link per item")

	destroyed, err := destroyer.Destroy(ctx, books.BhagavadGita)
	require.NoError(t, err)
	assert.Equal(t, 18, destroyed.ChaptersDeleted)

	rebuilt, err := builder.Build(ctx, books.BhagavadGita, plan)
	require.NoError(t, err)
	assert.Equal(t, 18, rebuilt.ChaptersCreated)
	assert.Equal(t, 18, rebuilt.AliasesCreated)

	report, err := assigner.Assign(ctx, books.BhagavadGita)
	require.NoError(t, err)
	assert.Equal(t, 36, report.Assigned)
	assert.Empty(t, report.Failures)

	tree, err := outline.Tree(ctx, links, root, root)
	require.NoError(t, err)
	assert.Equal(t, 1+18+36, tree.Count())
}

func TestAssign_FailedRelinkKeepsPreviousLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	verses := f.seedGita(t, 36)
	verse := verses["/books/bg/2/1"]

	_, err := f.builder().Build(ctx, books.BhagavadGita, gitaPlan())
	require.NoError(t, err)
	_, err = f.assigner().Assign(ctx, books.BhagavadGita)
	require.NoError(t, err)
	before, err := f.links.Get(ctx, verse)
	require.NoError(t, err)

	f.links.ErrOnPut = map[string]error{verse: fmt.Errorf("write refused")}
	f.links.ErrOnDelete = map[string]error{verse: fmt.Errorf("delete refused")}
	report, err := f.assigner().Assign(ctx, books.BhagavadGita)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 35, report.Assigned)

	after, err := f.links.Get(ctx, verse)
	require.NoError(t, err, "a failed relink must not leave the verse unlinked")
	assert.Equal(t, before, after)
}
