package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/outline/internal/alias"
	"github.com/jackzampolin/outline/internal/books"
	"github.com/jackzampolin/outline/internal/content"
	"github.com/jackzampolin/outline/internal/nav"
	"github.com/jackzampolin/outline/internal/outline"
	"github.com/jackzampolin/outline/internal/structure"
)

type env struct {
	items   *content.MemoryStore
	links   *outline.MemoryStore
	aliases *alias.MemoryStore
	menu    *nav.MemoryStore
	runner  *Runner
}

func newEnv(t *testing.T, chunk int) *env {
	t.Helper()
	e := &env{
		items:   content.NewMemoryStore(),
		links:   outline.NewMemoryStore(),
		aliases: alias.NewMemoryStore(),
		menu:    nav.NewMemoryStore(),
	}
	_, err := e.items.Create(context.Background(), content.Item{ID: "gita", Type: "book", Title: "Bhagavad-gita As It Is"})
	require.NoError(t, err)

	plans := func(bt books.BookType) (structure.Plan, error) {
		if bt.Code != "bg" {
			return structure.Plan{}, &structure.ConfigurationError{BookType: bt.Code, Reason: "main_book_nid is not configured"}
		}
		return structure.Plan{RootID: "gita", Shape: bt.Shape(0, nil, 0)}, nil
	}

	e.runner = NewRunner(Config{
		Builder:   structure.NewBuilder(e.items, e.links, e.aliases, nil),
		Assigner:  structure.NewAssigner(e.items, e.aliases, e.links, nil),
		Destroyer: structure.NewDestroyer(e.items, e.links, e.aliases, nil),
		Sync:      nav.NewSynchronizer(e.items, e.links, e.menu, nil),
		Plans:     plans,
		ChunkSize: chunk,
	})
	return e
}

// seed creates n verses; every skipEvery-th one has no alias when skipEvery > 0.
func (e *env) seed(t *testing.T, n, skipEvery int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		id, err := e.items.Create(ctx, content.Item{Type: "bg", Title: fmt.Sprintf("Verse %d", i)})
		require.NoError(t, err)
		if skipEvery > 0 && (i+1)%skipEvery == 0 {
			continue
		}
		path := fmt.Sprintf("/books/bg/%d/%d", i%18+1, i/18+1)
		require.NoError(t, e.aliases.Create(ctx, alias.Alias{Path: alias.SystemPath(id), Alias: path}))
	}
}

func TestParseOp(t *testing.T) {
	for _, s := range []string{"build", "assign", "destroy", "sync"} {
		op, err := ParseOp(s)
		require.NoError(t, err)
		assert.Equal(t, Op(s), op)
	}
	_, err := ParseOp("rebuild")
	assert.Error(t, err)
}

func TestStep_Build(t *testing.T) {
	e := newEnv(t, 0)
	assert.Equal(t, DefaultChunkSize, e.runner.ChunkSize())

	tok, err := e.runner.Step(context.Background(), NewToken(OpBuild, "bg"))
	require.NoError(t, err)
	assert.Equal(t, 1, tok.Max)
	assert.Equal(t, 1, tok.Progress)
	assert.Equal(t, 1.0, tok.Finished)
	assert.Equal(t, PhaseDone, tok.Phase)
	assert.True(t, tok.Done())
	assert.Contains(t, tok.Message, "18 chapters")

	// a finished token is inert
	again, err := e.runner.Step(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, tok, again)
}

func TestStep_AssignChunks(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 50)
	e.seed(t, 120, 0)
	_, err := e.runner.Drain(ctx, NewToken(OpBuild, "bg"))
	require.NoError(t, err)

	tok := NewToken(OpAssign, "bg")
	var finished []float64
	var progress []int
	for !tok.Done() {
		tok, err = e.runner.Step(ctx, tok)
		require.NoError(t, err)
		finished = append(finished, tok.Finished)
		progress = append(progress, tok.Progress)
	}

	assert.Equal(t, []int{50, 100, 120}, progress)
	require.Len(t, finished, 3)
	assert.InDelta(t, 50.0/120.0, finished[0], 1e-9)
	assert.InDelta(t, 100.0/120.0, finished[1], 1e-9)
	assert.Equal(t, 1.0, finished[2])
	assert.Len(t, tok.Snapshot, 120)
	assert.Empty(t, tok.Errors)
	assert.Empty(t, tok.Warnings)
}

func TestStep_AssignSnapshotIsFixedAtInit(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 10)
	e.seed(t, 20, 0)
	_, err := e.runner.Drain(ctx, NewToken(OpBuild, "bg"))
	require.NoError(t, err)

	tok, err := e.runner.Step(ctx, NewToken(OpAssign, "bg"))
	require.NoError(t, err)
	e.seed(t, 5, 0)

	tok, err = e.runner.Drain(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, 20, tok.Max)
	assert.Equal(t, 20, tok.Progress)
}

func TestStep_MissingAliasesStillFinish(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 50)
	e.seed(t, 200, 20)
	_, err := e.runner.Drain(ctx, NewToken(OpBuild, "bg"))
	require.NoError(t, err)

	tok, err := e.runner.Drain(ctx, NewToken(OpAssign, "bg"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, tok.Finished)
	assert.False(t, tok.Failed)
	assert.Len(t, tok.Warnings, 10)
	assert.Equal(t, 10, tok.WarningCount)
	for _, w := range tok.Warnings {
		assert.Contains(t, w, string(structure.ReasonNoAlias))
	}
}

func TestStep_RecordedWarningsAreCapped(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 50)
	n := MaxRecorded + 60
	e.seed(t, n, 1)
	_, err := e.runner.Drain(ctx, NewToken(OpBuild, "bg"))
	require.NoError(t, err)

	tok, err := e.runner.Drain(ctx, NewToken(OpAssign, "bg"))
	require.NoError(t, err)
	assert.False(t, tok.Failed)
	assert.Equal(t, n, tok.Progress)
	assert.Len(t, tok.Warnings, MaxRecorded)
	assert.Equal(t, n, tok.WarningCount)
	assert.Zero(t, tok.ErrorCount)
}

func TestStep_EmptyAssign(t *testing.T) {
	e := newEnv(t, 50)
	tok, err := e.runner.Step(context.Background(), NewToken(OpAssign, "bg"))
	require.NoError(t, err)
	assert.Equal(t, 0, tok.Max)
	assert.Equal(t, 1.0, tok.Finished)
	assert.True(t, tok.Done())
}

func TestStep_SingleShotFailure(t *testing.T) {
	e := newEnv(t, 50)

	tok, err := e.runner.Step(context.Background(), NewToken(OpBuild, "sb"))
	require.NoError(t, err)
	assert.True(t, tok.Failed)
	assert.True(t, tok.Done())
	assert.Less(t, tok.Progress, tok.Max)
	require.Len(t, tok.Errors, 1)
	assert.Contains(t, tok.Errors[0], "main_book_nid")

	tok, err = e.runner.Step(context.Background(), NewToken(OpDestroy, "xx"))
	require.NoError(t, err)
	assert.True(t, tok.Failed)
	assert.Contains(t, tok.Errors[0], "unknown book type")
}

func TestStep_Cancelled(t *testing.T) {
	e := newEnv(t, 50)
	e.seed(t, 10, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := NewToken(OpAssign, "bg")
	tok, err := e.runner.Step(ctx, start)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, start, tok)
}

func TestStep_DestroyThenSync(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 50)
	e.seed(t, 36, 0)

	for _, op := range []Op{OpBuild, OpAssign} {
		tok, err := e.runner.Drain(ctx, NewToken(op, "bg"))
		require.NoError(t, err)
		require.False(t, tok.Failed, tok.Errors)
	}

	tok, err := e.runner.Drain(ctx, NewToken(OpSync, ""))
	require.NoError(t, err)
	assert.False(t, tok.Failed, tok.Errors)
	// book root, 18 chapters and 36 verses; sb and cc have no root
	links, err := e.menu.List(ctx, DefaultMenu)
	require.NoError(t, err)
	assert.Len(t, links, 1+18+36)
	assert.Len(t, tok.Warnings, 2)

	tok, err = e.runner.Drain(ctx, NewToken(OpDestroy, "bg"))
	require.NoError(t, err)
	assert.False(t, tok.Failed, tok.Errors)
	assert.Contains(t, tok.Message, "deleted 18 chapters")
	assert.Equal(t, 1, e.links.Len())
}

func TestStep_DestroyFailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 50)
	e.seed(t, 18, 0)
	_, err := e.runner.Drain(ctx, NewToken(OpBuild, "bg"))
	require.NoError(t, err)
	_, err = e.runner.Drain(ctx, NewToken(OpAssign, "bg"))
	require.NoError(t, err)

	ids, err := e.items.Query(ctx, content.Filter{Type: "bg", Limit: 1})
	require.NoError(t, err)
	e.links.ErrOnDelete = map[string]error{ids[0]: errors.New("locked")}

	tok, err := e.runner.Drain(ctx, NewToken(OpDestroy, "bg"))
	require.NoError(t, err)
	assert.True(t, tok.Failed)
	assert.Equal(t, 0, tok.Progress)
	assert.Contains(t, tok.Errors[0], "locked")
}
