package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/outline/internal/defra"
	"github.com/jackzampolin/outline/internal/testutil"
)

func TestDefraStore_RecreateAfterDelete(t *testing.T) {
	ctx := context.Background()
	s := NewDefraStore(defra.NewClient(testutil.NewDefraFake(t).URL()))

	chapter := Item{Type: "bg_chapter", Title: "Chapter 1", Number: 1, BookRef: "root", Published: true, Langcode: "en"}
	first, err := s.Create(ctx, chapter)
	require.NoError(t, err)
	require.NoError(t, s.DeleteMany(ctx, []string{first}))

	second, err := s.Create(ctx, chapter)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	ids, err := s.Query(ctx, Filter{Type: "bg_chapter", Number: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{second}, ids)

	got, err := s.Load(ctx, second)
	require.NoError(t, err)
	chapter.ID = second
	assert.Equal(t, chapter, got)
}

func gqlServer(t *testing.T, handle func(req defra.GQLRequest) string) *defra.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req defra.GQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(handle(req)))
	}))
	t.Cleanup(srv.Close)
	return defra.NewClient(srv.URL)
}

func TestDefraStore_Load(t *testing.T) {
	client := gqlServer(t, func(req defra.GQLRequest) string {
		if req.Variables["v0"] == "bae-1" {
			return `{"data": {"Node": [{"_docID": "bae-1", "type": "bg_chapter", "title": "Chapter 2", "number": 2, "published": true}]}}`
		}
		return `{"data": {"Node": []}}`
	})
	s := NewDefraStore(client)

	item, err := s.Load(context.Background(), "bae-1")
	require.NoError(t, err)
	assert.Equal(t, Item{ID: "bae-1", Type: "bg_chapter", Title: "Chapter 2", Number: 2, Published: true}, item)

	_, err = s.Load(context.Background(), "bae-2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Load(context.Background(), "not an id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDefraStore_Query(t *testing.T) {
	var got defra.GQLRequest
	client := gqlServer(t, func(req defra.GQLRequest) string {
		got = req
		return `{"data": {"Node": [{"_docID": "bae-9"}]}}`
	})
	s := NewDefraStore(client)

	ids, err := s.Query(context.Background(), Filter{Type: "sb_chapter", Number: 3, DivisionRef: "bae-d", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"bae-9"}, ids)
	assert.Contains(t, got.Query, "type: {_eq: $v0}")
	assert.Contains(t, got.Query, "number: {_eq: $v1}")
	assert.Contains(t, got.Query, "division_ref: {_eq: $v2}")
	assert.Contains(t, got.Query, "order: {_docID: ASC}")
	assert.Contains(t, got.Query, "limit: 1")
}

func TestDefraStore_Create(t *testing.T) {
	var got defra.GQLRequest
	client := gqlServer(t, func(req defra.GQLRequest) string {
		got = req
		return `{"data": {"create_Node": [{"_docID": "bae-new"}]}}`
	})
	s := NewDefraStore(client)

	id, err := s.Create(context.Background(), Item{Type: "bg_chapter", Title: "Chapter 1", Number: 1})
	require.NoError(t, err)
	assert.Equal(t, "bae-new", id)
	assert.True(t, strings.HasPrefix(got.Query, "mutation { create_Node("))
	assert.Contains(t, got.Query, `type: "bg_chapter"`)
}

func TestDefraStore_DeleteMany_ContinuesPastFailures(t *testing.T) {
	calls := 0
	client := gqlServer(t, func(req defra.GQLRequest) string {
		calls++
		if strings.Contains(req.Query, "bae-bad") {
			return `{"errors": [{"message": "nope"}]}`
		}
		return `{"data": {"delete_Node": [{"_docID": "x"}]}}`
	})
	s := NewDefraStore(client)

	err := s.DeleteMany(context.Background(), []string{"bae-1", "bae-bad", "bae-3"})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}
