package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/outline/internal/books"
)

func TestChapter(t *testing.T) {
	tests := []struct {
		name   string
		slug   string
		bt     books.BookType
		want   int
		wantOK bool
	}{
		{"bg verse", "/books/bg/2/13", books.BhagavadGita, 2, true},
		{"bg range", "/books/bg/1/16-18", books.BhagavadGita, 1, true},
		{"bg empty leaf", "/books/bg/2/", books.BhagavadGita, 2, true},
		{"bg chapter alias itself", "/books/bg/2", books.BhagavadGita, 0, false},
		{"bg chapter zero", "/books/bg/0/1", books.BhagavadGita, 0, false},
		{"bg wrong book", "/books/sb/1/1/1", books.BhagavadGita, 0, false},
		{"bg not anchored", "/x/books/bg/2/13", books.BhagavadGita, 0, false},
		{"sb verse", "/books/sb/1/3/28", books.SrimadBhagavatam, 3, true},
		{"sb missing division", "/books/sb/3/28", books.SrimadBhagavatam, 0, false},
		{"cc verse", "/books/cc/madhya/20/1", books.ChaitanyaCharitamrita, 20, true},
		{"cc unknown lila still has chapter", "/books/cc/unknown/5/1", books.ChaitanyaCharitamrita, 5, true},
		{"empty", "", books.BhagavadGita, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Chapter(tt.slug, tt.bt)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDivision(t *testing.T) {
	n, ok := Division("/books/sb/10/14/3", books.SrimadBhagavatam)
	require.True(t, ok)
	assert.Equal(t, 10, n)

	n, ok = Division("/books/cc/antya/1/1", books.ChaitanyaCharitamrita)
	require.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = Division("/books/cc/unknown/1/1", books.ChaitanyaCharitamrita)
	assert.False(t, ok)

	_, ok = Division("/books/bg/2/13", books.BhagavadGita)
	assert.False(t, ok)

	_, ok = Division("/books/sb/0/1/1", books.SrimadBhagavatam)
	assert.False(t, ok)
}

func TestDivisionName(t *testing.T) {
	name, ok := DivisionName("/books/cc/madhya/20/1", books.ChaitanyaCharitamrita)
	require.True(t, ok)
	assert.Equal(t, "madhya", name)

	_, ok = DivisionName("/books/sb/1/1/1", books.SrimadBhagavatam)
	assert.False(t, ok)
}

func TestLeafNumber(t *testing.T) {
	tests := []struct {
		slug string
		want int
	}{
		{"/books/bg/2/13", 13},
		{"/books/bg/1/16-18", 16},
		{"/books/bg/2/", 0},
		{"/books/bg/2/intro", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.want, LeafNumber(tt.slug))
		})
	}
}

func TestLeafRange(t *testing.T) {
	tests := []struct {
		name string
		slug string
		want []int
	}{
		{"range", "/books/bg/1/16-18", []int{16, 17, 18}},
		{"single", "/books/bg/2/13", []int{13}},
		{"empty tail", "/books/bg/2/", nil},
		{"text tail", "/books/bg/2/intro", nil},
		{"reversed", "/books/bg/1/18-16", []int{18}},
		{"degenerate", "/books/bg/1/5-5", []int{5}},
		{"oversized", "/books/bg/1/1-5000", []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LeafRange(tt.slug))
		})
	}
}

func TestParse(t *testing.T) {
	c, ok := Parse("/books/sb/1/3/28", books.SrimadBhagavatam)
	require.True(t, ok)
	assert.Equal(t, Coords{Division: 1, Chapter: 3, Leaf: 28, Range: []int{28}}, c)
	assert.Equal(t, books.NumberKey(1), c.DivisionKey())

	c, ok = Parse("/books/cc/madhya/20/1-3", books.ChaitanyaCharitamrita)
	require.True(t, ok)
	assert.Equal(t, 2, c.Division)
	assert.Equal(t, "madhya", c.DivisionName)
	assert.Equal(t, []int{1, 2, 3}, c.Range)
	assert.Equal(t, books.NameKey("madhya"), c.DivisionKey())

	_, ok = Parse("/books/bg/2", books.BhagavadGita)
	assert.False(t, ok)
}

func TestAliasesRoundTrip(t *testing.T) {
	for _, bt := range []books.BookType{books.BhagavadGita, books.SrimadBhagavatam, books.ChaitanyaCharitamrita} {
		shape := bt.Shape(0, nil, 0)
		divisions := shape.Divisions
		if len(divisions) == 0 {
			divisions = []books.Division{{}}
		}
		for _, d := range divisions {
			alias := LeafAlias(bt, d, 4, "7")
			c, ok := Parse(alias, bt)
			require.True(t, ok, alias)
			assert.Equal(t, 4, c.Chapter, alias)
			assert.Equal(t, 7, c.Leaf, alias)
			assert.Equal(t, d.Number, c.Division, alias)
		}
	}

	assert.Equal(t, "/books/bg/3", ChapterAlias(books.BhagavadGita, books.Division{}, 3))
	assert.Equal(t, "/books/sb/2", DivisionAlias(books.SrimadBhagavatam, books.Division{Number: 2}))
	assert.Equal(t, "/books/sb/2/5", ChapterAlias(books.SrimadBhagavatam, books.Division{Number: 2}, 5))
	assert.Equal(t, "/books/cc/adi", DivisionAlias(books.ChaitanyaCharitamrita, books.Division{Number: 1, Name: "adi"}))
	assert.Equal(t, "/books/cc/adi/5", ChapterAlias(books.ChaitanyaCharitamrita, books.Division{Number: 1, Name: "adi"}, 5))
}
