package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookType_NodeTypes(t *testing.T) {
	tests := []struct {
		name     string
		bt       BookType
		leaf     string
		chapter  string
		division string
	}{
		{"single level", BhagavadGita, "bg", "bg_chapter", ""},
		{"numbered", SrimadBhagavatam, "sb", "sb_chapter", "sb_song"},
		{"named", ChaitanyaCharitamrita, "cc", "cc_chapter", "cc_lila"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.leaf, tt.bt.LeafType())
			assert.Equal(t, tt.chapter, tt.bt.ChapterType())
			assert.Equal(t, tt.division, tt.bt.DivisionType())
		})
	}

	assert.Equal(t, []string{"bg_chapter"}, BhagavadGita.StructuralTypes())
	assert.Equal(t, []string{"sb_chapter", "sb_song"}, SrimadBhagavatam.StructuralTypes())
}

func TestGrammar_Ordinal(t *testing.T) {
	g := ChaitanyaCharitamrita.Grammar

	n, ok := g.Ordinal("madhya")
	require.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = g.Ordinal("unknown")
	assert.False(t, ok)

	d, ok := g.DivisionByNumber(3)
	require.True(t, ok)
	assert.Equal(t, "antya", d.Name)
}

func TestDivisionKey(t *testing.T) {
	assert.True(t, DivisionKey{}.IsZero())
	assert.Equal(t, "7", NumberKey(7).String())
	assert.Equal(t, "adi", NameKey("adi").String())

	n, ok := NameKey("antya").Ordinal(ChaitanyaCharitamrita.Grammar)
	require.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = NumberKey(0).Ordinal(SrimadBhagavatam.Grammar)
	assert.False(t, ok)
}

func TestBookType_Shape(t *testing.T) {
	t.Run("single level defaults", func(t *testing.T) {
		s := BhagavadGita.Shape(0, nil, 0)
		assert.Empty(t, s.Divisions)
		assert.Equal(t, 18, s.Chapters[0])
		assert.Equal(t, 18, s.ChapterTotal())
	})

	t.Run("single level override", func(t *testing.T) {
		s := BhagavadGita.Shape(3, nil, 0)
		assert.Equal(t, 3, s.ChapterTotal())
	})

	t.Run("numbered defaults", func(t *testing.T) {
		s := SrimadBhagavatam.Shape(0, nil, 0)
		require.Len(t, s.Divisions, 12)
		assert.Equal(t, "Canto 1", s.Divisions[0].Label)
		assert.Equal(t, 90, s.Chapters[10])
		assert.Equal(t, 335, s.ChapterTotal())
	})

	t.Run("numbered overrides", func(t *testing.T) {
		s := SrimadBhagavatam.Shape(0, map[string]int{"1": 2, "2": 3}, 2)
		require.Len(t, s.Divisions, 2)
		assert.Equal(t, 5, s.ChapterTotal())
	})

	t.Run("named", func(t *testing.T) {
		s := ChaitanyaCharitamrita.Shape(0, map[string]int{"madhya": 4}, 0)
		require.Len(t, s.Divisions, 3)
		assert.Equal(t, 17, s.Chapters[1])
		assert.Equal(t, 4, s.Chapters[2])
		assert.Equal(t, 20, s.Chapters[3])
	})
}

func TestBookType_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bt      BookType
		wantErr bool
	}{
		{"bg", BhagavadGita, false},
		{"sb", SrimadBhagavatam, false},
		{"cc", ChaitanyaCharitamrita, false},
		{"empty code", BookType{Grammar: Grammar{Levels: 1}}, true},
		{"underscore code", BookType{Code: "a_b", Grammar: Grammar{Levels: 1}}, true},
		{"bad levels", BookType{Code: "x", Grammar: Grammar{Levels: 3}}, true},
		{"missing kind", BookType{Code: "x", Grammar: Grammar{Levels: 2, Keying: KeyNumbered}}, true},
		{"named without table", BookType{Code: "x", Grammar: Grammar{Levels: 2, Keying: KeyNamed, DivisionKind: "part"}}, true},
		{"duplicate names", BookType{Code: "x", Grammar: Grammar{
			Levels: 2, Keying: KeyNamed, DivisionKind: "part",
			Divisions: []Division{{Number: 1, Name: "a"}, {Number: 2, Name: "a"}},
		}}, true},
		{"unknown keying", BookType{Code: "x", Grammar: Grammar{Levels: 2, Keying: "roman", DivisionKind: "part"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bt.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"bg", "cc", "sb"}, r.Codes())

	bt, ok := r.Get("sb")
	require.True(t, ok)
	assert.Equal(t, "Srimad-Bhagavatam", bt.Name)

	_, ok = r.Get("xx")
	assert.False(t, ok)

	// new book types are data only
	err := r.Register(BookType{Code: "nod", Name: "Nectar of Devotion", Grammar: Grammar{Levels: 1}})
	require.NoError(t, err)
	assert.Len(t, r.Codes(), 4)

	assert.Error(t, r.Register(BookType{Code: ""}))
}
