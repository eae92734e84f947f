// Package books describes the book types the outline engine knows how to structure.
// A book type is pure data: adding one means adding a grammar record to the registry,
// never a new code path in the parser or the structure builder.
package books

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Keying says how divisions are addressed in path aliases.
type Keying string

const (
	// KeyNumbered divisions appear as ordinals: /books/sb/3/14/5
	KeyNumbered Keying = "numbered"
	// KeyNamed divisions appear by name: /books/cc/madhya/20/1
	KeyNamed Keying = "named"
)

// Division is one top-level division of a two-level book.
type Division struct {
	Number int    `json:"number" yaml:"number"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Label  string `json:"label" yaml:"label"`
}

// Grammar is the path grammar and fixed shape of a book type.
type Grammar struct {
	// Levels is 1 for chapter-only books and 2 for division+chapter books.
	Levels int `json:"levels" yaml:"levels"`

	// Keying applies to two-level books only.
	Keying Keying `json:"keying,omitempty" yaml:"keying,omitempty"`

	// DivisionKind names the division node type suffix ("song" → sb_song).
	DivisionKind string `json:"division_kind,omitempty" yaml:"division_kind,omitempty"`

	// DivisionTitle is a format for numbered division titles, e.g. "Canto %d".
	DivisionTitle string `json:"division_title,omitempty" yaml:"division_title,omitempty"`

	// Divisions is the fixed ordered division set of named books.
	Divisions []Division `json:"divisions,omitempty" yaml:"divisions,omitempty"`

	// DefaultDivisions is the division count of numbered books when config is silent.
	DefaultDivisions int `json:"default_divisions,omitempty" yaml:"default_divisions,omitempty"`
}

// Named reports whether divisions are keyed by name.
func (g Grammar) Named() bool {
	return g.Levels > 1 && g.Keying == KeyNamed
}

// Ordinal maps a division name to its ordinal through the fixed name table.
func (g Grammar) Ordinal(name string) (int, bool) {
	for _, d := range g.Divisions {
		if d.Name == name {
			return d.Number, true
		}
	}
	return 0, false
}

// DivisionByNumber returns the named division with the given ordinal.
func (g Grammar) DivisionByNumber(n int) (Division, bool) {
	for _, d := range g.Divisions {
		if d.Number == n {
			return d, true
		}
	}
	return Division{}, false
}

// BookType is a named content hierarchy profile.
type BookType struct {
	Code    string  `json:"code" yaml:"code"`
	Name    string  `json:"name" yaml:"name"`
	Grammar Grammar `json:"grammar" yaml:"grammar"`

	// DefaultChapters holds chapter counts keyed by division key
	// ("" for single-level books, ordinal or name otherwise).
	DefaultChapters map[string]int `json:"default_chapters,omitempty" yaml:"default_chapters,omitempty"`
}

// LeafType is the content type of the book's verses.
func (b BookType) LeafType() string { return b.Code }

// ChapterType is the content type of chapter nodes.
func (b BookType) ChapterType() string { return b.Code + "_chapter" }

// DivisionType is the content type of division nodes, or "" for single-level books.
func (b BookType) DivisionType() string {
	if !b.HasDivisions() {
		return ""
	}
	return b.Code + "_" + b.Grammar.DivisionKind
}

// HasDivisions reports whether the book has a division level.
func (b BookType) HasDivisions() bool {
	return b.Grammar.Levels > 1
}

// StructuralTypes lists every structural node type of the book, chapters first.
func (b BookType) StructuralTypes() []string {
	types := []string{b.ChapterType()}
	if b.HasDivisions() {
		types = append(types, b.DivisionType())
	}
	return types
}

// DivisionKey identifies a division by ordinal or by name.
type DivisionKey struct {
	Number int
	Name   string
}

// NumberKey returns a key for a numbered division.
func NumberKey(n int) DivisionKey { return DivisionKey{Number: n} }

// NameKey returns a key for a named division.
func NameKey(name string) DivisionKey { return DivisionKey{Name: name} }

// IsZero reports whether the key carries no coordinate.
func (k DivisionKey) IsZero() bool { return k.Number == 0 && k.Name == "" }

func (k DivisionKey) String() string {
	if k.Name != "" {
		return k.Name
	}
	return strconv.Itoa(k.Number)
}

// Ordinal resolves the key to an ordinal under the given grammar.
func (k DivisionKey) Ordinal(g Grammar) (int, bool) {
	if k.Name != "" {
		return g.Ordinal(k.Name)
	}
	return k.Number, k.Number > 0
}

// Shape is the declared skeleton the structure builder realises.
type Shape struct {
	Divisions []Division
	// Chapters maps division ordinal to chapter count; key 0 for single-level books.
	Chapters map[int]int
}

// ChapterTotal is the total number of chapters the shape declares.
func (s Shape) ChapterTotal() int {
	total := 0
	for _, n := range s.Chapters {
		total += n
	}
	return total
}

// Shape resolves the declared shape from configured counts. total applies to single-level
// books; perDivision is keyed by ordinal or name; divisions overrides the division count of
// numbered books. Missing values fall back to the book type defaults.
func (b BookType) Shape(total int, perDivision map[string]int, divisions int) Shape {
	shape := Shape{Chapters: make(map[int]int)}

	if !b.HasDivisions() {
		if total <= 0 {
			total = b.DefaultChapters[""]
		}
		shape.Chapters[0] = total
		return shape
	}

	lookup := func(d Division) int {
		for _, key := range []string{d.Name, strconv.Itoa(d.Number)} {
			if key == "" {
				continue
			}
			if n, ok := perDivision[key]; ok {
				return n
			}
		}
		for _, key := range []string{d.Name, strconv.Itoa(d.Number)} {
			if key == "" {
				continue
			}
			if n, ok := b.DefaultChapters[key]; ok {
				return n
			}
		}
		return 0
	}

	if b.Grammar.Named() {
		shape.Divisions = append(shape.Divisions, b.Grammar.Divisions...)
	} else {
		if divisions <= 0 {
			divisions = b.Grammar.DefaultDivisions
		}
		for key := range perDivision {
			if n, err := strconv.Atoi(key); err == nil && n > divisions {
				divisions = n
			}
		}
		title := b.Grammar.DivisionTitle
		if title == "" {
			title = "Division %d"
			if kind := b.Grammar.DivisionKind; kind != "" {
				title = strings.ToUpper(kind[:1]) + kind[1:] + " %d"
			}
		}
		for i := 1; i <= divisions; i++ {
			shape.Divisions = append(shape.Divisions, Division{Number: i, Label: fmt.Sprintf(title, i)})
		}
	}

	for _, d := range shape.Divisions {
		shape.Chapters[d.Number] = lookup(d)
	}
	return shape
}

// Registry holds the known book types.
type Registry struct {
	mu    sync.RWMutex
	types map[string]BookType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]BookType)}
}

// Register adds or replaces a book type after validating its grammar.
func (r *Registry) Register(bt BookType) error {
	if err := bt.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[bt.Code] = bt
	return nil
}

// Get returns a book type by code.
func (r *Registry) Get(code string) (BookType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bt, ok := r.types[code]
	return bt, ok
}

// Codes returns the registered codes in sorted order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.types))
	for code := range r.types {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Validate checks that the grammar is internally consistent.
func (b BookType) Validate() error {
	if b.Code == "" || strings.ContainsAny(b.Code, "/_ ") {
		return fmt.Errorf("invalid book type code %q", b.Code)
	}
	g := b.Grammar
	switch g.Levels {
	case 1:
		return nil
	case 2:
	default:
		return fmt.Errorf("book type %s: levels must be 1 or 2, got %d", b.Code, g.Levels)
	}
	if g.DivisionKind == "" {
		return fmt.Errorf("book type %s: division kind is required for two-level books", b.Code)
	}
	switch g.Keying {
	case KeyNumbered:
	case KeyNamed:
		if len(g.Divisions) == 0 {
			return fmt.Errorf("book type %s: named books need a division table", b.Code)
		}
		seen := make(map[string]bool)
		for _, d := range g.Divisions {
			if d.Name == "" || d.Number <= 0 {
				return fmt.Errorf("book type %s: division %+v needs a name and a positive number", b.Code, d)
			}
			if seen[d.Name] {
				return fmt.Errorf("book type %s: duplicate division name %q", b.Code, d.Name)
			}
			seen[d.Name] = true
		}
	default:
		return fmt.Errorf("book type %s: unknown keying %q", b.Code, g.Keying)
	}
	return nil
}
