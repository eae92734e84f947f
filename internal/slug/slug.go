// Package slug extracts structural coordinates from verse path aliases.
//
// Every book type has one alias grammar, derived from its books.Grammar record:
//
//	/books/<code>/<chapter>/<leaf>                  single-level
//	/books/<code>/<division>/<chapter>/<leaf>       numbered divisions
//	/books/<code>/<division-name>/<chapter>/<leaf>  named divisions
//
// The leaf segment may be empty, a number, or an inclusive range "N-M".
// Parsing never fails loudly: a slug that does not fit the grammar yields no coordinates.
package slug

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/jackzampolin/outline/internal/books"
)

// MaxRangeSpan caps how many leaves a single range alias may expand to.
const MaxRangeSpan = 1000

var (
	leafNumberRe = regexp.MustCompile(`/(\d+)(?:-\d+)?$`)
	leafRangeRe  = regexp.MustCompile(`/(\d+)-(\d+)$`)
	leafSingleRe = regexp.MustCompile(`/(\d+)$`)
)

// Coords are the structural coordinates parsed from one alias.
type Coords struct {
	Division     int    `json:"division,omitempty"`
	DivisionName string `json:"division_name,omitempty"`
	Chapter      int    `json:"chapter"`
	Leaf         int    `json:"leaf"`
	Range        []int  `json:"range,omitempty"`
}

// DivisionKey returns the division coordinate as a key usable by the resolver.
func (c Coords) DivisionKey() books.DivisionKey {
	if c.DivisionName != "" {
		return books.NameKey(c.DivisionName)
	}
	return books.NumberKey(c.Division)
}

// pattern is a compiled grammar. Group indexes are -1 when the grammar lacks the level.
type pattern struct {
	re       *regexp.Regexp
	division int
	chapter  int
}

type patternKey struct {
	code   string
	levels int
	keying books.Keying
}

var patterns sync.Map // patternKey -> *pattern

func compile(bt books.BookType) *pattern {
	key := patternKey{code: bt.Code, levels: bt.Grammar.Levels, keying: bt.Grammar.Keying}
	if p, ok := patterns.Load(key); ok {
		return p.(*pattern)
	}

	prefix := `^/books/` + regexp.QuoteMeta(bt.Code) + `/`
	const tail = `/[^/]*$`

	var p *pattern
	switch {
	case !bt.HasDivisions():
		p = &pattern{re: regexp.MustCompile(prefix + `(\d+)` + tail), division: -1, chapter: 1}
	case bt.Grammar.Named():
		p = &pattern{re: regexp.MustCompile(prefix + `([^/]+)/(\d+)` + tail), division: 1, chapter: 2}
	default:
		p = &pattern{re: regexp.MustCompile(prefix + `(\d+)/(\d+)` + tail), division: 1, chapter: 2}
	}

	actual, _ := patterns.LoadOrStore(key, p)
	return actual.(*pattern)
}

func (p *pattern) match(slug string) []string {
	return p.re.FindStringSubmatch(slug)
}

// positive parses a strictly positive ordinal.
func positive(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Chapter extracts the chapter ordinal.
func Chapter(slug string, bt books.BookType) (int, bool) {
	p := compile(bt)
	m := p.match(slug)
	if m == nil {
		return 0, false
	}
	return positive(m[p.chapter])
}

// Division extracts the division ordinal. For named books the name is mapped through the
// grammar's name table.
func Division(slug string, bt books.BookType) (int, bool) {
	p := compile(bt)
	if p.division < 0 {
		return 0, false
	}
	m := p.match(slug)
	if m == nil {
		return 0, false
	}
	if bt.Grammar.Named() {
		return bt.Grammar.Ordinal(m[p.division])
	}
	return positive(m[p.division])
}

// DivisionName extracts the division name of a named book.
func DivisionName(slug string, bt books.BookType) (string, bool) {
	if !bt.Grammar.Named() {
		return "", false
	}
	p := compile(bt)
	m := p.match(slug)
	if m == nil {
		return "", false
	}
	return m[p.division], true
}

// LeafNumber returns the leaf number, the first number of a range, or 0.
func LeafNumber(slug string) int {
	m := leafNumberRe.FindStringSubmatch(slug)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// LeafRange returns the leaves an alias covers: nil without a numeric tail, a single
// element for a plain leaf, and the inclusive range for "N-M". Reversed or oversized
// ranges collapse to their first number.
func LeafRange(slug string) []int {
	if m := leafRangeRe.FindStringSubmatch(slug); m != nil {
		start, err1 := strconv.Atoi(m[1])
		end, err2 := strconv.Atoi(m[2])
		if err1 != nil {
			return nil
		}
		if err2 != nil || end < start || end-start >= MaxRangeSpan {
			return []int{start}
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out
	}
	if m := leafSingleRe.FindStringSubmatch(slug); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		return []int{n}
	}
	return nil
}

// Parse extracts every coordinate. ok is false unless the slug matches the grammar and
// carries the chapter (and, for two-level books, the division) coordinate.
func Parse(slug string, bt books.BookType) (Coords, bool) {
	chapter, ok := Chapter(slug, bt)
	if !ok {
		return Coords{}, false
	}
	c := Coords{
		Chapter: chapter,
		Leaf:    LeafNumber(slug),
		Range:   LeafRange(slug),
	}
	if bt.HasDivisions() {
		if bt.Grammar.Named() {
			name, _ := DivisionName(slug, bt)
			c.DivisionName = name
			c.Division, _ = bt.Grammar.Ordinal(name)
		} else {
			div, ok := Division(slug, bt)
			if !ok {
				return Coords{}, false
			}
			c.Division = div
		}
	}
	return c, true
}

// divisionSegment renders a division as it appears in aliases.
func divisionSegment(bt books.BookType, d books.Division) string {
	if bt.Grammar.Named() {
		return d.Name
	}
	return strconv.Itoa(d.Number)
}

// DivisionAlias is the canonical alias of a division node.
func DivisionAlias(bt books.BookType, d books.Division) string {
	return fmt.Sprintf("/books/%s/%s", bt.Code, divisionSegment(bt, d))
}

// ChapterAlias is the canonical alias of a chapter node. d is ignored for single-level books.
func ChapterAlias(bt books.BookType, d books.Division, chapter int) string {
	if !bt.HasDivisions() {
		return fmt.Sprintf("/books/%s/%d", bt.Code, chapter)
	}
	return fmt.Sprintf("/books/%s/%s/%d", bt.Code, divisionSegment(bt, d), chapter)
}

// LeafAlias is the alias of a verse inside a chapter.
func LeafAlias(bt books.BookType, d books.Division, chapter int, leaf string) string {
	return ChapterAlias(bt, d, chapter) + "/" + leaf
}
