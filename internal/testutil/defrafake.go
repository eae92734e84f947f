package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefraFake is an in-process stand-in for the DefraDB GraphQL endpoint. Like the
// real server it derives document IDs from the created content and refuses to
// create an ID that exists or was deleted, so stores that delete and re-create
// identical documents fail against it the way they would in production.
//
// It understands the documents the defra package generates: flat inputs, _eq,
// _in, _gt and _lt filters bound to variables, one order field, limit, offset
// and lookups by docID.
type DefraFake struct {
	server *httptest.Server

	mu      sync.Mutex
	docs    map[string]map[string]map[string]any // collection -> docID -> fields
	order   map[string][]string                  // collection -> docIDs in creation order
	deleted map[string]bool
}

// NewDefraFake starts a fake and closes it when the test ends.
func NewDefraFake(t TestingT) *DefraFake {
	f := &DefraFake{
		docs:    make(map[string]map[string]map[string]any),
		order:   make(map[string][]string),
		deleted: make(map[string]bool),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the base URL to hand to defra.NewClient.
func (f *DefraFake) URL() string {
	return f.server.URL
}

// Count returns the number of live documents in a collection.
func (f *DefraFake) Count(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs[collection])
}

// An input object is flat, but its string values may carry braces.
const inputPat = `(\{(?:[^{}"]|"(?:[^"\\]|\\.)*")*\})`

var (
	createRe = regexp.MustCompile(`^mutation \{ create_(\w+)\(input: ` + inputPat + `\) \{ _docID \} \}$`)
	updateRe = regexp.MustCompile(`^mutation \{ update_(\w+)\(docID: "([^"]+)", input: ` + inputPat + `\) \{ _docID \} \}$`)
	deleteRe = regexp.MustCompile(`^mutation \{ delete_(\w+)\(docID: "([^"]+)"\) \{ _docID \} \}$`)
	upsertRe = regexp.MustCompile(`^mutation \{ upsert_(\w+)\(filter: \{(\w+): \{_eq: ("(?:[^"\\]|\\.)*")\}\}, create: ` + inputPat + `, update: ` + inputPat + `\) \{ _docID \} \}$`)
	queryRe  = regexp.MustCompile(`\{ (\w+)(?:\((.*)\))? \{ [^{}]* \} \}$`)
	docIDRe  = regexp.MustCompile(`^docID: "([^"]+)"$`)

	fieldRe  = regexp.MustCompile(`(\w+): ("(?:[^"\\]|\\.)*"|[^,{}]+)`)
	condRe   = regexp.MustCompile(`(\w+): \{(_eq|_in|_gt|_lt): \$(v\d+)\}`)
	orderRe  = regexp.MustCompile(`order: \{(\w+): (ASC|DESC)\}`)
	limitRe  = regexp.MustCompile(`limit: (\d+)`)
	offsetRe = regexp.MustCompile(`offset: (\d+)`)
)

func (f *DefraFake) serve(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/health-check":
		w.WriteHeader(http.StatusOK)
		return
	case "/api/v0/graphql":
	default:
		http.NotFound(w, r)
		return
	}

	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	key, data, err := f.execute(strings.TrimSpace(req.Query), req.Variables)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		_ = json.NewEncoder(w).Encode(map[string]any{"errors": []any{map[string]any{"message": err.Error()}}})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{key: data}})
}

func (f *DefraFake) execute(query string, vars map[string]any) (string, []any, error) {
	if m := createRe.FindStringSubmatch(query); m != nil {
		id, err := f.create(m[1], m[2])
		return "create_" + m[1], idResult(id), err
	}
	if m := upsertRe.FindStringSubmatch(query); m != nil {
		coll := m[1]
		var want any
		_ = json.Unmarshal([]byte(m[3]), &want)
		for _, id := range f.order[coll] {
			if same(f.docs[coll][id][m[2]], want) {
				f.apply(coll, id, m[5])
				return "upsert_" + coll, idResult(id), nil
			}
		}
		id, err := f.create(coll, m[4])
		return "upsert_" + coll, idResult(id), err
	}
	if m := updateRe.FindStringSubmatch(query); m != nil {
		if _, ok := f.docs[m[1]][m[2]]; !ok {
			return "", nil, fmt.Errorf("document %s not found", m[2])
		}
		f.apply(m[1], m[2], m[3])
		return "update_" + m[1], idResult(m[2]), nil
	}
	if m := deleteRe.FindStringSubmatch(query); m != nil {
		coll, id := m[1], m[2]
		if _, ok := f.docs[coll][id]; !ok {
			return "", nil, fmt.Errorf("document %s not found", id)
		}
		delete(f.docs[coll], id)
		f.order[coll] = remove(f.order[coll], id)
		f.deleted[id] = true
		return "delete_" + coll, idResult(id), nil
	}
	if m := queryRe.FindStringSubmatch(query); m != nil && !strings.HasPrefix(query, "mutation") {
		return m[1], f.query(m[1], m[2], vars), nil
	}
	return "", nil, fmt.Errorf("unsupported document: %s", query)
}

// create derives the ID from the collection and the input exactly as sent.
func (f *DefraFake) create(coll, input string) (string, error) {
	sum := sha256.Sum256([]byte(coll + input))
	id := "bae-" + hex.EncodeToString(sum[:16])
	if f.deleted[id] {
		return "", fmt.Errorf("a document with the given ID has been deleted: %s", id)
	}
	if _, ok := f.docs[coll][id]; ok {
		return "", fmt.Errorf("a document with the given ID already exists: %s", id)
	}
	if f.docs[coll] == nil {
		f.docs[coll] = make(map[string]map[string]any)
	}
	f.docs[coll][id] = parseInput(input)
	f.order[coll] = append(f.order[coll], id)
	return id, nil
}

func (f *DefraFake) apply(coll, id, input string) {
	for k, v := range parseInput(input) {
		f.docs[coll][id][k] = v
	}
}

func (f *DefraFake) query(coll, args string, vars map[string]any) []any {
	var ids []string
	for _, id := range f.order[coll] {
		if f.matches(coll, id, args, vars) {
			ids = append(ids, id)
		}
	}

	if m := orderRe.FindStringSubmatch(args); m != nil {
		field, desc := m[1], m[2] == "DESC"
		sort.SliceStable(ids, func(i, j int) bool {
			a, b := f.value(coll, ids[i], field), f.value(coll, ids[j], field)
			if desc {
				return less(b, a)
			}
			return less(a, b)
		})
	}
	if m := offsetRe.FindStringSubmatch(args); m != nil {
		n, _ := strconv.Atoi(m[1])
		ids = ids[min(n, len(ids)):]
	}
	if m := limitRe.FindStringSubmatch(args); m != nil {
		n, _ := strconv.Atoi(m[1])
		ids = ids[:min(n, len(ids))]
	}

	out := make([]any, 0, len(ids))
	for _, id := range ids {
		doc := map[string]any{"_docID": id}
		for k, v := range f.docs[coll][id] {
			doc[k] = v
		}
		out = append(out, doc)
	}
	return out
}

func (f *DefraFake) matches(coll, id, args string, vars map[string]any) bool {
	if m := docIDRe.FindStringSubmatch(args); m != nil {
		return id == m[1]
	}
	for _, c := range condRe.FindAllStringSubmatch(args, -1) {
		got, want := f.value(coll, id, c[1]), vars[c[3]]
		switch c[2] {
		case "_eq":
			if !same(got, want) {
				return false
			}
		case "_in":
			list, _ := want.([]any)
			found := false
			for _, w := range list {
				found = found || same(got, w)
			}
			if !found {
				return false
			}
		case "_gt":
			if !less(want, got) {
				return false
			}
		case "_lt":
			if !less(got, want) {
				return false
			}
		}
	}
	return true
}

func (f *DefraFake) value(coll, id, field string) any {
	if field == "_docID" {
		return id
	}
	return f.docs[coll][id][field]
}

func parseInput(input string) map[string]any {
	out := make(map[string]any)
	for _, m := range fieldRe.FindAllStringSubmatch(input, -1) {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[2])), &v); err != nil {
			v = strings.TrimSpace(m[2])
		}
		out[m[1]] = v
	}
	return out
}

func same(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// less orders numbers numerically, timestamps chronologically and anything else as text.
func less(a, b any) bool {
	if x, ok := a.(float64); ok {
		if y, ok := b.(float64); ok {
			return x < y
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	if x, err := time.Parse(time.RFC3339Nano, as); err == nil {
		if y, err := time.Parse(time.RFC3339Nano, bs); err == nil {
			return x.Before(y)
		}
	}
	return as < bs
}

func idResult(id string) []any {
	if id == "" {
		return nil
	}
	return []any{map[string]any{"_docID": id}}
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
