package defra

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// IDPattern matches DefraDB document IDs (bae-<uuid>) and simple identifiers.
var IDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateID checks that a string is safe to interpolate into a GraphQL document as an ID.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("empty ID")
	}
	if len(id) > 500 {
		return fmt.Errorf("ID too long: %d characters", len(id))
	}
	if !IDPattern.MatchString(id) {
		return fmt.Errorf("invalid ID format: contains unsafe characters")
	}
	return nil
}

// QueryBuilder constructs parameterized collection queries.
// Filter values always travel as GraphQL variables, never inline.
type QueryBuilder struct {
	collection string
	filters    []filterDef
	fields     []string
	order      string
	limit      int
	offset     int
}

type filterDef struct {
	field   string
	op      string
	varType string
	value   any
}

// NewQuery creates a new QueryBuilder for the given collection.
func NewQuery(collection string) *QueryBuilder {
	return &QueryBuilder{
		collection: collection,
		fields:     []string{"_docID"},
	}
}

func (q *QueryBuilder) where(field, op, varType string, value any) *QueryBuilder {
	q.filters = append(q.filters, filterDef{field: field, op: op, varType: varType, value: value})
	return q
}

// Filter adds an equality filter.
func (q *QueryBuilder) Filter(field string, value any) *QueryBuilder {
	return q.where(field, "_eq", inferGraphQLType(value), value)
}

// FilterIn matches any of the given values.
func (q *QueryBuilder) FilterIn(field string, values []string) *QueryBuilder {
	return q.where(field, "_in", "[String!]", values)
}

// FilterGT adds a greater-than filter.
func (q *QueryBuilder) FilterGT(field string, value any) *QueryBuilder {
	return q.where(field, "_gt", inferGraphQLType(value), value)
}

// FilterLT adds a less-than filter.
func (q *QueryBuilder) FilterLT(field string, value any) *QueryBuilder {
	return q.where(field, "_lt", inferGraphQLType(value), value)
}

// Fields sets the returned fields, replacing the default of just _docID.
func (q *QueryBuilder) Fields(fields ...string) *QueryBuilder {
	q.fields = fields
	return q
}

// OrderBy sets the ordering. direction is ASC or DESC.
func (q *QueryBuilder) OrderBy(field, direction string) *QueryBuilder {
	q.order = fmt.Sprintf("{%s: %s}", field, direction)
	return q
}

// Limit sets the maximum number of results.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Offset sets the offset for pagination.
func (q *QueryBuilder) Offset(n int) *QueryBuilder {
	q.offset = n
	return q
}

// Build returns the query document and its variables.
func (q *QueryBuilder) Build() (string, map[string]any) {
	vars := make(map[string]any, len(q.filters))
	varDefs := make([]string, 0, len(q.filters))
	clauses := make([]string, 0, len(q.filters))

	for i, f := range q.filters {
		name := fmt.Sprintf("v%d", i)
		vars[name] = f.value
		varDefs = append(varDefs, fmt.Sprintf("$%s: %s", name, f.varType))
		clauses = append(clauses, fmt.Sprintf("%s: {%s: $%s}", f.field, f.op, name))
	}

	var args []string
	if len(clauses) > 0 {
		args = append(args, fmt.Sprintf("filter: {%s}", strings.Join(clauses, ", ")))
	}
	if q.order != "" {
		args = append(args, "order: "+q.order)
	}
	if q.limit > 0 {
		args = append(args, fmt.Sprintf("limit: %d", q.limit))
	}
	if q.offset > 0 {
		args = append(args, fmt.Sprintf("offset: %d", q.offset))
	}

	var b strings.Builder
	if len(varDefs) > 0 {
		fmt.Fprintf(&b, "query(%s) ", strings.Join(varDefs, ", "))
	}
	b.WriteString("{ ")
	b.WriteString(q.collection)
	if len(args) > 0 {
		fmt.Fprintf(&b, "(%s)", strings.Join(args, ", "))
	}
	fmt.Fprintf(&b, " { %s } }", strings.Join(q.fields, " "))

	return b.String(), vars
}

// Execute builds the query and runs it, turning GraphQL errors into Go errors.
func (q *QueryBuilder) Execute(ctx context.Context, client *Client) ([]map[string]any, error) {
	query, vars := q.Build()
	resp, err := client.Execute(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("query %s: %s", q.collection, errMsg)
	}
	return resp.Docs(q.collection), nil
}

func inferGraphQLType(v any) string {
	switch v.(type) {
	case int, int32, int64:
		return "Int"
	case float32, float64:
		return "Float"
	case bool:
		return "Boolean"
	default:
		return "String"
	}
}
