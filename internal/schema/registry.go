package schema

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed schemas/*.graphql
var schemaFS embed.FS

// Schema represents a DefraDB collection schema.
type Schema struct {
	Name  string // Collection name (e.g., "Node")
	SDL   string // GraphQL SDL definition
	Order int    // Initialization order (lower = first)
}

// registry holds all schemas in initialization order. Collections reference each
// other by ID strings only, so the order is for readable logs rather than dependencies.
var registry = []Schema{
	{Name: "Setting", Order: 1},
	{Name: "Run", Order: 2},
	{Name: "Node", Order: 3},
	{Name: "OutlineLink", Order: 4}, // references Node
	{Name: "PathAlias", Order: 5},   // references Node by system path
	{Name: "MenuLink", Order: 6},    // references Node
}

// All returns all schemas in order.
// Schemas are loaded from embedded .graphql files.
func All() ([]Schema, error) {
	schemas := make([]Schema, len(registry))
	copy(schemas, registry)

	for i := range schemas {
		sdl, err := load(schemas[i].Name)
		if err != nil {
			return nil, err
		}
		schemas[i].SDL = sdl
	}

	sort.Slice(schemas, func(i, j int) bool {
		return schemas[i].Order < schemas[j].Order
	})

	return schemas, nil
}

// Get returns a single schema by name.
func Get(name string) (*Schema, error) {
	for _, s := range registry {
		if s.Name != name {
			continue
		}
		sdl, err := load(s.Name)
		if err != nil {
			return nil, err
		}
		return &Schema{Name: s.Name, SDL: sdl, Order: s.Order}, nil
	}
	return nil, fmt.Errorf("schema not found: %s", name)
}

// Names returns the collection names in order.
func Names() []string {
	names := make([]string, len(registry))
	for i, s := range registry {
		names[i] = s.Name
	}
	return names
}

func load(name string) (string, error) {
	filename := fmt.Sprintf("schemas/%s.graphql", strings.ToLower(name))
	content, err := schemaFS.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read schema %s: %w", name, err)
	}
	return string(content), nil
}
