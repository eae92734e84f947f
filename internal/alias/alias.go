// Package alias is the lookup table between system paths (/node/<id>) and the
// human-readable path aliases that carry structural coordinates.
package alias

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when no alias or path matches.
var ErrNotFound = errors.New("path alias not found")

// DefaultLangcode marks aliases that are not language specific.
const DefaultLangcode = "und"

// Alias maps one system path to one alias.
type Alias struct {
	Path     string `json:"path"`
	Alias    string `json:"alias"`
	Langcode string `json:"langcode"`
}

// Store is the path-alias collaborator.
type Store interface {
	PathByAlias(ctx context.Context, alias string) (string, error)
	AliasByPath(ctx context.Context, path string) (string, error)
	Create(ctx context.Context, a Alias) error
	Exists(ctx context.Context, alias string) (bool, error)
	DeleteByPath(ctx context.Context, path string) error
}

// SystemPath returns the system path of an item.
func SystemPath(itemID string) string {
	return "/node/" + itemID
}

// ItemID extracts the item ID from a system path.
func ItemID(path string) (string, bool) {
	id, ok := strings.CutPrefix(path, "/node/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// EnsureAlias creates the alias unless an identical one already exists.
// It reports whether a new alias was written.
func EnsureAlias(ctx context.Context, s Store, a Alias) (bool, error) {
	exists, err := s.Exists(ctx, a.Alias)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if a.Langcode == "" {
		a.Langcode = DefaultLangcode
	}
	if err := s.Create(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}
