// Package nav mirrors realised book outlines into a navigation menu.
package nav

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a menu has no link for a target.
var ErrNotFound = errors.New("menu link not found")

// Link is one navigation menu entry. Links reference their parent by Key, which
// stays stable when the target item is re-created.
type Link struct {
	Key       string `json:"key"`
	Menu      string `json:"menu"`
	Target    string `json:"target"`
	Title     string `json:"title"`
	ParentKey string `json:"parent_key,omitempty"`
	Weight    int    `json:"weight"`
	Expanded  bool   `json:"expanded"`
}

// URI is the menu URI of the link target.
func (l Link) URI() string {
	return "entity:node/" + l.Target
}

// Store persists menu links.
type Store interface {
	FindByTarget(ctx context.Context, menu, target string) (Link, error)
	Create(ctx context.Context, link Link) error
	List(ctx context.Context, menu string) ([]Link, error)
}
