// Package outline stores parent links, the records that place an item under its
// structural parent inside a book tree, and assembles them into ordered trees.
package outline

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when an item has no link.
var ErrNotFound = errors.New("outline link not found")

// Link places one item in a book tree. An item has at most one link.
// The book root links to itself: ContainerID == ItemID and ParentID is empty.
type Link struct {
	ItemID      string `json:"item_id"`
	ContainerID string `json:"container_id"`
	ParentID    string `json:"parent_id,omitempty"`
	Weight      int    `json:"weight"`
	IsLeaf      bool   `json:"is_leaf"`
}

// IsRoot reports whether the link is a book root.
func (l Link) IsRoot() bool {
	return l.ItemID == l.ContainerID && l.ParentID == ""
}

// Store persists links.
type Store interface {
	// Get returns the item's link or ErrNotFound.
	Get(ctx context.Context, itemID string) (Link, error)
	// Put creates or replaces the item's link.
	Put(ctx context.Context, link Link) error
	// Delete removes the item's link. A missing link is not an error.
	Delete(ctx context.Context, itemID string) error
	// List returns every link in a container.
	List(ctx context.Context, containerID string) ([]Link, error)
}

// Tree loads a container's links and assembles them under rootID.
func Tree(ctx context.Context, store Store, containerID, rootID string) (*TreeNode, error) {
	links, err := store.List(ctx, containerID)
	if err != nil {
		return nil, err
	}
	return BuildTree(links, rootID), nil
}
