package outline

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"github.com/jackzampolin/outline/internal/defra"
)

// Collection is the DefraDB collection holding links.
const Collection = "OutlineLink"

var fields = []string{"_docID", "item_id", "container_id", "parent_id", "weight", "is_leaf"}

// DefraStore keeps links in DefraDB, one document per item.
type DefraStore struct {
	client *defra.Client
}

// NewDefraStore creates a DefraDB-backed link store.
func NewDefraStore(client *defra.Client) *DefraStore {
	return &DefraStore{client: client}
}

func fromDoc(doc map[string]any) Link {
	return Link{
		ItemID:      cast.ToString(doc["item_id"]),
		ContainerID: cast.ToString(doc["container_id"]),
		ParentID:    cast.ToString(doc["parent_id"]),
		Weight:      cast.ToInt(doc["weight"]),
		IsLeaf:      cast.ToBool(doc["is_leaf"]),
	}
}

func (s *DefraStore) Get(ctx context.Context, itemID string) (Link, error) {
	docs, err := defra.NewQuery(Collection).Filter("item_id", itemID).Fields(fields...).Limit(1).Execute(ctx, s.client)
	if err != nil {
		return Link{}, fmt.Errorf("get link %s: %w", itemID, err)
	}
	if len(docs) == 0 {
		return Link{}, fmt.Errorf("%w: %s", ErrNotFound, itemID)
	}
	return fromDoc(docs[0]), nil
}

func (s *DefraStore) Put(ctx context.Context, link Link) error {
	input := map[string]any{
		"item_id":      link.ItemID,
		"container_id": link.ContainerID,
		"parent_id":    link.ParentID,
		"weight":       link.Weight,
		"is_leaf":      link.IsLeaf,
	}
	// An existing link is updated in place, so the item is never left unlinked.
	filter := map[string]any{"item_id": map[string]any{"_eq": link.ItemID}}
	if _, err := s.client.Upsert(ctx, Collection, filter, defra.WithCreatedAt(input), input); err != nil {
		return fmt.Errorf("put link %s: %w", link.ItemID, err)
	}
	return nil
}

func (s *DefraStore) Delete(ctx context.Context, itemID string) error {
	docs, err := defra.NewQuery(Collection).Filter("item_id", itemID).Execute(ctx, s.client)
	if err != nil {
		return fmt.Errorf("find link %s: %w", itemID, err)
	}
	for _, doc := range docs {
		if err := s.client.Delete(ctx, Collection, cast.ToString(doc["_docID"])); err != nil {
			return fmt.Errorf("delete link %s: %w", itemID, err)
		}
	}
	return nil
}

func (s *DefraStore) List(ctx context.Context, containerID string) ([]Link, error) {
	docs, err := defra.NewQuery(Collection).
		Filter("container_id", containerID).
		Fields(fields...).
		OrderBy("weight", "ASC").
		Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("list links in %s: %w", containerID, err)
	}
	links := make([]Link, 0, len(docs))
	for _, doc := range docs {
		links = append(links, fromDoc(doc))
	}
	return links, nil
}
