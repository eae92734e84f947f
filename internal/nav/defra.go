package nav

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"github.com/jackzampolin/outline/internal/defra"
)

// Collection is the DefraDB collection holding menu links.
const Collection = "MenuLink"

var fields = []string{"_docID", "key", "menu", "target", "title", "parent_key", "weight", "expanded"}

// DefraStore keeps menu links in DefraDB.
type DefraStore struct {
	client *defra.Client
}

// NewDefraStore creates a DefraDB-backed menu store.
func NewDefraStore(client *defra.Client) *DefraStore {
	return &DefraStore{client: client}
}

func fromDoc(doc map[string]any) Link {
	return Link{
		Key:       cast.ToString(doc["key"]),
		Menu:      cast.ToString(doc["menu"]),
		Target:    cast.ToString(doc["target"]),
		Title:     cast.ToString(doc["title"]),
		ParentKey: cast.ToString(doc["parent_key"]),
		Weight:    cast.ToInt(doc["weight"]),
		Expanded:  cast.ToBool(doc["expanded"]),
	}
}

func (s *DefraStore) FindByTarget(ctx context.Context, menu, target string) (Link, error) {
	docs, err := defra.NewQuery(Collection).
		Filter("menu", menu).
		Filter("target", target).
		Fields(fields...).
		Limit(1).
		Execute(ctx, s.client)
	if err != nil {
		return Link{}, fmt.Errorf("find menu link for %s: %w", target, err)
	}
	if len(docs) == 0 {
		return Link{}, fmt.Errorf("%w: %s in %s", ErrNotFound, target, menu)
	}
	return fromDoc(docs[0]), nil
}

func (s *DefraStore) Create(ctx context.Context, link Link) error {
	_, err := s.client.Create(ctx, Collection, defra.WithCreatedAt(map[string]any{
		"key":        link.Key,
		"menu":       link.Menu,
		"target":     link.Target,
		"title":      link.Title,
		"parent_key": link.ParentKey,
		"weight":     link.Weight,
		"expanded":   link.Expanded,
	}))
	if err != nil {
		return fmt.Errorf("create menu link for %s: %w", link.Target, err)
	}
	return nil
}

func (s *DefraStore) List(ctx context.Context, menu string) ([]Link, error) {
	docs, err := defra.NewQuery(Collection).Filter("menu", menu).Fields(fields...).OrderBy("weight", "ASC").Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("list menu %s: %w", menu, err)
	}
	links := make([]Link, 0, len(docs))
	for _, doc := range docs {
		links = append(links, fromDoc(doc))
	}
	return links, nil
}
