package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cast"

	"github.com/jackzampolin/outline/internal/defra"
)

// Collection is the DefraDB collection holding content items.
const Collection = "Node"

var fields = []string{"_docID", "type", "title", "number", "division_ref", "book_ref", "label", "published", "langcode"}

// DefraStore keeps items in DefraDB.
type DefraStore struct {
	client *defra.Client
}

// NewDefraStore creates a DefraDB-backed store.
func NewDefraStore(client *defra.Client) *DefraStore {
	return &DefraStore{client: client}
}

func toInput(item Item) map[string]any {
	return map[string]any{
		"type":         item.Type,
		"title":        item.Title,
		"number":       item.Number,
		"division_ref": item.DivisionRef,
		"book_ref":     item.BookRef,
		"label":        item.Label,
		"published":    item.Published,
		"langcode":     item.Langcode,
	}
}

func fromDoc(doc map[string]any) Item {
	return Item{
		ID:          cast.ToString(doc["_docID"]),
		Type:        cast.ToString(doc["type"]),
		Title:       cast.ToString(doc["title"]),
		Number:      cast.ToInt(doc["number"]),
		DivisionRef: cast.ToString(doc["division_ref"]),
		BookRef:     cast.ToString(doc["book_ref"]),
		Label:       cast.ToString(doc["label"]),
		Published:   cast.ToBool(doc["published"]),
		Langcode:    cast.ToString(doc["langcode"]),
	}
}

// Create stores a new item and returns its ID.
func (s *DefraStore) Create(ctx context.Context, item Item) (string, error) {
	id, err := s.client.Create(ctx, Collection, defra.WithCreatedAt(toInput(item)))
	if err != nil {
		return "", fmt.Errorf("create %s item: %w", item.Type, err)
	}
	return id, nil
}

// Load returns one item or ErrNotFound.
func (s *DefraStore) Load(ctx context.Context, id string) (Item, error) {
	if err := defra.ValidateID(id); err != nil {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	docs, err := defra.NewQuery(Collection).Filter("_docID", id).Fields(fields...).Execute(ctx, s.client)
	if err != nil {
		return Item{}, fmt.Errorf("load item %s: %w", id, err)
	}
	if len(docs) == 0 {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fromDoc(docs[0]), nil
}

// LoadMany returns the items that exist among ids, keyed by ID.
func (s *DefraStore) LoadMany(ctx context.Context, ids []string) (map[string]Item, error) {
	out := make(map[string]Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	docs, err := defra.NewQuery(Collection).FilterIn("_docID", ids).Fields(fields...).Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("load %d items: %w", len(ids), err)
	}
	for _, doc := range docs {
		item := fromDoc(doc)
		out[item.ID] = item
	}
	return out, nil
}

// Update overwrites an existing item's fields.
func (s *DefraStore) Update(ctx context.Context, item Item) error {
	if err := s.client.Update(ctx, Collection, item.ID, toInput(item)); err != nil {
		return fmt.Errorf("update item %s: %w", item.ID, err)
	}
	return nil
}

// DeleteMany deletes every listed item, attempting all of them before reporting.
func (s *DefraStore) DeleteMany(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := s.client.Delete(ctx, Collection, id); err != nil {
			errs = append(errs, fmt.Errorf("delete item %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Query returns the IDs of matching items.
func (s *DefraStore) Query(ctx context.Context, f Filter) ([]string, error) {
	q := defra.NewQuery(Collection)
	if f.Type != "" {
		q.Filter("type", f.Type)
	}
	if f.Number != 0 {
		q.Filter("number", f.Number)
	}
	if f.DivisionRef != "" {
		q.Filter("division_ref", f.DivisionRef)
	}
	q.OrderBy("_docID", "ASC")
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}

	docs, err := q.Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if id := cast.ToString(doc["_docID"]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
