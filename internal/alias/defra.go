package alias

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"github.com/jackzampolin/outline/internal/defra"
)

// Collection is the DefraDB collection holding aliases.
const Collection = "PathAlias"

// DefraStore keeps aliases in DefraDB.
type DefraStore struct {
	client *defra.Client
}

// NewDefraStore creates a DefraDB-backed alias store.
func NewDefraStore(client *defra.Client) *DefraStore {
	return &DefraStore{client: client}
}

// lookup returns the newest match, so later aliases shadow older ones.
func (s *DefraStore) lookup(ctx context.Context, field string, value, want string) (string, error) {
	docs, err := defra.NewQuery(Collection).
		Filter(field, value).
		Fields("_docID", want).
		OrderBy(defra.CreatedAtField, "DESC").
		Limit(1).
		Execute(ctx, s.client)
	if err != nil {
		return "", fmt.Errorf("lookup alias by %s: %w", field, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, value)
	}
	return cast.ToString(docs[0][want]), nil
}

func (s *DefraStore) PathByAlias(ctx context.Context, alias string) (string, error) {
	return s.lookup(ctx, "alias", alias, "path")
}

func (s *DefraStore) AliasByPath(ctx context.Context, path string) (string, error) {
	return s.lookup(ctx, "path", path, "alias")
}

func (s *DefraStore) Create(ctx context.Context, a Alias) error {
	if a.Langcode == "" {
		a.Langcode = DefaultLangcode
	}
	_, err := s.client.Create(ctx, Collection, defra.WithCreatedAt(map[string]any{
		"path":     a.Path,
		"alias":    a.Alias,
		"langcode": a.Langcode,
	}))
	if err != nil {
		return fmt.Errorf("create alias %s: %w", a.Alias, err)
	}
	return nil
}

func (s *DefraStore) Exists(ctx context.Context, alias string) (bool, error) {
	docs, err := defra.NewQuery(Collection).Filter("alias", alias).Limit(1).Execute(ctx, s.client)
	if err != nil {
		return false, fmt.Errorf("check alias %s: %w", alias, err)
	}
	return len(docs) > 0, nil
}

func (s *DefraStore) DeleteByPath(ctx context.Context, path string) error {
	docs, err := defra.NewQuery(Collection).Filter("path", path).Execute(ctx, s.client)
	if err != nil {
		return fmt.Errorf("find aliases of %s: %w", path, err)
	}
	for _, doc := range docs {
		if err := s.client.Delete(ctx, Collection, cast.ToString(doc["_docID"])); err != nil {
			return fmt.Errorf("delete alias of %s: %w", path, err)
		}
	}
	return nil
}
