package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/jackzampolin/outline/internal/defra"
)

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	// Don't allow keys starting or ending with dots
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}

// Store holds runtime settings that override the config file, such as a book's
// main_book_nid set after the file was written. No caching: reads are always fresh.
type Store interface {
	// Get returns a single entry by key, or nil if unset.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set creates or updates an entry.
	Set(ctx context.Context, key string, value any, description string) error

	// GetAll returns all entries.
	GetAll(ctx context.Context) (map[string]Entry, error)

	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Entry represents a single setting.
type Entry struct {
	Key         string `json:"key"`
	Value       any    `json:"value"`
	Description string `json:"description"`
	DocID       string `json:"_docID,omitempty"` // DefraDB document ID
}

const settingCollection = "Setting"

// DefraStore implements Store using DefraDB.
type DefraStore struct {
	client *defra.Client
}

// NewStore creates a new DefraDB-backed settings store.
func NewStore(client *defra.Client) *DefraStore {
	return &DefraStore{client: client}
}

func (s *DefraStore) query() *defra.QueryBuilder {
	return defra.NewQuery(settingCollection).Fields("_docID", "name", "value", "description")
}

// Get returns a single entry by key.
func (s *DefraStore) Get(ctx context.Context, key string) (*Entry, error) {
	docs, err := s.query().Filter("name", key).Limit(1).Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	entries := parseEntries(docs)
	if len(entries) == 0 {
		return nil, nil // Not found
	}
	return &entries[0], nil
}

// Set creates or updates an entry.
func (s *DefraStore) Set(ctx context.Context, key string, value any, description string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	// Serialize value to JSON for storage
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	input := map[string]any{
		"name":        key,
		"value":       string(valueJSON),
		"description": description,
	}
	filter := map[string]any{"name": map[string]any{"_eq": key}}
	if _, err := s.client.Upsert(ctx, settingCollection, filter, defra.WithCreatedAt(input), input); err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	return nil
}

// GetAll returns all entries.
func (s *DefraStore) GetAll(ctx context.Context) (map[string]Entry, error) {
	docs, err := s.query().Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	entries := parseEntries(docs)
	result := make(map[string]Entry, len(entries))
	for _, e := range entries {
		result[e.Key] = e
	}
	return result, nil
}

// Delete removes an entry by key.
func (s *DefraStore) Delete(ctx context.Context, key string) error {
	existing, err := s.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to find entry: %w", err)
	}
	if existing == nil {
		return nil // Already doesn't exist
	}
	if err := s.client.Delete(ctx, settingCollection, existing.DocID); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

// parseEntries decodes Setting documents.
func parseEntries(docs []map[string]any) []Entry {
	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		entry := Entry{}
		entry.DocID, _ = doc["_docID"].(string)
		entry.Key, _ = doc["name"].(string)
		entry.Description, _ = doc["description"].(string)

		// Value is stored as JSON string, parse it
		if v, ok := doc["value"].(string); ok {
			var parsed any
			if err := json.Unmarshal([]byte(v), &parsed); err != nil {
				slog.Debug("setting value is not valid JSON, using as raw string",
					"key", entry.Key,
					"error", err)
				entry.Value = v
			} else {
				entry.Value = parsed
			}
		} else {
			entry.Value = doc["value"]
		}

		entries = append(entries, entry)
	}
	return entries
}

// splitKey splits "structure.bg.main_book_nid" into its dotted parts.
func splitKey(key string) []string {
	return strings.Split(key, ".")
}
