package config

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cast"

	"github.com/jackzampolin/outline/internal/books"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// bookFields are the per-book keys a setting may override.
var bookFields = map[string]string{
	"main_book_nid": "ID of the book root item",
	"chapters":      "Chapter total, or a map of division to chapter count",
	"divisions":     "Number of divisions of a numbered book type",
}

// DefaultEntries returns the settings that may be overridden at runtime, with the
// values the built-in configuration gives them.
func DefaultEntries() []Entry {
	cfg := DefaultConfig()
	entries := []Entry{
		{
			Key:         "structure.langcode",
			Value:       cfg.Langcode(),
			Description: "Language code of created structural nodes and aliases",
		},
		{
			Key:         "menu.machine_name",
			Value:       cfg.Menu.MachineName,
			Description: "Menu the book outlines are mirrored into",
		},
		{
			Key:         "batch.chunk_size",
			Value:       cfg.Batch.ChunkSize,
			Description: "Items processed per assign chunk",
		},
	}

	for _, code := range books.DefaultRegistry().Codes() {
		section, _ := cfg.Structure[code].(map[string]any)
		for _, field := range sortedFields() {
			value, ok := section[field]
			if !ok {
				continue
			}
			entries = append(entries, Entry{
				Key:         fmt.Sprintf("structure.%s.%s", code, field),
				Value:       value,
				Description: bookFields[field],
			})
		}
	}
	return entries
}

func sortedFields() []string {
	fields := make([]string, 0, len(bookFields))
	for f := range bookFields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// GetDefault returns the default value for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// KnownKey reports whether key can be overridden at runtime. Any book type code is
// accepted so settings can be staged before a new book type is registered.
func KnownKey(key string) bool {
	if ValidateKey(key) != nil {
		return false
	}
	parts := splitKey(key)
	switch {
	case key == "structure.langcode", key == "menu.machine_name", key == "batch.chunk_size":
		return true
	case len(parts) == 3 && parts[0] == "structure":
		_, ok := bookFields[parts[2]]
		return ok
	}
	return false
}

// ResetToDefault removes the runtime override of key so the file value applies again.
// Returns ErrNoDefault for keys that cannot be overridden.
func ResetToDefault(ctx context.Context, store Store, key string) error {
	if !KnownKey(key) {
		return fmt.Errorf("%w for key %q", ErrNoDefault, key)
	}
	return store.Delete(ctx, key)
}

// WithOverrides returns a copy of c with runtime settings applied. Unknown keys are ignored.
func (c *Config) WithOverrides(entries map[string]Entry) (*Config, error) {
	out := *c
	out.Structure, _ = normalizeKeys(c.Structure).(map[string]any)
	if out.Structure == nil {
		out.Structure = make(map[string]any)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !KnownKey(key) {
			continue
		}
		value := entries[key].Value
		parts := splitKey(key)
		switch {
		case key == "menu.machine_name":
			out.Menu.MachineName = cast.ToString(value)
		case key == "batch.chunk_size":
			n, err := cast.ToIntE(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out.Batch.ChunkSize = n
		case key == "structure.langcode":
			out.Structure["langcode"] = cast.ToString(value)
		default:
			section, _ := out.Structure[parts[1]].(map[string]any)
			if section == nil {
				section = make(map[string]any)
				out.Structure[parts[1]] = section
			}
			section[parts[2]] = value
		}
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Effective returns the manager's configuration with the store's overrides applied.
// A nil manager starts from DefaultConfig; a nil store applies no overrides.
func Effective(ctx context.Context, mgr *Manager, store Store) (*Config, error) {
	cfg := DefaultConfig()
	if mgr != nil {
		cfg = mgr.Get()
	}
	if store == nil {
		return cfg, nil
	}
	entries, err := store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return cfg.WithOverrides(entries)
}
