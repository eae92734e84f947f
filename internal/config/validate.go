package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// structureSchema constrains the structure section. Book sections are open-ended so
// new book types need no schema change.
const structureSchema = `{
  "type": "object",
  "properties": {
    "langcode": {"type": "string", "minLength": 1}
  },
  "additionalProperties": {
    "type": "object",
    "properties": {
      "main_book_nid": {"type": ["string", "integer"]},
      "chapters": {
        "oneOf": [
          {"type": "integer", "minimum": 1},
          {"type": "object", "additionalProperties": {"type": "integer", "minimum": 1}}
        ]
      },
      "divisions": {"type": "integer", "minimum": 1}
    },
    "additionalProperties": false
  }
}`

var compiledStructureSchema = jsonschema.MustCompileString("structure.json", structureSchema)

// Validate checks the configuration for values that would make runs fail later.
func (c *Config) Validate() error {
	if c.Structure != nil {
		// round trip through JSON so the validator sees plain JSON types
		raw, err := json.Marshal(normalizeKeys(c.Structure))
		if err != nil {
			return fmt.Errorf("structure: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return fmt.Errorf("structure: %w", err)
		}
		if err := compiledStructureSchema.Validate(doc); err != nil {
			return fmt.Errorf("invalid structure section: %w", err)
		}
	}

	if c.Batch.ChunkSize < 0 {
		return fmt.Errorf("batch.chunk_size must not be negative, got %d", c.Batch.ChunkSize)
	}
	switch strings.ToLower(c.Aliases.Backend) {
	case "", AliasBackendDefra:
	case AliasBackendSQLite:
		if c.Aliases.SQLitePath == "" {
			return fmt.Errorf("aliases.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown aliases.backend %q", c.Aliases.Backend)
	}
	return nil
}

// normalizeKeys converts the map[any]any values yaml.v2 produces into maps JSON can encode.
func normalizeKeys(v any) any {
	switch m := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = normalizeKeys(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = normalizeKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(m))
		for i, val := range m {
			out[i] = normalizeKeys(val)
		}
		return out
	default:
		return v
	}
}
