package config

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"

	"github.com/jackzampolin/outline/internal/books"
	"github.com/jackzampolin/outline/internal/structure"
)

// Config holds outline configuration.
// Stored at: {home}/config.yaml
type Config struct {
	// Structure holds structure.langcode and one section per book type code:
	// structure.<code>.main_book_nid, structure.<code>.chapters, structure.<code>.divisions.
	// It stays untyped because chapters is either a total or a per-division map.
	Structure map[string]any `mapstructure:"structure" yaml:"structure"`
	Menu      MenuCfg        `mapstructure:"menu" yaml:"menu"`
	Batch     BatchCfg       `mapstructure:"batch" yaml:"batch"`
	Aliases   AliasesCfg     `mapstructure:"aliases" yaml:"aliases"`
	Defra     DefraConfig    `mapstructure:"defra" yaml:"defra"`
}

// MenuCfg selects the navigation menu the outline is mirrored into.
type MenuCfg struct {
	MachineName string `mapstructure:"machine_name" yaml:"machine_name"`
}

// BatchCfg tunes chunked runs.
type BatchCfg struct {
	ChunkSize int `mapstructure:"chunk_size" yaml:"chunk_size"` // Items per assign chunk
}

// AliasesCfg selects the path alias backend.
type AliasesCfg struct {
	Backend    string `mapstructure:"backend" yaml:"backend"`         // "defra" or "sqlite"
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"` // Used by the sqlite backend
}

// DefraConfig holds DefraDB container configuration.
type DefraConfig struct {
	// ContainerName is the Docker container name (default: derived from the home path)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: sourcenetwork/defradb:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 9181)
	Port string `mapstructure:"port" yaml:"port"`
	// URL points at an existing DefraDB instead of a managed container (supports ${ENV_VAR} syntax)
	URL string `mapstructure:"url" yaml:"url"`
}

// Alias backends.
const (
	AliasBackendDefra  = "defra"
	AliasBackendSQLite = "sqlite"
)

// DefaultLangcode is used for created nodes when structure.langcode is unset.
const DefaultLangcode = "en"

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Structure: map[string]any{
			"langcode": DefaultLangcode,
			"bg":       map[string]any{"main_book_nid": "", "chapters": 18},
			"sb":       map[string]any{"main_book_nid": "", "divisions": 12},
			"cc":       map[string]any{"main_book_nid": "", "chapters": map[string]any{"adi": 17, "madhya": 25, "antya": 20}},
		},
		Menu:  MenuCfg{MachineName: "books"},
		Batch: BatchCfg{ChunkSize: 50},
		Aliases: AliasesCfg{
			Backend: AliasBackendDefra,
		},
		Defra: DefraConfig{
			Image: "sourcenetwork/defradb:latest",
			Port:  "9181",
		},
	}
}

// BookCfg is the normalised structure section of one book type.
type BookCfg struct {
	MainBookNID string `json:"main_book_nid"`
	// Chapters is the chapter total of a single-level book (0 = book type default).
	Chapters int `json:"chapters,omitempty"`
	// PerDivision maps division keys ("1", "adi") to chapter counts.
	PerDivision map[string]int `json:"per_division,omitempty"`
	Divisions   int            `json:"divisions,omitempty"`
}

// Langcode returns structure.langcode.
func (c *Config) Langcode() string {
	if s := cast.ToString(c.Structure["langcode"]); s != "" {
		return s
	}
	return DefaultLangcode
}

// BookCodes returns the book type codes with a structure section, sorted.
func (c *Config) BookCodes() []string {
	var codes []string
	for k, v := range c.Structure {
		if _, ok := v.(map[string]any); ok {
			codes = append(codes, k)
		}
	}
	sort.Strings(codes)
	return codes
}

// Book normalises structure.<code>. A missing section yields a zero BookCfg.
func (c *Config) Book(code string) (BookCfg, error) {
	raw, ok := c.Structure[code]
	if !ok || raw == nil {
		return BookCfg{}, nil
	}
	section, err := cast.ToStringMapE(raw)
	if err != nil {
		return BookCfg{}, fmt.Errorf("structure.%s: %w", code, err)
	}

	var b BookCfg
	if b.MainBookNID, err = cast.ToStringE(section["main_book_nid"]); err != nil {
		return BookCfg{}, fmt.Errorf("structure.%s.main_book_nid: %w", code, err)
	}
	if b.Divisions, err = cast.ToIntE(orZero(section["divisions"])); err != nil {
		return BookCfg{}, fmt.Errorf("structure.%s.divisions: %w", code, err)
	}

	switch chapters := section["chapters"].(type) {
	case nil:
	case map[string]any, map[any]any:
		per, err := cast.ToStringMapE(chapters)
		if err != nil {
			return BookCfg{}, fmt.Errorf("structure.%s.chapters: %w", code, err)
		}
		b.PerDivision = make(map[string]int, len(per))
		for k, v := range per {
			n, err := cast.ToIntE(v)
			if err != nil {
				return BookCfg{}, fmt.Errorf("structure.%s.chapters.%s: %w", code, k, err)
			}
			b.PerDivision[k] = n
		}
	default:
		if b.Chapters, err = cast.ToIntE(chapters); err != nil {
			return BookCfg{}, fmt.Errorf("structure.%s.chapters: %w", code, err)
		}
	}
	return b, nil
}

func orZero(v any) any {
	if v == nil {
		return 0
	}
	return v
}

// Plan turns the book type's section into a build plan.
func (c *Config) Plan(bt books.BookType) (structure.Plan, error) {
	b, err := c.Book(bt.Code)
	if err != nil {
		return structure.Plan{}, &structure.ConfigurationError{BookType: bt.Code, Reason: "invalid structure section", Err: err}
	}
	return structure.Plan{
		RootID:   b.MainBookNID,
		Shape:    bt.Shape(b.Chapters, b.PerDivision, b.Divisions),
		Langcode: c.Langcode(),
	}, nil
}
