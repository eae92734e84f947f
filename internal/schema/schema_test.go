package schema

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackzampolin/outline/internal/defra"
)

func TestAll(t *testing.T) {
	schemas, err := All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	want := []string{"Setting", "Run", "Node", "OutlineLink", "PathAlias", "MenuLink"}
	if len(schemas) != len(want) {
		t.Fatalf("expected %d schemas, got %d", len(want), len(schemas))
	}
	for i, s := range schemas {
		if s.Name != want[i] {
			t.Errorf("schema %d = %s, want %s", i, s.Name, want[i])
		}
		if !strings.Contains(s.SDL, "type "+s.Name+" {") {
			t.Errorf("%s SDL doesn't declare type %s", s.Name, s.Name)
		}
	}
}

func TestSDLFields(t *testing.T) {
	// Stores write these fields; a missing one fails at mutation time.
	tests := map[string][]string{
		"Node":        {"type", "title", "number", "division_ref", "book_ref", "label", "published", "langcode", "created_at"},
		"OutlineLink": {"item_id", "container_id", "parent_id", "weight", "is_leaf", "created_at"},
		"PathAlias":   {"path", "alias", "langcode", "created_at"},
		"MenuLink":    {"key", "menu", "target", "title", "parent_key", "weight", "expanded", "created_at"},
		"Run":         {"op", "book_type", "status", "created_at", "started_at", "completed_at", "error", "token", "snapshot"},
		"Setting":     {"name", "value", "description", "created_at"},
	}
	for name, fields := range tests {
		s, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", name, err)
		}
		for _, f := range fields {
			if !strings.Contains(s.SDL, "  "+f+": ") {
				t.Errorf("%s SDL missing field %s", name, f)
			}
		}
	}
}

func TestGet(t *testing.T) {
	t.Run("existing schema", func(t *testing.T) {
		s, err := Get("OutlineLink")
		if err != nil {
			t.Fatalf("Get(OutlineLink) error = %v", err)
		}
		if s.Name != "OutlineLink" {
			t.Errorf("expected name OutlineLink, got %s", s.Name)
		}
		if s.SDL == "" {
			t.Error("SDL is empty")
		}
	})

	t.Run("non-existent schema", func(t *testing.T) {
		_, err := Get("NonExistent")
		if err == nil {
			t.Error("expected error for non-existent schema")
		}
	})
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 6 || names[0] != "Setting" || names[5] != "MenuLink" {
		t.Errorf("Names() = %v", names)
	}
}

func TestInitialize(t *testing.T) {
	t.Run("successful initialization", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/v0/schema" {
				w.WriteHeader(http.StatusOK)
				return
			}
			t.Errorf("unexpected path: %s", r.URL.Path)
		}))
		defer server.Close()

		client := defra.NewClient(server.URL)
		logger := slog.Default()

		res, err := Initialize(context.Background(), client, logger)
		if err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
		if len(res.Added) != len(registry) || len(res.Existing) != 0 {
			t.Errorf("Initialize() = %+v, want every collection added", res)
		}
	})

	t.Run("handles already exists error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/v0/schema" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("collection already exists. Name: Node"))
				return
			}
		}))
		defer server.Close()

		client := defra.NewClient(server.URL)
		logger := slog.Default()

		res, err := Initialize(context.Background(), client, logger)
		if err != nil {
			t.Fatalf("Initialize() should handle already exists, got error = %v", err)
		}
		if len(res.Existing) != len(registry) || len(res.Added) != 0 {
			t.Errorf("Initialize() = %+v, want every collection existing", res)
		}
	})

	t.Run("fails on other errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/v0/schema" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("invalid schema syntax"))
				return
			}
		}))
		defer server.Close()

		client := defra.NewClient(server.URL)

		_, err := Initialize(context.Background(), client, nil)
		if err == nil {
			t.Error("Initialize() should fail on syntax error")
		}
	})
}

func TestIsAlreadyExistsError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"already exists", errWithMsg("collection already exists. Name: Node"), true},
		{"already exists variant", errWithMsg("schema already exists"), true},
		{"other error", errWithMsg("invalid syntax"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAlreadyExistsError(tt.err)
			if got != tt.want {
				t.Errorf("isAlreadyExistsError() = %v, want %v", got, tt.want)
			}
		})
	}
}

// errWithMsg creates a simple error with a message
type errWithMsg string

func (e errWithMsg) Error() string { return string(e) }
