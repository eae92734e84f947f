package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Errors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"run finished"}`))
		case "/plain":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down\n"))
		default:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL + "/")
	ctx := context.Background()

	var se *StatusError
	err := c.Get(ctx, "/json", nil)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusConflict, se.Code)
	assert.Equal(t, "run finished", se.Message)

	err = c.Delete(ctx, "/plain", nil)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "upstream down", se.Message)

	var out struct{ OK bool }
	require.NoError(t, c.Post(ctx, "/ok", map[string]string{"a": "b"}, &out))
	assert.True(t, out.OK)
}

type stubEndpoint struct {
	use, group string
}

func (s stubEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/" + s.use, func(w http.ResponseWriter, r *http.Request) {}
}
func (s stubEndpoint) RequiresInit() bool { return s.group != "" }
func (s stubEndpoint) Group() string      { return s.group }
func (s stubEndpoint) Command(func() string) *cobra.Command {
	return &cobra.Command{Use: s.use}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(stubEndpoint{use: "health"})
	r.Register(stubEndpoint{use: "list", group: "runs"})
	r.Register(stubEndpoint{use: "get", group: "runs"})
	r.Register(stubEndpoint{use: "list-books", group: "books"})

	cmd := r.BuildCommands(func() string { return "" })
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"health", "runs", "books"}, names)

	runs, _, err := cmd.Find([]string{"runs", "get"})
	require.NoError(t, err)
	assert.Equal(t, "get", runs.Name())

	wrapped := 0
	mux := http.NewServeMux()
	r.RegisterRoutes(mux, func(h http.HandlerFunc) http.HandlerFunc {
		wrapped++
		return h
	})
	assert.Equal(t, 3, wrapped)
}

func TestOutputTo(t *testing.T) {
	data := map[string]any{"run": "run-1", "progress": 3}

	var buf bytes.Buffer
	require.NoError(t, OutputTo(&buf, OutputFormatYAML, data))
	assert.Equal(t, "progress: 3\nrun: run-1\n", buf.String())

	buf.Reset()
	require.NoError(t, OutputTo(&buf, OutputFormatJSON, data))
	assert.JSONEq(t, `{"run":"run-1","progress":3}`, buf.String())

	assert.Error(t, OutputTo(&buf, "toml", data))
	assert.Error(t, SetOutputFormat("toml"))
	require.NoError(t, SetOutputFormat("json"))
	assert.Equal(t, OutputFormatJSON, GetOutputFormat())
	require.NoError(t, SetOutputFormat("yaml"))
}
