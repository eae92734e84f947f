package api

import (
	"net/http"
	"sort"

	"github.com/spf13/cobra"
)

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// initMiddleware wraps handlers that require full server initialization.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns the "api" command tree. Grouped endpoints are nested
// under one subcommand per group.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running outline server via HTTP.

These commands require a running server (outline serve).
Use --server to specify a custom server URL.

Examples:
  outline api health                 # Check server health
  outline api runs create assign bg  # Queue an assign run
  outline api runs get <id>          # Show a run and its progress`,
	}

	groups := make(map[string]*cobra.Command)
	for _, ep := range r.endpoints {
		g, ok := ep.(Grouped)
		if !ok || g.Group() == "" {
			apiCmd.AddCommand(ep.Command(getServerURL))
			continue
		}
		parent, ok := groups[g.Group()]
		if !ok {
			parent = &cobra.Command{Use: g.Group(), Short: g.Group() + " commands"}
			groups[g.Group()] = parent
		}
		parent.AddCommand(ep.Command(getServerURL))
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		apiCmd.AddCommand(groups[name])
	}

	return apiCmd
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
