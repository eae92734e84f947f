package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/outline/internal/api"
	"github.com/jackzampolin/outline/internal/defra"
	"github.com/jackzampolin/outline/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Defra  string `json:"defra,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := svcctx.ServicesFrom(r.Context())
	if s == nil || s.Host == nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Defra: "not_initialized"})
		return
	}

	resp := HealthResponse{Status: "ok"}
	// In-memory deployments have no database to check.
	if s.DefraClient != nil {
		resp.Defra = "ok"
		if err := s.DefraClient.HealthCheck(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Defra = "unhealthy"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (includes DefraDB)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server string      `json:"server"`
	Runs   RunsStatus  `json:"runs"`
	Defra  DefraStatus `json:"defra"`
	Books  []string    `json:"books"`
}

// RunsStatus shows what the run host is doing.
type RunsStatus struct {
	Active string `json:"active,omitempty"`
	Queued int    `json:"queued"`
}

// DefraStatus shows DefraDB container and health status.
type DefraStatus struct {
	Container string `json:"container"`
	Health    string `json:"health"`
	URL       string `json:"url,omitempty"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct {
	// DefraManager is nil when the server talks to an external DefraDB.
	DefraManager *defra.DockerManager
}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Server: "running"}

	if host := svcctx.HostFrom(r.Context()); host != nil {
		resp.Runs.Active = host.Active()
		resp.Runs.Queued = host.QueueDepth()
	}
	if reg := svcctx.BooksFrom(r.Context()); reg != nil {
		resp.Books = reg.Codes()
	}

	if e.DefraManager != nil {
		status, err := e.DefraManager.Status(r.Context())
		if err != nil {
			resp.Defra.Container = "error"
		} else {
			resp.Defra.Container = string(status)
		}
	} else {
		resp.Defra.Container = "external"
	}

	client := svcctx.DefraClientFrom(r.Context())
	switch {
	case client == nil:
		resp.Defra.Health = "not_initialized"
	case client.HealthCheck(r.Context()) != nil:
		resp.Defra.Health = "unhealthy"
		resp.Defra.URL = client.URL()
	default:
		resp.Defra.Health = "healthy"
		resp.Defra.URL = client.URL()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			if api.GetOutputFormat() == api.OutputFormatJSON {
				return api.Output(resp)
			}
			fmt.Printf("Server: %s\n", resp.Server)
			fmt.Printf("Runs:\n")
			fmt.Printf("  Active: %s\n", orNone(resp.Runs.Active))
			fmt.Printf("  Queued: %d\n", resp.Runs.Queued)
			fmt.Printf("Defra:\n")
			fmt.Printf("  Container: %s\n", resp.Defra.Container)
			fmt.Printf("  Health:    %s\n", resp.Defra.Health)
			fmt.Printf("  URL:       %s\n", resp.Defra.URL)
			fmt.Printf("Books: %v\n", resp.Books)
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
