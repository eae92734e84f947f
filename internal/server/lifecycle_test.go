package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackzampolin/outline/internal/api"
	"github.com/jackzampolin/outline/internal/defra"
	"github.com/jackzampolin/outline/internal/home"
	"github.com/jackzampolin/outline/internal/server/endpoints"
	"github.com/jackzampolin/outline/internal/testutil"
)

// TestServer_FullLifecycle starts DefraDB in Docker, serves, and shuts down.
func TestServer_FullLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	_ = testutil.DockerClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	port, err := testutil.FindFreePort()
	if err != nil {
		t.Fatalf("FindFreePort() error = %v", err)
	}
	defraPort, err := testutil.FindFreePort()
	if err != nil {
		t.Fatalf("FindFreePort() error = %v", err)
	}
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	srv, err := New(Config{
		Host: "127.0.0.1",
		Port: port,
		Home: h,
		DefraConfig: defra.DockerConfig{
			ContainerName: testutil.UniqueContainerName(t, "server"),
			HostPort:      defraPort,
			Labels:        testutil.ContainerLabels(t),
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)
	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	baseURL := fmt.Sprintf("http://127.0.0.1:%s", port)
	if err := waitForReady(ctx, baseURL, 90*time.Second); err != nil {
		serverCancel()
		t.Fatalf("server did not become ready: %v", err)
	}

	client := api.NewClient(baseURL)

	t.Run("ready_reports_defra", func(t *testing.T) {
		var resp endpoints.HealthResponse
		if err := client.Get(ctx, "/ready", &resp); err != nil {
			t.Fatalf("ready: %v", err)
		}
		if resp.Defra != "ok" {
			t.Errorf("Defra = %q, want ok", resp.Defra)
		}
	})

	t.Run("settings_persist_in_defra", func(t *testing.T) {
		req := endpoints.UpdateSettingRequest{Value: "scripture"}
		var resp endpoints.SettingResponse
		if err := client.Put(ctx, "/api/settings/menu.machine_name", req, &resp); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := client.Get(ctx, "/api/settings/menu.machine_name", &resp); err != nil {
			t.Fatalf("get: %v", err)
		}
		if !resp.Overridden || resp.Entry.Value != "scripture" {
			t.Errorf("entry = %+v, overridden = %v", resp.Entry, resp.Overridden)
		}
	})

	serverCancel()
	select {
	case err := <-serverErr:
		if err != nil {
			t.Errorf("Start() returned error = %v", err)
		}
	case <-time.After(60 * time.Second):
		t.Fatal("server did not shut down")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

// waitForReady polls /ready until the server answers 200.
func waitForReady(ctx context.Context, baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/ready", nil)
		if err != nil {
			return err
		}
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return fmt.Errorf("timeout after %s", timeout)
}
