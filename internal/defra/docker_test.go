package defra

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/outline/internal/testutil"
)

func TestDockerConfig_Defaults(t *testing.T) {
	if DefaultContainerName != "outline-defra" {
		t.Errorf("unexpected default container name: %s", DefaultContainerName)
	}
	if DefaultImage != "sourcenetwork/defradb:latest" {
		t.Errorf("unexpected default image: %s", DefaultImage)
	}
	if DefaultPort != "9181" {
		t.Errorf("unexpected default port: %s", DefaultPort)
	}
}

func TestGenerateContainerName(t *testing.T) {
	tests := []struct {
		name     string
		homePath string
		want     string
	}{
		// sha256("")[:8]
		{"empty path", "", "outline-defra-e3b0c442"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateContainerName(tt.homePath); got != tt.want {
				t.Errorf("GenerateContainerName(%q) = %q, want %q", tt.homePath, got, tt.want)
			}
		})
	}

	a := GenerateContainerName("/home/user1/.outline")
	if a != GenerateContainerName("/home/user1/.outline") {
		t.Error("GenerateContainerName() not deterministic")
	}
	if a == GenerateContainerName("/home/user2/.outline") {
		t.Error("GenerateContainerName() should differ per home")
	}
	if !strings.HasPrefix(a, ContainerNamePrefix) || len(a) != len(ContainerNamePrefix)+8 {
		t.Errorf("unexpected name shape: %q", a)
	}
}

func TestNewDockerManager_ContainerNaming(t *testing.T) {
	tests := []struct {
		name         string
		cfg          DockerConfig
		wantContName string
	}{
		{
			name:         "explicit container name takes precedence",
			cfg:          DockerConfig{ContainerName: "my-custom-container", HomePath: "/home/test/.outline"},
			wantContName: "my-custom-container",
		},
		{
			name:         "generates name from home path",
			cfg:          DockerConfig{HomePath: "/home/test/.outline"},
			wantContName: GenerateContainerName("/home/test/.outline"),
		},
		{
			name:         "falls back to default",
			cfg:          DockerConfig{},
			wantContName: DefaultContainerName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, err := NewDockerManager(tt.cfg)
			if err != nil {
				t.Fatalf("NewDockerManager() error = %v", err)
			}
			defer mgr.Close()

			if mgr.ContainerName() != tt.wantContName {
				t.Errorf("ContainerName() = %q, want %q", mgr.ContainerName(), tt.wantContName)
			}
			if mgr.URL() != "http://localhost:9181" {
				t.Errorf("URL() = %q", mgr.URL())
			}
		})
	}
}

func TestDockerManager_Integration(t *testing.T) {
	_ = testutil.DockerClient(t)

	ctx := context.Background()
	port, err := testutil.FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}

	mgr, err := NewDockerManager(DockerConfig{
		ContainerName: testutil.UniqueContainerName(t, "defra"),
		DataPath:      t.TempDir(),
		HostPort:      port,
		Labels:        testutil.ContainerLabels(t),
	})
	if err != nil {
		t.Fatalf("NewDockerManager() error = %v", err)
	}
	defer mgr.Close()

	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if status, _ := mgr.Status(ctx); status != StatusRunning {
		t.Errorf("expected status running, got %s", status)
	}
	if err := mgr.ValidateExisting(ctx); err != nil {
		t.Errorf("ValidateExisting() error = %v", err)
	}
	if err := NewClient(mgr.URL()).HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	if err := mgr.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if status, _ := mgr.Status(ctx); status != StatusStopped {
		t.Errorf("expected status stopped, got %s", status)
	}

	if err := mgr.Remove(ctx); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if status, _ := mgr.Status(ctx); status != StatusNotFound {
		t.Errorf("expected status not_found, got %s", status)
	}
	if _, err := mgr.Logs(ctx, "10"); err == nil {
		t.Error("expected error for removed container logs")
	}
}

func TestDockerManager_WaitReady_Timeout(t *testing.T) {
	port, err := testutil.FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	mgr, err := NewDockerManager(DockerConfig{HostPort: port})
	if err != nil {
		t.Fatalf("NewDockerManager() error = %v", err)
	}
	defer mgr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := mgr.WaitReady(ctx, time.Second); err == nil {
		t.Error("expected error when nothing listens")
	}
}
