// Package testutil holds helpers for tests that need a live Docker daemon.
// Such tests are skipped unless OUTLINE_INTEGRATION is set and Docker answers a ping.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

const (
	// CleanupLabel marks containers created by tests.
	CleanupLabel = "outline-test"

	// IntegrationEnv enables tests that start containers.
	IntegrationEnv = "OUTLINE_INTEGRATION"
)

// TestingT is the subset of testing.T the Docker helpers need.
type TestingT interface {
	Name() string
	Cleanup(func())
	Logf(format string, args ...any)
	Skipf(format string, args ...any)
	Helper()
}

// DockerClient returns a Docker client and registers cleanup of this test's containers.
// The test is skipped when integration tests are disabled or Docker is unreachable.
func DockerClient(t TestingT) *client.Client {
	t.Helper()

	if os.Getenv(IntegrationEnv) == "" {
		t.Skipf("set %s=1 to run Docker integration tests", IntegrationEnv)
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("docker client unavailable: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		t.Skipf("docker is not running: %v", err)
	}

	t.Cleanup(func() {
		cleanupTestContainers(t, cli)
		_ = cli.Close()
	})
	return cli
}

// UniqueContainerName generates a container name of the form outline-test-<prefix>-<test>-<rand>.
func UniqueContainerName(t TestingT, prefix string) string {
	t.Helper()
	return fmt.Sprintf("outline-test-%s-%s-%s", prefix, sanitizeName(t.Name()), randString(4))
}

// ContainerLabels returns the labels cleanup keys on.
func ContainerLabels(t TestingT) map[string]string {
	return map[string]string{CleanupLabel: t.Name()}
}

func cleanupTestContainers(t TestingT, cli *client.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	filterArgs := filters.NewArgs()
	filterArgs.Add("label", fmt.Sprintf("%s=%s", CleanupLabel, t.Name()))

	containers, err := cli.ContainerList(ctx, container.ListOptions{All: true, Filters: filterArgs})
	if err != nil {
		t.Logf("failed to list containers for cleanup: %v", err)
		return
	}

	for _, c := range containers {
		timeout := 10
		if err := cli.ContainerStop(ctx, c.ID, container.StopOptions{Timeout: &timeout}); err != nil {
			t.Logf("failed to stop container %s: %v", c.ID, err)
		}
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
			t.Logf("failed to remove container %s: %v", c.ID, err)
		}
	}
}

func randString(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// sanitizeName keeps alphanumerics and maps separators to '-', capped at 30 bytes.
func sanitizeName(name string) string {
	var b strings.Builder
	for i := 0; i < len(name) && b.Len() < 30; i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '/' || c == '_' || c == '-':
			b.WriteByte('-')
		}
	}
	return b.String()
}
