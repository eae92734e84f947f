package defra

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestPidFile(t *testing.T) {
	p := PidFile(filepath.Join(t.TempDir(), "outline.pid"))

	if err := p.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	pid, err := p.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("Read() = %d, want %d", pid, os.Getpid())
	}

	// re-acquiring our own file is fine
	if err := p.Acquire(); err != nil {
		t.Errorf("second Acquire() error = %v", err)
	}

	p.Release()
	if _, err := p.Read(); err == nil {
		t.Error("expected error after release")
	}
}

func TestPidFile_HeldByLiveProcess(t *testing.T) {
	p := PidFile(filepath.Join(t.TempDir(), "outline.pid"))

	// pid 1 always exists on unix
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(1)), 0o644); err != nil {
		t.Fatal(err)
	}
	if !processAlive(1) {
		t.Skip("cannot signal pid 1 in this environment")
	}
	if err := p.Acquire(); !errors.Is(err, ErrServerRunning) {
		t.Errorf("Acquire() error = %v, want ErrServerRunning", err)
	}
}

func TestPidFile_Invalid(t *testing.T) {
	p := PidFile(filepath.Join(t.TempDir(), "outline.pid"))
	if err := os.WriteFile(string(p), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Read(); err == nil {
		t.Error("expected parse error")
	}
	// an unreadable file does not block startup
	if err := p.Acquire(); err != nil {
		t.Errorf("Acquire() error = %v", err)
	}
}
