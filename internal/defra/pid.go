package defra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrServerRunning is returned when a pid file points at a live process.
var ErrServerRunning = errors.New("outline server already running")

// PidFile guards a home directory against two servers sharing one DefraDB container.
type PidFile string

// Acquire writes the current pid, refusing when another live process holds the file.
// A stale file left by a crashed server is overwritten.
func (p PidFile) Acquire() error {
	if pid, err := p.Read(); err == nil && pid != os.Getpid() && processAlive(pid) {
		return fmt.Errorf("%w (pid %d, %s)", ErrServerRunning, pid, string(p))
	}
	return os.WriteFile(string(p), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// Release removes the pid file.
func (p PidFile) Release() {
	_ = os.Remove(string(p))
}

// Read returns the recorded pid.
func (p PidFile) Read() (int, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file contents: %w", err)
	}
	return pid, nil
}

// processAlive sends signal 0, which checks existence without delivering anything.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
