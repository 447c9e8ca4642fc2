package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ruteri/zaph/interfaces"
)

const (
	// PIDFileName holds the PID of a detached daemon.
	PIDFileName = ".zaphenathd.pid"
	// LogFileName is the daemon's append-only log.
	LogFileName = ".zaphenathd.log"
)

// ErrNotRunning is returned when no PID file exists.
var ErrNotRunning = errors.New("daemon is not running")

// Supervisor starts and stops a detached daemon process tracked by a PID
// file in dir.
type Supervisor struct {
	dir string
	log *slog.Logger
}

// NewSupervisor creates a supervisor keeping its files in dir. An empty dir
// means the working directory.
func NewSupervisor(dir string, log *slog.Logger) *Supervisor {
	return &Supervisor{dir: dir, log: log}
}

func (s *Supervisor) PIDPath() string {
	return filepath.Join(s.dir, PIDFileName)
}

func (s *Supervisor) LogPath() string {
	return filepath.Join(s.dir, LogFileName)
}

// Start spawns executable with args in the background, detached from the
// terminal, and records its PID.
func (s *Supervisor) Start(executable string, args []string) (int, error) {
	if pid, running, err := s.Running(); err == nil && running {
		return 0, fmt.Errorf("%w: daemon already running with PID %d", interfaces.ErrConflict, pid)
	}

	cmd := exec.Command(executable, args...)
	cmd.Dir = s.dir
	cmd.SysProcAttr = detachedProcAttr()
	// stdin, stdout and stderr stay nil so they are bound to the null device

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	pid := cmd.Process.Pid

	if err := os.WriteFile(s.PIDPath(), []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		_ = cmd.Process.Kill()
		return 0, fmt.Errorf("failed to write PID file: %w", err)
	}
	if err := cmd.Process.Release(); err != nil {
		s.log.Warn("Failed to release daemon process", "pid", pid, "err", err)
	}

	s.log.Info("Daemon detached", "pid", pid, "pidFile", s.PIDPath())
	return pid, nil
}

// Stop asks the recorded process to terminate and removes the PID file. If
// the signal cannot be delivered the PID file is kept.
func (s *Supervisor) Stop() (int, error) {
	pid, err := s.readPID()
	if err != nil {
		return 0, err
	}

	if err := terminate(pid); err != nil {
		return pid, fmt.Errorf("failed to stop daemon with PID %d: %w", pid, err)
	}

	if err := os.Remove(s.PIDPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return pid, fmt.Errorf("daemon stopped but PID file could not be removed: %w", err)
	}

	s.log.Info("Daemon stopped", "pid", pid)
	return pid, nil
}

// Running reports the recorded PID and whether that process is alive.
func (s *Supervisor) Running() (int, bool, error) {
	pid, err := s.readPID()
	if err != nil {
		return 0, false, err
	}
	return pid, processAlive(pid), nil
}

func (s *Supervisor) readPID() (int, error) {
	raw, err := os.ReadFile(s.PIDPath())
	if errors.Is(err, os.ErrNotExist) {
		return 0, ErrNotRunning
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, interfaces.Configf("invalid PID in %s: %q", s.PIDPath(), strings.TrimSpace(string(raw)))
	}
	return pid, nil
}

// WithoutDetachFlag returns args with every form of the detach flag removed,
// so the spawned process runs in the foreground.
func WithoutDetachFlag(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if strings.HasPrefix(arg, "-") && (name == "d" || name == "detached") {
			continue
		}
		out = append(out, arg)
	}
	return out
}
