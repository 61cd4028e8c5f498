package process

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/loykin/unitctl/internal/unit"
)

// Default stop escalation timings.
const (
	DefaultStopTimeout  = 5 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
	killReapWindow      = 200 * time.Millisecond
)

// OutputFunc opens the file a unit's stdout and stderr are attached to.
// It must return an *os.File: the child outlives unitctl, so its output
// cannot be copied through a pipe owned by this process.
type OutputFunc func(name string) (*os.File, error)

// Supervisor starts and stops unit processes. The only durable state is one
// pidfile per started unit in RunDir; nothing keeps watching a child after
// Start returns.
type Supervisor struct {
	RunDir       string
	Launcher     Launcher
	StopTimeout  time.Duration
	PollInterval time.Duration
	Output       OutputFunc // nil sends child output to the null device
	Logger       *slog.Logger
}

// NewSupervisor returns a Supervisor using the shell launcher and default timings.
func NewSupervisor(runDir string) *Supervisor {
	return &Supervisor{
		RunDir:       runDir,
		Launcher:     ShellLauncher{},
		StopTimeout:  DefaultStopTimeout,
		PollInterval: DefaultPollInterval,
	}
}

func (s *Supervisor) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// PIDFile returns the pidfile path of unit name.
func (s *Supervisor) PIDFile(name string) string { return PIDFilePath(s.RunDir, name) }

// Start spawns the unit's command and records its pid. It does not wait
// for the child.
func (s *Supervisor) Start(u unit.Unit) (int, error) {
	launcher := s.Launcher
	if launcher == nil {
		launcher = ShellLauncher{}
	}
	cmd := launcher.Command(u)
	if u.WorkDir != "" {
		cmd.Dir = u.WorkDir
	}
	out, err := s.openOutput(u.Name)
	if err != nil {
		s.log().Error("cannot open output", "unit", u.Name, "error", err)
		return 0, fmt.Errorf("%w: %s: %v", ErrSpawn, u.Name, err)
	}
	defer func() { _ = out.Close() }()
	cmd.Stdin = nil
	cmd.Stdout = out
	cmd.Stderr = out
	configureSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		s.log().Error("start failed", "unit", u.Name, "error", err)
		return 0, fmt.Errorf("%w: %s: %v", ErrSpawn, u.Name, err)
	}
	pid := cmd.Process.Pid
	// No monitor: the handle is dropped and the child runs on its own.
	_ = cmd.Process.Release()

	if err := WritePIDFile(s.PIDFile(u.Name), pid); err != nil {
		s.log().Error("cannot write pidfile", "unit", u.Name, "pid", pid, "error", err)
		return pid, fmt.Errorf("write pidfile for %s: %w", u.Name, err)
	}
	s.log().Info("started", "unit", u.Name, "pid", pid, "cmd", u.Exec)
	return pid, nil
}

func (s *Supervisor) openOutput(name string) (*os.File, error) {
	if s.Output != nil {
		return s.Output(name)
	}
	return os.OpenFile(os.DevNull, os.O_RDWR, 0)
}

// Stop terminates the process recorded for u: SIGTERM, wait up to
// StopTimeout polling every PollInterval, then SIGKILL. The pidfile is
// removed whatever happened. Without a pidfile no signal is sent and
// ErrNotRunning is returned.
func (s *Supervisor) Stop(u unit.Unit) (StopResult, error) {
	path := s.PIDFile(u.Name)
	pid, err := ReadPIDFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log().Info("no pidfile", "unit", u.Name)
			return "", fmt.Errorf("%s: %w", u.Name, ErrNotRunning)
		}
		// unreadable record: nothing safe to signal, drop it
		s.log().Warn("invalid pidfile removed", "unit", u.Name, "path", path, "error", err)
		_ = RemovePIDFile(path)
		return "", fmt.Errorf("%s: %w", u.Name, ErrNotRunning)
	}

	result := StopGraceful
	if err := killProcess(pid, syscall.SIGTERM); err != nil {
		result = StopAlreadyGone
	} else if !s.waitExit(pid, s.stopTimeout()) {
		_ = killProcess(pid, syscall.SIGKILL)
		result = StopKilled
		s.waitExit(pid, killReapWindow)
	}

	if err := RemovePIDFile(path); err != nil {
		s.log().Warn("cannot remove pidfile", "unit", u.Name, "path", path, "error", err)
	}
	s.log().Info("stopped", "unit", u.Name, "pid", pid, "result", string(result))
	return result, nil
}

func (s *Supervisor) stopTimeout() time.Duration {
	if s.StopTimeout > 0 {
		return s.StopTimeout
	}
	return DefaultStopTimeout
}

func (s *Supervisor) pollInterval() time.Duration {
	if s.PollInterval > 0 {
		return s.PollInterval
	}
	return DefaultPollInterval
}

// waitExit polls until pid is gone or d elapses.
func (s *Supervisor) waitExit(pid int, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if reapChild(pid) || !processExists(pid) {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(s.pollInterval())
	}
}

// Probe reads the pidfile of name without modifying anything. A missing
// pidfile yields a zero PID and no error.
func (s *Supervisor) Probe(name string) (Record, error) {
	path := s.PIDFile(name)
	rec := Record{Name: name, PIDFile: path}
	pid, err := ReadPIDFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rec, nil
		}
		return rec, err
	}
	rec.PID = pid
	rec.Alive = processExists(pid)
	if rec.Alive {
		rec.Command, rec.StartedAt = describeProcess(pid)
	}
	return rec, nil
}
