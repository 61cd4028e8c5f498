package process

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/loykin/unitctl/internal/unit"
)

// Launcher turns a unit's exec string into a command. It is the single
// place where the execution policy for unit command lines is decided.
type Launcher interface {
	Command(u unit.Unit) *exec.Cmd
}

// Exec modes accepted by LauncherFor.
const (
	ExecModeShell  = "shell"
	ExecModeDirect = "direct"
)

// ShellLauncher runs exec through /bin/sh -c, so unit command lines may use
// pipes, redirections and variable expansion. Unit files are trusted input.
type ShellLauncher struct{}

func (ShellLauncher) Command(u unit.Unit) *exec.Cmd {
	return getShellCommand(u.Exec)
}

// DirectLauncher splits exec on whitespace and runs the first field with
// the rest as arguments. No shell is involved, so quoting and shell syntax
// are not interpreted.
type DirectLauncher struct{}

func (DirectLauncher) Command(u unit.Unit) *exec.Cmd {
	parts := strings.Fields(u.Exec)
	if len(parts) == 0 {
		return getTrueCommand()
	}
	// #nosec G204
	return exec.Command(parts[0], parts[1:]...)
}

// LauncherFor returns the launcher for an exec mode; empty means shell.
func LauncherFor(mode string) (Launcher, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ExecModeShell:
		return ShellLauncher{}, nil
	case ExecModeDirect:
		return DirectLauncher{}, nil
	default:
		return nil, fmt.Errorf("unknown exec mode %q (want %s or %s)", mode, ExecModeShell, ExecModeDirect)
	}
}
