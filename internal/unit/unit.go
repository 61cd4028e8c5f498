package unit

import (
	"errors"
	"fmt"
	"strings"
)

// RootName is the conventional anchor unit started by core_init.
const RootName = "rootinit"

// FileExt is the extension of unit definition files in the units directory.
const FileExt = ".toml"

var (
	// ErrMissingField is wrapped by LoadError when name or exec is absent.
	ErrMissingField = errors.New("missing required keys")
	// ErrInvalidName is wrapped by LoadError when the unit name cannot be used as a file name.
	ErrInvalidName = errors.New("invalid unit name")
)

// Unit is a named service descriptor loaded from one definition file.
type Unit struct {
	Name      string   `json:"name" yaml:"name"`
	Exec      string   `json:"exec" yaml:"exec"`
	WorkDir   string   `json:"workdir,omitempty" yaml:"workdir,omitempty"`
	AutoStart bool     `json:"autostart" yaml:"autostart"`
	After     []string `json:"after" yaml:"after"`
	Path      string   `json:"-" yaml:"-"` // definition file, diagnostics only
}

// LoadError reports a unit file that was rejected by the loader.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// ValidateName checks that name can key a pidfile.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00\n") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Find returns the index of the unit named name, or -1.
// Loaders drop duplicates, so the first match is the only match.
func Find(units []Unit, name string) int {
	for i := range units {
		if units[i].Name == name {
			return i
		}
	}
	return -1
}

// Names returns the unit names in load order.
func Names(units []Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Name
	}
	return out
}
