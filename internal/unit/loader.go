package unit

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnitsDir is returned when the units directory cannot be read.
var ErrUnitsDir = errors.New("units dir not found")

// Loader reads every *.toml file of a directory into Units.
type Loader struct {
	Dir string
	// Root is the anchor unit; when non-empty a default definition is
	// created in Dir if none exists yet.
	Root   string
	Logger *slog.Logger
}

func (l *Loader) log() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Load returns the units in file-name order. Files that fail to parse are
// logged and skipped; a later file that repeats an already loaded name is
// logged and dropped.
func (l *Loader) Load() ([]Unit, error) {
	if l.Root != "" {
		created, err := EnsureRoot(l.Dir, l.Root)
		switch {
		case err != nil:
			l.log().Warn("cannot create default root unit", "unit", l.Root, "dir", l.Dir, "error", err)
		case created:
			l.log().Info("created default root unit", "unit", l.Root, "path", FilePath(l.Dir, l.Root))
		}
	}
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		l.log().Error("units dir not found", "dir", l.Dir, "error", err)
		return nil, fmt.Errorf("%w: %s", ErrUnitsDir, l.Dir)
	}
	units := make([]Unit, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), FileExt) {
			continue
		}
		path := filepath.Join(l.Dir, e.Name())
		u, err := ParseFile(path)
		if err != nil {
			l.log().Warn("skipping unit file", "path", path, "error", err)
			continue
		}
		if first, dup := seen[u.Name]; dup {
			l.log().Warn("duplicate unit name, keeping first definition", "unit", u.Name, "kept", first, "dropped", path)
			continue
		}
		seen[u.Name] = path
		units = append(units, u)
	}
	return units, nil
}

// FilePath returns the conventional definition path for a unit name.
func FilePath(dir, name string) string {
	return filepath.Join(dir, name+FileExt)
}

// EnsureRoot creates a no-op autostart definition for name when the file
// is missing. It reports whether a file was created.
func EnsureRoot(dir, name string) (bool, error) {
	return writeIfMissing(FilePath(dir, name), Unit{
		Name:      name,
		Exec:      "/usr/bin/true",
		AutoStart: true,
		After:     []string{},
	}, true)
}

// WriteStub creates an empty definition for name when the file is missing,
// returning its path and whether it was created.
func WriteStub(dir, name string) (string, bool, error) {
	if err := ValidateName(name); err != nil {
		return "", false, err
	}
	path := FilePath(dir, name)
	created, err := writeIfMissing(path, Unit{Name: name, After: []string{}}, false)
	return path, created, err
}

func writeIfMissing(path string, u Unit, withWorkDir bool) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	body := Format(u)
	if withWorkDir && u.WorkDir == "" {
		// keep the key visible so the anchor is easy to edit
		body = strings.Replace(body, "autostart", "workdir = \"\"\nautostart", 1)
	}
	if _, err := f.WriteString(body); err != nil {
		_ = f.Close()
		return false, err
	}
	return true, f.Close()
}
