package process

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

// PIDFileExt is appended to the unit name to form its pidfile name.
const PIDFileExt = ".pid"

// PIDFilePath returns the pidfile of unit name inside runDir.
func PIDFilePath(runDir, name string) string {
	return filepath.Join(runDir, name+PIDFileExt)
}

// WritePIDFile atomically replaces path with the decimal pid.
func WritePIDFile(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return renameio.WriteFile(path, []byte(strconv.Itoa(pid)), 0o600)
}

// ReadPIDFile returns the pid stored in path. Only the first line is
// considered; anything after it is ignored.
func ReadPIDFile(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pidLine, _, _ := strings.Cut(string(b), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(pidLine))
	if err != nil {
		return 0, fmt.Errorf("invalid pid in %s: %w", path, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s: %d", path, pid)
	}
	return pid, nil
}

// RemovePIDFile best-effort; a missing file is not an error.
func RemovePIDFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
