package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/loykin/unitctl/internal/unit"
)

// DefaultEditor is used when neither configuration nor $EDITOR names one.
const DefaultEditor = "nano"

var ErrNoEditor = errors.New("no editor configured")

// Editor opens unit files for interactive editing.
type Editor struct {
	UnitsDir string
	// Command is the editor command line; extra words are passed before
	// the file path ("code --wait").
	Command string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
}

func (e *Editor) log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Edit creates a stub for name when its file is missing, then runs the
// editor on the file and waits for it to exit. It returns the file path.
func (e *Editor) Edit(ctx context.Context, name string) (string, error) {
	path, created, err := unit.WriteStub(e.UnitsDir, name)
	if err != nil {
		return "", fmt.Errorf("create stub for %s: %w", name, err)
	}
	if created {
		e.log().Info("created unit stub", "unit", name, "path", path)
	}

	argv := strings.Fields(e.Command)
	if len(argv) == 0 {
		argv = []string{DefaultEditor}
	}
	// #nosec G204 the editor is chosen by the operator
	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin = orDefault(e.Stdin, os.Stdin)
	cmd.Stdout = orDefaultW(e.Stdout, os.Stdout)
	cmd.Stderr = orDefaultW(e.Stderr, os.Stderr)
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return path, fmt.Errorf("%w: %s: %v", ErrNoEditor, argv[0], err)
		}
		return path, fmt.Errorf("editor %s: %w", argv[0], err)
	}
	return path, nil
}

func orDefault(r io.Reader, def io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return def
}

func orDefaultW(w io.Writer, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}
