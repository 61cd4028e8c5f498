package bootguard

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// DefaultPath lives on /run, which is a tmpfs emptied at every boot.
const DefaultPath = "/run/unitctl.core.once"

// Guard gates core initialization to once per boot session through an
// exclusively created marker file. The marker is never removed by unitctl.
type Guard struct {
	Path   string
	Logger *slog.Logger
	now    func() time.Time
}

func New(path string, logger *slog.Logger) *Guard {
	if path == "" {
		path = DefaultPath
	}
	return &Guard{Path: path, Logger: logger}
}

func (g *Guard) log() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// Acquire creates the marker. It returns true only for the caller that
// created it; an existing marker or any other failure yields false.
func (g *Guard) Acquire() bool {
	f, err := os.OpenFile(g.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			g.log().Info("already booted in this session, skipping", "marker", g.Path)
		} else {
			g.log().Error("cannot create boot marker", "marker", g.Path, "error", err)
		}
		return false
	}
	defer func() { _ = f.Close() }()

	now := time.Now
	if g.now != nil {
		now = g.now
	}
	// content is diagnostic only; a failed write does not undo the claim
	if _, err := fmt.Fprintf(f, "pid=%d time=%d\n", os.Getpid(), now().Unix()); err != nil {
		g.log().Warn("cannot write boot marker", "marker", g.Path, "error", err)
	}
	return true
}

// Acquired reports whether the marker exists without creating it.
func (g *Guard) Acquired() bool {
	_, err := os.Stat(g.Path)
	return err == nil
}
