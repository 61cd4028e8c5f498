package unitctl

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	c, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	dir := t.TempDir()
	c.UnitsDir = filepath.Join(dir, "units")
	c.RunDir = filepath.Join(dir, "run")
	c.StateFile = filepath.Join(dir, "state.index")
	c.BootMarker = filepath.Join(dir, "core.once")
	c.Log.File = ""
	c.StopTimeout = time.Second
	return c
}

func TestLoadConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.UnitsDir != filepath.Join(home, ".config", "unitctl", "units") {
		t.Fatalf("units dir = %s", c.UnitsDir)
	}
	if c.RootUnit != "rootinit" || c.ExecMode != "shell" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestOpenRejectsUnknownExecMode(t *testing.T) {
	c := testConfig(t)
	c.ExecMode = "ssh"
	if _, err := Open(c, slog.New(slog.DiscardHandler), IO{}); err == nil {
		t.Fatalf("expected error for unknown exec mode")
	}
}

func TestAppRefreshMapAndMetricsTextfile(t *testing.T) {
	c := testConfig(t)
	c.Metrics.Textfile = filepath.Join(t.TempDir(), "unitctl.prom")
	// a history sink that cannot be opened only disables history
	c.History.DSN = "kafka://broker:9092"
	app, err := Open(c, slog.New(slog.DiscardHandler), IO{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if app.RunID() == "" {
		t.Fatalf("run id must be set")
	}

	ctx := context.Background()
	n, err := app.Refresh(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Refresh = %d, %v; want the default root unit only", n, err)
	}
	var buf bytes.Buffer
	if err := app.Map(ctx, &buf, "", MapText); err != nil {
		t.Fatalf("Map: %v", err)
	}
	if buf.String() != "Start map (root: rootinit)\n↳ rootinit\n" {
		t.Fatalf("unexpected map %q", buf.String())
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	b, err := os.ReadFile(c.Metrics.Textfile)
	if err != nil {
		t.Fatalf("textfile: %v", err)
	}
	if !strings.Contains(string(b), "unitctl_units_loaded 1") {
		t.Fatalf("textfile lacks units_loaded gauge:\n%s", b)
	}
}

func TestAppUnknownUnit(t *testing.T) {
	c := testConfig(t)
	app, err := Open(c, slog.New(slog.DiscardHandler), IO{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = app.Close() }()
	if err := app.Start(context.Background(), "nope"); err == nil || !strings.Contains(err.Error(), "unit not found") {
		t.Fatalf("expected unit not found, got %v", err)
	}
}

func TestParseMapFormat(t *testing.T) {
	if f, err := ParseMapFormat("mermaid"); err != nil || f != MapMermaid {
		t.Fatalf("ParseMapFormat(mermaid) = %q, %v", f, err)
	}
	if _, err := ParseMapFormat("png"); err == nil {
		t.Fatalf("png must be rejected")
	}
}
