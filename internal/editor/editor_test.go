package editor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/loykin/unitctl/internal/unit"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests require sh on Unix-like systems")
	}
}

func TestEditCreatesStubAndRunsEditor(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	var out bytes.Buffer
	// cat prints the file it was handed
	e := &Editor{UnitsDir: dir, Command: "cat", Stdout: &out}
	path, err := e.Edit(context.Background(), "web")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if path != filepath.Join(dir, "web.toml") {
		t.Fatalf("unexpected path %s", path)
	}
	if !strings.Contains(out.String(), `name = "web"`) || !strings.Contains(out.String(), `exec = ""`) {
		t.Fatalf("editor did not receive the stub: %q", out.String())
	}
	u, err := unit.ParseFile(path)
	if err != nil {
		t.Fatalf("stub must parse: %v", err)
	}
	if u.Name != "web" || u.Exec != "" || u.AutoStart || len(u.After) != 0 {
		t.Fatalf("unexpected stub %+v", u)
	}
}

func TestEditKeepsExistingFile(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	p := filepath.Join(dir, "db.toml")
	orig := "name = \"db\"\nexec = \"postgres\"\n"
	if err := os.WriteFile(p, []byte(orig), 0o644); err != nil {
		t.Fatal(err)
	}
	// tee -a appends stdin, proving the editor ran on the real file
	e := &Editor{
		UnitsDir: dir,
		Command:  "tee -a",
		Stdin:    strings.NewReader("autostart = true\n"),
		Stdout:   &bytes.Buffer{},
	}
	if _, err := e.Edit(context.Background(), "db"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != orig+"autostart = true\n" {
		t.Fatalf("file content = %q", b)
	}
}

func TestEditErrors(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	e := &Editor{UnitsDir: dir, Command: "no-such-editor-unitctl"}
	if _, err := e.Edit(context.Background(), "x"); !errors.Is(err, ErrNoEditor) {
		t.Fatalf("expected ErrNoEditor, got %v", err)
	}
	e.Command = "false"
	if _, err := e.Edit(context.Background(), "x"); err == nil {
		t.Fatalf("non-zero editor exit should be reported")
	}
	if _, err := e.Edit(context.Background(), "../escape"); !errors.Is(err, unit.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}
