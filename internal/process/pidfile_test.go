package process

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestPIDFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := PIDFilePath(filepath.Join(dir, "run"), "web")
	if filepath.Base(p) != "web.pid" {
		t.Fatalf("unexpected pidfile name %q", p)
	}
	if err := WritePIDFile(p, 4242); err != nil {
		t.Fatalf("WritePIDFile: %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "4242" {
		t.Fatalf("pidfile content = %q, want decimal pid only", b)
	}
	pid, err := ReadPIDFile(p)
	if err != nil || pid != 4242 {
		t.Fatalf("ReadPIDFile = %d, %v", pid, err)
	}
	if err := RemovePIDFile(p); err != nil {
		t.Fatalf("RemovePIDFile: %v", err)
	}
	if _, err := ReadPIDFile(p); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist after remove, got %v", err)
	}
	if err := RemovePIDFile(p); err != nil {
		t.Fatalf("removing a missing pidfile should succeed: %v", err)
	}
}

func TestReadPIDFileTolerantFormat(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "x.pid")
	if err := os.WriteFile(p, []byte(" 12345 \nextra\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	pid, err := ReadPIDFile(p)
	if err != nil || pid != 12345 {
		t.Fatalf("ReadPIDFile = %d, %v", pid, err)
	}
}

func TestReadPIDFileRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	for i, content := range []string{"", "abc", "0", "-7"} {
		p := filepath.Join(dir, "bad"+string(rune('a'+i))+".pid")
		_ = os.WriteFile(p, []byte(content), 0o600)
		if _, err := ReadPIDFile(p); err == nil {
			t.Fatalf("content %q should be rejected", content)
		}
	}
}

func FuzzReadPIDFile(f *testing.F) {
	f.Add("123")
	f.Add("0\n")
	f.Add("not-a-pid\n")
	f.Fuzz(func(t *testing.T, content string) {
		dir := t.TempDir()
		pf := filepath.Join(dir, "fuzz.pid")
		_ = os.WriteFile(pf, []byte(content), 0o600)
		pid, err := ReadPIDFile(pf) // Should never panic
		if err == nil && pid <= 0 {
			t.Fatalf("accepted non-positive pid %d", pid)
		}
	})
}
