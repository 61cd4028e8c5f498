package state

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFormat(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "state.index")
	if err := Write(p, Index{Units: []string{"rootinit", "web"}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	want := "# unitctl index\nunits=2\n- rootinit\n- web\n"
	if string(b) != want {
		t.Fatalf("index = %q, want %q", b, want)
	}
}

func TestWriteReplacesAndReadBack(t *testing.T) {
	p := filepath.Join(t.TempDir(), "state.index")
	if err := Write(p, Index{Units: []string{"a", "b", "c"}}); err != nil {
		t.Fatal(err)
	}
	if err := Write(p, Index{}); err != nil {
		t.Fatal(err)
	}
	idx, err := Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(idx.Units) != 0 {
		t.Fatalf("expected empty index, got %v", idx.Units)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "# unitctl index\nunits=0\n" {
		t.Fatalf("unexpected content %q", b)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"no count":  "# unitctl index\n- a\n",
		"mismatch":  "# unitctl index\nunits=2\n- a\n",
		"bad count": "units=x\n",
		"junk line": "units=0\nhello\n",
		"neg count": "units=-1\n",
	}
	for name, in := range cases {
		if _, err := Decode(strings.NewReader(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "none"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
