package state

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

const header = "# unitctl index"

// Index is the list of unit names known at the last refresh.
type Index struct {
	Units []string
}

// Encode renders idx in the index file format.
func Encode(w io.Writer, idx Index) error {
	var b bytes.Buffer
	b.WriteString(header + "\n")
	fmt.Fprintf(&b, "units=%d\n", len(idx.Units))
	for _, n := range idx.Units {
		fmt.Fprintf(&b, "- %s\n", n)
	}
	_, err := w.Write(b.Bytes())
	return err
}

// Write atomically replaces path with idx.
func Write(path string, idx Index) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("state dir: %w", err)
	}
	var b bytes.Buffer
	if err := Encode(&b, idx); err != nil {
		return err
	}
	if err := renameio.WriteFile(path, b.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write state index: %w", err)
	}
	return nil
}

// Decode parses an index. The units= count must match the listed names.
func Decode(r io.Reader) (Index, error) {
	var idx Index
	count := -1
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
		case strings.HasPrefix(line, "units="):
			n, err := strconv.Atoi(strings.TrimPrefix(line, "units="))
			if err != nil || n < 0 {
				return Index{}, fmt.Errorf("invalid unit count %q", line)
			}
			count = n
		case strings.HasPrefix(line, "- "):
			idx.Units = append(idx.Units, strings.TrimPrefix(line, "- "))
		default:
			return Index{}, fmt.Errorf("unexpected line %q", line)
		}
	}
	if err := sc.Err(); err != nil {
		return Index{}, err
	}
	if count < 0 {
		return Index{}, fmt.Errorf("missing units= line")
	}
	if count != len(idx.Units) {
		return Index{}, fmt.Errorf("index lists %d units, header says %d", len(idx.Units), count)
	}
	return idx, nil
}

// Read loads the index at path.
func Read(path string) (Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return Index{}, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}
