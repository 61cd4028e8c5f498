package unit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ParseFile reads a single unit definition from path.
func ParseFile(path string) (Unit, error) {
	clean := filepath.Clean(path)
	f, err := os.Open(clean)
	if err != nil {
		return Unit{}, err
	}
	defer func() { _ = f.Close() }()
	u, err := Parse(f)
	if err != nil {
		return Unit{}, &LoadError{Path: clean, Err: err}
	}
	u.Path = clean
	return u, nil
}

// Parse decodes the line-oriented unit format:
//
//	# comment
//	name = "web"
//	exec = "./server --port 8080"
//	workdir = "/srv/web"
//	autostart = true
//	after = ["db", "cache"]
//
// Values that fail to parse leave the field unset. Unknown keys are ignored.
func Parse(r io.Reader) (Unit, error) {
	var (
		u       Unit
		hasName bool
		hasExec bool
	)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), 1<<20)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		switch key {
		case "name":
			if str, ok := parseString(val); ok {
				u.Name, hasName = str, true
			}
		case "exec":
			if str, ok := parseString(val); ok {
				u.Exec, hasExec = str, true
			}
		case "workdir":
			if str, ok := parseString(val); ok {
				u.WorkDir = str
			}
		case "autostart":
			u.AutoStart = len(val) >= 4 && strings.EqualFold(val[:4], "true")
		case "after":
			if list, ok := parseStringList(val); ok {
				u.After = list
			}
		}
	}
	if err := s.Err(); err != nil {
		return Unit{}, err
	}
	if !hasName || !hasExec {
		return Unit{}, ErrMissingField
	}
	if err := ValidateName(u.Name); err != nil {
		return Unit{}, err
	}
	return u, nil
}

// parseString accepts a double-quoted value and returns its content up to
// the closing quote. There are no escape sequences.
func parseString(in string) (string, bool) {
	in = strings.TrimLeft(in, " \t")
	if !strings.HasPrefix(in, `"`) {
		return "", false
	}
	end := strings.IndexByte(in[1:], '"')
	if end < 0 {
		return "", false
	}
	return in[1 : end+1], true
}

// parseStringList accepts `[ "a", "b" ]`. An empty list yields a non-nil
// empty slice so that `after = []` round-trips.
func parseStringList(in string) ([]string, bool) {
	p := strings.TrimLeft(in, " \t")
	if !strings.HasPrefix(p, "[") {
		return nil, false
	}
	p = p[1:]
	out := []string{}
	for {
		p = strings.TrimLeft(p, " \t")
		switch {
		case p == "":
			return nil, false
		case p[0] == ']':
			return out, true
		case p[0] == ',':
			p = p[1:]
			continue
		}
		str, ok := parseString(p)
		if !ok {
			return nil, false
		}
		out = append(out, str)
		p = p[len(str)+2:]
	}
}

// Format renders u in the unit file format understood by Parse.
func Format(u Unit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name = \"%s\"\n", u.Name)
	fmt.Fprintf(&b, "exec = \"%s\"\n", u.Exec)
	if u.WorkDir != "" {
		fmt.Fprintf(&b, "workdir = \"%s\"\n", u.WorkDir)
	}
	fmt.Fprintf(&b, "autostart = %t\n", u.AutoStart)
	b.WriteString("after = [")
	for i, a := range u.After {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "\"%s\"", a)
	}
	b.WriteString("]\n")
	return b.String()
}
