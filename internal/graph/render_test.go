package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/unitctl/internal/unit"
)

func renderTree(t *testing.T, units []unit.Unit, root string) string {
	t.Helper()
	g := Build(units, nil)
	r, ok := g.Index(root)
	require.True(t, ok)
	var buf bytes.Buffer
	require.NoError(t, g.WriteTree(&buf, r))
	return buf.String()
}

func TestWriteTree_ChildrenSortedByName(t *testing.T) {
	out := renderTree(t, []unit.Unit{
		u("zulu", "rootinit"),
		u("rootinit"),
		u("alpha", "rootinit"),
	}, "rootinit")
	assert.Equal(t, "↳ rootinit\n  ↳ alpha\n  ↳ zulu\n", out)
}

func TestWriteTree_SeenMarker(t *testing.T) {
	// diamond: shared is expanded once, then referenced
	out := renderTree(t, []unit.Unit{
		u("root"),
		u("left", "root"),
		u("right", "root"),
		u("shared", "left", "right"),
		u("leaf", "shared"),
	}, "root")
	want := strings.Join([]string{
		"↳ root",
		"  ↳ left",
		"    ↳ shared",
		"      ↳ leaf",
		"  ↳ right",
		"    ↳ shared (seen)",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestWriteTree_CycleMarker(t *testing.T) {
	out := renderTree(t, []unit.Unit{
		u("a", "c"),
		u("b", "a"),
		u("c", "b"),
	}, "a")
	assert.Equal(t, "↳ a\n  ↳ b\n    ↳ c\n      ↳ a (cycle)\n", out)
}

func TestWriteTree_Leaf(t *testing.T) {
	out := renderTree(t, []unit.Unit{u("solo"), u("other")}, "solo")
	assert.Equal(t, "↳ solo\n", out)
}

func TestWriteDOTAndMermaid(t *testing.T) {
	g := Build([]unit.Unit{u("rootinit"), u("b", "rootinit"), u("c", "b"), u("x")}, nil)
	r, _ := g.Index("rootinit")

	var dot bytes.Buffer
	require.NoError(t, g.Render(&dot, r, FormatDOT))
	assert.Equal(t, `digraph units {
  rankdir=LR;
  n0 [label="b"];
  n1 [label="c"];
  n2 [label="rootinit"];
  n0 -> n1;
  n2 -> n0;
}
`, dot.String())

	var mm bytes.Buffer
	require.NoError(t, g.Render(&mm, r, FormatMermaid))
	assert.Contains(t, mm.String(), "graph TD\n")
	assert.Contains(t, mm.String(), "n2 --> n0")
	assert.Contains(t, mm.String(), "n0 --> n1")
	assert.NotContains(t, mm.String(), `"x"`)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)
	f, err = ParseFormat("DOT")
	require.NoError(t, err)
	assert.Equal(t, FormatDOT, f)
	_, err = ParseFormat("svg")
	assert.Error(t, err)
}
