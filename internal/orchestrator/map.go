package orchestrator

import (
	"context"
	"fmt"
	"io"

	"github.com/loykin/unitctl/internal/graph"
)

// Map writes the dependents map of root to w. An empty root means the
// configured root unit. The text format is preceded by a header line.
func (o *Orchestrator) Map(ctx context.Context, w io.Writer, root string, f graph.Format) error {
	if root == "" {
		root = o.opts.RootUnit
	}
	_, g, err := o.load()
	if err != nil {
		return err
	}
	r, err := o.resolve(g, root)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if f == "" || f == graph.FormatText {
		if _, err := fmt.Fprintf(w, "Start map (root: %s)\n", root); err != nil {
			return err
		}
	}
	return g.Render(w, r, f)
}
