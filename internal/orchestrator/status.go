package orchestrator

import (
	"context"
	"time"

	"github.com/loykin/unitctl/internal/metrics"
)

// UnitStatus is the read-only diagnostic view of one unit.
type UnitStatus struct {
	Name      string                 `json:"name" yaml:"name"`
	AutoStart bool                   `json:"autostart" yaml:"autostart"`
	After     []string               `json:"after" yaml:"after"`
	State     string                 `json:"state" yaml:"state"`
	PID       int                    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Command   string                 `json:"command,omitempty" yaml:"command,omitempty"`
	StartedAt *time.Time             `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Resources *metrics.UnitResources `json:"resources,omitempty" yaml:"resources,omitempty"`
	File      string                 `json:"file" yaml:"file"`
}

// Status probes the pidfile of every unit. It never modifies anything:
// a stale pidfile is reported as "stale" and left in place.
func (o *Orchestrator) Status(ctx context.Context) ([]UnitStatus, error) {
	units, _, err := o.load()
	if err != nil {
		return nil, err
	}
	out := make([]UnitStatus, 0, len(units))
	running := make(map[string]int32)
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st := UnitStatus{Name: u.Name, AutoStart: u.AutoStart, After: u.After, File: u.Path}
		rec, err := o.opts.Supervisor.Probe(u.Name)
		if err != nil {
			o.log.Warn("cannot read pidfile", "unit", u.Name, "error", err)
			st.State = "unknown"
		} else {
			st.State = rec.State()
			st.PID = rec.PID
			st.Command = rec.Command
			if !rec.StartedAt.IsZero() {
				t := rec.StartedAt
				st.StartedAt = &t
			}
			if rec.Alive {
				running[u.Name] = int32(rec.PID)
			}
		}
		out = append(out, st)
	}
	if o.opts.Resources != nil && len(running) > 0 {
		samples := o.opts.Resources.Sample(running)
		for i := range out {
			if r, ok := samples[out[i].Name]; ok {
				out[i].Resources = &r
			}
		}
	}
	return out, nil
}
