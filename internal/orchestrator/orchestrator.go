package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loykin/unitctl/internal/graph"
	"github.com/loykin/unitctl/internal/history"
	"github.com/loykin/unitctl/internal/metrics"
	"github.com/loykin/unitctl/internal/process"
	"github.com/loykin/unitctl/internal/state"
	"github.com/loykin/unitctl/internal/unit"
)

var (
	ErrUnitNotFound = errors.New("unit not found")
	ErrNoUnits      = errors.New("no units")
)

// Supervisor starts and stops single unit processes.
type Supervisor interface {
	Start(u unit.Unit) (int, error)
	Stop(u unit.Unit) (process.StopResult, error)
	Probe(name string) (process.Record, error)
}

// Guard gates CoreInit to once per boot.
type Guard interface {
	Acquire() bool
}

type Options struct {
	UnitsDir  string
	StateFile string
	// RootUnit is the anchor of core_init and the default map root.
	RootUnit   string
	Supervisor Supervisor
	Guard      Guard
	History    *history.Recorder // optional
	Resources  *metrics.ResourceSampler
	Logger     *slog.Logger
	// WatchDebounce coalesces bursts of file events in Watch.
	WatchDebounce time.Duration
}

// Orchestrator sequences unit starts and stops along the dependency graph.
// Every operation reloads the unit directory; nothing is cached between calls.
type Orchestrator struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options) *Orchestrator {
	if opts.RootUnit == "" {
		opts.RootUnit = unit.RootName
	}
	if opts.WatchDebounce <= 0 {
		opts.WatchDebounce = 500 * time.Millisecond
	}
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Orchestrator{opts: opts, log: l}
}

// load reads the units and builds their graph. Unresolved dependencies are
// logged per unit and contribute no edge.
func (o *Orchestrator) load() ([]unit.Unit, *graph.Graph, error) {
	ld := unit.Loader{Dir: o.opts.UnitsDir, Root: o.opts.RootUnit, Logger: o.log}
	units, err := ld.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoUnits, err)
	}
	metrics.SetUnitsLoaded(len(units))
	g := graph.Build(units, func(u unit.Unit, dep string) {
		o.log.Warn("unresolved dependency", "unit", u.Name, "after", dep)
	})
	return units, g, nil
}

func (o *Orchestrator) resolve(g *graph.Graph, name string) (int, error) {
	i, ok := g.Index(name)
	if !ok {
		o.log.Error("unit not found", "unit", name)
		return -1, fmt.Errorf("%w: %s", ErrUnitNotFound, name)
	}
	return i, nil
}

func (o *Orchestrator) topo(g *graph.Graph) ([]int, error) {
	order, err := g.TopoOrder()
	if err != nil {
		metrics.IncDependencyCycle()
		var ce *graph.CycleError
		if errors.As(err, &ce) {
			o.log.Error("dependency cycle detected", "units", ce.Units)
		} else {
			o.log.Error("dependency cycle detected")
		}
	}
	return order, err
}

// CoreInit is the boot-time entry point. Without the boot guard it returns
// nil and does nothing. Otherwise it starts every unit reachable from the
// root unit in dependency order, then every other autostart unit, and
// writes the state index. A dependency cycle skips both start passes.
func (o *Orchestrator) CoreInit(ctx context.Context) error {
	if o.opts.Guard != nil && !o.opts.Guard.Acquire() {
		return nil
	}
	units, g, err := o.load()
	if err != nil {
		return err
	}
	order, err := o.topo(g)
	if err == nil {
		o.log.Info("core_init", "units", len(order))
		if err := o.startPasses(ctx, g, order); err != nil {
			return err
		}
	}
	return o.writeIndex(units)
}

func (o *Orchestrator) startPasses(ctx context.Context, g *graph.Graph, order []int) error {
	need := make([]bool, g.Len())
	if r, ok := g.Index(o.opts.RootUnit); ok {
		need = g.ReachableFrom(r)
		for _, v := range graph.Filter(order, need) {
			if err := ctx.Err(); err != nil {
				return err
			}
			o.startUnit(ctx, g.Unit(v))
		}
	} else {
		o.log.Warn("root unit not found", "unit", o.opts.RootUnit)
	}
	for _, v := range order {
		u := g.Unit(v)
		if need[v] || u.Name == o.opts.RootUnit || !u.AutoStart {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		o.startUnit(ctx, u)
	}
	return nil
}

// Start starts name and every unit that transitively depends on it, in
// dependency order. A cycle anywhere in the unit set aborts before any
// start. Spawn failures of single units are logged and skipped.
func (o *Orchestrator) Start(ctx context.Context, name string) error {
	_, g, err := o.load()
	if err != nil {
		return err
	}
	r, err := o.resolve(g, name)
	if err != nil {
		return err
	}
	order, err := o.topo(g)
	if err != nil {
		return err
	}
	o.log.Info("start with dependents", "root", name)
	for _, v := range graph.Filter(order, g.ReachableFrom(r)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.startUnit(ctx, g.Unit(v))
	}
	return nil
}

// startUnit spawns u and reports the outcome; failures never abort the caller.
func (o *Orchestrator) startUnit(ctx context.Context, u unit.Unit) {
	pid, err := o.opts.Supervisor.Start(u)
	if err != nil {
		metrics.IncStartFailure(u.Name)
		o.record(ctx, history.EventStartFailed, history.Record{Unit: u.Name, PID: pid, Error: err.Error()})
		return
	}
	metrics.IncStart(u.Name)
	o.record(ctx, history.EventStart, history.Record{Unit: u.Name, PID: pid})
}

// Stop stops exactly the named unit; dependents are left alone. A unit
// without a pidfile is reported as not running and is not an error.
func (o *Orchestrator) Stop(ctx context.Context, name string) error {
	_, g, err := o.load()
	if err != nil {
		return err
	}
	i, err := o.resolve(g, name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u := g.Unit(i)
	rec, _ := o.opts.Supervisor.Probe(u.Name)
	begin := time.Now()
	res, err := o.opts.Supervisor.Stop(u)
	if err != nil {
		if errors.Is(err, process.ErrNotRunning) {
			o.log.Info("not running", "unit", u.Name)
			return nil
		}
		return err
	}
	metrics.IncStop(u.Name, string(res))
	metrics.ObserveStopDuration(u.Name, time.Since(begin).Seconds())
	o.record(ctx, history.EventStop, history.Record{Unit: u.Name, PID: rec.PID, Result: string(res)})
	return nil
}

// Refresh reloads the units, reports a cycle without failing, and rewrites
// the state index. It returns the number of units indexed.
func (o *Orchestrator) Refresh(ctx context.Context) (int, error) {
	units, g, err := o.load()
	if err != nil {
		return 0, err
	}
	_, _ = o.topo(g)
	if err := o.writeIndex(units); err != nil {
		return 0, err
	}
	o.log.Info("refreshed", "units", len(units))
	return len(units), nil
}

func (o *Orchestrator) writeIndex(units []unit.Unit) error {
	if o.opts.StateFile == "" {
		return nil
	}
	if err := state.Write(o.opts.StateFile, state.Index{Units: unit.Names(units)}); err != nil {
		o.log.Error("cannot write state index", "path", o.opts.StateFile, "error", err)
		return err
	}
	return nil
}

func (o *Orchestrator) record(ctx context.Context, t history.EventType, rec history.Record) {
	if err := o.opts.History.Record(ctx, t, rec); err != nil {
		o.log.Warn("history sink failed", "unit", rec.Unit, "event", string(t), "error", err)
	}
}
