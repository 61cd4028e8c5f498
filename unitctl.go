package unitctl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/unitctl/internal/bootguard"
	cfg "github.com/loykin/unitctl/internal/config"
	"github.com/loykin/unitctl/internal/editor"
	"github.com/loykin/unitctl/internal/graph"
	"github.com/loykin/unitctl/internal/history"
	"github.com/loykin/unitctl/internal/history/factory"
	"github.com/loykin/unitctl/internal/metrics"
	"github.com/loykin/unitctl/internal/orchestrator"
	"github.com/loykin/unitctl/internal/process"
)

// Re-export core types for external consumers.

type Config = cfg.Config

type UnitStatus = orchestrator.UnitStatus

type MapFormat = graph.Format

const (
	MapText    = graph.FormatText
	MapDOT     = graph.FormatDOT
	MapMermaid = graph.FormatMermaid
)

var (
	ErrUnitNotFound = orchestrator.ErrUnitNotFound
	ErrNoUnits      = orchestrator.ErrNoUnits
)

// LoadConfig reads the optional TOML file at path on top of defaults and
// UNITCTL_* environment overrides.
func LoadConfig(path string) (Config, error) { return cfg.Load(cfg.New(), path) }

// ParseMapFormat accepts text, dot or mermaid.
func ParseMapFormat(s string) (MapFormat, error) { return graph.ParseFormat(s) }

// Counters live in package-level collectors, so one registry serves the process.
var (
	registryOnce sync.Once
	registry     *prometheus.Registry
	sampler      *metrics.ResourceSampler
	registryErr  error
)

func metricsRegistry() (*prometheus.Registry, *metrics.ResourceSampler, error) {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		sampler = metrics.NewResourceSampler()
		if registryErr = metrics.Register(registry); registryErr != nil {
			return
		}
		registryErr = sampler.Register(registry)
	})
	return registry, sampler, registryErr
}

// IO carries the terminal streams handed to the editor.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// App is one configured unitctl instance: orchestrator, editor and the
// optional history and metrics outputs.
type App struct {
	cfg     Config
	log     *slog.Logger
	orch    *orchestrator.Orchestrator
	editor  *editor.Editor
	history *history.Recorder
}

// Open wires c into an App. A nil logger builds one from c's log section.
// A history sink that cannot be opened is logged and disabled.
func Open(c Config, logger *slog.Logger, tio IO) (*App, error) {
	if logger == nil {
		logger = c.LoggerConfig().NewSlogger()
	}
	launcher, err := process.LauncherFor(c.ExecMode)
	if err != nil {
		return nil, err
	}
	lc := c.LoggerConfig()
	sup := process.NewSupervisor(c.RunDir)
	sup.Launcher = launcher
	sup.StopTimeout = c.StopTimeout
	sup.PollInterval = c.PollInterval
	sup.Output = lc.UnitOutput
	sup.Logger = logger

	var sink history.Sink
	if c.History.DSN != "" {
		s, err := factory.NewSinkFromDSN(c.History.DSN, c.History.Table)
		if err != nil {
			logger.Warn("history disabled", "error", err)
		} else {
			sink = s
		}
	}
	rec := history.NewRecorder(sink)

	var resources *metrics.ResourceSampler
	if _, s, err := metricsRegistry(); err != nil {
		logger.Warn("metrics disabled", "error", err)
	} else {
		resources = s
	}

	orch := orchestrator.New(orchestrator.Options{
		UnitsDir:   c.UnitsDir,
		StateFile:  c.StateFile,
		RootUnit:   c.RootUnit,
		Supervisor: sup,
		Guard:      bootguard.New(c.BootMarker, logger),
		History:    rec,
		Resources:  resources,
		Logger:     logger,
	})
	ed := &editor.Editor{
		UnitsDir: c.UnitsDir,
		Command:  c.Editor,
		Stdin:    tio.Stdin,
		Stdout:   tio.Stdout,
		Stderr:   tio.Stderr,
		Logger:   logger,
	}
	return &App{cfg: c, log: logger, orch: orch, editor: ed, history: rec}, nil
}

func (a *App) Config() Config       { return a.cfg }
func (a *App) Logger() *slog.Logger  { return a.log }
func (a *App) RunID() string        { return a.history.RunID() }

func (a *App) CoreInit(ctx context.Context) error           { return a.orch.CoreInit(ctx) }
func (a *App) Start(ctx context.Context, name string) error { return a.orch.Start(ctx, name) }
func (a *App) Stop(ctx context.Context, name string) error  { return a.orch.Stop(ctx, name) }
func (a *App) Refresh(ctx context.Context) (int, error)     { return a.orch.Refresh(ctx) }
func (a *App) Status(ctx context.Context) ([]UnitStatus, error) {
	return a.orch.Status(ctx)
}
func (a *App) Map(ctx context.Context, w io.Writer, root string, f MapFormat) error {
	return a.orch.Map(ctx, w, root, f)
}
func (a *App) Watch(ctx context.Context, onChange func(n int, err error)) error {
	return a.orch.Watch(ctx, onChange)
}

// Edit opens the unit file of name in the configured editor, creating a
// stub first when it does not exist.
func (a *App) Edit(ctx context.Context, name string) (string, error) {
	return a.editor.Edit(ctx, name)
}

// Close writes the metrics textfile when one is configured and releases
// the history sink.
func (a *App) Close() error {
	var firstErr error
	if path := a.cfg.Metrics.Textfile; path != "" {
		if reg, _, err := metricsRegistry(); err == nil {
			if err := metrics.WriteTextfile(path, reg); err != nil {
				firstErr = fmt.Errorf("write metrics textfile: %w", err)
			}
		}
	}
	if err := a.history.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
