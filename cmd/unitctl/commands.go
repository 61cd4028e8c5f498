package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/loykin/unitctl"
	"github.com/loykin/unitctl/internal/logger"
)

type command struct {
	global *GlobalFlags
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newCommand(stdin io.Reader, stdout, stderr io.Writer) *command {
	return &command{global: &GlobalFlags{}, stdin: stdin, stdout: stdout, stderr: stderr}
}

// config loads the configuration and applies the global flag overrides.
func (c *command) config() (unitctl.Config, error) {
	conf, err := unitctl.LoadConfig(c.global.ConfigPath)
	if err != nil {
		return conf, err
	}
	if c.global.LogLevel != "" {
		if _, err := logger.ParseLevel(c.global.LogLevel); err != nil {
			return conf, err
		}
		conf.Log.Level = c.global.LogLevel
	}
	if c.global.NoColor {
		conf.Log.Color = false
	}
	return conf, nil
}

// run opens an App for one subcommand and always closes it, so the
// metrics textfile and history sink see every invocation.
func (c *command) run(fn func(app *unitctl.App) error) error {
	conf, err := c.config()
	if err != nil {
		return err
	}
	lc := conf.LoggerConfig()
	lc.Slog.Output = c.stderr
	log := lc.NewSlogger()

	app, err := unitctl.Open(conf, log, unitctl.IO{Stdin: c.stdin, Stdout: c.stdout, Stderr: c.stderr})
	if err != nil {
		return err
	}
	runErr := fn(app)
	if err := app.Close(); err != nil {
		log.Warn("close", "error", err)
	}
	return runErr
}

// CoreInit runs the boot-time initialization.
func (c *command) CoreInit(ctx context.Context) error {
	return c.run(func(app *unitctl.App) error {
		return app.CoreInit(ctx)
	})
}

// Refresh reindexes the units, and with Watch keeps doing so on every
// unit file change until ctx is cancelled.
func (c *command) Refresh(ctx context.Context, f RefreshFlags) error {
	return c.run(func(app *unitctl.App) error {
		n, err := app.Refresh(ctx)
		if err != nil {
			return err
		}
		c.printRefreshed(n)
		if !f.Watch {
			return nil
		}
		return app.Watch(ctx, func(n int, err error) {
			if err != nil {
				app.Logger().Error("refresh failed", "error", err)
				return
			}
			c.printRefreshed(n)
		})
	})
}

func (c *command) printRefreshed(n int) {
	_, _ = fmt.Fprintf(c.stdout, "Refreshed %d units (indexed only).\n", n)
}

// Start starts a unit and its transitive dependents.
func (c *command) Start(ctx context.Context, f UnitFlags) error {
	if f.Name == "" {
		return fmt.Errorf("unit name is required")
	}
	return c.run(func(app *unitctl.App) error {
		return app.Start(ctx, f.Name)
	})
}

// Stop stops exactly one unit.
func (c *command) Stop(ctx context.Context, f UnitFlags) error {
	if f.Name == "" {
		return fmt.Errorf("unit name is required")
	}
	return c.run(func(app *unitctl.App) error {
		return app.Stop(ctx, f.Name)
	})
}

// Edit opens a unit file in the editor.
func (c *command) Edit(ctx context.Context, f UnitFlags) error {
	if f.Name == "" {
		return fmt.Errorf("unit name is required")
	}
	return c.run(func(app *unitctl.App) error {
		_, err := app.Edit(ctx, f.Name)
		return err
	})
}

// Map prints the dependents tree of a root unit.
func (c *command) Map(ctx context.Context, f MapFlags) error {
	format, err := unitctl.ParseMapFormat(f.Format)
	if err != nil {
		return err
	}
	return c.run(func(app *unitctl.App) error {
		return app.Map(ctx, c.stdout, f.Root, format)
	})
}

// Status prints every unit's state in the requested format.
func (c *command) Status(ctx context.Context, f StatusFlags) error {
	output := strings.ToLower(strings.TrimSpace(f.Output))
	switch output {
	case "", "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", f.Output)
	}
	return c.run(func(app *unitctl.App) error {
		sts, err := app.Status(ctx)
		if err != nil {
			return err
		}
		switch output {
		case "json":
			return printJSON(c.stdout, sts)
		case "yaml":
			return printYAML(c.stdout, sts)
		default:
			printStatusTable(c.stdout, sts, app.Config().Log.Color)
			return nil
		}
	})
}
