package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := buildRoot(newCommand(os.Stdin, os.Stdout, os.Stderr))
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command with every subcommand attached.
func buildRoot(c *command) *cobra.Command {
	root := createRootCommand(c.global)
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.AddCommand(
		createCoreInitCommand(c),
		createRefreshCommand(c, &RefreshFlags{}),
		createStartCommand(c, &UnitFlags{}),
		createStopCommand(c, &UnitFlags{}),
		createEditCommand(c, &UnitFlags{}),
		createMapCommand(c, &MapFlags{}),
		createStatusCommand(c, &StatusFlags{}),
	)
	return root
}

// createRootCommand creates the root command with the persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "unitctl",
		Short: "User-space service supervisor with dependency ordering",
		Long: `unitctl starts and stops services described by unit files, honouring
the "after" dependencies between them. Nothing stays resident: every
invocation reads the units directory, acts, and exits.

Examples:
  unitctl core_init             # boot-time start of rootinit and autostart units
  unitctl start web             # start web and every unit that depends on it
  unitctl stop web
  unitctl map --format dot | dot -Tsvg > units.svg
  unitctl status --output json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false, "disable coloured console output")

	return root
}

// createCoreInitCommand creates the core_init subcommand
func createCoreInitCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "core_init",
		Short: "Boot-time initialization, once per boot",
		Long: `Start the root unit with everything that depends on it, then every
other autostart unit, and rewrite the state index. A boot marker makes
every call after the first one in the same boot a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.CoreInit(cmd.Context())
		},
	}
}

// createRefreshCommand creates the refresh subcommand
func createRefreshCommand(c *command, refreshFlags *RefreshFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Reload unit files and rewrite the state index",
		Long: `Reload every unit file, report dependency cycles, and rewrite the
state index. No process is started or stopped.

Examples:
  unitctl refresh
  unitctl refresh --watch       # keep refreshing on unit file changes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Refresh(cmd.Context(), RefreshFlags{Watch: refreshFlags.Watch})
		},
	}
	cmd.Flags().BoolVar(&refreshFlags.Watch, "watch", false, "refresh again whenever a unit file changes")
	return cmd
}

// createStartCommand creates the start subcommand
func createStartCommand(c *command, unitFlags *UnitFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start <unit>",
		Short: "Start a unit and every unit that depends on it",
		Long: `Start the named unit and, in dependency order, every unit that
transitively lists it in "after". A dependency cycle anywhere aborts
before anything is started.

Examples:
  unitctl start rootinit
  unitctl start db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unitFlags.Name = args[0]
			return c.Start(cmd.Context(), *unitFlags)
		},
	}
}

// createStopCommand creates the stop subcommand
func createStopCommand(c *command, unitFlags *UnitFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <unit>",
		Short: "Stop exactly one unit",
		Long: `Send SIGTERM to the unit's recorded process, wait for it to exit, and
send SIGKILL if it does not. Dependents are left running.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unitFlags.Name = args[0]
			return c.Stop(cmd.Context(), *unitFlags)
		},
	}
}

// createEditCommand creates the edit subcommand
func createEditCommand(c *command, unitFlags *UnitFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <unit>",
		Short: "Open a unit file in $EDITOR",
		Long: `Open the unit file in the configured editor (UNITCTL_EDITOR, then
EDITOR, then nano). A stub is created first when the file is missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unitFlags.Name = args[0]
			return c.Edit(cmd.Context(), *unitFlags)
		},
	}
}

// createMapCommand creates the map subcommand
func createMapCommand(c *command, mapFlags *MapFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map [root]",
		Short: "Print the tree of units started along with root",
		Long: `Print the dependents tree of root (default: the root unit). Units
reached twice are marked "(seen)", back edges "(cycle)".

Examples:
  unitctl map
  unitctl map db --format mermaid`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := MapFlags{Format: mapFlags.Format}
			if len(args) == 1 {
				f.Root = args[0]
			}
			return c.Map(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&mapFlags.Format, "format", "text", "output format: text, dot or mermaid")
	return cmd
}

// createStatusCommand creates the status subcommand
func createStatusCommand(c *command, statusFlags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the recorded state of every unit",
		Long: `Show every unit with its pidfile state: running, stopped, or stale
(pidfile present, process gone). Nothing is modified.

Examples:
  unitctl status
  unitctl status --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Status(cmd.Context(), StatusFlags{Output: statusFlags.Output})
		},
	}
	cmd.Flags().StringVarP(&statusFlags.Output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}
