package main

// Flag structs decouple cobra from the command logic for testing.

// GlobalFlags holds the persistent flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
	NoColor    bool
}

type UnitFlags struct {
	Name string
}

type RefreshFlags struct {
	Watch bool
}

type MapFlags struct {
	Root   string
	Format string
}

type StatusFlags struct {
	Output string // table, json or yaml
}
