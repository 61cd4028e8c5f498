package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/loykin/unitctl"
)

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printYAML(w io.Writer, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %w", err)
	}
	_, err = w.Write(b)
	return err
}

func stateColor(state string) text.Colors {
	switch state {
	case "running":
		return text.Colors{text.FgGreen}
	case "stale":
		return text.Colors{text.FgYellow}
	case "unknown":
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgHiBlack}
	}
}

// printStatusTable renders one row per unit.
func printStatusTable(w io.Writer, sts []unitctl.UnitStatus, color bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if color {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleLight)
	}
	t.AppendHeader(table.Row{"UNIT", "STATE", "PID", "AUTOSTART", "AFTER", "COMMAND", "CPU %", "MEM MB"})

	for _, s := range sts {
		state := s.State
		if color {
			state = stateColor(s.State).Sprint(s.State)
		}
		pid, cpu, mem := "-", "-", "-"
		if s.PID > 0 {
			pid = fmt.Sprint(s.PID)
		}
		if s.Resources != nil {
			cpu = fmt.Sprintf("%.1f", s.Resources.CPUPercent)
			mem = fmt.Sprintf("%.1f", s.Resources.MemoryMB)
		}
		t.AppendRow(table.Row{s.Name, state, pid, s.AutoStart, strings.Join(s.After, ","), s.Command, cpu, mem})
	}
	t.Render()
}
