package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/delfianto/compose/internal/initsys"
	"github.com/delfianto/compose/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status [service...]",
	Short: "Show activation and enablement of services",
	Long: `Show the live state of docker-compose@ services. Without arguments every
loaded or installed docker-compose@ unit is shown, along with every service
that has a dependency drop-in.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	m, _, err := newManager()
	if err != nil {
		return err
	}

	services := args
	if len(services) == 0 {
		known, err := m.Services(cmd.Context())
		if err != nil {
			return err
		}
		for _, svc := range known {
			services = append(services, svc.String())
		}
	}
	if len(services) == 0 {
		ui.None("no docker-compose services found")
		return nil
	}

	states, err := m.Status(cmd.Context(), services...)
	if err != nil {
		return err
	}

	renderStatusTable(states)
	return nil
}

func renderStatusTable(states []initsys.UnitState) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("SERVICE"),
		text.FgHiCyan.Sprint("LOAD"),
		text.FgHiCyan.Sprint("ACTIVE"),
		text.FgHiCyan.Sprint("SUB"),
		text.FgHiCyan.Sprint("ENABLED"),
	})

	namer := cfg.Namer()
	for _, st := range states {
		t.AppendRow(table.Row{
			namer.Service(namer.Normalize(st.Unit)),
			st.Load,
			activeColor(st.Active).Sprint(st.Active),
			st.Sub,
			enabledColor(st.Enabled).Sprint(st.Enabled),
		})
	}
	t.Render()
}

func activeColor(state string) text.Colors {
	switch state {
	case "active":
		return text.Colors{text.FgGreen}
	case "failed":
		return text.Colors{text.FgRed}
	}
	return text.Colors{text.FgYellow}
}

func enabledColor(state string) text.Colors {
	if state == "enabled" {
		return text.Colors{text.FgGreen}
	}
	return text.Colors{text.FgHiBlack}
}
