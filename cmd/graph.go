package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/delfianto/compose/internal/graph"
	"github.com/delfianto/compose/internal/render"
	"github.com/delfianto/compose/internal/ui"
)

// Replaced in tests.
var (
	lookPath       = exec.LookPath
	commandContext = exec.CommandContext
)

var (
	outputFile   string
	autoRender   bool
	renderFormat string
	themeName    string
	direction    string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Write the dependency graph as a D2 diagram",
	Long: `Read every dependencies.conf drop-in and write a D2 diagram of the
declared dependencies. Requires edges are solid, Wants edges dashed and
ordering-only After edges dotted. Cycles are highlighted.

Render the result with: d2 dependencies.d2 dependencies.svg`,
	Args: cobra.NoArgs,
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output D2 file path, - for stdout")
	graphCmd.Flags().BoolVar(&autoRender, "render", false, "auto-render to SVG/PNG after generating D2 (requires d2)")
	graphCmd.Flags().StringVar(&renderFormat, "format", "", "output format for --render: svg, png (default: svg)")
	graphCmd.Flags().StringVar(&themeName, "theme", "", "color theme: "+strings.Join(render.ThemeNames(), ", "))
	graphCmd.Flags().StringVar(&direction, "direction", "", "layout direction: right, down, left, up")
}

func runGraph(cmd *cobra.Command, args []string) error {
	applyFlagOverrides()

	snap, err := graph.Load(newStore())
	if err != nil {
		return err
	}
	g, err := render.NewGraph(snap)
	if err != nil {
		return err
	}

	d2Content := render.RenderD2(g, render.Options{
		Theme:     cfg.Graph.Theme,
		Direction: cfg.Graph.Direction,
	})

	output := cfg.Graph.Output
	if output == "-" {
		fmt.Print(d2Content)
		return nil
	}
	if err := os.WriteFile(output, []byte(d2Content), 0644); err != nil {
		return errors.Annotatef(err, "writing %s", output)
	}

	ui.Success(fmt.Sprintf("Generated %s (%d services, %d dependencies)", output, len(g.Services), len(g.Edges)))
	for _, c := range g.Cycles {
		ui.Warn("circular dependency: " + joinServices(c))
	}

	if cfg.Graph.AutoRender {
		if err := autoRenderD2(cmd.Context(), output, cfg.Graph.Format); err != nil {
			fmt.Fprint(os.Stderr, ui.FormatError("Auto-render failed", err.Error(), "install d2: https://d2lang.com/tour/install"))
		}
	}

	return nil
}

func applyFlagOverrides() {
	if outputFile != "" {
		cfg.Graph.Output = outputFile
	}
	if autoRender {
		cfg.Graph.AutoRender = true
	}
	if renderFormat != "" {
		cfg.Graph.Format = renderFormat
	}
	if themeName != "" {
		cfg.Graph.Theme = themeName
	}
	if direction != "" {
		cfg.Graph.Direction = direction
	}
}

func autoRenderD2(ctx context.Context, d2File, format string) error {
	if format == "" {
		format = "svg"
	}

	d2Path, err := lookPath("d2")
	if err != nil {
		return fmt.Errorf("d2 not found in PATH, install it from https://d2lang.com/tour/install")
	}

	outFile := strings.TrimSuffix(d2File, ".d2") + "." + format

	args := []string{d2File, outFile}
	if cfg.Graph.Layout != "" {
		args = append([]string{"--layout", cfg.Graph.Layout}, args...)
	}
	cmd := commandContext(ctx, d2Path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("d2 render failed: %w", err)
	}

	ui.Success(fmt.Sprintf("Rendered %s", outFile))
	return nil
}
