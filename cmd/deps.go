package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/delfianto/compose/internal/graph"
	"github.com/delfianto/compose/internal/model"
	"github.com/delfianto/compose/internal/ui"
)

var (
	listOutput string
	showRaw    bool
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Add, remove and inspect service dependencies",
	Long: `Manage Requires= and Wants= dependencies between docker-compose@ services.

Every dependency also orders the service After= its target. Mutating
commands must run as root and reload systemd afterwards.`,
	Example: `  sudo composectl deps add genai-open-webui genai-ollama requires
  sudo composectl deps add genai-ollama database
  sudo composectl deps remove genai-ollama database
  composectl deps list genai-open-webui
  composectl deps check genai-ollama`,
}

var depsAddCmd = &cobra.Command{
	Use:   "add <service> <dependency> [wants|requires]",
	Short: "Make a service depend on another (default: wants)",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runDepsAdd,
}

var depsRemoveCmd = &cobra.Command{
	Use:     "remove <service> <dependency>",
	Aliases: []string{"rm"},
	Short:   "Remove every dependency of a service on another",
	Args:    cobra.ExactArgs(2),
	RunE:    runDepsRemove,
}

var depsListCmd = &cobra.Command{
	Use:   "list <service>",
	Short: "Show the effective dependencies reported by systemd",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepsList,
}

var depsShowCmd = &cobra.Command{
	Use:   "show <service>",
	Short: "Show the dependencies written in a service's drop-in",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepsShow,
}

var depsCheckCmd = &cobra.Command{
	Use:   "check <service>",
	Short: "Show the dependency chain and reverse chain, and check for cycles",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepsCheck,
}

var depsCyclesCmd = &cobra.Command{
	Use:   "cycles <service>",
	Short: "Look for a circular dependency starting at a service",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepsCycles,
}

var depsOrderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print every service in startup order",
	Args:  cobra.NoArgs,
	RunE:  runDepsOrder,
}

func init() {
	rootCmd.AddCommand(depsCmd)
	depsCmd.AddCommand(depsAddCmd, depsRemoveCmd, depsListCmd, depsShowCmd, depsCheckCmd, depsCyclesCmd, depsOrderCmd)

	depsListCmd.Flags().StringVarP(&listOutput, "output", "o", "text", "output format: text, yaml")
	depsShowCmd.Flags().BoolVar(&showRaw, "raw", false, "print the drop-in file as written")
}

func runDepsAdd(cmd *cobra.Command, args []string) error {
	kind := model.KindWants
	if len(args) == 3 {
		k, err := model.ParseEdgeKind(args[2])
		if err != nil {
			return errors.NewNotValid(err, "")
		}
		kind = k
	}

	m, _, err := newManager()
	if err != nil {
		return err
	}

	res, err := m.AddEdge(cmd.Context(), args[0], args[1], kind)
	if res.AlreadyPresent {
		ui.Warn(fmt.Sprintf("%s already %s %s", res.From, kind, res.To))
		return nil
	}
	if res.Written {
		ui.Success(fmt.Sprintf("Added %s: %s -> %s", kind, res.From, res.To))
	}
	if err != nil {
		return err
	}

	if cycle, cerr := m.DetectCycle(args[0]); cerr == nil && cycle != nil {
		ui.Warn("circular dependency: " + joinServices(cycle))
	}
	return nil
}

func runDepsRemove(cmd *cobra.Command, args []string) error {
	m, _, err := newManager()
	if err != nil {
		return err
	}

	res, err := m.RemoveEdge(cmd.Context(), args[0], args[1])
	if res.NotPresent {
		ui.Warn(fmt.Sprintf("%s has no dependency on %s", res.From, res.To))
		return nil
	}
	if res.Written {
		ui.Success(fmt.Sprintf("Removed dependency: %s -> %s", res.From, res.To))
		if res.Deleted {
			fmt.Println(ui.Hint("  no dependencies left, drop-in deleted"))
		}
		if len(res.OrderingOnly) > 0 {
			fmt.Println(ui.Hint("  kept ordering-only entries: " + joinUnits(res.OrderingOnly)))
		}
	}
	return err
}

func runDepsList(cmd *cobra.Command, args []string) error {
	m, _, err := newManager()
	if err != nil {
		return err
	}

	edges, err := m.ListEdges(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	switch listOutput {
	case "yaml":
		enc := yamlv3.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return errors.Trace(enc.Encode(edges))
	case "text", "":
	default:
		return errors.NotValidf("output format %q", listOutput)
	}

	ui.Heading(fmt.Sprintf("Dependencies for %s:", edges.Service))
	if edges.IsEmpty() {
		ui.Warn("no compose dependencies found")
		return nil
	}
	for _, group := range []struct {
		name     model.Directive
		services []model.Service
	}{
		{model.DirectiveRequires, edges.Requires},
		{model.DirectiveWants, edges.Wants},
		{model.DirectiveAfter, edges.After},
	} {
		if len(group.services) == 0 {
			continue
		}
		fmt.Printf("%s:\n", group.name)
		for _, s := range group.services {
			ui.Item(s.String())
		}
	}
	return nil
}

func runDepsShow(cmd *cobra.Command, args []string) error {
	s := newStore()
	path := s.Path(args[0])

	if showRaw {
		data, err := s.Raw(args[0])
		if err != nil {
			return err
		}
		if data == nil {
			ui.Info("no drop-in at " + path)
			return nil
		}
		_, err = os.Stdout.Write(data)
		return errors.Trace(err)
	}

	d, err := s.Read(args[0])
	if err != nil {
		return err
	}
	if d.IsEmpty() {
		ui.Info("no drop-in at " + path)
		return nil
	}

	ui.Heading(path)
	for _, dir := range model.Directives {
		units := d.List(dir)
		if len(units) == 0 {
			continue
		}
		fmt.Printf("%s:\n", dir)
		for _, u := range units {
			ui.Item(u.String())
		}
	}
	return nil
}

func runDepsCheck(cmd *cobra.Command, args []string) error {
	m, _, err := newManager()
	if err != nil {
		return err
	}

	chain, err := m.CheckChain(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	ui.Heading(fmt.Sprintf("Dependency chain for %s:", chain.Service))
	printServices(chain.Forward, "no compose dependencies found")
	fmt.Println()

	ui.Heading("Reverse dependencies (services that depend on this):")
	printServices(chain.Reverse, "no reverse dependencies found")
	fmt.Println()

	cycle, err := m.DetectCycle(args[0])
	if err != nil {
		return err
	}
	if cycle != nil {
		ui.Warn("circular dependency: " + joinServices(cycle))
		return nil
	}
	ui.Success("No circular dependencies")
	return nil
}

func runDepsCycles(cmd *cobra.Command, args []string) error {
	m, _, err := newManager()
	if err != nil {
		return err
	}

	cycle, err := m.DetectCycle(args[0])
	if err != nil {
		return err
	}
	if cycle == nil {
		ui.Success(fmt.Sprintf("No circular dependency reachable from %s", args[0]))
		return nil
	}
	fmt.Println(ui.Failure("Circular dependency: " + joinServices(cycle)))
	return errors.Annotate(graph.ErrCycle, joinServices(cycle))
}

func runDepsOrder(cmd *cobra.Command, args []string) error {
	m, _, err := newManager()
	if err != nil {
		return err
	}

	order, err := m.StartupOrder()
	if err != nil {
		return err
	}
	if len(order) == 0 {
		ui.None("no dependencies declared")
		return nil
	}
	for i, s := range order {
		fmt.Printf("%3d. %s\n", i+1, s)
	}
	return nil
}

func printServices(services []model.Service, empty string) {
	if len(services) == 0 {
		ui.None(empty)
		return
	}
	for _, s := range services {
		ui.Item(s.String())
	}
}

func joinServices(services []model.Service) string {
	parts := make([]string, len(services))
	for i, s := range services {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}

func joinUnits(units []model.UnitName) string {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = u.String()
	}
	return strings.Join(parts, ", ")
}
