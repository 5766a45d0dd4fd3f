package render

import (
	"fmt"
	"strings"

	"github.com/delfianto/compose/internal/model"
	"github.com/delfianto/compose/internal/util"
)

const unitsGroup = "units"

// D2Renderer generates D2 diagram text.
type D2Renderer struct {
	theme  *Theme
	units  map[model.Service]bool
	cyclic map[[2]model.Service]bool
}

func (r *D2Renderer) Render(g *Graph, opts Options) string {
	r.theme = GetTheme(opts.Theme)
	r.units = make(map[model.Service]bool, len(g.Units))
	for _, u := range g.Units {
		r.units[u] = true
	}
	r.cyclic = cycleEdges(g.Cycles)
	inCycle := make(map[model.Service]bool)
	for pair := range r.cyclic {
		inCycle[pair[0]] = true
	}

	var b strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "right"
	}
	fmt.Fprintf(&b, "direction: %s\n\n", direction)

	for _, svc := range g.Services {
		element := ElementLeaf
		switch {
		case inCycle[svc]:
			element = ElementCycle
		case g.Sources[svc]:
			element = ElementService
		}
		r.renderService(&b, svc, element)
	}

	if len(g.Units) > 0 {
		r.renderUnits(&b, g.Units)
	}

	for _, e := range g.Edges {
		r.renderEdge(&b, e)
	}

	return b.String()
}

func (r *D2Renderer) renderService(b *strings.Builder, svc model.Service, element string) {
	color := r.theme.ColorForElement(element)

	fmt.Fprintf(b, "%s: %s {\n", util.SanitizeID(svc.String()), util.Quote(svc.String()))
	if icon := LookupIcon(svc.String()); icon != "" {
		fmt.Fprintf(b, "  icon: %s\n", icon)
	}
	fmt.Fprintf(b, "  style.fill: %q\n", color.Fill)
	fmt.Fprintf(b, "  style.stroke: %q\n", color.Stroke)
	fmt.Fprintf(b, "  style.font-color: %q\n", color.Font)
	b.WriteString("}\n\n")
}

func (r *D2Renderer) renderUnits(b *strings.Builder, units []model.Service) {
	color := r.theme.ColorForElement(ElementUnit)

	fmt.Fprintf(b, "%s: %s {\n", unitsGroup, util.Quote("systemd units"))
	fmt.Fprintf(b, "  style.fill: %q\n", color.Fill)
	fmt.Fprintf(b, "  style.stroke: %q\n", color.Stroke)
	b.WriteString("  style.stroke-dash: 3\n")
	for _, u := range units {
		fmt.Fprintf(b, "  %s: %s\n", util.SanitizeID(u.String()), util.Quote(u.String()))
	}
	b.WriteString("}\n\n")
}

func (r *D2Renderer) renderEdge(b *strings.Builder, e model.Edge) {
	color := r.theme.ColorForKind(e.Kind)
	if r.cyclic[[2]model.Service{e.From, e.To}] {
		color = r.theme.ColorForElement(ElementCycle)
	}

	fmt.Fprintf(b, "%s -> %s: %s {\n", r.ref(e.From), r.ref(e.To), util.Quote(string(e.Kind)))
	fmt.Fprintf(b, "  style.stroke: %q\n", color.Stroke)
	switch e.Kind {
	case model.KindWants:
		b.WriteString("  style.stroke-dash: 5\n")
	case model.KindAfter:
		b.WriteString("  style.stroke-dash: 2\n")
		b.WriteString("  style.opacity: 0.6\n")
	default:
		b.WriteString("  style.stroke-width: 2\n")
	}
	b.WriteString("}\n")
}

func (r *D2Renderer) ref(svc model.Service) string {
	id := util.SanitizeID(svc.String())
	if r.units[svc] {
		return unitsGroup + "." + id
	}
	return id
}

// cycleEdges returns the consecutive pairs of every closed cycle.
func cycleEdges(cycles [][]model.Service) map[[2]model.Service]bool {
	out := make(map[[2]model.Service]bool)
	for _, c := range cycles {
		for i := 0; i+1 < len(c); i++ {
			out[[2]model.Service{c[i], c[i+1]}] = true
		}
	}
	return out
}
