package render

import (
	"sort"

	"github.com/delfianto/compose/internal/model"
)

// Theme defines colors for nodes and edges of the dependency diagram.
type Theme struct {
	Name   string
	Colors map[string]ThemeColor
}

// ThemeColor defines fill and stroke colors for an element type.
type ThemeColor struct {
	Fill   string
	Stroke string
	Font   string
}

// Element keys looked up in a theme.
const (
	ElementService = "service"
	ElementLeaf    = "leaf"
	ElementUnit    = "unit"
	ElementCycle   = "cycle"
)

var themes = map[string]*Theme{
	"default": {
		Name: "default",
		Colors: map[string]ThemeColor{
			ElementService:             {Fill: "#DCFCE7", Stroke: "#16A34A", Font: "#166534"},
			ElementLeaf:                {Fill: "#FEF9C3", Stroke: "#CA8A04", Font: "#854D0E"},
			ElementUnit:                {Fill: "#F3F4F6", Stroke: "#6B7280", Font: "#374151"},
			ElementCycle:               {Fill: "#FEE2E2", Stroke: "#DC2626", Font: "#991B1B"},
			string(model.KindRequires): {Stroke: "#2563EB"},
			string(model.KindWants):    {Stroke: "#7C3AED"},
			string(model.KindAfter):    {Stroke: "#9CA3AF"},
		},
	},
	"dark": {
		Name: "dark",
		Colors: map[string]ThemeColor{
			ElementService:             {Fill: "#052E16", Stroke: "#22C55E", Font: "#86EFAC"},
			ElementLeaf:                {Fill: "#422006", Stroke: "#EAB308", Font: "#FDE047"},
			ElementUnit:                {Fill: "#1F2937", Stroke: "#9CA3AF", Font: "#D1D5DB"},
			ElementCycle:               {Fill: "#450A0A", Stroke: "#EF4444", Font: "#FCA5A5"},
			string(model.KindRequires): {Stroke: "#3B82F6"},
			string(model.KindWants):    {Stroke: "#A78BFA"},
			string(model.KindAfter):    {Stroke: "#6B7280"},
		},
	},
	"monochrome": {
		Name: "monochrome",
		Colors: map[string]ThemeColor{
			ElementService:             {Fill: "#E5E7EB", Stroke: "#374151", Font: "#111827"},
			ElementLeaf:                {Fill: "#F9FAFB", Stroke: "#9CA3AF", Font: "#4B5563"},
			ElementUnit:                {Fill: "#F3F4F6", Stroke: "#9CA3AF", Font: "#6B7280"},
			ElementCycle:               {Fill: "#D1D5DB", Stroke: "#111827", Font: "#111827"},
			string(model.KindRequires): {Stroke: "#111827"},
			string(model.KindWants):    {Stroke: "#4B5563"},
			string(model.KindAfter):    {Stroke: "#9CA3AF"},
		},
	},
	"ocean": {
		Name: "ocean",
		Colors: map[string]ThemeColor{
			ElementService:             {Fill: "#CFFAFE", Stroke: "#0891B2", Font: "#155E75"},
			ElementLeaf:                {Fill: "#E0F2FE", Stroke: "#0284C7", Font: "#075985"},
			ElementUnit:                {Fill: "#F0F9FF", Stroke: "#38BDF8", Font: "#0369A1"},
			ElementCycle:               {Fill: "#FEE2E2", Stroke: "#DC2626", Font: "#991B1B"},
			string(model.KindRequires): {Stroke: "#2563EB"},
			string(model.KindWants):    {Stroke: "#0EA5E9"},
			string(model.KindAfter):    {Stroke: "#94A3B8"},
		},
	},
}

// ThemeNames returns all available theme names, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetTheme returns the named theme or the default.
func GetTheme(name string) *Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["default"]
}

// ColorForElement returns the theme color for a named element.
func (t *Theme) ColorForElement(name string) ThemeColor {
	if c, ok := t.Colors[name]; ok {
		return c
	}
	return ThemeColor{Fill: "#F9FAFB", Stroke: "#D1D5DB", Font: "#111827"}
}

// ColorForKind returns the stroke color of an edge kind.
func (t *Theme) ColorForKind(k model.EdgeKind) ThemeColor {
	return t.ColorForElement(string(k))
}
