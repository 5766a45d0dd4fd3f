package model

import (
	"fmt"
	"strings"
)

// EdgeKind is the causal strength of a dependency edge.
type EdgeKind string

const (
	// KindRequires is a hard dependency: failure of the target propagates.
	KindRequires EdgeKind = "requires"
	// KindWants is a soft dependency: best-effort activation only.
	KindWants EdgeKind = "wants"
	// KindAfter is an ordering-only edge. It is read from descriptors but
	// never added on its own.
	KindAfter EdgeKind = "after"
)

// Edge is one directed dependency between services.
type Edge struct {
	From Service  `yaml:"from"`
	To   Service  `yaml:"to"`
	Kind EdgeKind `yaml:"kind"`
}

// ParseEdgeKind accepts "requires" or "wants" in any case.
func ParseEdgeKind(s string) (EdgeKind, error) {
	switch EdgeKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindRequires:
		return KindRequires, nil
	case KindWants:
		return KindWants, nil
	}
	return "", fmt.Errorf("dependency type must be %q or %q, got %q", KindRequires, KindWants, s)
}

// Causal reports whether the kind can be added as an edge.
func (k EdgeKind) Causal() bool {
	return k == KindRequires || k == KindWants
}

// Directive returns the unit file directive written for this kind.
func (k EdgeKind) Directive() Directive {
	switch k {
	case KindRequires:
		return DirectiveRequires
	case KindWants:
		return DirectiveWants
	case KindAfter:
		return DirectiveAfter
	}
	return ""
}

// Directive is a [Unit] section key managed in a dependency drop-in.
type Directive string

const (
	DirectiveRequires Directive = "Requires"
	DirectiveWants    Directive = "Wants"
	DirectiveAfter    Directive = "After"
)

// Directives lists the managed directives in canonical file order.
var Directives = []Directive{DirectiveRequires, DirectiveWants, DirectiveAfter}

// ParseDirective returns the directive for a key, or false if the key is
// not one this tool manages.
func ParseDirective(key string) (Directive, bool) {
	for _, d := range Directives {
		if string(d) == key {
			return d, true
		}
	}
	return "", false
}

// Descriptor holds every outgoing edge of one service as it is written in
// its override fragment. Each list keeps insertion order.
type Descriptor struct {
	Requires []UnitName
	Wants    []UnitName
	After    []UnitName
}

// List returns the entries for a directive.
func (d *Descriptor) List(dir Directive) []UnitName {
	switch dir {
	case DirectiveRequires:
		return d.Requires
	case DirectiveWants:
		return d.Wants
	case DirectiveAfter:
		return d.After
	}
	return nil
}

func (d *Descriptor) set(dir Directive, units []UnitName) {
	switch dir {
	case DirectiveRequires:
		d.Requires = units
	case DirectiveWants:
		d.Wants = units
	case DirectiveAfter:
		d.After = units
	}
}

// Has reports whether unit is listed under dir.
func (d *Descriptor) Has(dir Directive, unit UnitName) bool {
	for _, u := range d.List(dir) {
		if u == unit {
			return true
		}
	}
	return false
}

// Append adds unit under dir unless it is already present. It reports
// whether the descriptor changed.
func (d *Descriptor) Append(dir Directive, unit UnitName) bool {
	if d.Has(dir, unit) {
		return false
	}
	d.set(dir, append(d.List(dir), unit))
	return true
}

// Remove drops every occurrence of unit from every directive and reports
// whether anything was removed.
func (d *Descriptor) Remove(unit UnitName) bool {
	removed := false
	for _, dir := range Directives {
		list := d.List(dir)
		kept := list[:0:0]
		for _, u := range list {
			if u == unit {
				removed = true
				continue
			}
			kept = append(kept, u)
		}
		if len(kept) == 0 {
			kept = nil
		}
		d.set(dir, kept)
	}
	return removed
}

// HasCausal reports whether any Requires or Wants entry remains.
func (d *Descriptor) HasCausal() bool {
	return len(d.Requires) > 0 || len(d.Wants) > 0
}

// IsEmpty reports whether all three lists are empty.
func (d *Descriptor) IsEmpty() bool {
	return !d.HasCausal() && len(d.After) == 0
}

// Targets returns Requires then Wants targets, without duplicates.
func (d *Descriptor) Targets() []UnitName {
	seen := make(map[UnitName]bool)
	var out []UnitName
	for _, list := range [][]UnitName{d.Requires, d.Wants} {
		for _, u := range list {
			if !seen[u] {
				seen[u] = true
				out = append(out, u)
			}
		}
	}
	return out
}
