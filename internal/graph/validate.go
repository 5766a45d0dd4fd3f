package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/delfianto/compose/internal/model"
)

// ProjectChecker reports whether a service maps to a loadable compose
// project. project.Locator implements it.
type ProjectChecker interface {
	Check(ctx context.Context, service model.Service) error
}

// Finding is one problem reported by Validate.
type Finding struct {
	Service    model.Service
	Field      string
	Message    string
	Suggestion string
}

func (f Finding) String() string {
	if f.Service == "" {
		return fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.Service, f.Field, f.Message)
}

// Validate inspects every authored descriptor and reports inconsistencies.
// An error is returned only when the descriptors cannot be read.
func (m *Manager) Validate(ctx context.Context) ([]Finding, error) {
	var findings []Finding

	installed, err := m.store.TemplateInstalled()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !installed {
		findings = append(findings, Finding{
			Field:      "template",
			Message:    fmt.Sprintf("service template %s not found", m.namer.Template()),
			Suggestion: "install compose-systemd before adding dependencies",
		})
	}

	snap, err := Load(m.store)
	if err != nil {
		return nil, errors.Trace(err)
	}

	for _, svc := range snap.Sources() {
		findings = append(findings, checkDescriptor(m.namer, svc, snap.Descriptors[svc])...)
	}

	cycles, err := snap.Cycles()
	if err != nil {
		return nil, errors.Trace(err)
	}
	for _, c := range cycles {
		findings = append(findings, Finding{
			Service:    c[0],
			Field:      "cycle",
			Message:    formatCycle(c),
			Suggestion: "remove one of the edges with 'composectl deps remove'",
		})
	}

	if m.projects != nil {
		for _, svc := range snap.ComposeServices() {
			if err := m.projects.Check(ctx, svc); err != nil {
				findings = append(findings, Finding{
					Service:    svc,
					Field:      "project",
					Message:    err.Error(),
					Suggestion: "check projects_dir in composectl.yml",
				})
			}
		}
	}

	return findings, nil
}

func checkDescriptor(namer model.UnitNamer, svc model.Service, d model.Descriptor) []Finding {
	var findings []Finding
	for _, dir := range []model.Directive{model.DirectiveRequires, model.DirectiveWants} {
		for _, target := range d.List(dir) {
			if !d.Has(model.DirectiveAfter, target) {
				findings = append(findings, Finding{
					Service:    svc,
					Field:      string(dir),
					Message:    fmt.Sprintf("%s has no matching After entry", target),
					Suggestion: fmt.Sprintf("add After=%s to %s", target, namer.Normalize(svc.String())),
				})
			}
			if !namer.Matches(target.String()) {
				findings = append(findings, Finding{
					Service:    svc,
					Field:      string(dir),
					Message:    fmt.Sprintf("%s is not a %s unit", target, namer.Template()),
					Suggestion: "manage dependencies on other units in a separate drop-in",
				})
			}
		}
	}
	return findings
}

// Cycles returns every distinct cycle reachable from any source, each
// rotated so that its smallest service comes first.
func (s *Snapshot) Cycles() ([][]model.Service, error) {
	seen := make(map[string]bool)
	var out [][]model.Service
	for _, svc := range s.Sources() {
		c, err := FindCycle(s, s.Namer, svc.String())
		if err != nil {
			return nil, errors.Trace(err)
		}
		if c == nil {
			continue
		}
		c = rotateCycle(c)
		key := formatCycle(c)
		if !seen[key] {
			seen[key] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// rotateCycle takes a closed cycle [a b c a] and rotates it to start at its
// smallest member.
func rotateCycle(c []model.Service) []model.Service {
	ring := c[:len(c)-1]
	start := 0
	for i, s := range ring {
		if s < ring[start] {
			start = i
		}
	}
	out := make([]model.Service, 0, len(c))
	out = append(out, ring[start:]...)
	out = append(out, ring[:start]...)
	return append(out, ring[start])
}

func formatCycle(c []model.Service) string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}
