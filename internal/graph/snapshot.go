package graph

import (
	"sort"

	"github.com/juju/errors"

	"github.com/delfianto/compose/internal/model"
)

// ServiceLister enumerates services that have an authored descriptor.
type ServiceLister interface {
	EdgeSource
	Namer() model.UnitNamer
	Services() ([]model.Service, error)
}

// Snapshot is every authored descriptor read at one point in time. It is
// built on demand for whole-graph views and never persisted.
type Snapshot struct {
	Namer       model.UnitNamer
	Descriptors map[model.Service]model.Descriptor
}

// Load reads the descriptor of every service known to src.
func Load(src ServiceLister) (*Snapshot, error) {
	services, err := src.Services()
	if err != nil {
		return nil, errors.Annotate(err, "listing services")
	}

	snap := &Snapshot{
		Namer:       src.Namer(),
		Descriptors: make(map[model.Service]model.Descriptor, len(services)),
	}
	for _, s := range services {
		d, err := src.Read(s.String())
		if err != nil {
			return nil, errors.Annotatef(err, "reading dependencies of %s", s)
		}
		snap.Descriptors[s] = d
	}
	return snap, nil
}

// Sources returns the services owning a descriptor, sorted.
func (s *Snapshot) Sources() []model.Service {
	out := make([]model.Service, 0, len(s.Descriptors))
	for svc := range s.Descriptors {
		out = append(out, svc)
	}
	sortServices(out)
	return out
}

// Nodes returns every service that owns a descriptor or is the target of
// one, sorted.
func (s *Snapshot) Nodes() []model.Service {
	return s.collect(func(model.UnitName) bool { return true })
}

// ComposeServices returns the sources plus every target that follows the
// naming convention, sorted. Foreign units such as targets are left out.
func (s *Snapshot) ComposeServices() []model.Service {
	return s.collect(func(u model.UnitName) bool { return s.Namer.Matches(u.String()) })
}

func (s *Snapshot) collect(keep func(model.UnitName) bool) []model.Service {
	seen := make(map[model.Service]bool)
	for src, d := range s.Descriptors {
		seen[src] = true
		for _, dir := range model.Directives {
			for _, u := range d.List(dir) {
				if keep(u) {
					seen[s.node(u)] = true
				}
			}
		}
	}
	out := make([]model.Service, 0, len(seen))
	for svc := range seen {
		out = append(out, svc)
	}
	sortServices(out)
	return out
}

// node names a target: compose units by their service, any other unit by
// its full name so that foo.service never merges with compose service foo.
func (s *Snapshot) node(u model.UnitName) model.Service {
	if s.Namer.Matches(u.String()) {
		return s.Namer.Service(u)
	}
	return model.Service(u)
}

// Edges returns one edge per (from, to) pair, with the strongest kind the
// pair carries: requires over wants over after. Edges are ordered by source
// then by position in the descriptor.
func (s *Snapshot) Edges() []model.Edge {
	var out []model.Edge
	for _, from := range s.Sources() {
		d := s.Descriptors[from]
		seen := make(map[model.UnitName]bool)
		for _, kind := range []model.EdgeKind{model.KindRequires, model.KindWants, model.KindAfter} {
			for _, u := range d.List(kind.Directive()) {
				if seen[u] {
					continue
				}
				seen[u] = true
				out = append(out, model.Edge{From: from, To: s.node(u), Kind: kind})
			}
		}
	}
	return out
}

// StartupOrder sorts every node so that each service comes after all of its
// Requires, Wants and After targets. Ties are broken lexically. A cycle
// yields ErrCycle.
func (s *Snapshot) StartupOrder() ([]model.Service, error) {
	nodes := s.Nodes()
	inDegree := make(map[model.Service]int, len(nodes))
	dependents := make(map[model.Service][]model.Service, len(nodes))
	for _, n := range nodes {
		inDegree[n] = 0
	}

	for _, e := range s.Edges() {
		if e.From == e.To {
			continue
		}
		dependents[e.To] = append(dependents[e.To], e.From)
		inDegree[e.From]++
	}

	var ready []model.Service
	for _, n := range nodes {
		if inDegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	sorted := make([]model.Service, 0, len(nodes))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		sorted = append(sorted, current)

		for _, next := range dependents[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = append(ready, next)
			}
		}
		sortServices(ready)
	}

	if len(sorted) != len(nodes) {
		var blocked []model.Service
		for _, n := range nodes {
			if inDegree[n] > 0 {
				blocked = append(blocked, n)
			}
		}
		return nil, errors.Annotatef(ErrCycle, "cannot order %v", blocked)
	}
	return sorted, nil
}

func sortServices(s []model.Service) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}

// Read returns the descriptor held for service, or an empty one.
func (s *Snapshot) Read(service string) (model.Descriptor, error) {
	return s.Descriptors[s.Namer.Service(s.Namer.Normalize(service))], nil
}
