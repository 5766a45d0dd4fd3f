package graph

import (
	"github.com/juju/errors"

	"github.com/delfianto/compose/internal/model"
)

// FindCycle walks Requires and Wants edges depth-first from start, reading
// each descriptor from src only when its node is first entered. It returns
// the services of the first cycle found, with the entry node repeated at
// both ends, or nil when no cycle is reachable. Targets outside the naming
// convention are not followed.
func FindCycle(src EdgeSource, namer model.UnitNamer, start string) ([]model.Service, error) {
	w := &cycleWalker{
		src:     src,
		namer:   namer,
		visited: make(map[model.Service]bool),
	}
	root := namer.Service(namer.Normalize(start))
	return w.visit(root)
}

type cycleWalker struct {
	src     EdgeSource
	namer   model.UnitNamer
	visited map[model.Service]bool
	path    []model.Service
}

func (w *cycleWalker) visit(s model.Service) ([]model.Service, error) {
	for i, p := range w.path {
		if p == s {
			cycle := make([]model.Service, 0, len(w.path)-i+1)
			cycle = append(cycle, w.path[i:]...)
			return append(cycle, s), nil
		}
	}
	if w.visited[s] {
		return nil, nil
	}
	w.visited[s] = true

	d, err := w.src.Read(s.String())
	if err != nil {
		return nil, errors.Annotatef(err, "reading dependencies of %s", s)
	}

	w.path = append(w.path, s)
	for _, target := range d.Targets() {
		if !w.namer.Matches(string(target)) {
			continue
		}
		cycle, err := w.visit(w.namer.Service(target))
		if cycle != nil || err != nil {
			return cycle, err
		}
	}
	w.path = w.path[:len(w.path)-1]
	return nil, nil
}
