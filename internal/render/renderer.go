package render

import (
	"github.com/juju/errors"

	"github.com/delfianto/compose/internal/graph"
	"github.com/delfianto/compose/internal/model"
)

// Graph is the authored dependency graph prepared for drawing.
type Graph struct {
	Services []model.Service
	// Units are targets outside the naming convention, such as
	// network-online.target.
	Units   []model.Service
	Sources map[model.Service]bool
	Edges   []model.Edge
	Cycles  [][]model.Service
}

// Options controls diagram layout and colors.
type Options struct {
	Theme     string
	Direction string
}

// Renderer defines the interface for diagram generators.
type Renderer interface {
	Render(g *Graph, opts Options) string
}

// NewGraph prepares a snapshot for rendering.
func NewGraph(snap *graph.Snapshot) (*Graph, error) {
	cycles, err := snap.Cycles()
	if err != nil {
		return nil, errors.Trace(err)
	}

	g := &Graph{
		Services: snap.ComposeServices(),
		Sources:  make(map[model.Service]bool),
		Edges:    snap.Edges(),
		Cycles:   cycles,
	}
	for _, s := range snap.Sources() {
		g.Sources[s] = true
	}

	compose := make(map[model.Service]bool, len(g.Services))
	for _, s := range g.Services {
		compose[s] = true
	}
	for _, n := range snap.Nodes() {
		if !compose[n] {
			g.Units = append(g.Units, n)
		}
	}
	return g, nil
}

// RenderD2 generates a D2 diagram from the dependency graph.
func RenderD2(g *Graph, opts Options) string {
	r := &D2Renderer{}
	return r.Render(g, opts)
}
