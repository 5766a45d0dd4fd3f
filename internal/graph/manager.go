// Package graph manages dependency edges between compose services.
//
// Edges are authored into per-service drop-ins through a DescriptorStore and
// become effective once the service manager reloads. Two read paths exist on
// purpose: ListEdges and CheckChain ask the service manager for the merged,
// effective view, while DetectCycle, StartupOrder and Validate reason about
// the authored drop-ins only.
package graph

import (
	"context"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/delfianto/compose/internal/initsys"
	"github.com/delfianto/compose/internal/model"
)

var logger = loggo.GetLogger("composectl.graph")

// DefaultReloadTimeout bounds a configuration reload.
const DefaultReloadTimeout = 30 * time.Second

// EdgeSource yields the authored descriptor of a service.
type EdgeSource interface {
	Read(service string) (model.Descriptor, error)
}

// DescriptorStore persists descriptors. store.Store implements it.
type DescriptorStore interface {
	EdgeSource
	Namer() model.UnitNamer
	Write(service string, d model.Descriptor) error
	Delete(service string) error
	Exists(service string) (bool, error)
	TemplateInstalled() (bool, error)
	Services() ([]model.Service, error)
}

// Options configures a Manager.
type Options struct {
	Store  DescriptorStore
	Client initsys.Client

	// Privileged grants the capability to mutate descriptors and reload
	// the service manager. The caller decides it once, up front.
	Privileged bool

	// PruneOrderingOnly deletes a descriptor as soon as its last Requires
	// or Wants entry is removed, discarding any remaining After entries.
	PruneOrderingOnly bool

	ReloadTimeout time.Duration

	// Projects, when set, lets Validate check that services map to
	// loadable compose projects.
	Projects ProjectChecker
}

// Manager adds, removes and inspects dependency edges.
type Manager struct {
	store             DescriptorStore
	client            initsys.Client
	namer             model.UnitNamer
	privileged        bool
	pruneOrderingOnly bool
	reloadTimeout     time.Duration
	projects          ProjectChecker
}

// NewManager returns a Manager for opts.
func NewManager(opts Options) *Manager {
	m := &Manager{
		store:             opts.Store,
		client:            opts.Client,
		privileged:        opts.Privileged,
		pruneOrderingOnly: opts.PruneOrderingOnly,
		reloadTimeout:     opts.ReloadTimeout,
		projects:          opts.Projects,
	}
	if opts.Store != nil {
		m.namer = opts.Store.Namer()
	}
	if m.reloadTimeout <= 0 {
		m.reloadTimeout = DefaultReloadTimeout
	}
	return m
}

// Namer returns the naming convention used by the manager.
func (m *Manager) Namer() model.UnitNamer { return m.namer }

// AddResult describes the outcome of AddEdge.
type AddResult struct {
	From           model.UnitName
	To             model.UnitName
	Kind           model.EdgeKind
	AlreadyPresent bool
	// Written is set once the drop-in is on disk, even if the reload
	// that follows fails.
	Written bool
}

// RemoveResult describes the outcome of RemoveEdge.
type RemoveResult struct {
	From model.UnitName
	To   model.UnitName
	// NotPresent is set when the target was not among the edges; nothing
	// was written.
	NotPresent bool
	// Deleted is set when the descriptor file was removed.
	Deleted bool
	// OrderingOnly lists After entries kept because no causal edge remains.
	OrderingOnly []model.UnitName
	Written      bool
}

func (m *Manager) names(from, to string) (model.UnitName, model.UnitName, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return "", "", errors.NotValidf("empty service or dependency name")
	}
	fromUnit, toUnit := m.namer.Normalize(from), m.namer.Normalize(to)
	if fromUnit == toUnit {
		return "", "", errors.NotValidf("dependency of %s on itself", m.namer.Service(fromUnit))
	}
	return fromUnit, toUnit, nil
}

func (m *Manager) requirePrivilege(op string) error {
	if !m.privileged {
		return errors.Annotatef(ErrPermissionDenied, "%s must be run as root or with sudo", op)
	}
	return nil
}

// AddEdge records that from depends on to with the given kind and implies
// that from starts after to. Adding an edge that already exists is a no-op
// reported through AddResult.AlreadyPresent. A reload failure is returned
// after the drop-in has been written; the file is not rolled back.
func (m *Manager) AddEdge(ctx context.Context, from, to string, kind model.EdgeKind) (AddResult, error) {
	fromUnit, toUnit, err := m.names(from, to)
	if err != nil {
		return AddResult{}, err
	}
	if !kind.Causal() {
		return AddResult{}, errors.NotValidf("dependency type %q", kind)
	}
	if err := m.requirePrivilege("adding a dependency"); err != nil {
		return AddResult{}, err
	}

	installed, err := m.store.TemplateInstalled()
	if err != nil {
		return AddResult{}, errors.Trace(err)
	}
	if !installed {
		return AddResult{}, errors.Annotatef(ErrPreconditionFailed,
			"service template %s not found, is compose-systemd installed?", m.namer.Template())
	}

	res := AddResult{From: fromUnit, To: toUnit, Kind: kind}
	source := string(fromUnit)

	d, err := m.store.Read(source)
	if err != nil {
		return res, errors.Trace(err)
	}
	if d.Has(kind.Directive(), toUnit) {
		logger.Warningf("dependency already exists: %s -> %s (%s)", fromUnit, toUnit, kind)
		res.AlreadyPresent = true
		return res, nil
	}

	d.Append(kind.Directive(), toUnit)
	d.Append(model.DirectiveAfter, toUnit)

	if err := m.store.Write(source, d); err != nil {
		return res, errors.Trace(err)
	}
	res.Written = true
	logger.Infof("added %s -> %s (%s)", fromUnit, toUnit, kind)

	return res, m.reload(ctx)
}

// RemoveEdge drops every directive that from holds for to, whatever its
// kind. It fails with NotFound when from has no descriptor at all; a
// missing target is reported through RemoveResult.NotPresent.
func (m *Manager) RemoveEdge(ctx context.Context, from, to string) (RemoveResult, error) {
	fromUnit, toUnit, err := m.names(from, to)
	if err != nil {
		return RemoveResult{}, err
	}
	if err := m.requirePrivilege("removing a dependency"); err != nil {
		return RemoveResult{}, err
	}

	res := RemoveResult{From: fromUnit, To: toUnit}
	source := string(fromUnit)

	exists, err := m.store.Exists(source)
	if err != nil {
		return res, errors.Trace(err)
	}
	if !exists {
		return res, errors.NotFoundf("dependencies for %s", m.namer.Service(fromUnit))
	}

	d, err := m.store.Read(source)
	if err != nil {
		return res, errors.Trace(err)
	}
	if !d.Remove(toUnit) {
		logger.Warningf("dependency not found: %s -> %s", fromUnit, toUnit)
		res.NotPresent = true
		return res, nil
	}

	switch {
	case d.HasCausal():
		err = m.store.Write(source, d)
	case d.IsEmpty() || m.pruneOrderingOnly:
		if len(d.After) > 0 {
			logger.Warningf("discarding ordering-only entries of %s: %v", fromUnit, d.After)
		}
		res.Deleted = true
		err = m.store.Delete(source)
	default:
		res.OrderingOnly = d.After
		err = m.store.Write(source, d)
	}
	if err != nil {
		return res, errors.Trace(err)
	}
	res.Written = true
	logger.Infof("removed %s -> %s", fromUnit, toUnit)

	return res, m.reload(ctx)
}

func (m *Manager) reload(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.reloadTimeout)
	defer cancel()

	if err := m.client.Reload(ctx); err != nil {
		return errors.Annotate(err, "failed to reload systemd, the drop-in was written but is not active yet")
	}
	return nil
}

// Edges is the effective dependency set of a unit, restricted to compose
// services.
type Edges struct {
	Service  model.Service   `yaml:"service"`
	Requires []model.Service `yaml:"requires"`
	Wants    []model.Service `yaml:"wants"`
	After    []model.Service `yaml:"after"`
}

// IsEmpty reports whether no compose dependency was found.
func (e Edges) IsEmpty() bool {
	return len(e.Requires) == 0 && len(e.Wants) == 0 && len(e.After) == 0
}

// ListEdges returns the effective Requires, Wants and After of a service as
// reported by the service manager, which merges the base unit with every
// drop-in. It does not read the authored descriptor.
func (m *Manager) ListEdges(ctx context.Context, service string) (Edges, error) {
	unit := m.namer.Normalize(service)
	props, err := m.client.Show(ctx, string(unit),
		string(model.DirectiveRequires), string(model.DirectiveWants), string(model.DirectiveAfter))
	if err != nil {
		return Edges{}, errors.Annotatef(err, "reading dependencies of %s", unit)
	}

	return Edges{
		Service:  m.namer.Service(unit),
		Requires: m.services(props[string(model.DirectiveRequires)]),
		Wants:    m.services(props[string(model.DirectiveWants)]),
		After:    m.services(props[string(model.DirectiveAfter)]),
	}, nil
}

// Chain is the transitive dependency view of one service.
type Chain struct {
	Service model.Service   `yaml:"service"`
	Forward []model.Service `yaml:"dependencies"`
	Reverse []model.Service `yaml:"dependents"`
}

// CheckChain returns the transitive dependencies and dependents of a
// service according to the service manager.
func (m *Manager) CheckChain(ctx context.Context, service string) (Chain, error) {
	unit := m.namer.Normalize(service)

	forward, err := m.client.ListDependencies(ctx, string(unit), false)
	if err != nil {
		return Chain{}, errors.Annotatef(err, "listing dependencies of %s", unit)
	}
	reverse, err := m.client.ListDependencies(ctx, string(unit), true)
	if err != nil {
		return Chain{}, errors.Annotatef(err, "listing dependents of %s", unit)
	}

	return Chain{
		Service: m.namer.Service(unit),
		Forward: m.services(forward),
		Reverse: m.services(reverse),
	}, nil
}

// Status returns the live state of the given services.
func (m *Manager) Status(ctx context.Context, services ...string) ([]initsys.UnitState, error) {
	units := make([]string, 0, len(services))
	for _, s := range services {
		units = append(units, string(m.namer.Normalize(s)))
	}
	states, err := m.client.UnitStates(ctx, units...)
	return states, errors.Trace(err)
}

// Services lists every compose service known to the service manager, loaded
// or only installed, together with every service owning a drop-in.
func (m *Manager) Services(ctx context.Context) ([]model.Service, error) {
	units, err := m.client.ListUnits(ctx, m.namer.Pattern())
	if err != nil {
		return nil, errors.Annotate(err, "listing compose units")
	}
	authored, err := m.store.Services()
	if err != nil {
		return nil, errors.Trace(err)
	}

	seen := make(map[model.Service]bool)
	var out []model.Service
	for _, svc := range append(m.services(units), authored...) {
		if svc == "" || seen[svc] {
			continue
		}
		seen[svc] = true
		out = append(out, svc)
	}
	sortServices(out)
	return out, nil
}

// DetectCycle looks for a cycle reachable from service in the authored
// descriptors. It returns nil when there is none.
func (m *Manager) DetectCycle(service string) ([]model.Service, error) {
	return FindCycle(m.store, m.namer, service)
}

// StartupOrder orders every authored service so that dependencies come
// before their dependents.
func (m *Manager) StartupOrder() ([]model.Service, error) {
	snap, err := Load(m.store)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return snap.StartupOrder()
}

// services keeps the units that follow the naming convention and maps
// them to service names.
func (m *Manager) services(units []string) []model.Service {
	var out []model.Service
	for _, u := range units {
		if m.namer.Matches(u) {
			out = append(out, m.namer.Service(model.UnitName(u)))
		}
	}
	return out
}
