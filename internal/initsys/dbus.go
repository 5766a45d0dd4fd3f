package initsys

import (
	"context"
	"path/filepath"

	"github.com/coreos/go-systemd/v22/dbus"
)

// DBusAPI is the subset of the go-systemd connection used here.
type DBusAPI interface {
	ReloadContext(ctx context.Context) error
	GetUnitPropertiesContext(ctx context.Context, unit string) (map[string]interface{}, error)
	ListUnitsByNamesContext(ctx context.Context, units []string) ([]dbus.UnitStatus, error)
	ListUnitsByPatternsContext(ctx context.Context, states []string, patterns []string) ([]dbus.UnitStatus, error)
	ListUnitFilesByPatternsContext(ctx context.Context, states []string, patterns []string) ([]dbus.UnitFile, error)
	Close()
}

// DBusAPIFactory opens a connection to the systemd manager.
type DBusAPIFactory func(ctx context.Context) (DBusAPI, error)

// NewDBusAPI connects to the system bus.
var NewDBusAPI DBusAPIFactory = func(ctx context.Context) (DBusAPI, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// DBus talks to systemd over its D-Bus API. A connection is opened per
// call; the tool runs one command per process.
type DBus struct {
	newConn DBusAPIFactory
}

// NewDBus returns a D-Bus client. A nil factory uses NewDBusAPI.
func NewDBus(factory DBusAPIFactory) *DBus {
	if factory == nil {
		factory = NewDBusAPI
	}
	return &DBus{newConn: factory}
}

func (d *DBus) conn(ctx context.Context, op string) (DBusAPI, error) {
	conn, err := d.newConn(ctx)
	if err != nil {
		return nil, &BackendError{Op: "dbus connect (" + op + ")", Err: err}
	}
	return conn, nil
}

func (d *DBus) Reload(ctx context.Context) error {
	conn, err := d.conn(ctx, "reload")
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.ReloadContext(ctx); err != nil {
		return &BackendError{Op: "dbus reload", Err: err}
	}
	return nil
}

func (d *DBus) Show(ctx context.Context, unit string, props ...string) (map[string][]string, error) {
	conn, err := d.conn(ctx, "show")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	all, err := conn.GetUnitPropertiesContext(ctx, unit)
	if err != nil {
		return nil, &BackendError{Op: "dbus get properties of " + unit, Err: err}
	}

	out := make(map[string][]string, len(props))
	for _, p := range props {
		out[p] = stringList(all[p])
	}
	return out, nil
}

// ListDependencies walks the dependency properties breadth first, which is
// what systemctl list-dependencies does on the client side as well.
func (d *DBus) ListDependencies(ctx context.Context, unit string, reverse bool) ([]string, error) {
	conn, err := d.conn(ctx, "list-dependencies")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	props := forwardProps
	if reverse {
		props = reverseProps
	}

	seen := map[string]bool{unit: true}
	queue := []string{unit}
	var out []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		all, err := conn.GetUnitPropertiesContext(ctx, current)
		if err != nil {
			return nil, &BackendError{Op: "dbus get properties of " + current, Err: err}
		}
		for _, p := range props {
			for _, dep := range stringList(all[p]) {
				if seen[dep] {
					continue
				}
				seen[dep] = true
				out = append(out, dep)
				queue = append(queue, dep)
			}
		}
	}
	return out, nil
}

func (d *DBus) UnitStates(ctx context.Context, units ...string) ([]UnitState, error) {
	if len(units) == 0 {
		return nil, nil
	}
	conn, err := d.conn(ctx, "status")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	listed, err := conn.ListUnitsByNamesContext(ctx, units)
	if err != nil {
		return nil, &BackendError{Op: "dbus list units", Err: err}
	}
	byName := make(map[string]dbus.UnitStatus, len(listed))
	for _, u := range listed {
		byName[u.Name] = u
	}

	states := make([]UnitState, 0, len(units))
	for _, name := range units {
		st := UnitState{Unit: name, Load: "not-found", Active: "inactive", Sub: "dead"}
		if u, ok := byName[name]; ok {
			st.Load, st.Active, st.Sub, st.Description = u.LoadState, u.ActiveState, u.SubState, u.Description
		}
		if all, err := conn.GetUnitPropertiesContext(ctx, name); err == nil {
			if s, ok := all["UnitFileState"].(string); ok {
				st.Enabled = s
			}
		} else {
			logger.Debugf("unit file state of %s: %v", name, err)
		}
		states = append(states, st)
	}
	return states, nil
}

func (d *DBus) ListUnits(ctx context.Context, pattern string) ([]string, error) {
	conn, err := d.conn(ctx, "list-units")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	patterns := []string{pattern}
	loaded, err := conn.ListUnitsByPatternsContext(ctx, []string{}, patterns)
	if err != nil {
		return nil, &BackendError{Op: "dbus list units " + pattern, Err: err}
	}
	files, err := conn.ListUnitFilesByPatternsContext(ctx, []string{}, patterns)
	if err != nil {
		return nil, &BackendError{Op: "dbus list unit files " + pattern, Err: err}
	}

	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, u := range loaded {
		add(u.Name)
	}
	for _, f := range files {
		add(filepath.Base(f.Path))
	}
	return names, nil
}

func stringList(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
