// Package initsys talks to the service manager: it reloads configuration
// and reads the live (merged) dependency view of units. Two backends are
// available, the systemctl command line and the systemd D-Bus API.
package initsys

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/util"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("composectl.initsys")

// ErrBackend marks every failure of the service manager itself.
const ErrBackend = errors.ConstError("init subsystem failure")

// Backend names accepted by New.
const (
	BackendSystemctl = "systemctl"
	BackendDBus      = "dbus"
	BackendAuto      = "auto"
)

// Client is the service manager surface used by the dependency manager.
type Client interface {
	// Reload asks the service manager to re-read unit files.
	Reload(ctx context.Context) error
	// Show returns the requested list-valued properties of a unit.
	Show(ctx context.Context, unit string, props ...string) (map[string][]string, error)
	// ListDependencies returns the transitive dependencies of a unit, or
	// its transitive dependents when reverse is set. The unit itself is
	// not included.
	ListDependencies(ctx context.Context, unit string, reverse bool) ([]string, error)
	// UnitStates returns activation and enablement of the given units.
	UnitStates(ctx context.Context, units ...string) ([]UnitState, error)
	// ListUnits returns the names of loaded units and installed unit files
	// matching a glob pattern, loaded units first, without duplicates.
	ListUnits(ctx context.Context, pattern string) ([]string, error)
}

// UnitState is the live state of one unit.
type UnitState struct {
	Unit        string `json:"unit" yaml:"unit"`
	Load        string `json:"load" yaml:"load"`
	Active      string `json:"active" yaml:"active"`
	Sub         string `json:"sub" yaml:"sub"`
	Enabled     string `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// BackendError describes a failed service manager call.
type BackendError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is makes every BackendError match ErrBackend.
func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// New returns the client for a backend name. "auto" selects D-Bus when the
// host was booted with systemd and falls back to systemctl otherwise.
func New(backend string) (Client, error) {
	switch backend {
	case "", BackendSystemctl:
		return NewSystemctl(nil), nil
	case BackendDBus:
		return NewDBus(nil), nil
	case BackendAuto:
		if util.IsRunningSystemd() {
			logger.Debugf("systemd detected, using the D-Bus backend")
			return NewDBus(nil), nil
		}
		return NewSystemctl(nil), nil
	}
	return nil, errors.NotValidf("backend %q", backend)
}

// Dependency properties walked for forward and reverse listings; these
// mirror what systemctl list-dependencies follows.
var (
	forwardProps = []string{"Requires", "Requisite", "Wants", "BindsTo", "ConsistsOf"}
	reverseProps = []string{"RequiredBy", "RequisiteOf", "WantedBy", "BoundBy", "PartOf"}
)
