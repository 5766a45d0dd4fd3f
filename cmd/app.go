package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/juju/errors"

	"github.com/delfianto/compose/internal/graph"
	"github.com/delfianto/compose/internal/initsys"
	"github.com/delfianto/compose/internal/project"
	"github.com/delfianto/compose/internal/store"
	"github.com/delfianto/compose/internal/ui"
)

// geteuid is replaced in tests.
var geteuid = os.Geteuid

func newStore() *store.Store {
	return store.New(store.Options{
		Dir:        cfg.SystemdDir,
		DropInName: cfg.DropInName,
		Namer:      cfg.Namer(),
	})
}

// newManager wires the store, the systemd client and the project locator.
// The root check happens here, once, before any file or bus access.
func newManager() (*graph.Manager, *store.Store, error) {
	client, err := initsys.New(cfg.Backend)
	if err != nil {
		return nil, nil, err
	}

	s := newStore()
	m := graph.NewManager(graph.Options{
		Store:             s,
		Client:            client,
		Privileged:        geteuid() == 0,
		PruneOrderingOnly: cfg.PruneOrderingOnly,
		ReloadTimeout:     cfg.ReloadTimeout,
		Projects:          project.NewLocator(cfg.ProjectsDir),
	})
	return m, s, nil
}

func reportError(err error) {
	title, hint := "Command failed", ""
	switch {
	case errors.Is(err, context.Canceled):
		title = "Interrupted"
	case graph.IsInvalidArgument(err):
		title = "Invalid argument"
	case graph.IsNotFound(err):
		title = "Not found"
		hint = "run 'composectl deps list <service>' to see current dependencies"
	case graph.IsPreconditionFailed(err):
		title = "Service template missing"
		hint = "install compose-systemd so that the docker-compose@.service template exists"
	case errors.Is(err, graph.ErrPermissionDenied):
		title = "Permission denied"
		hint = "re-run with sudo"
	case graph.IsBackendFailure(err):
		title = "systemd call failed"
		var be *initsys.BackendError
		if errors.As(err, &be) && be.Stderr != "" {
			hint = be.Stderr
		}
	}
	fmt.Fprint(os.Stderr, ui.FormatError(title, err.Error(), hint))
}
