package graph

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delfianto/compose/internal/initsys"
	"github.com/delfianto/compose/internal/model"
	"github.com/delfianto/compose/internal/store"
)

const systemdDir = "/etc/systemd/system"

type fakeClient struct {
	reloads   int
	reloadErr error
	props     map[string]map[string][]string
	forward   map[string][]string
	reverse   map[string][]string
	states    []initsys.UnitState
	queried   []string
	units     []string
	pattern   string
}

func (f *fakeClient) Reload(ctx context.Context) error {
	f.reloads++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("reload without deadline")
	}
	return f.reloadErr
}

func (f *fakeClient) Show(_ context.Context, unit string, _ ...string) (map[string][]string, error) {
	return f.props[unit], nil
}

func (f *fakeClient) ListDependencies(_ context.Context, unit string, reverse bool) ([]string, error) {
	if reverse {
		return f.reverse[unit], nil
	}
	return f.forward[unit], nil
}

func (f *fakeClient) UnitStates(_ context.Context, units ...string) ([]initsys.UnitState, error) {
	f.queried = units
	return f.states, nil
}

func (f *fakeClient) ListUnits(_ context.Context, pattern string) ([]string, error) {
	f.pattern = pattern
	return f.units, nil
}

type fixture struct {
	fs     afero.Fs
	store  *store.Store
	client *fakeClient
	mgr    *Manager
}

func newFixture(t *testing.T, privileged bool) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, systemdDir+"/docker-compose@.service", []byte("[Unit]\n"), 0o644))

	f := &fixture{
		fs:     fs,
		store:  store.New(store.Options{Fs: fs, Dir: systemdDir}),
		client: &fakeClient{},
	}
	f.mgr = NewManager(Options{Store: f.store, Client: f.client, Privileged: privileged})
	return f
}

func (f *fixture) content(t *testing.T, service string) string {
	t.Helper()
	data, err := afero.ReadFile(f.fs, f.store.Path(service))
	require.NoError(t, err)
	return string(data)
}

func TestAddRemoveScenario(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	res, err := f.mgr.AddEdge(ctx, "web", "db", model.KindRequires)
	require.NoError(t, err)
	assert.False(t, res.AlreadyPresent)
	assert.Equal(t, model.UnitName("docker-compose@db.service"), res.To)
	assert.Equal(t, "[Unit]\n"+
		"Requires=docker-compose@db.service\n"+
		"After=docker-compose@db.service\n", f.content(t, "web"))

	_, err = f.mgr.AddEdge(ctx, "web", "cache", model.KindWants)
	require.NoError(t, err)
	assert.Equal(t, "[Unit]\n"+
		"Requires=docker-compose@db.service\n"+
		"Wants=docker-compose@cache.service\n"+
		"After=docker-compose@db.service\n"+
		"After=docker-compose@cache.service\n", f.content(t, "web"))

	rm, err := f.mgr.RemoveEdge(ctx, "web", "db")
	require.NoError(t, err)
	assert.False(t, rm.Deleted)
	assert.Equal(t, "[Unit]\n"+
		"Wants=docker-compose@cache.service\n"+
		"After=docker-compose@cache.service\n", f.content(t, "web"))

	assert.Equal(t, 3, f.client.reloads)
}

func TestAddEdgeIdempotent(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.mgr.AddEdge(ctx, "web", "db", model.KindRequires)
	require.NoError(t, err)
	before := f.content(t, "web")

	res, err := f.mgr.AddEdge(ctx, "docker-compose@web.service", "db.service", model.KindRequires)
	require.NoError(t, err)
	assert.True(t, res.AlreadyPresent)
	assert.False(t, res.Written)
	assert.Equal(t, before, f.content(t, "web"))
	assert.Equal(t, 1, f.client.reloads)
}

func TestAddEdgeBothKinds(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.mgr.AddEdge(ctx, "web", "db", model.KindRequires)
	require.NoError(t, err)
	res, err := f.mgr.AddEdge(ctx, "web", "db", model.KindWants)
	require.NoError(t, err)
	assert.False(t, res.AlreadyPresent)

	assert.Equal(t, "[Unit]\n"+
		"Requires=docker-compose@db.service\n"+
		"Wants=docker-compose@db.service\n"+
		"After=docker-compose@db.service\n", f.content(t, "web"))
}

func TestAddThenRemoveRestoresAbsence(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.mgr.AddEdge(ctx, "web", "db", model.KindWants)
	require.NoError(t, err)

	rm, err := f.mgr.RemoveEdge(ctx, "web", "db")
	require.NoError(t, err)
	assert.True(t, rm.Deleted)

	exists, err := f.store.Exists("web")
	require.NoError(t, err)
	assert.False(t, exists)

	dirExists, err := afero.DirExists(f.fs, systemdDir+"/docker-compose@web.service.d")
	require.NoError(t, err)
	assert.False(t, dirExists)
}

func TestAddEdgeInvalidArguments(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		kind     model.EdgeKind
	}{
		{"self", "web", "web", model.KindWants},
		{"self qualified", "web", "docker-compose@web.service", model.KindRequires},
		{"empty source", "  ", "db", model.KindWants},
		{"empty target", "web", "", model.KindWants},
		{"after kind", "web", "db", model.KindAfter},
		{"unknown kind", "web", "db", model.EdgeKind("binds")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			_, err := f.mgr.AddEdge(context.Background(), tt.from, tt.to, tt.kind)
			require.Error(t, err)
			assert.True(t, IsInvalidArgument(err), "got %v", err)

			exists, err := f.store.Exists("web")
			require.NoError(t, err)
			assert.False(t, exists)
			assert.Zero(t, f.client.reloads)
		})
	}
}

func TestAddEdgeRequiresPrivilege(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.mgr.AddEdge(context.Background(), "web", "db", model.KindRequires)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermissionDenied))

	_, err = f.mgr.RemoveEdge(context.Background(), "web", "db")
	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.Zero(t, f.client.reloads)
}

func TestAddEdgeTemplateMissing(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.fs.Remove(systemdDir+"/docker-compose@.service"))

	_, err := f.mgr.AddEdge(context.Background(), "web", "db", model.KindRequires)
	require.Error(t, err)
	assert.True(t, IsPreconditionFailed(err))

	exists, err := f.store.Exists("web")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAddEdgeReloadFailureKeepsFile(t *testing.T) {
	f := newFixture(t, true)
	f.client.reloadErr = &initsys.BackendError{Op: "systemctl daemon-reload", Err: errors.New("exit status 1")}

	res, err := f.mgr.AddEdge(context.Background(), "web", "db", model.KindRequires)
	require.Error(t, err)
	assert.True(t, IsBackendFailure(err))
	assert.True(t, res.Written)
	assert.Contains(t, f.content(t, "web"), "Requires=docker-compose@db.service")
}

func TestRemoveEdgeWithoutDescriptor(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.mgr.RemoveEdge(context.Background(), "web", "db")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Zero(t, f.client.reloads)
}

func TestRemoveEdgeNotPresent(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.mgr.AddEdge(ctx, "web", "db", model.KindRequires)
	require.NoError(t, err)
	before := f.content(t, "web")

	res, err := f.mgr.RemoveEdge(ctx, "web", "cache")
	require.NoError(t, err)
	assert.True(t, res.NotPresent)
	assert.Equal(t, before, f.content(t, "web"))
	assert.Equal(t, 1, f.client.reloads)
}

func TestRemoveEdgeKeepsOrderingOnly(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.store.Write("web", model.Descriptor{
		Requires: []model.UnitName{"docker-compose@db.service"},
		After:    []model.UnitName{"docker-compose@db.service", "docker-compose@proxy.service"},
	}))

	res, err := f.mgr.RemoveEdge(context.Background(), "web", "db")
	require.NoError(t, err)
	assert.False(t, res.Deleted)
	assert.Equal(t, []model.UnitName{"docker-compose@proxy.service"}, res.OrderingOnly)
	assert.Equal(t, "[Unit]\nAfter=docker-compose@proxy.service\n", f.content(t, "web"))
}

func TestRemoveEdgePruneOrderingOnly(t *testing.T) {
	f := newFixture(t, true)
	f.mgr = NewManager(Options{Store: f.store, Client: f.client, Privileged: true, PruneOrderingOnly: true})
	require.NoError(t, f.store.Write("web", model.Descriptor{
		Requires: []model.UnitName{"docker-compose@db.service"},
		After:    []model.UnitName{"docker-compose@db.service", "docker-compose@proxy.service"},
	}))

	res, err := f.mgr.RemoveEdge(context.Background(), "web", "db")
	require.NoError(t, err)
	assert.True(t, res.Deleted)

	exists, err := f.store.Exists("web")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListEdgesUsesLiveView(t *testing.T) {
	f := newFixture(t, true)
	f.client.props = map[string]map[string][]string{
		"docker-compose@web.service": {
			"Requires": {"docker-compose@db.service", "sysinit.target"},
			"Wants":    {"docker-compose@cache.service"},
			"After":    {"docker-compose@db.service", "docker-compose@cache.service", "basic.target"},
		},
	}

	edges, err := f.mgr.ListEdges(context.Background(), "web")
	require.NoError(t, err)
	assert.Equal(t, model.Service("web"), edges.Service)
	assert.Equal(t, []model.Service{"db"}, edges.Requires)
	assert.Equal(t, []model.Service{"cache"}, edges.Wants)
	assert.Equal(t, []model.Service{"db", "cache"}, edges.After)

	empty, err := f.mgr.ListEdges(context.Background(), "orphan")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestCheckChain(t *testing.T) {
	f := newFixture(t, true)
	f.client.forward = map[string][]string{
		"docker-compose@web.service": {"docker-compose@db.service", "system.slice", "docker-compose@storage.service"},
	}
	f.client.reverse = map[string][]string{
		"docker-compose@web.service": {"docker-compose@proxy.service", "multi-user.target"},
	}

	chain, err := f.mgr.CheckChain(context.Background(), "web")
	require.NoError(t, err)
	assert.Equal(t, []model.Service{"db", "storage"}, chain.Forward)
	assert.Equal(t, []model.Service{"proxy"}, chain.Reverse)
}

func TestStatusNormalizesNames(t *testing.T) {
	f := newFixture(t, false)
	f.client.states = []initsys.UnitState{{Unit: "docker-compose@web.service", Active: "active"}}

	states, err := f.mgr.Status(context.Background(), "web", "db.service")
	require.NoError(t, err)
	assert.Len(t, states, 1)
	assert.Equal(t, []string{"docker-compose@web.service", "docker-compose@db.service"}, f.client.queried)
}

func TestServicesMergesLiveAndAuthored(t *testing.T) {
	f := newFixture(t, true)
	f.client.units = []string{
		"docker-compose@web.service",
		"docker-compose@.service",
		"docker-compose@idle.service",
	}
	_, err := f.mgr.AddEdge(context.Background(), "web", "db", model.KindWants)
	require.NoError(t, err)
	_, err = f.mgr.AddEdge(context.Background(), "api", "db", model.KindRequires)
	require.NoError(t, err)

	got, err := f.mgr.Services(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "docker-compose@*.service", f.client.pattern)
	assert.Equal(t, []model.Service{"api", "idle", "web"}, got)
}
