package cmd

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delfianto/compose/internal/config"
	"github.com/delfianto/compose/internal/graph"
	"github.com/delfianto/compose/internal/model"
	"github.com/delfianto/compose/internal/store"
)

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func withUID(t *testing.T, uid int) {
	t.Helper()
	prev := geteuid
	geteuid = func() int { return uid }
	t.Cleanup(func() { geteuid = prev })
}

func TestDepsAddRejectsUnknownKind(t *testing.T) {
	withConfig(t, config.Default())

	err := runDepsAdd(depsAddCmd, []string{"web", "db", "binds"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestDepsAddRequiresRoot(t *testing.T) {
	c := config.Default()
	c.SystemdDir = t.TempDir()
	withConfig(t, c)
	withUID(t, 1000)

	err := runDepsAdd(depsAddCmd, []string{"web", "db", "requires"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrPermissionDenied))

	entries, err := os.ReadDir(c.SystemdDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDepsRemoveRequiresRoot(t *testing.T) {
	c := config.Default()
	c.SystemdDir = t.TempDir()
	withConfig(t, c)
	withUID(t, 1000)

	err := runDepsRemove(depsRemoveCmd, []string{"web", "db"})
	assert.True(t, errors.Is(err, graph.ErrPermissionDenied))
}

func TestGraphWritesDiagram(t *testing.T) {
	dir := t.TempDir()
	c := config.Default()
	c.SystemdDir = dir
	c.Graph.Output = filepath.Join(dir, "deps.d2")
	withConfig(t, c)

	s := newStore()
	require.NoError(t, s.Write("web", model.Descriptor{
		Requires: []model.UnitName{"docker-compose@db.service"},
		After:    []model.UnitName{"docker-compose@db.service"},
	}))

	require.NoError(t, runGraph(graphCmd, nil))

	data, err := os.ReadFile(c.Graph.Output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "direction: right")
	assert.Contains(t, string(data), "web -> db")
}

func TestApplyFlagOverrides(t *testing.T) {
	withConfig(t, config.Default())
	outputFile, themeName, direction = "out.d2", "dark", "down"
	t.Cleanup(func() { outputFile, themeName, direction = "", "", "" })

	applyFlagOverrides()

	assert.Equal(t, "out.d2", cfg.Graph.Output)
	assert.Equal(t, "dark", cfg.Graph.Theme)
	assert.Equal(t, "down", cfg.Graph.Direction)
	assert.Equal(t, "svg", cfg.Graph.Format)
	assert.False(t, cfg.Graph.AutoRender)
}

func TestNewStoreFollowsConfig(t *testing.T) {
	c := config.Default()
	c.SystemdDir = "/run/systemd/system"
	withConfig(t, c)

	assert.Equal(t,
		"/run/systemd/system/docker-compose@web.service.d/"+store.DefaultDropInName,
		newStore().Path("web"))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "a -> b -> a", joinServices([]model.Service{"a", "b", "a"}))
	assert.Equal(t, "docker-compose@a.service, docker-compose@b.service",
		joinUnits([]model.UnitName{"docker-compose@a.service", "docker-compose@b.service"}))
}

func TestAutoRenderWithoutD2(t *testing.T) {
	withConfig(t, config.Default())
	prev := lookPath
	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	t.Cleanup(func() { lookPath = prev })

	err := autoRenderD2(context.Background(), "deps.d2", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "d2 not found")
}

func TestAutoRenderArgs(t *testing.T) {
	withConfig(t, config.Default())
	prevLook, prevCmd := lookPath, commandContext
	t.Cleanup(func() { lookPath, commandContext = prevLook, prevCmd })

	var got []string
	lookPath = func(string) (string, error) { return "/usr/bin/d2", nil }
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		got = append([]string{name}, args...)
		// Re-run the test binary with no tests selected; it exits 0.
		return exec.CommandContext(ctx, os.Args[0], "-test.run=^$")
	}

	require.NoError(t, autoRenderD2(context.Background(), "out/deps.d2", "png"))
	assert.Equal(t, []string{"/usr/bin/d2", "--layout", "dagre", "out/deps.d2", "out/deps.png"}, got)
}

func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	prev := os.Stdout
	os.Stdout = w
	runErr := fn()
	os.Stdout = prev
	require.NoError(t, w.Close())
	require.NoError(t, runErr)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestDepsShow(t *testing.T) {
	c := config.Default()
	c.SystemdDir = t.TempDir()
	withConfig(t, c)
	t.Cleanup(func() { showRaw = false })

	missing := captureStdout(t, func() error { return runDepsShow(depsShowCmd, []string{"web"}) })
	assert.Contains(t, missing, "no drop-in at "+newStore().Path("web"))

	require.NoError(t, newStore().Write("web", model.Descriptor{
		Wants: []model.UnitName{"docker-compose@cache.service"},
		After: []model.UnitName{"docker-compose@cache.service"},
	}))

	parsed := captureStdout(t, func() error { return runDepsShow(depsShowCmd, []string{"web"}) })
	assert.Contains(t, parsed, "Wants:")
	assert.Contains(t, parsed, "docker-compose@cache.service")

	showRaw = true
	raw := captureStdout(t, func() error { return runDepsShow(depsShowCmd, []string{"web"}) })
	assert.Equal(t, "[Unit]\nWants=docker-compose@cache.service\nAfter=docker-compose@cache.service\n", raw)
}
