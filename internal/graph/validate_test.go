package graph

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delfianto/compose/internal/model"
)

type stubProjects map[model.Service]bool

func (s stubProjects) Check(_ context.Context, svc model.Service) error {
	if s[svc] {
		return nil
	}
	return errors.NotFoundf("compose project for %s", svc)
}

func fieldsOf(findings []Finding) []string {
	var out []string
	for _, f := range findings {
		out = append(out, string(f.Service)+"/"+f.Field)
	}
	return out
}

func TestValidateClean(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.mgr.AddEdge(context.Background(), "web", "db", model.KindRequires)
	require.NoError(t, err)

	findings, err := f.mgr.Validate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestValidateFindings(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.store.Write("web", model.Descriptor{
		Requires: units("db"),
		Wants:    []model.UnitName{"network-online.target"},
		After:    []model.UnitName{"network-online.target"},
	}))
	require.NoError(t, f.store.Write("db", model.Descriptor{
		Requires: units("web"),
		After:    units("web"),
	}))

	findings, err := f.mgr.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"web/Requires",
		"web/Wants",
		"db/cycle",
	}, fieldsOf(findings))
	assert.Equal(t, "db -> web -> db", findings[2].Message)
}

func TestValidateTemplateMissing(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.fs.Remove(systemdDir+"/docker-compose@.service"))

	findings, err := f.mgr.Validate(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "template", findings[0].Field)
}

func TestValidateProjects(t *testing.T) {
	f := newFixture(t, true)
	f.mgr = NewManager(Options{
		Store:      f.store,
		Client:     f.client,
		Privileged: true,
		Projects:   stubProjects{"web": true},
	})
	require.NoError(t, f.store.Write("web", model.Descriptor{
		Requires: units("db"),
		Wants:    []model.UnitName{"network-online.target"},
		After:    append(units("db"), "network-online.target"),
	}))

	findings, err := f.mgr.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"web/Wants", "db/project"}, fieldsOf(findings))
}

func TestCyclesDeduplicated(t *testing.T) {
	snap := snapshotOf(map[string]model.Descriptor{
		"a": {Requires: units("b")},
		"b": {Requires: units("c")},
		"c": {Wants: units("a")},
	})

	cycles, err := snap.Cycles()
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, []model.Service{"a", "b", "c", "a"}, cycles[0])
}
