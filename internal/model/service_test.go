package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected UnitName
	}{
		{"web", "docker-compose@web.service"},
		{"genai-ollama", "docker-compose@genai-ollama.service"},
		{"docker-compose@web.service", "docker-compose@web.service"},
		{"web.service", "docker-compose@web.service"},
		{"docker-compose@web", "docker-compose@web.service"},
		{"  db  ", "docker-compose@db.service"},
		{"", "docker-compose@.service"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultNamer.Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"web", "web.service", "docker-compose@web", "docker-compose@web.service",
		"a.b.c", "x@y", ".service", "docker-compose@", "", "with space",
	}
	for _, in := range inputs {
		once := DefaultNamer.Normalize(in)
		twice := DefaultNamer.Normalize(string(once))
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	for _, in := range []string{"web", "genai-open-webui", "db"} {
		unit := DefaultNamer.Normalize(in)
		svc := DefaultNamer.Service(unit)
		assert.Equal(t, Service(in), svc)
		assert.Equal(t, unit, DefaultNamer.Normalize(string(svc)))
	}
}

func TestCustomNamer(t *testing.T) {
	n := UnitNamer{Prefix: "podman-compose@", Suffix: ".service"}
	assert.Equal(t, UnitName("podman-compose@web.service"), n.Normalize("web"))
	assert.Equal(t, Service("web"), n.Service("podman-compose@web.service"))
	assert.Equal(t, "podman-compose@.service", n.Template())
	assert.True(t, n.Matches("podman-compose@web.service"))
	assert.False(t, n.Matches("docker-compose@web.service"))
}

func TestMatches(t *testing.T) {
	assert.True(t, DefaultNamer.Matches("docker-compose@db.service"))
	assert.False(t, DefaultNamer.Matches("network-online.target"))
	assert.False(t, DefaultNamer.Matches("docker.service"))
	assert.Equal(t, "docker-compose@*.service", DefaultNamer.Pattern())
}
