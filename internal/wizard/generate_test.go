package wizard

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateConfigDefaults(t *testing.T) {
	out, err := GenerateConfig(WizardAnswers{})
	require.NoError(t, err)

	assert.Contains(t, out, "systemd_dir: /etc/systemd/system")
	assert.Contains(t, out, "projects_dir: /srv/compose")
	assert.Contains(t, out, "backend: systemctl")
	assert.Contains(t, out, "reload_timeout: 30s")
	assert.Contains(t, out, "prune_ordering_only: false")
	assert.Contains(t, out, "auto_render: false")
	assert.NotContains(t, out, "format:")
}

func TestGenerateConfigFull(t *testing.T) {
	answers := WizardAnswers{
		SystemdDir:        "/usr/lib/systemd/system",
		ProjectsDir:       "/opt/stacks",
		Backend:           "dbus",
		ReloadTimeout:     "1m",
		PruneOrderingOnly: true,
		Theme:             "ocean",
		Direction:         "down",
		AutoRender:        true,
		Format:            "png",
	}

	out, err := GenerateConfig(answers)
	require.NoError(t, err)

	assert.Contains(t, out, "prune_ordering_only: true")
	assert.Contains(t, out, "theme: ocean")
	assert.Contains(t, out, "format: png")
}

func TestGenerateConfigReadable(t *testing.T) {
	out, err := GenerateConfig(WizardAnswers{Backend: "auto", ReloadTimeout: "10s", AutoRender: true})
	require.NoError(t, err)

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(out)))

	assert.Equal(t, "auto", v.GetString("backend"))
	assert.Equal(t, 10*time.Second, v.GetDuration("reload_timeout"))
	assert.True(t, v.GetBool("graph.auto_render"))
	assert.Equal(t, "svg", v.GetString("graph.format"))
	assert.Equal(t, "dependencies.d2", v.GetString("graph.output"))
}
