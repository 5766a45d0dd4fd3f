package wizard

import (
	"bytes"
	"text/template"
)

// WizardAnswers holds all user responses from the wizard.
type WizardAnswers struct {
	// Paths
	SystemdDir  string
	ProjectsDir string

	// Service manager
	Backend           string
	ReloadTimeout     string
	PruneOrderingOnly bool

	// Graph settings
	Theme      string
	Direction  string
	AutoRender bool
	Format     string
}

const configTemplate = `# composectl configuration

systemd_dir: {{ .SystemdDir }}
projects_dir: {{ .ProjectsDir }}

backend: {{ .Backend }}
reload_timeout: {{ .ReloadTimeout }}
prune_ordering_only: {{ if .PruneOrderingOnly }}true{{ else }}false{{ end }}

graph:
  output: dependencies.d2
  theme: {{ .Theme }}
  direction: {{ .Direction }}
  auto_render: {{ if .AutoRender }}true{{ else }}false{{ end }}
{{- if .AutoRender }}
  format: {{ .Format }}
{{- end }}
`

// GenerateConfig renders the YAML config from wizard answers.
func GenerateConfig(answers WizardAnswers) (string, error) {
	if answers.SystemdDir == "" {
		answers.SystemdDir = "/etc/systemd/system"
	}
	if answers.ProjectsDir == "" {
		answers.ProjectsDir = "/srv/compose"
	}
	if answers.Backend == "" {
		answers.Backend = "systemctl"
	}
	if answers.ReloadTimeout == "" {
		answers.ReloadTimeout = "30s"
	}
	if answers.Theme == "" {
		answers.Theme = "default"
	}
	if answers.Direction == "" {
		answers.Direction = "right"
	}
	if answers.Format == "" {
		answers.Format = "svg"
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, answers); err != nil {
		return "", err
	}

	return buf.String(), nil
}
