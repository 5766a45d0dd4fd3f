package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/delfianto/compose/internal/render"
)

// Defaults returns the answers pre-filled from detection.
func Defaults(detection DetectionResult) *WizardAnswers {
	answers := &WizardAnswers{
		SystemdDir:    "/etc/systemd/system",
		ProjectsDir:   "/srv/compose",
		Backend:       "systemctl",
		ReloadTimeout: "30s",
		Theme:         "default",
		Direction:     "right",
		Format:        "svg",
	}
	if detection.SystemdDir != "" {
		answers.SystemdDir = detection.SystemdDir
	}
	if detection.ProjectsDir != "" {
		answers.ProjectsDir = detection.ProjectsDir
	}
	if !detection.SystemctlAvailable && detection.SystemdRunning {
		answers.Backend = "dbus"
	}
	return answers
}

// Run executes the interactive wizard and returns the user's answers.
func Run(detection DetectionResult) (*WizardAnswers, error) {
	answers := Defaults(detection)

	var hints []string
	if detection.SystemdRunning {
		hints = append(hints, "systemd is running")
	} else {
		hints = append(hints, "systemd does not appear to be running")
	}
	if detection.SystemdDir != "" {
		hints = append(hints, fmt.Sprintf("compose template found in %s", detection.SystemdDir))
	}
	if detection.ProjectsDir != "" {
		hints = append(hints, fmt.Sprintf("compose projects found in %s", detection.ProjectsDir))
	}

	desc := "Where do unit files and compose projects live?"
	if len(hints) > 0 {
		desc += "\n\nAuto-detected:\n  " + strings.Join(hints, "\n  ")
	}

	themeOptions := make([]huh.Option[string], 0, len(render.ThemeNames()))
	for _, name := range render.ThemeNames() {
		themeOptions = append(themeOptions, huh.NewOption(name, name))
	}

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewInput().
				Title("systemd unit directory").
				Description(desc).
				Value(&answers.SystemdDir),
			huh.NewInput().
				Title("Compose projects directory").
				Description("A service named genai-ollama resolves to <dir>/genai/ollama or <dir>/genai-ollama").
				Value(&answers.ProjectsDir),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How should composectl talk to systemd?").
				Options(
					huh.NewOption("systemctl command", "systemctl"),
					huh.NewOption("D-Bus API", "dbus"),
					huh.NewOption("Auto (D-Bus when systemd is running)", "auto"),
				).
				Value(&answers.Backend),
			huh.NewInput().
				Title("Reload timeout").
				Description("Maximum time to wait for systemctl daemon-reload").
				Validate(validateDuration).
				Value(&answers.ReloadTimeout),
			huh.NewConfirm().
				Title("Delete a drop-in when only After= entries remain?").
				Description("By default ordering-only entries are kept").
				Value(&answers.PruneOrderingOnly),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Diagram theme").
				Options(themeOptions...).
				Value(&answers.Theme),
			huh.NewSelect[string]().
				Title("Diagram direction").
				Options(
					huh.NewOption("Right (horizontal)", "right"),
					huh.NewOption("Down (vertical)", "down"),
				).
				Value(&answers.Direction),
		),
	}

	if detection.D2Available {
		groups = append(groups, huh.NewGroup(
			huh.NewConfirm().
				Title("Render diagrams with d2 automatically?").
				Value(&answers.AutoRender),
			huh.NewSelect[string]().
				Title("Rendered format").
				Options(
					huh.NewOption("SVG", "svg"),
					huh.NewOption("PNG", "png"),
				).
				Value(&answers.Format),
		))
	}

	form := huh.NewForm(groups...)
	if err := form.Run(); err != nil {
		return nil, err
	}

	return answers, nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a duration, try 30s or 1m")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}
