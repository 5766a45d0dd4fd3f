package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/delfianto/compose/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every dependency drop-in for problems",
	Long: `Check that the compose template is installed, that every Requires= and
Wants= entry has a matching After=, that targets are docker-compose@
services, that no dependency cycle exists and that every service maps to a
compose project under projects_dir.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	m, s, err := newManager()
	if err != nil {
		return err
	}

	fmt.Println(ui.Bold(fmt.Sprintf("Validating drop-ins in %s...", cfg.SystemdDir)))

	findings, err := m.Validate(cmd.Context())
	if err != nil {
		return err
	}

	services, err := s.Services()
	if err != nil {
		return err
	}

	failed := make(map[string]bool)
	for _, f := range findings {
		failed[f.Service.String()] = true
		field := f.Field
		if f.Service != "" {
			field = f.Service.String() + " " + f.Field
		}
		ui.ValidationErr(field, f.Message, f.Suggestion)
	}

	passed := 0
	for _, svc := range services {
		if !failed[svc.String()] {
			ui.ValidationOK(svc.String(), "dependencies valid")
			passed++
		}
	}

	fmt.Println()
	if len(findings) == 0 {
		ui.Success(fmt.Sprintf("%d checks passed, 0 errors", passed))
		return nil
	}
	fmt.Printf("%d checks passed, %d errors\n", passed, len(findings))
	return fmt.Errorf("%d validation errors", len(findings))
}
