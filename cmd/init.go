package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/delfianto/compose/internal/config"
	"github.com/delfianto/compose/internal/model"
	"github.com/delfianto/compose/internal/ui"
	"github.com/delfianto/compose/internal/wizard"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a composectl.yml config file interactively",
	Long: `Detect systemd, the docker-compose@.service template and the compose
projects directory, then generate a config file through an interactive wizard.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	// init must work before any valid configuration exists.
	initCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		setupLogging("")
		return nil
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := config.FileName + ".yml"

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("%s already exists.\n", configPath)
		fmt.Print("Overwrite? [y/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println(ui.Bold("Scanning environment..."))
	detection := wizard.Detect(nil, model.DefaultNamer.Template())

	answers, err := wizard.Run(detection)
	if err != nil {
		return fmt.Errorf("wizard: %w", err)
	}

	content, err := wizard.GenerateConfig(*answers)
	if err != nil {
		return fmt.Errorf("generating config: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	ui.Success(fmt.Sprintf("Created %s", configPath))
	fmt.Println()
	fmt.Printf("Next step: %s\n", ui.Bold("sudo composectl deps add <service> <dependency>"))
	fmt.Printf("           %s\n", ui.Hint("or move it to /etc/composectl/composectl.yml for system-wide use"))

	return nil
}
