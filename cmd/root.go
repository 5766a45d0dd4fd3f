package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/juju/loggo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/delfianto/compose/internal/config"
)

var logger = loggo.GetLogger("composectl.cmd")

var (
	cfgFile string
	debug   bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "composectl",
	Short: "Manage dependencies between docker-compose@ systemd services",
	Long: `composectl declares startup ordering and activation dependencies between
docker-compose@<project>.service units. Dependencies are written as systemd
drop-ins:

  /etc/systemd/system/docker-compose@<project>.service.d/dependencies.conf

and become effective after systemctl daemon-reload.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command. Cancelling ctx aborts blocking calls into
// systemd.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: composectl.yml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log diagnostics to stderr")
	rootCmd.PersistentFlags().String("systemd-dir", "", "directory holding unit files and drop-ins")
	rootCmd.PersistentFlags().String("backend", "", "systemd access: systemctl, dbus or auto")

	_ = viper.BindPFlag("systemd_dir", rootCmd.PersistentFlags().Lookup("systemd-dir"))
	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(config.FileName)
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/composectl")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "composectl"))
		}
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		setupLogging("")
		return err
	}
	setupLogging(cfg.LogLevel)
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debugf("using config %s", used)
	}
	return nil
}

func setupLogging(level string) {
	if debug {
		level = "DEBUG"
	}
	if level == "" {
		level = "WARNING"
	}

	writer := loggo.NewSimpleWriter(os.Stderr, logFormatter)
	_, _ = loggo.ReplaceDefaultWriter(writer)
	if err := loggo.ConfigureLoggers(fmt.Sprintf("<root>=%s", strings.ToUpper(level))); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", level, err)
	}
}

func logFormatter(entry loggo.Entry) string {
	ts := entry.Timestamp.Format(time.TimeOnly)
	return fmt.Sprintf("%s %s %s %s", ts, entry.Level.Short(), entry.Module, entry.Message)
}
