package config

import (
	"time"

	"github.com/juju/errors"
	"github.com/spf13/viper"

	"github.com/delfianto/compose/internal/initsys"
	"github.com/delfianto/compose/internal/model"
	"github.com/delfianto/compose/internal/project"
	"github.com/delfianto/compose/internal/store"
)

// FileName is the base name of the configuration file, without extension.
const FileName = "composectl"

// EnvPrefix prefixes environment overrides, e.g. COMPOSECTL_SYSTEMD_DIR.
const EnvPrefix = "COMPOSECTL"

type Config struct {
	SystemdDir        string        `mapstructure:"systemd_dir"`
	DropInName        string        `mapstructure:"dropin_name"`
	UnitPrefix        string        `mapstructure:"unit_prefix"`
	UnitSuffix        string        `mapstructure:"unit_suffix"`
	ProjectsDir       string        `mapstructure:"projects_dir"`
	Backend           string        `mapstructure:"backend"`
	ReloadTimeout     time.Duration `mapstructure:"reload_timeout"`
	PruneOrderingOnly bool          `mapstructure:"prune_ordering_only"`
	LogLevel          string        `mapstructure:"log_level"`
	Graph             GraphConfig   `mapstructure:"graph"`
}

type GraphConfig struct {
	Output     string `mapstructure:"output"`
	Theme      string `mapstructure:"theme"`
	Direction  string `mapstructure:"direction"`
	Layout     string `mapstructure:"layout"`
	AutoRender bool   `mapstructure:"auto_render"`
	Format     string `mapstructure:"format"` // svg, png
}

// Default returns the configuration used when no file or override is set.
func Default() *Config {
	return &Config{
		SystemdDir:    store.DefaultDir,
		DropInName:    store.DefaultDropInName,
		UnitPrefix:    model.DefaultUnitPrefix,
		UnitSuffix:    model.DefaultUnitSuffix,
		ProjectsDir:   project.DefaultBaseDir,
		Backend:       initsys.BackendSystemctl,
		ReloadTimeout: 30 * time.Second,
		LogLevel:      "WARNING",
		Graph: GraphConfig{
			Output:    "dependencies.d2",
			Theme:     "default",
			Direction: "right",
			Layout:    "dagre",
			Format:    "svg",
		},
	}
}

// Load decodes the global viper state over the defaults.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom decodes v over the defaults and validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := Default()
	setDefaults(v, cfg)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Annotate(err, "decoding configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so that environment overrides are seen
// by Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("systemd_dir", d.SystemdDir)
	v.SetDefault("dropin_name", d.DropInName)
	v.SetDefault("unit_prefix", d.UnitPrefix)
	v.SetDefault("unit_suffix", d.UnitSuffix)
	v.SetDefault("projects_dir", d.ProjectsDir)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("reload_timeout", d.ReloadTimeout)
	v.SetDefault("prune_ordering_only", d.PruneOrderingOnly)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("graph.output", d.Graph.Output)
	v.SetDefault("graph.theme", d.Graph.Theme)
	v.SetDefault("graph.direction", d.Graph.Direction)
	v.SetDefault("graph.layout", d.Graph.Layout)
	v.SetDefault("graph.auto_render", d.Graph.AutoRender)
	v.SetDefault("graph.format", d.Graph.Format)
}

// Validate rejects values no command can work with.
func (c *Config) Validate() error {
	switch c.Backend {
	case initsys.BackendSystemctl, initsys.BackendDBus, initsys.BackendAuto:
	default:
		return errors.NotValidf("backend %q (want systemctl, dbus or auto)", c.Backend)
	}
	if c.SystemdDir == "" {
		return errors.NotValidf("empty systemd_dir")
	}
	if c.UnitSuffix == "" {
		return errors.NotValidf("empty unit_suffix")
	}
	if c.ReloadTimeout < 0 {
		return errors.NotValidf("negative reload_timeout %s", c.ReloadTimeout)
	}
	switch c.Graph.Direction {
	case "", "right", "left", "up", "down":
	default:
		return errors.NotValidf("graph direction %q", c.Graph.Direction)
	}
	switch c.Graph.Format {
	case "", "svg", "png", "pdf":
	default:
		return errors.NotValidf("graph format %q", c.Graph.Format)
	}
	return nil
}

// Namer returns the unit naming convention configured.
func (c *Config) Namer() model.UnitNamer {
	return model.UnitNamer{Prefix: c.UnitPrefix, Suffix: c.UnitSuffix}
}
