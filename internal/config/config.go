// Package config loads gitk-review settings from flags, the environment and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix    = "GITK_REVIEW"
	LocalFile    = ".gitk-review.yaml"
	appDirName   = "gitk-review"
	userFileName = "config"
)

type Config struct {
	Repo          string        `mapstructure:"repo"`
	Backend       string        `mapstructure:"backend"` // "cli" or "native"
	ContextLines  int           `mapstructure:"context_lines"`
	PairedLines   bool          `mapstructure:"paired_lines"`
	Theme         string        `mapstructure:"theme"` // "auto", "light" or "dark"
	Syntax        bool          `mapstructure:"syntax"`
	Color         string        `mapstructure:"color"` // "auto", "always" or "never"
	Verbose       bool          `mapstructure:"verbose"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
}

func Defaults() Config {
	return Config{
		Repo:          ".",
		Backend:       "cli",
		ContextLines:  3,
		PairedLines:   true,
		Theme:         "auto",
		Syntax:        true,
		Color:         "auto",
		WatchDebounce: 350 * time.Millisecond,
	}
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("repo", d.Repo)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("context_lines", d.ContextLines)
	v.SetDefault("paired_lines", d.PairedLines)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("syntax", d.Syntax)
	v.SetDefault("color", d.Color)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("watch_debounce", d.WatchDebounce)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file and decodes the settings. An explicit file
// must exist. Otherwise LocalFile in dir is used, then
// $XDG_CONFIG_HOME/gitk-review/config.yaml; a missing file is not an error.
func Load(v *viper.Viper, file, dir string) (Config, error) {
	switch {
	case file != "":
		v.SetConfigFile(file)
	case fileExists(filepath.Join(dir, LocalFile)):
		v.SetConfigFile(filepath.Join(dir, LocalFile))
	default:
		if userDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(userDir, appDirName))
		}
		v.SetConfigName(userFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case "cli", "native":
	default:
		errs = append(errs, fmt.Errorf("backend %q: want cli or native", c.Backend))
	}
	switch c.Theme {
	case "auto", "light", "dark":
	default:
		errs = append(errs, fmt.Errorf("theme %q: want auto, light or dark", c.Theme))
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("color %q: want auto, always or never", c.Color))
	}
	if c.WatchDebounce < 0 {
		errs = append(errs, fmt.Errorf("watch_debounce %s: must not be negative", c.WatchDebounce))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
