// Package config handles configuration loading and management for bioconvert.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for bioconvert.
type Config struct {
	Defaults DefaultsConfig    `mapstructure:"defaults"`
	Scratch  ScratchConfig     `mapstructure:"scratch"`
	Install  InstallConfig     `mapstructure:"install"`
	History  HistoryConfig     `mapstructure:"history"`
	Batch    BatchConfig       `mapstructure:"batch"`
	Log      LogConfig         `mapstructure:"log"`
	Methods  map[string]string `mapstructure:"methods"`
}

// DefaultsConfig holds defaults applied to every conversion.
type DefaultsConfig struct {
	Threads int  `mapstructure:"threads"`
	Force   bool `mapstructure:"force"`
}

// ScratchConfig holds where transient files are created.
type ScratchConfig struct {
	Dir string `mapstructure:"dir"`
}

// InstallConfig controls on-demand installation of missing tools.
type InstallConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// BatchConfig holds batch driver settings.
type BatchConfig struct {
	Jobs int `mapstructure:"jobs"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// EnvPrefix prefixes every environment override: BIOCONVERT_DEFAULTS_THREADS
// sets defaults.threads.
const EnvPrefix = "BIOCONVERT"

// ProjectConfigName is the project override file searched from the working
// directory upwards.
const ProjectConfigName = ".bioconvert.yaml"

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (BIOCONVERT_*)
// 2. Project config (.bioconvert.yaml in current directory or parent)
// 3. User config (~/.config/bioconvert/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	bindEnv(v)
	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	bindEnv(v)
	return unmarshal(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Scratch.Dir = expandPath(cfg.Scratch.Dir)
	cfg.History.Path = expandPath(cfg.History.Path)
	if cfg.Methods == nil {
		cfg.Methods = map[string]string{}
	}
	return cfg, nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	v := viper.New()
	for key, value := range Settings(cfg) {
		v.Set(key, value)
	}
	return writeUserConfig(v)
}

// Set stores a single key in the user config file, keeping everything else
// already there. The value is coerced to the key's type.
func Set(key, value string) error {
	typed, err := ParseValue(key, value)
	if err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(GetUserConfigPath())
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading user config: %w", err)
	}
	v.Set(key, typed)
	return writeUserConfig(v)
}

func writeUserConfig(v *viper.Viper) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return v.WriteConfigAs(GetUserConfigPath())
}

// Settings returns every key of cfg with its value, methods.<conversion>
// included.
func Settings(cfg *Config) map[string]any {
	out := map[string]any{
		KeyThreads:        cfg.Defaults.Threads,
		KeyForce:          cfg.Defaults.Force,
		KeyScratchDir:     cfg.Scratch.Dir,
		KeyInstallEnabled: cfg.Install.Enabled,
		KeyHistoryEnabled: cfg.History.Enabled,
		KeyHistoryPath:    cfg.History.Path,
		KeyBatchJobs:      cfg.Batch.Jobs,
		KeyLogVerbose:     cfg.Log.Verbose,
	}
	for conversion, method := range cfg.Methods {
		out[MethodsPrefix+conversion] = method
	}
	return out
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// MethodFor returns the configured default method for a conversion, or ""
// to use the conversion's own default.
func (c *Config) MethodFor(conversion string) string {
	return c.Methods[strings.ToLower(conversion)]
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyThreads, 1)
	v.SetDefault(KeyForce, false)
	v.SetDefault(KeyScratchDir, "")
	v.SetDefault(KeyInstallEnabled, false)
	v.SetDefault(KeyHistoryEnabled, true)
	v.SetDefault(KeyHistoryPath, "")
	v.SetDefault(KeyBatchJobs, 4)
	v.SetDefault(KeyLogVerbose, false)
}

// getUserConfigDir returns the XDG config directory for bioconvert.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "bioconvert")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "bioconvert")
	}
	return filepath.Join(home, ".config", "bioconvert")
}

// findProjectConfig searches for .bioconvert.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandPath expands ${VAR} references and a leading ~/.
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{Threads: 1},
		History:  HistoryConfig{Enabled: true},
		Batch:    BatchConfig{Jobs: 4},
		Methods:  map[string]string{},
	}
}
