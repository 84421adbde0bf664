// Package config loads moodbi settings from ~/.moodbi.yaml, MOODBI_*
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	configName = ".moodbi"
	configType = "yaml"
	envPrefix  = "MOODBI"

	KeyAPIBase = "api_base"
	KeyAuthor  = "author"
	KeyLogFile = "log_file"
	KeyVerbose = "verbose"

	DefaultAPIBase = "http://localhost:8080/api"
	DefaultLogFile = "~/.moodbi/moodbi.log"
)

// Config is the effective configuration.
type Config struct {
	APIBase string `mapstructure:"api_base" yaml:"api_base" json:"api_base"`
	Author  string `mapstructure:"author" yaml:"author" json:"author"`
	LogFile string `mapstructure:"log_file" yaml:"log_file" json:"log_file"`
	Verbose bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-" json:"-"`
}

// New returns a viper instance with defaults, search paths and env binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAPIBase, DefaultAPIBase)
	v.SetDefault(KeyAuthor, "")
	v.SetDefault(KeyLogFile, DefaultLogFile)
	v.SetDefault(KeyVerbose, false)

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if override := os.Getenv(envPrefix + "_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	return v
}

// Load reads the config file if one exists and returns the merged settings.
// A missing file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.APIBase = strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	cfg.Author = strings.TrimSpace(cfg.Author)

	logFile, err := ExpandPath(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	cfg.LogFile = logFile
	return &cfg, nil
}

// ExpandPath resolves a leading "~". "-" and "" pass through unchanged.
func ExpandPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || p == "-" {
		return p, nil
	}
	out, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", p, err)
	}
	return out, nil
}

// DefaultPath is where Write puts a new config file.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configName+"."+configType), nil
}

// Write saves cfg to path as YAML, creating parent directories.
func Write(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigType(configType)
	v.Set(KeyAPIBase, cfg.APIBase)
	v.Set(KeyAuthor, cfg.Author)
	v.Set(KeyLogFile, cfg.LogFile)
	v.Set(KeyVerbose, cfg.Verbose)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
