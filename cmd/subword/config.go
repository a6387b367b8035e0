package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the subword configuration file
// (~/.config/subword/config.yaml). Numeric fields are pointers so an unset
// key is distinguishable from zero.
type Config struct {
	// Model is the default model prefix for encode, decode, inspect and serve.
	Model string `yaml:"model"`

	// Training defaults
	Merges        *int64 `yaml:"merges"`
	MinFrequency  *int64 `yaml:"min_frequency"`
	ProgressEvery *int64 `yaml:"progress_every"`

	CacheSize *int64 `yaml:"cache_size"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "subword", "config.yaml")
}

// LoadConfig reads the config file at path. A missing file yields a zero
// Config unless the path was given explicitly.
func LoadConfig(path string, explicit bool) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// applyLogConfig applies config file defaults to the global logging flags
// when they were not set on the command line.
func applyLogConfig(c *cli.Command, cfg Config, level, format *string) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		*level = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		*format = cfg.LogFormat
	}
}

// applyTrainConfig applies config file defaults to train command variables.
func applyTrainConfig(c *cli.Command, cfg Config, merges, minFreq, progressEvery *int64) {
	if cfg.Merges != nil && !c.IsSet("merges") {
		*merges = *cfg.Merges
	}
	if cfg.MinFrequency != nil && !c.IsSet("min-frequency") {
		*minFreq = *cfg.MinFrequency
	}
	if cfg.ProgressEvery != nil && !c.IsSet("progress-every") {
		*progressEvery = *cfg.ProgressEvery
	}
}

// applyModelConfig applies config file defaults shared by commands that load
// a model.
func applyModelConfig(c *cli.Command, cfg Config, cacheSize *int64) {
	if cfg.CacheSize != nil && !c.IsSet("cache-size") {
		*cacheSize = *cfg.CacheSize
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
