// Package config loads flowguard settings from an optional YAML file,
// FLOWGUARD_* environment variables and command-line flags, in that order
// of increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"flowguard/internal/model"
)

// DefaultPath is the config file read when FLOWGUARD_CONFIG is unset.
const DefaultPath = "flowguard.yaml"

type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Log     LogConfig     `yaml:"log"`
	Capture CaptureConfig `yaml:"capture"`
}

type ModelConfig struct {
	Path              string `yaml:"path"`
	Format            string `yaml:"format"`
	ManifestPath      string `yaml:"manifest_path"`
	SharedLibraryPath string `yaml:"onnx_library_path"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// CaptureConfig points at an optional pcap whose busiest flow seeds the
// input fields.
type CaptureConfig struct {
	PcapPath string `yaml:"pcap"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Path:   model.DefaultPath,
			Format: model.FormatAuto,
		},
		Log: LogConfig{
			Level:      "info",
			File:       "flowguard.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// ModelOptions converts the model section for the loader.
func (c Config) ModelOptions() model.Options {
	return model.Options{
		Path:              c.Model.Path,
		Format:            c.Model.Format,
		ManifestPath:      c.Model.ManifestPath,
		SharedLibraryPath: c.Model.SharedLibraryPath,
	}
}

// Load builds the configuration from the file at path (a missing file is
// not an error), then the environment, then args. It reports whether a
// file was read.
func Load(path string, args []string) (Config, bool, error) {
	cfg := Default()

	fromFile, err := loadFile(&cfg, path)
	if err != nil {
		return cfg, false, err
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, fromFile, err
	}

	if err := applyFlags(&cfg, args); err != nil {
		return cfg, fromFile, err
	}
	return cfg, fromFile, nil
}

// Path returns the config file location, honouring FLOWGUARD_CONFIG.
func Path() string {
	if p := os.Getenv("FLOWGUARD_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

func loadFile(cfg *Config, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return false, fmt.Errorf("parse config %s: %w", path, err)
	}
	return true, nil
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.Model.Path, "FLOWGUARD_MODEL_PATH")
	envOverride(&cfg.Model.Format, "FLOWGUARD_MODEL_FORMAT")
	envOverride(&cfg.Model.ManifestPath, "FLOWGUARD_MODEL_MANIFEST")
	envOverride(&cfg.Model.SharedLibraryPath, "FLOWGUARD_ONNX_LIBRARY")
	envOverride(&cfg.Log.Level, "FLOWGUARD_LOG_LEVEL")
	envOverride(&cfg.Log.File, "FLOWGUARD_LOG_FILE")
	envOverride(&cfg.Capture.PcapPath, "FLOWGUARD_PCAP")
	if err := envOverrideInt(&cfg.Log.MaxSizeMB, "FLOWGUARD_LOG_MAX_SIZE_MB"); err != nil {
		return err
	}
	if err := envOverrideInt(&cfg.Log.MaxBackups, "FLOWGUARD_LOG_MAX_BACKUPS"); err != nil {
		return err
	}
	return envOverrideInt(&cfg.Log.MaxAgeDays, "FLOWGUARD_LOG_MAX_AGE_DAYS")
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func applyFlags(cfg *Config, args []string) error {
	flags := flag.NewFlagSet("flowguard", flag.ContinueOnError)
	flags.StringVar(&cfg.Model.Path, "model", cfg.Model.Path, "Path to the pipeline artifact (.json or .onnx)")
	flags.StringVar(&cfg.Model.Format, "format", cfg.Model.Format, "Artifact format: auto, native or onnx")
	flags.StringVar(&cfg.Model.ManifestPath, "manifest", cfg.Model.ManifestPath, "ONNX manifest path (default: <model>.manifest.json)")
	flags.StringVar(&cfg.Model.SharedLibraryPath, "onnx-lib", cfg.Model.SharedLibraryPath, "Path to the ONNX Runtime shared library")
	flags.StringVar(&cfg.Capture.PcapPath, "pcap", cfg.Capture.PcapPath, "Seed the inputs from the busiest flow in this pcap file")
	flags.StringVar(&cfg.Log.File, "log-file", cfg.Log.File, "Log file")
	flags.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level: debug, info, warn or error")
	return flags.Parse(args)
}
