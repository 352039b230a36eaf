package config

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const appName = "hareef"

// Config holds all application configuration.
type Config struct {
	// LogsRootDirectory is where the trainer writes lightning_logs/.
	LogsRootDirectory string `yaml:"logs_root_directory" toml:"logs_root_directory"`
	LogLevel          string `yaml:"log_level" toml:"log_level"`
	Seed              int64  `yaml:"seed" toml:"seed"`
	Device            string `yaml:"device" toml:"device"`   // "cpu" or "gpu"
	Backend           string `yaml:"backend" toml:"backend"` // "onnx" or "torch"

	// TrainConfig is the trainer's model config, passed to the torch runtime.
	TrainConfig    string `yaml:"train_config" toml:"train_config"`
	ONNXModel      string `yaml:"onnx_model" toml:"onnx_model"`
	ONNXRuntimeLib string `yaml:"onnxruntime_lib" toml:"onnxruntime_lib"`
	Python         string `yaml:"python" toml:"python"`
	MaxLen         int    `yaml:"max_len" toml:"max_len"`

	Model DownloadConfig `yaml:"model" toml:"model"`
	Store StoreConfig    `yaml:"store" toml:"store"`
	Eval  EvalConfig     `yaml:"eval" toml:"eval"`
}

// DownloadConfig describes where `model download` fetches the ONNX model from.
type DownloadConfig struct {
	URL    string `yaml:"url" toml:"url"`
	Digest string `yaml:"digest" toml:"digest"` // hex BLAKE2b-256, optional
}

// StoreConfig holds evaluation history settings.
type StoreConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// EvalConfig holds batch evaluation settings.
type EvalConfig struct {
	Workers int `yaml:"workers" toml:"workers"` // 0 means GOMAXPROCS
}

// DefaultConfigDir returns the default config directory path, honouring
// $XDG_CONFIG_HOME.
func DefaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// DefaultModelsDir returns the directory downloaded models are stored in.
func DefaultModelsDir() string {
	return filepath.Join(dataDir(), "models")
}

// DefaultStorePath returns the default evaluation history database path.
func DefaultStorePath() string {
	return filepath.Join(dataDir(), "history.db")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogsRootDirectory: "logs",
		LogLevel:          "info",
		Seed:              1234,
		Device:            "cpu",
		Backend:           "onnx",
		ONNXModel:         filepath.Join(DefaultModelsDir(), "cbhg.onnx"),
		Python:            "python3",
		MaxLen:            600,
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
	}
}

// Load reads a config file. Files ending in .toml are decoded as TOML,
// anything else as YAML. Missing fields are filled with defaults and a
// leading ~ in path fields is expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ExpandPaths()
	return cfg, nil
}

// ExpandPaths expands a leading ~ in every path field.
func (c *Config) ExpandPaths() {
	c.LogsRootDirectory = expandTilde(c.LogsRootDirectory)
	c.TrainConfig = expandTilde(c.TrainConfig)
	c.ONNXModel = expandTilde(c.ONNXModel)
	c.ONNXRuntimeLib = expandTilde(c.ONNXRuntimeLib)
	c.Store.Path = expandTilde(c.Store.Path)
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Backend {
	case "onnx":
		if c.ONNXModel == "" {
			return fmt.Errorf("onnx_model must not be empty when backend is onnx")
		}
	case "torch":
		if c.Python == "" {
			return fmt.Errorf("python must not be empty when backend is torch")
		}
		if c.TrainConfig == "" {
			return fmt.Errorf("train_config must not be empty when backend is torch")
		}
	default:
		return fmt.Errorf("backend must be \"onnx\" or \"torch\", got %q", c.Backend)
	}

	switch c.Device {
	case "cpu", "gpu":
	default:
		return fmt.Errorf("device must be \"cpu\" or \"gpu\", got %q", c.Device)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	if c.MaxLen <= 0 {
		return fmt.Errorf("max_len must be > 0")
	}

	if c.Eval.Workers < 0 {
		return fmt.Errorf("eval.workers must be >= 0")
	}

	if c.Model.Digest != "" {
		if len(c.Model.Digest) != 64 {
			return fmt.Errorf("model.digest must be 64 hex characters, got %d", len(c.Model.Digest))
		}
		if _, err := hex.DecodeString(c.Model.Digest); err != nil {
			return fmt.Errorf("model.digest is not valid hex: %w", err)
		}
	}

	return nil
}

// ParseLogLevel maps a config log level to a slog.Level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultHeader = `# hareef configuration
#
# backend: onnx runs the exported model in-process, torch shells out to
# the Python runtime with the last checkpoint under logs_root_directory.
# Every key can be overridden with a HAREEF_ environment variable,
# e.g. HAREEF_DEVICE=gpu.

`

// WriteDefault writes the default config to DefaultConfigPath. It returns
// the written path, or "" with a nil error if a config file already exists.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("checking config file: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
