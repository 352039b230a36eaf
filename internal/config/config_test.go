package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LogsRootDirectory != "logs" {
		t.Errorf("LogsRootDirectory = %q, want %q", cfg.LogsRootDirectory, "logs")
	}
	if cfg.Backend != "onnx" {
		t.Errorf("Backend = %q, want %q", cfg.Backend, "onnx")
	}
	if cfg.Device != "cpu" {
		t.Errorf("Device = %q, want %q", cfg.Device, "cpu")
	}
	if cfg.Seed != 1234 {
		t.Errorf("Seed = %d, want 1234", cfg.Seed)
	}
	if cfg.MaxLen != 600 {
		t.Errorf("MaxLen = %d, want 600", cfg.MaxLen)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.ONNXModel == "" {
		t.Error("ONNXModel should not be empty")
	}
	if cfg.Store.Path == "" {
		t.Error("Store.Path should not be empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
logs_root_directory: /data/runs
log_level: debug
seed: 42
device: gpu
backend: torch
train_config: /data/cbhg.yml
python: /usr/bin/python3.11
max_len: 300
model:
  url: https://example.com/cbhg.onnx
store:
  path: /tmp/history.db
eval:
  workers: 3
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogsRootDirectory != "/data/runs" {
		t.Errorf("LogsRootDirectory = %q, want %q", cfg.LogsRootDirectory, "/data/runs")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}
	if cfg.Device != "gpu" || cfg.Backend != "torch" {
		t.Errorf("Device/Backend = %q/%q, want gpu/torch", cfg.Device, cfg.Backend)
	}
	if cfg.TrainConfig != "/data/cbhg.yml" {
		t.Errorf("TrainConfig = %q, want %q", cfg.TrainConfig, "/data/cbhg.yml")
	}
	if cfg.Python != "/usr/bin/python3.11" {
		t.Errorf("Python = %q", cfg.Python)
	}
	if cfg.MaxLen != 300 {
		t.Errorf("MaxLen = %d, want 300", cfg.MaxLen)
	}
	if cfg.Model.URL != "https://example.com/cbhg.onnx" {
		t.Errorf("Model.URL = %q", cfg.Model.URL)
	}
	if cfg.Store.Path != "/tmp/history.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Eval.Workers != 3 {
		t.Errorf("Eval.Workers = %d, want 3", cfg.Eval.Workers)
	}
	// Fields absent from the file keep their defaults.
	if cfg.ONNXModel != Default().ONNXModel {
		t.Errorf("ONNXModel = %q, want default %q", cfg.ONNXModel, Default().ONNXModel)
	}
}

func TestLoadTOML(t *testing.T) {
	tomlContent := `
logs_root_directory = "/data/runs"
backend = "onnx"
onnx_model = "/opt/models/cbhg.onnx"
max_len = 128

[model]
digest = "` + strings.Repeat("ab", 32) + `"
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ONNXModel != "/opt/models/cbhg.onnx" {
		t.Errorf("ONNXModel = %q", cfg.ONNXModel)
	}
	if cfg.MaxLen != 128 {
		t.Errorf("MaxLen = %d, want 128", cfg.MaxLen)
	}
	if cfg.Model.Digest != strings.Repeat("ab", 32) {
		t.Errorf("Model.Digest = %q", cfg.Model.Digest)
	}
	if cfg.Seed != 1234 {
		t.Errorf("Seed = %d, want default 1234", cfg.Seed)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	yamlContent := `
logs_root_directory: ~/runs
onnx_model: ~/models/cbhg.onnx
store:
  path: ~/history.db
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := filepath.Join(home, "runs"); cfg.LogsRootDirectory != want {
		t.Errorf("LogsRootDirectory = %q, want %q", cfg.LogsRootDirectory, want)
	}
	if want := filepath.Join(home, "models/cbhg.onnx"); cfg.ONNXModel != want {
		t.Errorf("ONNXModel = %q, want %q", cfg.ONNXModel, want)
	}
	if want := filepath.Join(home, "history.db"); cfg.Store.Path != want {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, want)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoadMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	for name, content := range map[string]string{
		"bad.yaml": "seed: [not, an, int]\n",
		"bad.toml": "seed = \"x\"\n",
	} {
		path := filepath.Join(tmpDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%s) should fail", name)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid backend",
			modify:  func(c *Config) { c.Backend = "tensorflow" },
			wantErr: true,
		},
		{
			name:    "onnx backend without model",
			modify:  func(c *Config) { c.ONNXModel = "" },
			wantErr: true,
		},
		{
			name:    "torch backend without train config",
			modify:  func(c *Config) { c.Backend = "torch" },
			wantErr: true,
		},
		{
			name: "torch backend without python",
			modify: func(c *Config) {
				c.Backend = "torch"
				c.TrainConfig = "cbhg.yml"
				c.Python = ""
			},
			wantErr: true,
		},
		{
			name: "torch backend",
			modify: func(c *Config) {
				c.Backend = "torch"
				c.TrainConfig = "cbhg.yml"
			},
			wantErr: false,
		},
		{
			name:    "invalid device",
			modify:  func(c *Config) { c.Device = "tpu" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "invalid" },
			wantErr: true,
		},
		{
			name:    "zero max len",
			modify:  func(c *Config) { c.MaxLen = 0 },
			wantErr: true,
		},
		{
			name:    "negative workers",
			modify:  func(c *Config) { c.Eval.Workers = -1 },
			wantErr: true,
		},
		{
			name:    "short digest",
			modify:  func(c *Config) { c.Model.Digest = "abcd" },
			wantErr: true,
		},
		{
			name:    "non-hex digest",
			modify:  func(c *Config) { c.Model.Digest = strings.Repeat("zz", 32) },
			wantErr: true,
		},
		{
			name:    "valid digest",
			modify:  func(c *Config) { c.Model.Digest = strings.Repeat("0f", 32) },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultPathsHonourXDG(t *testing.T) {
	cfgHome := t.TempDir()
	dataHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	t.Setenv("XDG_DATA_HOME", dataHome)

	if got, want := DefaultConfigPath(), filepath.Join(cfgHome, "hareef", "config.yaml"); got != want {
		t.Errorf("DefaultConfigPath() = %q, want %q", got, want)
	}
	if got, want := DefaultModelsDir(), filepath.Join(dataHome, "hareef", "models"); got != want {
		t.Errorf("DefaultModelsDir() = %q, want %q", got, want)
	}
	if got, want := DefaultStorePath(), filepath.Join(dataHome, "hareef", "history.db"); got != want {
		t.Errorf("DefaultStorePath() = %q, want %q", got, want)
	}
}

func TestWriteDefault_CreatesFile(t *testing.T) {
	// Use a temp dir as fake home to avoid touching real config
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	expectedPath := filepath.Join(tmpHome, ".config", "hareef", "config.yaml")
	if path != expectedPath {
		t.Errorf("WriteDefault() path = %q, want %q", path, expectedPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}

	if !strings.HasPrefix(string(data), "# hareef") {
		t.Error("written config should start with header comment")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Backend != "onnx" {
		t.Errorf("written config Backend = %q, want %q", cfg.Backend, "onnx")
	}
	if cfg.MaxLen != 600 {
		t.Errorf("written config MaxLen = %d, want 600", cfg.MaxLen)
	}
	if want := filepath.Join(tmpHome, ".local", "share", "hareef", "history.db"); cfg.Store.Path != want {
		t.Errorf("written config Store.Path = %q, want %q", cfg.Store.Path, want)
	}
}

func TestWriteDefault_NoOpIfExists(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("XDG_CONFIG_HOME", "")

	configDir := filepath.Join(tmpHome, ".config", "hareef")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	existingContent := []byte("backend: torch\n")
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, existingContent, 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	// WriteDefault should return ("", nil) without overwriting
	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if path != "" {
		t.Errorf("WriteDefault() path = %q, want empty string for existing file", path)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if string(data) != string(existingContent) {
		t.Error("WriteDefault() should not overwrite existing config file")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
