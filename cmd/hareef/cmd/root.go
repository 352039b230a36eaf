// Package cmd contains all CLI commands for hareef.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chaz8081/hareef/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hareef",
	Short: "Arabic diacritization toolkit",
	Long: `hareef restores diacritics (tashkeel) in Arabic text with a trained
CBHG model and measures diacritization quality.

The model runs either in-process through ONNX Runtime (backend onnx) or
through the Python runtime from the newest trainer checkpoint (backend
torch).

Running 'hareef --text "..."' is the same as 'hareef diacritize --text "..."'.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("text") {
			return cmd.Help()
		}
		return runDiacritize(cmd, args)
	},
}

// Execute adds all child commands to the root command and runs it until
// it returns or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// viperKeys maps config keys to the persistent flags that override them.
var viperKeys = map[string]string{
	"log_level":           "log-level",
	"device":              "device",
	"seed":                "seed",
	"backend":             "backend",
	"logs_root_directory": "logs-root",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file, YAML or TOML (default is "+config.DefaultConfigPath()+")")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("device", "", "inference device: cpu or gpu")
	pf.Int64("seed", 0, "random seed forwarded to the model runtime")
	pf.String("backend", "", "model backend: onnx or torch")
	pf.String("logs-root", "", "trainer logs root directory")

	for key, flag := range viperKeys {
		if err := viper.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("HAREEF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	addDiacritizeFlags(rootCmd)
}

// setup loads the config, applies flag and environment overrides, and
// installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, source, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	applyOverrides(loaded)
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	cfg = loaded

	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))
	slog.Debug("config loaded", "source", source, "backend", cfg.Backend, "device", cfg.Device)
	return nil
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		c, err := config.Load(path)
		return c, path, err
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		c, err := config.Load(defaultPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return c, defaultPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("checking %s: %w", defaultPath, err)
	}

	return config.Default(), "defaults", nil
}

// applyOverrides copies values set by flags or HAREEF_* variables into c.
func applyOverrides(c *config.Config) {
	strs := map[string]*string{
		"log_level":           &c.LogLevel,
		"device":              &c.Device,
		"backend":             &c.Backend,
		"logs_root_directory": &c.LogsRootDirectory,
		"train_config":        &c.TrainConfig,
		"onnx_model":          &c.ONNXModel,
		"onnxruntime_lib":     &c.ONNXRuntimeLib,
		"python":              &c.Python,
		"model.url":           &c.Model.URL,
		"model.digest":        &c.Model.Digest,
		"store.path":          &c.Store.Path,
	}
	for key, dst := range strs {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	if viper.IsSet("seed") {
		c.Seed = viper.GetInt64("seed")
	}
	if viper.IsSet("max_len") {
		c.MaxLen = viper.GetInt("max_len")
	}
	if viper.IsSet("eval.workers") {
		c.Eval.Workers = viper.GetInt("eval.workers")
	}
	c.ExpandPaths()
}
