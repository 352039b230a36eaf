// Package diacritize restores Arabic diacritics with a trained model.
//
// Supported backends:
//   - onnx: the exported model run in-process with ONNX Runtime (default, needs cgo)
//   - torch: the Python runtime loading a trainer checkpoint
package diacritize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/chaz8081/hareef/internal/checkpoint"
	"github.com/chaz8081/hareef/internal/config"
)

// ErrUnavailable is returned when a backend cannot run in this build.
var ErrUnavailable = errors.New("diacritize: backend unavailable")

// Diacritizer adds diacritics to undiacritized Arabic text.
type Diacritizer interface {
	// Diacritize returns text with predicted diacritics. Lines are kept.
	Diacritize(ctx context.Context, text string) (string, error)
	// Close releases backend resources.
	Close() error
}

// Options overrides the configured model for one run, usually from flags.
type Options struct {
	// Checkpoint selects the torch backend with this checkpoint file.
	Checkpoint string
	// ONNXModel selects the onnx backend with this model file.
	ONNXModel string
}

// New creates a Diacritizer. An explicit ONNX model wins over an explicit
// checkpoint, which wins over cfg.Backend. The torch backend without a
// checkpoint uses the newest one under cfg.LogsRootDirectory.
func New(cfg *config.Config, opts Options) (Diacritizer, error) {
	backend := cfg.Backend
	switch {
	case opts.ONNXModel != "":
		backend = "onnx"
	case opts.Checkpoint != "":
		backend = "torch"
	}

	switch backend {
	case "onnx", "":
		model := cfg.ONNXModel
		if opts.ONNXModel != "" {
			model = opts.ONNXModel
		}
		d, err := NewONNX(ONNXConfig{
			ModelPath:  model,
			RuntimeLib: cfg.ONNXRuntimeLib,
			Device:     cfg.Device,
			MaxLen:     cfg.MaxLen,
		})
		if err != nil {
			return nil, err
		}
		return d, nil
	case "torch":
		ref, err := ResolveCheckpoint(cfg, opts.Checkpoint)
		if err != nil {
			return nil, err
		}
		d, err := NewTorch(TorchConfig{
			Python:      cfg.Python,
			TrainConfig: cfg.TrainConfig,
			Checkpoint:  ref.Path,
			Device:      cfg.Device,
			Seed:        cfg.Seed,
		})
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("diacritize: unknown backend %q (supported: onnx, torch)", backend)
	}
}

// ResolveCheckpoint returns path as a Ref, or the newest checkpoint under
// cfg.LogsRootDirectory when path is empty.
func ResolveCheckpoint(cfg *config.Config, path string) (checkpoint.Ref, error) {
	if path != "" {
		ref := checkpoint.Ref{Path: path, Version: -1, Epoch: -1, Step: -1}
		if epoch, step, ok := checkpoint.ParseName(filepath.Base(path)); ok {
			ref.Epoch, ref.Step = epoch, step
		}
		return ref, nil
	}

	ref, err := checkpoint.FindLast(cfg.LogsRootDirectory)
	if err != nil {
		return checkpoint.Ref{}, fmt.Errorf("diacritize: obtaining the last checkpoint: %w", err)
	}
	slog.Info("using checkpoint", "epoch", ref.Epoch, "step", ref.Step, "version", ref.Version)
	slog.Debug("checkpoint file", "path", ref.Path)
	return ref, nil
}
