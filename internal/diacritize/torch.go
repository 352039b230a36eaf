package diacritize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const torchModule = "hareef.cbhg.infer"

// TorchConfig configures the Python runtime backend.
type TorchConfig struct {
	Python      string
	TrainConfig string
	Checkpoint  string
	Device      string
	Seed        int64
}

// Torch runs inference through the Python runtime, one process per call.
type Torch struct {
	cfg TorchConfig
}

// NewTorch checks that the interpreter and checkpoint exist.
func NewTorch(cfg TorchConfig) (*Torch, error) {
	if _, err := exec.LookPath(cfg.Python); err != nil {
		return nil, fmt.Errorf("%w: python interpreter %q: %w", ErrUnavailable, cfg.Python, err)
	}
	if _, err := os.Stat(cfg.Checkpoint); err != nil {
		return nil, fmt.Errorf("diacritize: checkpoint: %w", err)
	}
	return &Torch{cfg: cfg}, nil
}

func (t *Torch) args(text string) []string {
	return []string{
		"-m", torchModule,
		"--config", t.cfg.TrainConfig,
		"--checkpoint", t.cfg.Checkpoint,
		"--device", t.cfg.Device,
		"--seed", strconv.FormatInt(t.cfg.Seed, 10),
		"--text", text,
	}
}

// Diacritize implements Diacritizer.
func (t *Torch) Diacritize(ctx context.Context, text string) (string, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, t.cfg.Python, t.args(text)...) //nolint:gosec // interpreter comes from config
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("diacritize: %s exited with %d: %s",
				torchModule, exitErr.ExitCode(), lastLine(stderr.String()))
		}
		return "", fmt.Errorf("diacritize: run %s: %w", torchModule, err)
	}

	slog.Debug("torch inference", "elapsed", time.Since(start).Round(time.Millisecond))
	return strings.TrimRight(stdout.String(), "\r\n"), nil
}

// Close implements Diacritizer.
func (t *Torch) Close() error {
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
