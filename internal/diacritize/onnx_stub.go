//go:build !cgo

package diacritize

import (
	"context"
	"fmt"
)

// ONNXConfig configures the in-process ONNX Runtime backend.
type ONNXConfig struct {
	ModelPath  string
	RuntimeLib string
	Device     string
	MaxLen     int
}

// ONNX is unavailable without cgo.
type ONNX struct{}

// NewONNX always fails: ONNX Runtime is loaded through cgo.
func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	return nil, fmt.Errorf("%w: onnx needs a cgo build (model: %s)", ErrUnavailable, cfg.ModelPath)
}

func (o *ONNX) Diacritize(ctx context.Context, text string) (string, error) {
	return "", fmt.Errorf("%w: onnx needs a cgo build", ErrUnavailable)
}

func (o *ONNX) Close() error {
	return nil
}
