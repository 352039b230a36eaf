//go:build cgo

package diacritize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig configures the in-process ONNX Runtime backend.
type ONNXConfig struct {
	ModelPath string
	// RuntimeLib is the onnxruntime shared library; empty uses the
	// library's platform default name.
	RuntimeLib string
	Device     string // "cpu" or "gpu"
	MaxLen     int
}

// The ONNX Runtime environment is process-wide; sessions share it.
var (
	envMu   sync.Mutex
	envRefs int
)

func acquireEnv(lib string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if envRefs == 0 {
		if lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("diacritize: initialize onnxruntime: %w", err)
		}
	}
	envRefs++
	return nil
}

func releaseEnv() {
	envMu.Lock()
	defer envMu.Unlock()
	envRefs--
	if envRefs == 0 {
		if err := ort.DestroyEnvironment(); err != nil {
			slog.Warn("destroying onnxruntime environment", "error", err)
		}
	}
}

// ONNX runs an exported CBHG model with ONNX Runtime.
type ONNX struct {
	session *ort.DynamicAdvancedSession
	// withLengths is set when the model takes a second lengths input.
	withLengths bool
	pipeline    pipeline
	mu          sync.Mutex
}

// NewONNX loads the model at cfg.ModelPath. The caller must call Close.
func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	if err := acquireEnv(cfg.RuntimeLib); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		releaseEnv()
		return nil, fmt.Errorf("diacritize: inspect model %q: %w", cfg.ModelPath, err)
	}
	if len(inputs) == 0 || len(inputs) > 2 || len(outputs) == 0 {
		releaseEnv()
		return nil, fmt.Errorf("diacritize: model %q has %d inputs and %d outputs, want 1-2 and 1+",
			cfg.ModelPath, len(inputs), len(outputs))
	}
	inputNames := make([]string, len(inputs))
	for i, in := range inputs {
		inputNames[i] = in.Name
	}
	slog.Debug("onnx model", "inputs", inputNames, "output", outputs[0].Name)

	opts, err := sessionOptions(cfg.Device)
	if err != nil {
		releaseEnv()
		return nil, err
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, []string{outputs[0].Name}, opts)
	if err != nil {
		releaseEnv()
		return nil, fmt.Errorf("diacritize: load model %q: %w", cfg.ModelPath, err)
	}

	o := &ONNX{
		session:     session,
		withLengths: len(inputs) == 2,
	}
	o.pipeline = pipeline{enc: NewEncoder(), runner: o, maxLen: cfg.MaxLen}
	return o, nil
}

func sessionOptions(device string) (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("diacritize: session options: %w", err)
	}
	if device != "gpu" {
		return opts, nil
	}

	cuda, err := ort.NewCUDAProviderOptions()
	if err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("diacritize: cuda options: %w", err)
	}
	defer cuda.Destroy()
	if err := cuda.Update(map[string]string{"device_id": "0"}); err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("diacritize: cuda options: %w", err)
	}
	if err := opts.AppendExecutionProviderCUDA(cuda); err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("diacritize: enable cuda: %w", err)
	}
	return opts, nil
}

// Diacritize implements Diacritizer.
func (o *ONNX) Diacritize(ctx context.Context, text string) (string, error) {
	return o.pipeline.diacritize(ctx, text)
}

func (o *ONNX) runLogits(_ context.Context, ids []int64) ([]float32, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	src, err := ort.NewTensor(ort.NewShape(1, int64(len(ids))), ids)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer src.Destroy()

	inputs := []ort.Value{src}
	if o.withLengths {
		lengths, err := ort.NewTensor(ort.NewShape(1), []int64{int64(len(ids))})
		if err != nil {
			return nil, fmt.Errorf("lengths tensor: %w", err)
		}
		defer lengths.Destroy()
		inputs = append(inputs, lengths)
	}

	outputs := []ort.Value{nil}
	if err := o.session.Run(inputs, outputs); err != nil {
		return nil, err
	}
	defer outputs[0].Destroy()

	logits, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	shape := logits.GetShape()
	if len(shape) != 3 || shape[0] != 1 || shape[1] != int64(len(ids)) {
		return nil, fmt.Errorf("unexpected output shape %v for %d inputs", shape, len(ids))
	}
	data := logits.GetData()
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// Close releases the session and, for the last session, the runtime.
func (o *ONNX) Close() error {
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	releaseEnv()
	return err
}
