package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/hareef/internal/diacritize"
)

var (
	textFlag       string
	checkpointFlag string
	onnxFlag       string
)

var diacritizeCmd = &cobra.Command{
	Use:   "diacritize",
	Short: "Add diacritics to Arabic text",
	Long: `Diacritize Arabic text with the configured model and print the result.

Without --checkpoint or --onnx the configured backend is used; the torch
backend then loads the newest checkpoint under logs_root_directory.
Without --text the input is read from stdin.

Examples:
  hareef diacritize --text "ذهب الطالب الى المدرسة"
  hareef diacritize --onnx ./cbhg.onnx --device gpu < input.txt
  hareef diacritize --backend torch --seed 42 --text "..."`,
	Args: cobra.NoArgs,
	RunE: runDiacritize,
}

func init() {
	addDiacritizeFlags(diacritizeCmd)
	rootCmd.AddCommand(diacritizeCmd)
}

// addDiacritizeFlags registers the input and model selection flags on c.
// The root command shares them so that 'hareef --text' works.
func addDiacritizeFlags(c *cobra.Command) {
	c.Flags().StringVar(&textFlag, "text", "", "text to diacritize (default: read stdin)")
	addModelFlags(c)
}

func addModelFlags(c *cobra.Command) {
	c.Flags().StringVar(&checkpointFlag, "checkpoint", "", "trainer checkpoint file (selects the torch backend)")
	c.Flags().StringVar(&onnxFlag, "onnx", "", "exported ONNX model (selects the onnx backend)")
}

// modelOptions resolves the model flags into diacritize options and
// returns the file the model will be loaded from.
func modelOptions() (diacritize.Options, string, error) {
	opts := diacritize.Options{Checkpoint: checkpointFlag, ONNXModel: onnxFlag}
	switch {
	case opts.ONNXModel != "":
		return opts, opts.ONNXModel, nil
	case opts.Checkpoint != "":
		return opts, opts.Checkpoint, nil
	case cfg.Backend == "torch":
		ref, err := diacritize.ResolveCheckpoint(cfg, "")
		if err != nil {
			return opts, "", err
		}
		opts.Checkpoint = ref.Path
		return opts, ref.Path, nil
	}
	return opts, cfg.ONNXModel, nil
}

func newDiacritizer() (diacritize.Diacritizer, string, error) {
	opts, source, err := modelOptions()
	if err != nil {
		return nil, "", err
	}
	start := time.Now()
	d, err := diacritize.New(cfg, opts)
	if err != nil {
		return nil, "", err
	}
	slog.Debug("model loaded", "source", source, "elapsed", time.Since(start).Round(time.Millisecond))
	return d, source, nil
}

func runDiacritize(cmd *cobra.Command, _ []string) error {
	text := textFlag
	if !cmd.Flags().Changed("text") {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = strings.TrimSuffix(string(data), "\n")
	}

	d, _, err := newDiacritizer()
	if err != nil {
		return err
	}
	defer d.Close()

	start := time.Now()
	out, err := d.Diacritize(cmd.Context(), text)
	if err != nil {
		return err
	}
	slog.Info("inference done", "ms", time.Since(start).Milliseconds())

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
