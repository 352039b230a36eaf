package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/hareef/internal/arabic"
	"github.com/chaz8081/hareef/internal/checkpoint"
	"github.com/chaz8081/hareef/internal/evaluate"
	"github.com/chaz8081/hareef/internal/report"
	"github.com/chaz8081/hareef/internal/store"
)

var (
	outputFlag   string
	noRecordFlag bool
)

var testCmd = &cobra.Command{
	Use:   "test <reference>",
	Short: "Diacritize a test file and score the model on it",
	Long: `Strip the diacritics from a diacritized reference file, run the model on
every line, write the predictions next to the reference and score them.

Invalid characters are removed from the reference before scoring. The
predictions go to <name>.hyp<ext> unless --output is given. The report is
saved to the history database with the model file and its digest.`,
	Args: cobra.ExactArgs(1),
	RunE: runTest,
}

func init() {
	testCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "hypothesis output file")
	testCmd.Flags().BoolVar(&noRecordFlag, "no-record", false, "do not save the report to the history database")
	addModelFlags(testCmd)
	rootCmd.AddCommand(testCmd)
}

// hypothesisPath returns the default output path for ref: data/test.txt
// becomes data/test.hyp.txt.
func hypothesisPath(ref string) string {
	ext := filepath.Ext(ref)
	return strings.TrimSuffix(ref, ext) + ".hyp" + ext
}

// cleanReference keeps the valid characters of line. Whitespace of any
// kind becomes a separator before filtering so words stay apart.
func cleanReference(line string) string {
	return arabic.Normalize(arabic.FilterValid(arabic.Normalize(line)))
}

func runTest(cmd *cobra.Command, args []string) (err error) {
	refPath := args[0]
	raw, err := evaluate.ReadLines(refPath)
	if err != nil {
		return err
	}
	refs := make([]string, len(raw))
	for i, line := range raw {
		refs[i] = cleanReference(line)
	}

	d, source, err := newDiacritizer()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, d.Close()) }()

	start := time.Now()
	hyps := make([]string, len(refs))
	for i, ref := range refs {
		hyps[i], err = d.Diacritize(cmd.Context(), arabic.StripDiacritics(ref))
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	slog.Info("inference done", "lines", len(refs), "ms", time.Since(start).Milliseconds())

	hypPath := outputFlag
	if hypPath == "" {
		hypPath = hypothesisPath(refPath)
	}
	if err := writeLines(hypPath, hyps); err != nil {
		return err
	}

	rep, err := evaluate.Compare(refs, hyps)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), report.Table([]evaluate.Result{{
		Pair:   evaluate.Pair{Reference: refPath, Hypothesis: hypPath},
		Report: rep,
	}}))

	if noRecordFlag {
		return nil
	}
	return recordTest(cmd, refPath, hypPath, source, rep)
}

func recordTest(cmd *cobra.Command, refPath, hypPath, source string, rep evaluate.Report) (err error) {
	digest, err := checkpoint.Digest(source)
	if err != nil {
		slog.Warn("could not digest model file", "path", source, "error", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, st.Close()) }()

	id, err := st.InsertEvaluation(cmd.Context(), store.Evaluation{
		Reference:        refPath,
		Hypothesis:       hypPath,
		Checkpoint:       source,
		CheckpointDigest: digest,
		Report:           rep,
	})
	if err != nil {
		return err
	}
	slog.Info("evaluation recorded", "id", id)
	return nil
}

func writeLines(path string, lines []string) error {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
