package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chaz8081/hareef/internal/evaluate"
	"github.com/chaz8081/hareef/internal/report"
	"github.com/chaz8081/hareef/internal/store"
)

var (
	jsonFlag   bool
	recordFlag bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <reference> <hypothesis> [<reference> <hypothesis>...]",
	Short: "Score diacritized files against references",
	Long: `Compute WER and DER, with and without case endings, for each
reference/hypothesis file pair. Both files of a pair must hold the same
lines with the same letters; only the diacritics may differ.

Pairs are scored concurrently (eval.workers in the config, 0 means one
per CPU). With --record the reports are saved to the history database.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 || len(args)%2 != 0 {
			return fmt.Errorf("expected reference/hypothesis pairs, got %d arguments", len(args))
		}
		return nil
	},
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().BoolVar(&jsonFlag, "json", false, "print the reports as JSON")
	evaluateCmd.Flags().BoolVar(&recordFlag, "record", false, "save the reports to the history database")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	pairs := make([]evaluate.Pair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, evaluate.Pair{Reference: args[i], Hypothesis: args[i+1]})
	}

	results, err := evaluate.EvaluateBatch(cmd.Context(), pairs, cfg.Eval.Workers)
	if err != nil {
		return err
	}

	if jsonFlag {
		if err := report.JSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), report.Table(results))
	}

	if recordFlag {
		if err := recordResults(cmd.Context(), results); err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pairs could not be scored", failed, len(results))
	}
	return nil
}

// recordResults saves every successful result to the history database.
func recordResults(ctx context.Context, results []evaluate.Result) (err error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, st.Close()) }()

	for _, r := range results {
		if r.Err != nil {
			continue
		}
		id, err := st.InsertEvaluation(ctx, store.Evaluation{
			Reference:  r.Reference,
			Hypothesis: r.Hypothesis,
			Report:     r.Report,
		})
		if err != nil {
			return err
		}
		slog.Info("evaluation recorded", "id", id, "reference", r.Reference)
	}
	return nil
}
