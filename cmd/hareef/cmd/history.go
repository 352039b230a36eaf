package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chaz8081/hareef/internal/report"
	"github.com/chaz8081/hareef/internal/store"
)

var (
	limitFlag int
	widthFlag int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded evaluations",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "number of evaluations to show (0 for all)")
	historyCmd.Flags().IntVar(&widthFlag, "width", 0, "maximum line width (default: terminal width)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) (err error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, st.Close()) }()

	evals, err := st.ListEvaluations(cmd.Context(), limitFlag)
	if err != nil {
		return err
	}

	width := widthFlag
	if width == 0 && cmd.OutOrStdout() == os.Stdout {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), report.History(evals, width))
	return nil
}
