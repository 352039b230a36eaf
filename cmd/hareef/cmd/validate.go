package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaz8081/hareef/internal/arabic"
	"github.com/chaz8081/hareef/internal/evaluate"
)

var filterFlag bool

var validateCmd = &cobra.Command{
	Use:   "validate <file|->",
	Short: "Check text against the Arabic alphabet",
	Long: `Report every character outside the alphabet (Arabic letters, the basic
diacritic marks, the punctuation . ، : ؛ - ؟ ! and the space) and every
misplaced diacritic, line by line. Exits non-zero when anything is found.

With --filter, print the text with invalid characters removed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&filterFlag, "filter", false, "print the text with invalid characters removed")
	rootCmd.AddCommand(validateCmd)
}

// readInput reads lines from path, or from stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]string, error) {
	if path != "-" {
		return evaluate.ReadLines(path)
	}
	lines, err := evaluate.ScanLines(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return lines, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	lines, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if filterFlag {
		for _, line := range lines {
			fmt.Fprintln(out, arabic.FilterValid(line))
		}
		return nil
	}

	bad := 0
	for i, line := range lines {
		problems := lineProblems(line)
		for _, p := range problems {
			fmt.Fprintf(out, "%s:%d: %s\n", args[0], i+1, p)
		}
		if len(problems) > 0 {
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d lines are not valid", bad, len(lines))
	}
	fmt.Fprintf(out, "%d lines valid\n", len(lines))
	return nil
}

// lineProblems lists every invalid character in line, or the first
// diacritic placement error when all characters are valid.
func lineProblems(line string) []string {
	var problems []string
	col := 0
	for _, r := range line {
		col++
		if !arabic.IsValidRune(r) {
			problems = append(problems, fmt.Sprintf("col %d: invalid character %+q", col, r))
		}
	}
	if len(problems) > 0 {
		return problems
	}

	if _, err := arabic.Segment(line); err != nil {
		var ce *arabic.CharError
		if errors.As(err, &ce) {
			return []string{fmt.Sprintf("byte %d: %v", ce.Offset, ce.Err)}
		}
		return []string{err.Error()}
	}
	return nil
}
