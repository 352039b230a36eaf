// Package report renders evaluation results for the terminal and as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/chaz8081/hareef/internal/evaluate"
	"github.com/chaz8081/hareef/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	rateStyle   = cellStyle.Align(lipgloss.Right)
	errorStyle  = cellStyle.Foreground(lipgloss.Color("#FF4D4F"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
)

// Percent formats a rate in [0, 1] as a percentage with two decimals.
func Percent(rate float64) string {
	return strconv.FormatFloat(rate*100, 'f', 2, 64) + "%"
}

// Table renders one row per result. Failed pairs show their error in
// place of the rates.
func Table(results []evaluate.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			rows = append(rows, []string{r.Reference, r.Hypothesis, "-", r.Err.Error(), "", "", ""})
			continue
		}
		rows = append(rows, []string{
			r.Reference,
			r.Hypothesis,
			strconv.Itoa(r.Report.Lines),
			Percent(r.Report.WER),
			Percent(r.Report.DER),
			Percent(r.Report.WERNoCaseEnding),
			Percent(r.Report.DERNoCaseEnding),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Reference", "Hypothesis", "Lines",
			evaluate.MetricWER, evaluate.MetricDER,
			evaluate.MetricWERNoCaseEnding, evaluate.MetricDERNoCaseEnding).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case results[row].Err != nil && col == 3:
				return errorStyle
			case col >= 2:
				return rateStyle
			}
			return cellStyle
		})
	return t.String()
}

type jsonResult struct {
	evaluate.Pair
	Report *evaluate.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// JSON writes results as an indented JSON array.
func JSON(w io.Writer, results []evaluate.Result) error {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i].Pair = r.Pair
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			continue
		}
		rep := r.Report
		out[i].Report = &rep
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

// History renders recorded evaluations one per line, each truncated to
// width display cells (no limit when width <= 0).
func History(evals []store.Evaluation, width int) string {
	if len(evals) == 0 {
		return "No evaluations recorded.\n"
	}
	var b strings.Builder
	for _, e := range evals {
		line := fmt.Sprintf("%s  %s  WER %7s  DER %7s  WER* %7s  DER* %7s  %s -> %s",
			e.ID.String()[:8],
			e.CreatedAt.Format("2006-01-02 15:04"),
			Percent(e.Report.WER),
			Percent(e.Report.DER),
			Percent(e.Report.WERNoCaseEnding),
			Percent(e.Report.DERNoCaseEnding),
			e.Reference,
			e.Hypothesis,
		)
		if e.Checkpoint != "" {
			line += "  [" + filepath.Base(e.Checkpoint) + "]"
		}
		if width > 0 {
			line = runewidth.Truncate(line, width, "…")
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
