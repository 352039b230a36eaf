// Package evaluate computes word and diacritic error rates between a
// reference diacritized text and a hypothesis produced by a diacritizer.
//
// Scoring rules:
//
//   - Both lines are normalized and segmented with [arabic.Segment]; their
//     undiacritized skeletons must be identical.
//   - A word is a maximal run of letters. Separators and punctuation end a
//     word and are never scored.
//   - A letter position is scored when the reference or the hypothesis
//     carries a diacritic on it. DER is mismatched scored positions over
//     scored positions.
//   - The case ending is the last letter of a word. Without case endings
//     that position is never scored.
//   - A word counts towards WER when it has at least one scored position,
//     and is wrong when any of them mismatches.
//
// Rates are fractions in [0, 1]; an empty denominator gives 0.
package evaluate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chaz8081/hareef/internal/arabic"
)

// Sentinel errors.
var (
	ErrFileNotFound   = errors.New("evaluate: file not found")
	ErrFormatMismatch = errors.New("evaluate: format mismatch")
)

// Metric names used by Report.Map.
const (
	MetricWER             = "WER"
	MetricDER             = "DER"
	MetricWERNoCaseEnding = "WER*"
	MetricDERNoCaseEnding = "DER*"
)

// maxLineBytes bounds a single line of an evaluation file.
const maxLineBytes = 1 << 20

// Counts holds the raw tallies behind WER and DER.
type Counts struct {
	Words          int // words with at least one scored position
	WordErrors     int
	Positions      int // scored letter positions
	PositionErrors int
}

// WER returns WordErrors / Words.
func (c Counts) WER() float64 { return ratio(c.WordErrors, c.Words) }

// DER returns PositionErrors / Positions.
func (c Counts) DER() float64 { return ratio(c.PositionErrors, c.Positions) }

func (c *Counts) add(o Counts) {
	c.Words += o.Words
	c.WordErrors += o.WordErrors
	c.Positions += o.Positions
	c.PositionErrors += o.PositionErrors
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Report holds the four error rates for one reference/hypothesis pair.
type Report struct {
	WER             float64 `json:"wer"`
	DER             float64 `json:"der"`
	WERNoCaseEnding float64 `json:"wer_no_case_ending"`
	DERNoCaseEnding float64 `json:"der_no_case_ending"`

	Lines          int    `json:"lines"`
	WithCaseEnding Counts `json:"with_case_ending"`
	NoCaseEnding   Counts `json:"no_case_ending"`
}

// Map returns the rates keyed by metric name.
func (r Report) Map() map[string]float64 {
	return map[string]float64{
		MetricWER:             r.WER,
		MetricDER:             r.DER,
		MetricWERNoCaseEnding: r.WERNoCaseEnding,
		MetricDERNoCaseEnding: r.DERNoCaseEnding,
	}
}

// CompareLines scores one hypothesis line against its reference.
func CompareLines(ref, hyp string, caseEnding bool) (Counts, error) {
	refUnits, hypUnits, err := align(ref, hyp)
	if err != nil {
		return Counts{}, err
	}
	return score(refUnits, hypUnits, caseEnding), nil
}

func align(ref, hyp string) ([]arabic.Unit, []arabic.Unit, error) {
	refUnits, err := arabic.Segment(arabic.Normalize(ref))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reference: %w", ErrFormatMismatch, err)
	}
	hypUnits, err := arabic.Segment(arabic.Normalize(hyp))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: hypothesis: %w", ErrFormatMismatch, err)
	}
	if rs, hs := arabic.Skeleton(refUnits), arabic.Skeleton(hypUnits); rs != hs {
		return nil, nil, fmt.Errorf("%w: texts differ: reference %q, hypothesis %q", ErrFormatMismatch, rs, hs)
	}
	return refUnits, hypUnits, nil
}

// score assumes ref and hyp have identical skeletons.
func score(ref, hyp []arabic.Unit, caseEnding bool) Counts {
	var c Counts
	for start := 0; start < len(ref); {
		if ref[start].Class != arabic.ClassLetter {
			start++
			continue
		}
		end := start
		for end < len(ref) && ref[end].Class == arabic.ClassLetter {
			end++
		}

		scored, wrong := 0, false
		for i := start; i < end; i++ {
			if !caseEnding && i == end-1 {
				continue
			}
			if ref[i].Diacritic == arabic.NoDiacritic && hyp[i].Diacritic == arabic.NoDiacritic {
				continue
			}
			scored++
			if ref[i].Diacritic != hyp[i].Diacritic {
				c.PositionErrors++
				wrong = true
			}
		}
		c.Positions += scored
		if scored > 0 {
			c.Words++
			if wrong {
				c.WordErrors++
			}
		}
		start = end
	}
	return c
}

// Compare scores line-aligned reference and hypothesis texts.
func Compare(refLines, hypLines []string) (Report, error) {
	if len(refLines) != len(hypLines) {
		return Report{}, fmt.Errorf("%w: reference has %d lines, hypothesis has %d",
			ErrFormatMismatch, len(refLines), len(hypLines))
	}

	rep := Report{Lines: len(refLines)}
	for i := range refLines {
		refUnits, hypUnits, err := align(refLines[i], hypLines[i])
		if err != nil {
			return Report{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		rep.WithCaseEnding.add(score(refUnits, hypUnits, true))
		rep.NoCaseEnding.add(score(refUnits, hypUnits, false))
	}

	rep.WER = rep.WithCaseEnding.WER()
	rep.DER = rep.WithCaseEnding.DER()
	rep.WERNoCaseEnding = rep.NoCaseEnding.WER()
	rep.DERNoCaseEnding = rep.NoCaseEnding.DER()
	return rep, nil
}

// CalculateErrorRates reads two line-aligned files and scores them.
func CalculateErrorRates(refPath, hypPath string) (Report, error) {
	refLines, err := ReadLines(refPath)
	if err != nil {
		return Report{}, err
	}
	hypLines, err := ReadLines(hypPath)
	if err != nil {
		return Report{}, err
	}
	rep, err := Compare(refLines, hypLines)
	if err != nil {
		return Report{}, fmt.Errorf("evaluate %s vs %s: %w", refPath, hypPath, err)
	}
	return rep, nil
}

// ReadLines reads a text file into lines, dropping "\r" line endings.
func ReadLines(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("evaluate: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrFileNotFound, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("evaluate: open %s: %w", path, err)
	}
	defer f.Close()

	lines, err := ScanLines(f)
	if err != nil {
		return nil, fmt.Errorf("evaluate: read %s: %w", path, err)
	}
	return lines, nil
}

// ScanLines reads r line by line, dropping a trailing \r from each line.
func ScanLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	return lines, sc.Err()
}
