package diacritize

import (
	"context"
	"fmt"
	"strings"

	"github.com/chaz8081/hareef/internal/arabic"
)

// logitsRunner runs the model over one encoded sentence.
type logitsRunner interface {
	// runLogits returns logits of shape [len(ids), classes] flattened.
	runLogits(ctx context.Context, ids []int64) ([]float32, error)
}

// pipeline is the in-process text path shared by backends that run the
// model themselves.
type pipeline struct {
	enc    *Encoder
	runner logitsRunner
	maxLen int
}

func (p *pipeline) diacritize(ctx context.Context, text string) (string, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		var b strings.Builder
		for _, sent := range splitSentences(cleanInput(line), p.maxLen) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			if !strings.ContainsFunc(sent, arabic.IsLetter) {
				b.WriteString(sent)
				continue
			}
			ids := p.enc.Encode(sent)
			logits, err := p.runner.runLogits(ctx, ids)
			if err != nil {
				return "", fmt.Errorf("diacritize: run model: %w", err)
			}
			classes, err := argmax(logits, len(ids), p.enc.TargetSize())
			if err != nil {
				return "", fmt.Errorf("diacritize: %w", err)
			}
			b.WriteString(p.enc.Decode(sent, classes))
		}
		out[i] = b.String()
	}
	return strings.Join(out, "\n"), nil
}

// cleanInput reduces a line to undiacritized text over the alphabet.
func cleanInput(line string) string {
	text := arabic.StripDiacritics(arabic.Normalize(line))
	return arabic.Normalize(arabic.FilterValid(text))
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '\u061F', '\u061B':
		return true
	}
	return false
}

// splitSentences cuts text after sentence punctuation and keeps every
// piece at most maxLen runes, preferring to cut after a word separator.
// Concatenating the pieces gives back text.
func splitSentences(text string, maxLen int) []string {
	runes := []rune(text)
	if maxLen <= 0 {
		maxLen = len(runes)
	}

	var out []string
	start, lastSpace := 0, -1
	for i, r := range runes {
		if r == arabic.WordSeparator {
			lastSpace = i
		}
		if isSentenceEnd(r) {
			out = append(out, string(runes[start:i+1]))
			start, lastSpace = i+1, -1
			continue
		}
		if i+1-start >= maxLen && i+1 < len(runes) {
			cut := i + 1
			if lastSpace > start {
				cut = lastSpace + 1
			}
			out = append(out, string(runes[start:cut]))
			start, lastSpace = cut, -1
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// argmax returns the highest-scoring class at each of steps positions.
func argmax(logits []float32, steps, classes int) ([]int, error) {
	if classes <= 0 || len(logits) != steps*classes {
		return nil, fmt.Errorf("logits size %d does not match %d steps x %d classes", len(logits), steps, classes)
	}
	out := make([]int, steps)
	for t := range steps {
		row := logits[t*classes : (t+1)*classes]
		best := 0
		for c := 1; c < classes; c++ {
			if row[c] > row[best] {
				best = c
			}
		}
		out[t] = best
	}
	return out, nil
}
