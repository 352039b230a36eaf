package diacritize

import (
	"strings"

	"github.com/chaz8081/hareef/internal/arabic"
)

// PadID is the padding id in both the input and the target vocabulary.
const PadID = 0

// Encoder maps characters to model input ids and model target ids back to
// diacritics.
//
// Input ids: 0 pad, 1 word separator, then the letters in code-point
// order, then the punctuation symbols. Target ids: 0 pad, then
// arabic.AllDiacritics in order, so target id = class id + 1.
type Encoder struct {
	inputIDs map[rune]int64
}

// NewEncoder builds the fixed character vocabulary.
func NewEncoder() *Encoder {
	e := &Encoder{inputIDs: make(map[rune]int64)}
	next := int64(PadID + 1)
	add := func(r rune) {
		e.inputIDs[r] = next
		next++
	}
	add(arabic.WordSeparator)
	for _, r := range arabic.Letters() {
		add(r)
	}
	for _, r := range arabic.Punctuations() {
		add(r)
	}
	return e
}

// InputSize returns the number of input ids, pad included.
func (e *Encoder) InputSize() int { return len(e.inputIDs) + 1 }

// TargetSize returns the number of target ids, pad included.
func (e *Encoder) TargetSize() int { return arabic.NumDiacritics + 1 }

// Encode returns one id per rune of text. Runes outside the vocabulary
// (including diacritic marks) encode as PadID so positions stay aligned.
func (e *Encoder) Encode(text string) []int64 {
	ids := make([]int64, 0, len(text))
	for _, r := range text {
		ids = append(ids, e.inputIDs[r])
	}
	return ids
}

// TargetID returns the target id of d.
func TargetID(d arabic.Diacritic) (int, bool) {
	i, ok := arabic.DiacriticIndex(d)
	if !ok {
		return PadID, false
	}
	return i + 1, true
}

func targetDiacritic(id int) arabic.Diacritic {
	if id == PadID {
		return arabic.NoDiacritic
	}
	d, ok := arabic.DiacriticAt(id - 1)
	if !ok {
		return arabic.NoDiacritic
	}
	return d
}

// Decode writes text back with the diacritic predicted for each letter.
// classes[i] is the target id for the i-th rune; predictions for
// non-letters are ignored.
func (e *Encoder) Decode(text string, classes []int) string {
	var b strings.Builder
	b.Grow(len(text) * 2)
	i := 0
	for _, r := range text {
		b.WriteRune(r)
		if arabic.IsLetter(r) && i < len(classes) {
			b.WriteString(string(targetDiacritic(classes[i])))
		}
		i++
	}
	return b.String()
}
