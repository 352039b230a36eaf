package arabic

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sentinel errors for segmentation and validation.
var (
	ErrInvalidCharacter   = errors.New("arabic: invalid character")
	ErrDanglingDiacritic  = errors.New("arabic: diacritic without a letter")
	ErrInvalidCombination = errors.New("arabic: invalid diacritic combination")
)

// CharError reports the byte offset and rune where segmentation or
// validation failed.
type CharError struct {
	Offset int  // byte offset in the input
	Rune   rune // offending rune
	Err    error
}

func (e *CharError) Error() string {
	return fmt.Sprintf("%v: %q (U+%04X) at byte %d", e.Err, e.Rune, e.Rune, e.Offset)
}

func (e *CharError) Unwrap() error { return e.Err }

// Unit is one base character with the diacritic attached to it.
type Unit struct {
	Char      rune
	Class     Class // ClassLetter, ClassPunctuation or ClassSeparator
	Diacritic Diacritic
}

// String returns the unit in text form.
func (u Unit) String() string {
	return string(u.Char) + string(u.Diacritic)
}

// Segment splits diacritized text into units. Each base character
// absorbs the maximal run of marks that follows it, and that run must
// form one of the canonical diacritics. Marks are only accepted after
// letters.
func Segment(s string) ([]Unit, error) {
	units := make([]Unit, 0, utf8.RuneCountInString(s))
	var marks strings.Builder
	markStart := 0

	flush := func() error {
		if marks.Len() == 0 {
			return nil
		}
		run := marks.String()
		marks.Reset()
		if len(units) == 0 || units[len(units)-1].Class != ClassLetter {
			r, _ := utf8.DecodeRuneInString(run)
			return &CharError{Offset: markStart, Rune: r, Err: ErrDanglingDiacritic}
		}
		d, ok := ParseDiacritic(run)
		if !ok {
			r, _ := utf8.DecodeRuneInString(run)
			return &CharError{Offset: markStart, Rune: r, Err: ErrInvalidCombination}
		}
		units[len(units)-1].Diacritic = d
		return nil
	}

	for i, r := range s {
		c := Classify(r)
		if c == ClassDiacritic {
			if marks.Len() == 0 {
				markStart = i
			}
			marks.WriteRune(r)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		if c == ClassInvalid {
			return nil, &CharError{Offset: i, Rune: r, Err: ErrInvalidCharacter}
		}
		units = append(units, Unit{Char: r, Class: c})
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return units, nil
}

// Join reassembles units into text.
func Join(units []Unit) string {
	var b strings.Builder
	b.Grow(len(units) * 4)
	for _, u := range units {
		b.WriteRune(u.Char)
		b.WriteString(string(u.Diacritic))
	}
	return b.String()
}

// Skeleton returns the base characters of units without diacritics.
func Skeleton(units []Unit) string {
	var b strings.Builder
	b.Grow(len(units) * 2)
	for _, u := range units {
		b.WriteRune(u.Char)
	}
	return b.String()
}
