package arabic

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// IsValidRune reports whether r belongs to the alphabet: a letter, a
// basic diacritic mark, a punctuation symbol or the word separator.
func IsValidRune(r rune) bool {
	return Classify(r) != ClassInvalid
}

// IsValid reports whether every rune of text belongs to the alphabet.
// The empty string is valid.
func IsValid(text string) bool {
	for _, r := range text {
		if !IsValidRune(r) {
			return false
		}
	}
	return true
}

// Validate returns a *CharError wrapping ErrInvalidCharacter for the
// first rune outside the alphabet, or nil.
func Validate(text string) error {
	for i, r := range text {
		if !IsValidRune(r) {
			return &CharError{Offset: i, Rune: r, Err: ErrInvalidCharacter}
		}
	}
	return nil
}

// FilterValid drops every rune outside the alphabet and keeps the rest
// in their original order. It never fails.
func FilterValid(text string) string {
	if IsValid(text) {
		return text
	}
	return strings.Map(func(r rune) rune {
		if IsValidRune(r) {
			return r
		}
		return -1
	}, text)
}

// StripDiacritics removes every diacritic mark from text.
func StripDiacritics(text string) string {
	return strings.Map(func(r rune) rune {
		if IsDiacriticMark(r) {
			return -1
		}
		return r
	}, text)
}

// Normalize prepares text for segmentation:
//
//   - NFC composition, so decomposed hamza and madda forms become letters
//   - shadda moved in front of its vowel in every two-mark run
//   - runs of whitespace collapsed to one separator, ends trimmed
func Normalize(text string) string {
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	var marks []rune
	space := false

	flushMarks := func() {
		if len(marks) == 0 {
			return
		}
		b.WriteString(canonicalMarks(string(marks)))
		marks = marks[:0]
	}

	for _, r := range text {
		if IsDiacriticMark(r) {
			if space && b.Len() > 0 {
				b.WriteRune(WordSeparator)
			}
			space = false
			marks = append(marks, r)
			continue
		}
		flushMarks()
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteRune(WordSeparator)
		}
		space = false
		b.WriteRune(r)
	}
	flushMarks()
	return b.String()
}
