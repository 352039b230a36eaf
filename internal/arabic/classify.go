package arabic

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Class is the character class of a code point.
type Class int

const (
	ClassInvalid     Class = iota // outside the alphabet
	ClassLetter                   // Arabic letter
	ClassDiacritic                // diacritic mark
	ClassPunctuation              // one of the seven punctuation symbols
	ClassSeparator                // word separator (space)
)

var classNames = [...]string{
	ClassInvalid:     "invalid",
	ClassLetter:      "letter",
	ClassDiacritic:   "diacritic",
	ClassPunctuation: "punctuation",
	ClassSeparator:   "separator",
}

// String returns the name of the class.
func (c Class) String() string {
	if int(c) >= 0 && int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// MarshalJSON encodes the class as a JSON string (e.g. "letter").
func (c Class) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// WordSeparator separates words.
const WordSeparator = ' '

// Letter ranges are half-open and skip the tatweel, the non-letter
// symbols and the combining marks inside the Arabic block.
const (
	letterLow1, letterHigh1 = 0x0621, 0x063B
	letterLow2, letterHigh2 = 0x0641, 0x064B
)

// punctuations is the closed set of punctuation symbols.
var punctuations = [...]rune{
	'.',
	'\u060C', // arabic comma
	':',
	'\u061B', // arabic semicolon
	'-',
	'\u061F', // arabic question mark
	'!',
}

// IsLetter reports whether r is an Arabic letter.
func IsLetter(r rune) bool {
	return (r >= letterLow1 && r < letterHigh1) || (r >= letterLow2 && r < letterHigh2)
}

// IsPunctuation reports whether r is one of the punctuation symbols.
func IsPunctuation(r rune) bool {
	for _, p := range punctuations {
		if r == p {
			return true
		}
	}
	return false
}

// Punctuations returns the punctuation symbols.
func Punctuations() []rune {
	out := make([]rune, len(punctuations))
	copy(out, punctuations[:])
	return out
}

// Letters returns every Arabic letter in code-point order.
func Letters() []rune {
	out := make([]rune, 0, (letterHigh1-letterLow1)+(letterHigh2-letterLow2))
	for r := rune(letterLow1); r < letterHigh1; r++ {
		out = append(out, r)
	}
	for r := rune(letterLow2); r < letterHigh2; r++ {
		out = append(out, r)
	}
	return out
}

// Classify returns the class of a single code point. Each basic mark,
// including a bare shadda, is ClassDiacritic; grouping marks into compound
// diacritics is done by Segment.
func Classify(r rune) Class {
	switch {
	case IsLetter(r):
		return ClassLetter
	case IsDiacriticMark(r):
		return ClassDiacritic
	case r == WordSeparator:
		return ClassSeparator
	case IsPunctuation(r):
		return ClassPunctuation
	}
	return ClassInvalid
}

// ClassifyString returns the class of a whole token. A token is a
// diacritic iff it is one of the 15 canonical diacritics (the empty
// string is NoDiacritic), with shadda accepted on either side of its
// vowel. Other single code points are delegated to Classify; anything
// else is ClassInvalid.
func ClassifyString(s string) Class {
	if _, ok := ParseDiacritic(s); ok {
		return ClassDiacritic
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == len(s) && r != utf8.RuneError {
		return Classify(r)
	}
	return ClassInvalid
}
