// Package arabic defines the Arabic alphabet used by the diacritizer:
// the closed set of diacritic marks, the character classes, and the
// validation and segmentation rules built on them.
//
// Two levels of classification are provided:
//
//   - Classify works on a single code point. A bare shadda is a Diacritic.
//   - Segment works on text and groups each base character with the
//     maximal run of marks that follows it, so shadda+fatha is one unit.
//
// All functions are safe for concurrent use by multiple goroutines.
package arabic

import "fmt"

// Diacritic is one of the 15 canonical diacritic strings.
// Compound marks are stored shadda-first.
type Diacritic string

const (
	NoDiacritic  Diacritic = ""
	Sukoon       Diacritic = "\u0652"
	Shadda       Diacritic = "\u0651"
	Damma        Diacritic = "\u064F"
	Fatha        Diacritic = "\u064E"
	Kasra        Diacritic = "\u0650"
	TanweenDamma Diacritic = "\u064C"
	TanweenFatha Diacritic = "\u064B"
	TanweenKasra Diacritic = "\u064D"

	ShaddaDamma        Diacritic = "\u0651\u064F"
	ShaddaFatha        Diacritic = "\u0651\u064E"
	ShaddaKasra        Diacritic = "\u0651\u0650"
	ShaddaTanweenDamma Diacritic = "\u0651\u064C"
	ShaddaTanweenFatha Diacritic = "\u0651\u064B"
	ShaddaTanweenKasra Diacritic = "\u0651\u064D"
)

// shaddaRune is the gemination mark.
const shaddaRune = '\u0651'

// allDiacritics is the canonical ordering. The index of a diacritic in
// this table is its class id.
var allDiacritics = [...]Diacritic{
	NoDiacritic,
	Sukoon,
	Shadda,
	Damma,
	Fatha,
	Kasra,
	TanweenDamma,
	TanweenFatha,
	TanweenKasra,
	ShaddaDamma,
	ShaddaFatha,
	ShaddaKasra,
	ShaddaTanweenDamma,
	ShaddaTanweenFatha,
	ShaddaTanweenKasra,
}

var diacriticNames = [...]string{
	"no_diacritic",
	"sukoon",
	"shadda",
	"damma",
	"fatha",
	"kasra",
	"tanween_damma",
	"tanween_fatha",
	"tanween_kasra",
	"shadda_damma",
	"shadda_fatha",
	"shadda_kasra",
	"shadda_tanween_damma",
	"shadda_tanween_fatha",
	"shadda_tanween_kasra",
}

// basicDiacritics are the single code-point marks.
var basicDiacritics = [...]Diacritic{
	Sukoon,
	Shadda,
	Damma,
	Fatha,
	Kasra,
	TanweenDamma,
	TanweenFatha,
	TanweenKasra,
}

// diacriticIndex maps each canonical string to its class id.
var diacriticIndex = func() map[Diacritic]int {
	m := make(map[Diacritic]int, len(allDiacritics))
	for i, d := range allDiacritics {
		m[d] = i
	}
	return m
}()

// NumDiacritics is the size of the closed diacritic set.
const NumDiacritics = len(allDiacritics)

// AllDiacritics returns the 15 diacritics in class-id order.
// The returned slice is a copy.
func AllDiacritics() []Diacritic {
	out := make([]Diacritic, len(allDiacritics))
	copy(out, allDiacritics[:])
	return out
}

// BasicDiacritics returns the 8 single code-point marks: sukoon, shadda,
// damma, fatha, kasra and the three tanween marks.
func BasicDiacritics() []Diacritic {
	out := make([]Diacritic, len(basicDiacritics))
	copy(out, basicDiacritics[:])
	return out
}

// IsDiacriticMark reports whether r is one of the basic marks.
func IsDiacriticMark(r rune) bool {
	switch r {
	case '\u064B', '\u064C', '\u064D', '\u064E', '\u064F', '\u0650', '\u0651', '\u0652':
		return true
	}
	return false
}

// DiacriticIndex returns the class id of d.
func DiacriticIndex(d Diacritic) (int, bool) {
	i, ok := diacriticIndex[d]
	return i, ok
}

// DiacriticAt returns the diacritic with class id i.
func DiacriticAt(i int) (Diacritic, bool) {
	if i < 0 || i >= len(allDiacritics) {
		return NoDiacritic, false
	}
	return allDiacritics[i], true
}

// Name returns the snake_case name of the diacritic, or "" for a string
// outside the set.
func (d Diacritic) Name() string {
	if i, ok := diacriticIndex[d]; ok {
		return diacriticNames[i]
	}
	return ""
}

// String returns the name of the diacritic.
func (d Diacritic) String() string {
	if n := d.Name(); n != "" {
		return n
	}
	return fmt.Sprintf("Diacritic(%+q)", string(d))
}

// ParseDiacritic returns the canonical diacritic for s. A shadda may appear
// before or after its vowel: NFC orders the vowel first, the canonical
// form puts shadda first.
func ParseDiacritic(s string) (Diacritic, bool) {
	d := Diacritic(canonicalMarks(s))
	_, ok := diacriticIndex[d]
	return d, ok
}

// canonicalMarks moves a single shadda to the front of a two-mark run.
// Other runs are returned unchanged.
func canonicalMarks(s string) string {
	runes := []rune(s)
	if len(runes) == 2 && runes[1] == shaddaRune && runes[0] != shaddaRune {
		return string([]rune{shaddaRune, runes[0]})
	}
	return s
}
