package arabic

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestAllDiacritics(t *testing.T) {
	all := AllDiacritics()
	if len(all) != 15 {
		t.Fatalf("len(AllDiacritics()) = %d, want 15", len(all))
	}

	seen := make(map[Diacritic]bool, len(all))
	for i, d := range all {
		if seen[d] {
			t.Errorf("duplicate diacritic %q", d)
		}
		seen[d] = true

		if got := ClassifyString(string(d)); got != ClassDiacritic {
			t.Errorf("ClassifyString(%s) = %v, want diacritic", d, got)
		}
		idx, ok := DiacriticIndex(d)
		if !ok || idx != i {
			t.Errorf("DiacriticIndex(%s) = %d, %v, want %d", d, idx, ok, i)
		}
		back, ok := DiacriticAt(i)
		if !ok || back != d {
			t.Errorf("DiacriticAt(%d) = %s, want %s", i, back, d)
		}
		if d.Name() == "" {
			t.Errorf("diacritic %d has no name", i)
		}
	}
}

func TestAllDiacriticsReturnsCopy(t *testing.T) {
	all := AllDiacritics()
	all[1] = "x"
	if AllDiacritics()[1] != Sukoon {
		t.Error("mutating the returned slice changed the vocabulary")
	}
}

func TestBasicDiacritics(t *testing.T) {
	basic := BasicDiacritics()
	if len(basic) != 8 {
		t.Fatalf("len(BasicDiacritics()) = %d, want 8", len(basic))
	}
	for _, d := range basic {
		if d == NoDiacritic {
			t.Error("basic set must not contain NoDiacritic")
		}
		if utf8.RuneCountInString(string(d)) != 1 {
			t.Errorf("basic diacritic %s is not a single code point", d)
		}
		r, _ := utf8.DecodeRuneInString(string(d))
		if Classify(r) != ClassDiacritic {
			t.Errorf("Classify(%U) = %v, want diacritic", r, Classify(r))
		}
		if _, ok := DiacriticIndex(d); !ok {
			t.Errorf("basic diacritic %s missing from the full set", d)
		}
	}
}

func TestParseDiacriticShaddaOrder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Diacritic
		ok    bool
	}{
		{"shadda first", "\u0651\u064E", ShaddaFatha, true},
		{"vowel first", "\u064E\u0651", ShaddaFatha, true},
		{"tanween vowel first", "\u064D\u0651", ShaddaTanweenKasra, true},
		{"single", "\u0652", Sukoon, true},
		{"empty", "", NoDiacritic, true},
		{"two vowels", "\u064E\u0650", "", false},
		{"double shadda", "\u0651\u0651", "", false},
		{"sukoon with shadda", "\u0651\u0652", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDiacritic(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDiacritic(%+q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseDiacritic(%+q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestClassifyLetters(t *testing.T) {
	for r := rune(0x0621); r < 0x063B; r++ {
		if got := Classify(r); got != ClassLetter {
			t.Errorf("Classify(%U) = %v, want letter", r, got)
		}
	}
	for r := rune(0x0641); r < 0x064B; r++ {
		if got := Classify(r); got != ClassLetter {
			t.Errorf("Classify(%U) = %v, want letter", r, got)
		}
	}
	if n := len(Letters()); n != 36 {
		t.Errorf("len(Letters()) = %d, want 36", n)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		r    rune
		want Class
	}{
		{0x0620, ClassInvalid},
		{0x0621, ClassLetter},
		{0x063A, ClassLetter},
		{0x063B, ClassInvalid},
		{0x0640, ClassInvalid}, // tatweel
		{0x0641, ClassLetter},
		{0x064A, ClassLetter},
		{0x064B, ClassDiacritic},
		{0x0652, ClassDiacritic},
		{0x0653, ClassInvalid},
		{0x0660, ClassInvalid},
		{' ', ClassSeparator},
		{'\t', ClassInvalid},
		{'\n', ClassInvalid},
		{'.', ClassPunctuation},
		{'،', ClassPunctuation},
		{':', ClassPunctuation},
		{'؛', ClassPunctuation},
		{'-', ClassPunctuation},
		{'؟', ClassPunctuation},
		{'!', ClassPunctuation},
		{',', ClassInvalid},
		{'?', ClassInvalid},
		{'a', ClassInvalid},
	}
	for _, tt := range tests {
		if got := Classify(tt.r); got != tt.want {
			t.Errorf("Classify(%U) = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestClassifyEverythingElseInvalid(t *testing.T) {
	for r := rune(0); r < 0x0800; r++ {
		if IsLetter(r) || IsDiacriticMark(r) || IsPunctuation(r) || r == WordSeparator {
			continue
		}
		if got := Classify(r); got != ClassInvalid {
			t.Errorf("Classify(%U) = %v, want invalid", r, got)
		}
	}
}

func TestClassifyString(t *testing.T) {
	tests := []struct {
		input string
		want  Class
	}{
		{"\u064E\u0651", ClassDiacritic},
		{"\u0651\u064E", ClassDiacritic},
		{"\u0651", ClassDiacritic},
		{"", ClassDiacritic},
		{"\u0628", ClassLetter},
		{" ", ClassSeparator},
		{"\u061F", ClassPunctuation},
		{"\u0628\u064E", ClassInvalid},
		{"ab", ClassInvalid},
		{"\u064E\u0650", ClassInvalid},
	}
	for _, tt := range tests {
		if got := ClassifyString(tt.input); got != tt.want {
			t.Errorf("ClassifyString(%+q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSegment(t *testing.T) {
	units, err := Segment("\u0634\u064E\u062F\u0651\u064E \u0627\u0644\u0652")
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	want := []Unit{
		{Char: 'ش', Class: ClassLetter, Diacritic: Fatha},
		{Char: 'د', Class: ClassLetter, Diacritic: ShaddaFatha},
		{Char: ' ', Class: ClassSeparator},
		{Char: 'ا', Class: ClassLetter},
		{Char: 'ل', Class: ClassLetter, Diacritic: Sukoon},
	}
	if len(units) != len(want) {
		t.Fatalf("Segment() returned %d units, want %d: %v", len(units), len(want), units)
	}
	for i := range want {
		if units[i] != want[i] {
			t.Errorf("unit %d = %+v, want %+v", i, units[i], want[i])
		}
	}
}

func TestSegmentMaximalRun(t *testing.T) {
	// Shadda after the vowel (NFC order) is still one compound unit.
	units, err := Segment("\u062F\u064E\u0651")
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if len(units) != 1 || units[0].Diacritic != ShaddaFatha {
		t.Fatalf("Segment() = %v, want one unit with shadda_fatha", units)
	}
	if Join(units) != "\u062F\u0651\u064E" {
		t.Errorf("Join() = %+q, want canonical shadda-first form", Join(units))
	}
}

func TestSegmentErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   error
		offset int
	}{
		{"invalid character", "\u0628a", ErrInvalidCharacter, 2},
		{"leading mark", "\u064E\u0628", ErrDanglingDiacritic, 0},
		{"mark after space", "\u0628 \u064E", ErrDanglingDiacritic, 3},
		{"mark after punctuation", "\u0628.\u064E", ErrDanglingDiacritic, 3},
		{"two vowels", "\u0628\u064E\u0650", ErrInvalidCombination, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Segment(tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Segment(%+q) error = %v, want %v", tt.input, err, tt.want)
			}
			var ce *CharError
			if !errors.As(err, &ce) {
				t.Fatalf("error %T is not *CharError", err)
			}
			if ce.Offset != tt.offset {
				t.Errorf("Offset = %d, want %d", ce.Offset, tt.offset)
			}
		})
	}
}

func TestSkeleton(t *testing.T) {
	units, err := Segment("فَتَحَ الْبَابَ.")
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if got := Skeleton(units); got != "فتح الباب." {
		t.Errorf("Skeleton() = %q, want %q", got, "فتح الباب.")
	}
}

func TestIsValidGenerated(t *testing.T) {
	var alphabet []string
	for _, r := range Letters() {
		alphabet = append(alphabet, string(r))
	}
	for _, d := range BasicDiacritics() {
		alphabet = append(alphabet, string(d))
	}
	for _, r := range Punctuations() {
		alphabet = append(alphabet, string(r))
	}
	alphabet = append(alphabet, " ")

	if !IsValid("") {
		t.Error("IsValid(\"\") = false, want true")
	}

	rng := rand.New(rand.NewSource(1234))
	for i := 0; i < 500; i++ {
		var b strings.Builder
		n := rng.Intn(40)
		for j := 0; j < n; j++ {
			b.WriteString(alphabet[rng.Intn(len(alphabet))])
		}
		s := b.String()
		if !IsValid(s) {
			t.Fatalf("IsValid(%+q) = false, want true", s)
		}
		if FilterValid(s) != s {
			t.Fatalf("FilterValid(%+q) changed a valid string", s)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("فَتَحَ الْبَابَ!"); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
	err := Validate("باب 1")
	if !errors.Is(err, ErrInvalidCharacter) {
		t.Fatalf("Validate() error = %v, want ErrInvalidCharacter", err)
	}
	var ce *CharError
	if errors.As(err, &ce) && ce.Rune != '1' {
		t.Errorf("Rune = %q, want '1'", ce.Rune)
	}
}

func TestFilterValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"already valid", "بَاب", "بَاب"},
		{"latin removed", "abc باب", " باب"},
		{"digits and tatweel removed", "\u0628\u0640\u0627\u0628 123", "\u0628\u0627\u0628 "},
		{"newline removed", "باب\nباب", "بابباب"},
		{"order kept", "x،y؟z", "،؟"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterValid(tt.input); got != tt.want {
				t.Errorf("FilterValid(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripDiacritics(t *testing.T) {
	if got := StripDiacritics("فَتَحَ الْبَابَ"); got != "فتح الباب" {
		t.Errorf("StripDiacritics() = %q, want %q", got, "فتح الباب")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapse spaces", "  باب   باب\t\n", "باب باب"},
		{"shadda moved first", "\u062F\u064E\u0651", "\u062F\u0651\u064E"},
		{"hamza composed", "\u0627\u0654", "\u0623"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%+q) = %+q, want %+q", tt.input, got, tt.want)
			}
		})
	}
}
