// CLAUDE:SUMMARY Label normalizers for geography fields: title-casing, snake-cased headers, numeric detection, pincode padding.
package geo

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PincodeWidth is the fixed width of a cleaned pincode.
const PincodeWidth = 6

// TitleCaser trims and title-cases labels. A word is a run of cased letters,
// so "y.s.r. kadapa" becomes "Y.S.R. Kadapa" and "o'brien" becomes "O'Brien".
// cases.Caser keeps state between calls, so a TitleCaser must not be shared
// between goroutines.
type TitleCaser struct {
	upper cases.Caser
	lower cases.Caser
}

// NewTitleCaser returns a TitleCaser with language-neutral rules.
func NewTitleCaser() *TitleCaser {
	return &TitleCaser{upper: cases.Upper(language.Und), lower: cases.Lower(language.Und)}
}

// Title trims s, upper-cases the first letter of each word and lower-cases the rest.
func (t *TitleCaser) Title(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	start := -1
	for i, r := range s {
		if isCased(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			t.word(&b, s[start:i])
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		t.word(&b, s[start:])
	}
	return b.String()
}

func (t *TitleCaser) word(b *strings.Builder, w string) {
	_, n := utf8.DecodeRuneInString(w)
	b.WriteString(t.upper.String(w[:n]))
	b.WriteString(t.lower.String(w[n:]))
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}

// SnakeColumn trims, lower-cases and replaces spaces with underscores.
func SnakeColumn(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// IsNumeric reports whether s is non-empty and made only of digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Pincode strips the ".0" left by float coercion and left-pads with zeros to
// PincodeWidth. Blank or over-long values become all zeros.
func Pincode(raw string) string {
	p := strings.TrimSuffix(strings.TrimSpace(raw), ".0")
	if len(p) > PincodeWidth {
		return strings.Repeat("0", PincodeWidth)
	}
	return strings.Repeat("0", PincodeWidth-len(p)) + p
}
