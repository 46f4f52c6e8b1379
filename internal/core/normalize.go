package core

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rewrites applied before parsing, in order.
var (
	separatorReplacer = strings.NewReplacer(";", ",", "\t", ",")
	nullReplacer      = strings.NewReplacer("Null", "NA", "NULL", "NA", "null", "NA")
)

// NormalizeText decodes raw and rewrites it into the canonical delimited
// form:
//
//  1. semicolons and tabs become commas
//  2. the literals Null, NULL and null become NA
//  3. a comma sitting between a digit and exactly three digits followed by a
//     word boundary is removed, so "12,300" reads as "12300"
//
// It never fails. Undecodable bytes become U+FFFD.
func NormalizeText(raw []byte, declaredEncoding string) NormalizedText {
	text, enc, replaced := decodeText(raw, declaredEncoding)

	text = separatorReplacer.Replace(text)
	text = nullReplacer.Replace(text)
	text = stripThousandsSeparators(text)

	return NormalizedText{Text: text, Encoding: enc, Replacements: replaced}
}

// stripThousandsSeparators removes every comma preceded by a digit and
// followed by three digits that end at a word boundary. Context is always
// read from the unmodified input, so "1,234,567" becomes "1234567".
func stripThousandsSeparators(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	prev := rune(-1)
	for i, r := range s {
		if r == ',' && prev >= 0 && unicode.IsDigit(prev) && groupOfThreeAt(s[i+1:]) {
			prev = r
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// groupOfThreeAt reports whether s starts with exactly three digits followed
// by a non-word character or the end of input.
func groupOfThreeAt(s string) bool {
	for n := 0; n < 3; n++ {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || !unicode.IsDigit(r) {
			return false
		}
		s = s[size:]
	}
	if s == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s)
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
