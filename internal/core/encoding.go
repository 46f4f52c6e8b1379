package core

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// EncodingAuto asks the decoder to guess the charset from the content.
const EncodingAuto = "auto"

const encodingUTF8 = "utf-8"

// minDetectConfidence is the chardet score below which a guess is ignored.
const minDetectConfidence = 50

// decodeText converts raw bytes to valid UTF-8.
//
// An empty declared encoding means UTF-8. "auto" runs charset detection on
// the leading bytes when they are not already UTF-8. Unknown charset names
// fall back to UTF-8. Invalid UTF-8 sequences are replaced byte by byte with
// U+FFFD and counted.
func decodeText(raw []byte, declared string) (text string, enc string, replaced int) {
	name := strings.ToLower(strings.TrimSpace(declared))

	if name == EncodingAuto {
		name = detectCharset(raw)
	}

	if name != "" && name != encodingUTF8 && name != "utf8" {
		if e, canonical, ok := lookupEncoding(name); ok {
			out, err := e.NewDecoder().Bytes(raw)
			if err == nil {
				text, n := replaceInvalidUTF8(out)
				return text, canonical, n
			}
		}
	}

	text, n := replaceInvalidUTF8(raw)
	return text, encodingUTF8, n
}

// lookupEncoding resolves a charset label to an x/text encoding.
func lookupEncoding(name string) (encoding.Encoding, string, bool) {
	e, err := htmlindex.Get(name)
	if err != nil {
		return nil, "", false
	}
	canonical, err := htmlindex.Name(e)
	if err != nil {
		canonical = name
	}
	return e, strings.ToLower(canonical), true
}

// detectCharset guesses the charset of raw. UTF-8 input, and guesses below
// minDetectConfidence, report UTF-8.
func detectCharset(raw []byte) string {
	peek := raw
	if len(peek) > SniffSampleSize {
		peek = peek[:SniffSampleSize]
	}
	if utf8.Valid(peek) {
		return encodingUTF8
	}

	result, err := chardet.NewTextDetector().DetectBest(peek)
	if err != nil || result == nil || result.Confidence < minDetectConfidence {
		return encodingUTF8
	}
	return strings.ToLower(result.Charset)
}

// replaceInvalidUTF8 substitutes U+FFFD for every byte that does not begin
// a valid UTF-8 sequence.
func replaceInvalidUTF8(data []byte) (string, int) {
	if utf8.Valid(data) {
		return string(data), 0
	}

	var b strings.Builder
	b.Grow(len(data) + 16)
	replaced := 0
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
			replaced++
		} else {
			b.WriteRune(r)
		}
		data = data[size:]
	}
	return b.String(), replaced
}

// decodeLatin1 maps each byte to the code point of the same value.
func decodeLatin1(data []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		runes := make([]rune, len(data))
		for i, b := range data {
			runes[i] = rune(b)
		}
		return string(runes)
	}
	return string(out)
}
