package core

import (
	"strings"
	"unicode/utf8"
)

// SniffSampleSize is how many leading bytes of the text the sniffer inspects.
const SniffSampleSize = 4096

// Candidates the sniffer chooses between, in preference order.
var sniffCandidates = []rune{',', '\t', ';', '|'}

const (
	sniffChunkLines     = 10
	sniffMinConsistency = 0.9
)

// SniffSample returns the leading SniffSampleSize bytes of text, trimmed back
// to a rune boundary.
func SniffSample(text string) string {
	if len(text) <= SniffSampleSize {
		return text
	}
	sample := text[:SniffSampleSize]
	// Drop a multi-byte rune cut in half by the limit.
	for i := len(sample) - 1; i >= 0 && i >= len(sample)-utf8.UTFMax; i-- {
		if utf8.RuneStart(sample[i]) {
			if !utf8.FullRuneInString(sample[i:]) {
				sample = sample[:i]
			}
			break
		}
	}
	return sample
}

// SniffDelimiter infers the field separator of sample.
//
// For each candidate the per-line occurrence counts are tallied in chunks of
// ten lines. A candidate qualifies when its modal count is positive and the
// lines agreeing with the mode, less the lines that disagree, cover a
// sufficient share of the lines seen so far. The share required starts at
// 100% and relaxes to 90%. A single qualifying candidate wins immediately.
// Once several qualify the set is frozen and later chunks only add to the
// tallies; the set is resolved by preference order.
//
// The second result is false when no candidate qualifies.
func SniffDelimiter(sample string) (rune, bool) {
	var lines []string
	for _, l := range strings.Split(sample, "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return 0, false
	}

	chunk := sniffChunkLines
	if len(lines) < chunk {
		chunk = len(lines)
	}

	freqs := make(map[rune]*countTally, len(sniffCandidates))
	for _, c := range sniffCandidates {
		freqs[c] = &countTally{}
	}

	delims := make(map[rune]modeScore)
	iteration := 0
	for start := 0; start < len(lines); start += chunk {
		iteration++
		end := start + chunk
		if end > len(lines) {
			end = len(lines)
		}
		for _, line := range lines[start:end] {
			for _, c := range sniffCandidates {
				freqs[c].add(strings.Count(line, string(c)))
			}
		}

		modes := make(map[rune]modeScore)
		for _, c := range sniffCandidates {
			if m, ok := freqs[c].mode(); ok {
				modes[c] = m
			}
		}

		total := float64(chunk * iteration)
		if total > float64(len(lines)) {
			total = float64(len(lines))
		}

		for consistency := 1.0; len(delims) == 0 && consistency >= sniffMinConsistency; consistency -= 0.01 {
			for c, m := range modes {
				if m.count > 0 && m.agree > 0 && float64(m.agree)/total >= consistency {
					delims[c] = m
				}
			}
		}

		if len(delims) == 1 {
			for c := range delims {
				return c, true
			}
		}
	}

	for _, c := range sniffCandidates {
		if _, ok := delims[c]; ok {
			return c, true
		}
	}
	return 0, false
}

// modeScore is the most common per-line count of a character and how many
// more lines agree with it than disagree.
type modeScore struct {
	count int
	agree int
}

// countTally records how many lines contained a character n times,
// remembering the order in which each n was first seen.
type countTally struct {
	order []int
	lines map[int]int
}

func (t *countTally) add(n int) {
	if t.lines == nil {
		t.lines = make(map[int]int)
	}
	if _, seen := t.lines[n]; !seen {
		t.order = append(t.order, n)
	}
	t.lines[n]++
}

// mode returns the modal count. It reports false for a character that never
// appeared on any line.
func (t *countTally) mode() (modeScore, bool) {
	if len(t.order) == 0 || (len(t.order) == 1 && t.order[0] == 0) {
		return modeScore{}, false
	}

	best := t.order[0]
	for _, n := range t.order[1:] {
		if t.lines[n] > t.lines[best] {
			best = n
		}
	}

	others := 0
	for _, n := range t.order {
		if n != best {
			others += t.lines[n]
		}
	}
	return modeScore{count: best, agree: t.lines[best] - others}, true
}

// DetectDialect sniffs text and substitutes DefaultDelimiter when the
// heuristic is not confident.
func DetectDialect(text string) Dialect {
	sample := SniffSample(text)
	delim, ok := SniffDelimiter(sample)
	if !ok {
		delim = DefaultDelimiter
	}
	return Dialect{Delimiter: delim, Sample: sample, Confident: ok}
}
