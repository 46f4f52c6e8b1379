package core

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name          string
		sample        string
		wantDelim     rune
		wantConfident bool
	}{
		{"comma", "a,b,c\n1,2,3\n4,5,6\n", ',', true},
		{"semicolon", "a;b\n1;2\n", ';', true},
		{"tab", "a\tb\tc\n1\t2\t3\n", '\t', true},
		{"pipe", "a|b|c\n1|2|3\n4|5|6\n", '|', true},
		{"pipe with stray comma", "a|b|c\n1|2,5|3\n4|5|6\n", '|', true},
		{"header only", "a,b,c", ',', true},
		{"crlf line endings", "a;b\r\n1;2\r\n", ';', true},
		{"blank lines ignored", "a,b\n\n1,2\n\n", ',', true},
		{"preference breaks ties", "a,b|c\n1,2|3\n", ',', true},
		{"single column", "name\nalice\nbob\n", 0, false},
		{"empty", "", 0, false},
		{"inconsistent counts", "a,b\n1,2,3\n4\n", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SniffDelimiter(tt.sample)
			if ok != tt.wantConfident {
				t.Fatalf("SniffDelimiter() confident = %v, want %v", ok, tt.wantConfident)
			}
			if got != tt.wantDelim {
				t.Errorf("SniffDelimiter() = %q, want %q", got, tt.wantDelim)
			}
		})
	}
}

func TestSniffDelimiter_FirstQualifyingSetIsKept(t *testing.T) {
	// The first chunk qualifies both ',' and '|'. The second chunk only
	// agrees with '|', but the set found first still decides.
	sample := strings.Repeat("a,b|c\n", 10) + strings.Repeat("a,b,c|d\n", 10)

	got, ok := SniffDelimiter(sample)
	if !ok || got != ',' {
		t.Errorf("SniffDelimiter() = %q, %v; want ',', true", got, ok)
	}
}

func TestSniffDelimiter_ToleratesOddLine(t *testing.T) {
	// One line in thirty disagrees. The first two chunks fall short of the
	// 90% floor; the third qualifies once the threshold relaxes.
	var b strings.Builder
	b.WriteString("x|y|z\n")
	for i := 0; i < 29; i++ {
		b.WriteString("x|y\n")
	}

	got, ok := SniffDelimiter(b.String())
	if !ok || got != '|' {
		t.Errorf("SniffDelimiter() = %q, %v; want '|', true", got, ok)
	}
}

func TestDetectDialect_FallsBackToComma(t *testing.T) {
	d := DetectDialect("only\none\ncolumn\n")
	if d.Confident {
		t.Error("Confident = true, want false")
	}
	if d.Delimiter != DefaultDelimiter {
		t.Errorf("Delimiter = %q, want %q", d.Delimiter, DefaultDelimiter)
	}
}

func TestSniffSample(t *testing.T) {
	short := "a,b\n1,2\n"
	if got := SniffSample(short); got != short {
		t.Errorf("SniffSample(short) = %q, want input unchanged", got)
	}

	long := strings.Repeat("a", SniffSampleSize-1) + "é" + "tail"
	got := SniffSample(long)
	if !utf8.ValidString(got) {
		t.Error("sample cut a rune in half")
	}
	if len(got) != SniffSampleSize-1 {
		t.Errorf("len(sample) = %d, want %d", len(got), SniffSampleSize-1)
	}

	exact := strings.Repeat("b", SniffSampleSize+10)
	if got := SniffSample(exact); len(got) != SniffSampleSize {
		t.Errorf("len(sample) = %d, want %d", len(got), SniffSampleSize)
	}
}

func TestDetectDialect_UsesOnlySample(t *testing.T) {
	// Semicolons beyond the sample window must not influence the result.
	head := strings.Repeat("a,b\n", SniffSampleSize/4)
	text := head + strings.Repeat("a;b;c;d\n", 100)

	d := DetectDialect(text)
	if d.Delimiter != ',' || !d.Confident {
		t.Errorf("Delimiter = %q (confident %v), want ','", d.Delimiter, d.Confident)
	}
	if len(d.Sample) > SniffSampleSize {
		t.Errorf("sample length %d exceeds %d", len(d.Sample), SniffSampleSize)
	}
}
