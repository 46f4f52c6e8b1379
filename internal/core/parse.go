package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ContextCheckInterval is how many rows are processed between checks for
// context cancellation.
const ContextCheckInterval = 1000

// ParseTable parses normalized text into a Table using delim as the field
// separator. See ParseTableContext.
func ParseTable(text string, delim rune) (*Table, ParseStats, error) {
	return ParseTableContext(context.Background(), text, delim)
}

// ParseTableContext parses delimited text leniently.
//
// The first record is the header. Data rows whose field count differs from
// the header are skipped and counted in ParseStats.MalformedRows. Empty
// fields become missing values; everything else is kept as text. Text that
// is not valid UTF-8 is re-read as Latin-1.
//
// ErrParseFailure is returned only when no header row exists.
func ParseTableContext(ctx context.Context, text string, delim rune) (*Table, ParseStats, error) {
	var stats ParseStats

	if !utf8.ValidString(text) {
		text = decodeLatin1([]byte(text))
		stats.EncodingFallback = true
	}
	text = strings.TrimPrefix(text, "\uFEFF")

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = validDelimiter(delim)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, ErrParseFailure
	}
	if err != nil {
		return nil, stats, fmt.Errorf("%w: header: %v", ErrParseFailure, err)
	}

	table := NewTable(HeaderNames(header)...)

	for line := 1; ; line++ {
		if line%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.MalformedRows++
				continue
			}
			return nil, stats, fmt.Errorf("read row %d: %w", line, err)
		}

		if len(rec) != len(table.Columns) {
			stats.MalformedRows++
			continue
		}

		row := make(Row, len(rec))
		for i, field := range rec {
			if field != "" {
				row[i] = Str(field)
			}
		}
		table.Rows = append(table.Rows, row)
	}

	stats.RowsRead = len(table.Rows)
	return table, stats, nil
}

// validDelimiter returns d if encoding/csv accepts it as a separator.
func validDelimiter(d rune) rune {
	if d == 0 || d == '"' || d == '\r' || d == '\n' || d == utf8.RuneError || !utf8.ValidRune(d) {
		return DefaultDelimiter
	}
	return d
}

// HeaderNames names blank header cells "Unnamed: <index>" and makes repeated
// names unique by suffixing ".1", ".2" and so on.
func HeaderNames(header []string) []string {
	names := make([]string, len(header))
	counts := make(map[string]int, len(header))

	for i, name := range header {
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}

		n := counts[name]
		for n > 0 {
			counts[name] = n + 1
			name = name + "." + strconv.Itoa(n)
			n = counts[name]
		}
		names[i] = name
		counts[name] = n + 1
	}
	return names
}
