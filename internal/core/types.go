package core

import (
	"strings"
	"time"
)

// Format identifies a tabular file format understood by the converter.
type Format string

const (
	// FormatSpreadsheet is an xlsx workbook.
	FormatSpreadsheet Format = "tabular-spreadsheet"

	// FormatDelimited is delimiter-separated text (CSV and friends).
	FormatDelimited Format = "delimited-text"
)

// DefaultDelimiter is used whenever the sniffer cannot decide.
const DefaultDelimiter = ','

// Value is a single table cell: a string or missing.
type Value struct {
	S     string
	Valid bool
}

// Str returns a present cell holding s.
func Str(s string) Value { return Value{S: s, Valid: true} }

// Missing returns an absent cell.
func Missing() Value { return Value{} }

// String renders the cell, with missing values as the empty string.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return v.S
}

// Blank reports whether the cell is missing or holds only whitespace.
func (v Value) Blank() bool {
	return !v.Valid || strings.TrimSpace(v.S) == ""
}

// Row is a positional record aligned with Table.Columns.
type Row []Value

// Table is an ordered set of named columns and ordered rows.
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// AppendStrings adds a row of present cells. Empty strings become missing,
// matching what the parser produces.
func (t *Table) AppendStrings(cells ...string) {
	row := make(Row, len(t.Columns))
	for i := range row {
		if i < len(cells) && cells[i] != "" {
			row[i] = Str(cells[i])
		}
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of the first column with the given name.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Get returns the cell at row i under column name.
// The second result is false when the column does not exist.
func (t *Table) Get(i int, name string) (Value, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return Value{}, false
	}
	return t.Rows[i][idx], true
}

// Records renders the table as string records, header first.
// Missing cells become empty strings.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	header := make([]string, len(t.Columns))
	copy(header, t.Columns)
	out = append(out, header)
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = v.String()
		}
		out = append(out, rec)
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := NewTable(t.Columns...)
	c.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append(Row(nil), row...)
	}
	return c
}

// Dialect describes the inferred structure of delimited text.
type Dialect struct {
	Delimiter rune
	Sample    string
	Confident bool
}

// NormalizedText is delimited text after the rewriting pass.
// Text is always valid UTF-8.
type NormalizedText struct {
	Text         string
	Encoding     string // encoding used to decode the raw bytes
	Replacements int    // invalid byte sequences replaced with U+FFFD
}

// ParseStats reports what the parser recovered and skipped.
type ParseStats struct {
	RowsRead         int  // data rows kept
	MalformedRows    int  // rows skipped for a field count mismatch
	EncodingFallback bool // text was re-decoded as Latin-1
}

// CleanStats reports what the cleaning pipeline removed.
type CleanStats struct {
	EmptyRowsDropped     int
	DuplicateRowsDropped int
}

// ReadResult is the outcome of turning a source file into a table.
type ReadResult struct {
	Table   *Table
	Dialect Dialect
	Parse   ParseStats
	Text    NormalizedText
}

// ReadOptions tunes how a source document is decoded.
type ReadOptions struct {
	// Encoding is a declared charset name, "auto" to detect, or empty for UTF-8.
	Encoding string
}

// ConversionRequest describes one file to convert.
type ConversionRequest struct {
	FileName string
	Source   Format
	Target   Format
	Encoding string
}

// ConversionResult is the produced artifact plus diagnostics.
type ConversionResult struct {
	ID          string
	FileName    string
	ContentType string
	Data        []byte

	Source  Format
	Target  Format
	Dialect Dialect
	Parse   ParseStats
	Clean   CleanStats
	Rows    int
	Columns int

	Duration time.Duration
}
