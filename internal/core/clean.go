package core

import (
	"context"
	"strconv"
	"strings"
)

// CleanTable returns a cleaned copy of t. The steps run in a fixed order:
//
//  1. rows whose every cell is missing or blank are dropped
//  2. duplicate rows are removed, keeping the first occurrence
//  3. column names are trimmed, then renamed by HeaderNames if trimming
//     left them blank or repeated
//  4. cell values are trimmed; missing cells stay missing
//
// Rows are compared for duplication by their trimmed values, so a row that
// differs from an earlier one only in surrounding whitespace counts as a
// duplicate. This keeps CleanTable idempotent. The input is not modified.
func CleanTable(t *Table) (*Table, CleanStats) {
	out, stats, _ := CleanTableContext(context.Background(), t)
	return out, stats
}

// CleanTableContext is CleanTable with a cancellation check every
// ContextCheckInterval rows.
func CleanTableContext(ctx context.Context, t *Table) (*Table, CleanStats, error) {
	var stats CleanStats

	names := make([]string, len(t.Columns))
	for i, name := range t.Columns {
		names[i] = strings.TrimSpace(name)
	}
	out := &Table{Columns: HeaderNames(names)}

	seen := make(map[string]struct{}, len(t.Rows))
	for i, row := range t.Rows {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		if rowIsBlank(row) {
			stats.EmptyRowsDropped++
			continue
		}

		trimmed := trimRow(row)
		key := rowKey(trimmed)
		if _, dup := seen[key]; dup {
			stats.DuplicateRowsDropped++
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, trimmed)
	}

	return out, stats, nil
}

func rowIsBlank(row Row) bool {
	for _, v := range row {
		if !v.Blank() {
			return false
		}
	}
	return true
}

func trimRow(row Row) Row {
	out := make(Row, len(row))
	for i, v := range row {
		if v.Valid {
			out[i] = Str(strings.TrimSpace(v.S))
		}
	}
	return out
}

// rowKey encodes a row so that two rows share a key only when every cell
// matches, with missing distinct from the empty string.
func rowKey(row Row) string {
	var b strings.Builder
	for _, v := range row {
		if !v.Valid {
			b.WriteString("-;")
			continue
		}
		b.WriteString(strconv.Itoa(len(v.S)))
		b.WriteByte(':')
		b.WriteString(v.S)
	}
	return b.String()
}
