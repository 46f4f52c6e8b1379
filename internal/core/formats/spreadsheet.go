package formats

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/tabconvert/internal/core"
)

// SheetName is the single worksheet written by WriteSpreadsheet.
const SheetName = "Cleaned"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func init() {
	registerSpreadsheet()
}

func registerSpreadsheet() {
	core.RegisterFormat(core.FormatDefinition{
		Format:      core.FormatSpreadsheet,
		Label:       "Excel workbook (XLSX)",
		Extensions:  []string{".xlsx", ".xlsm"},
		Aliases:     []string{"xlsx", "excel", "spreadsheet"},
		ContentType: xlsxContentType,
		Read:        ReadSpreadsheet,
		Write:       WriteSpreadsheet,
	})
}

// ReadSpreadsheet loads the first worksheet of an xlsx workbook. The first
// row is the header; every cell is read as its displayed text and empty
// cells become missing values. Short rows are padded to the widest row.
func ReadSpreadsheet(ctx context.Context, raw []byte, _ core.ReadOptions) (*core.ReadResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.ErrParseFailure
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet: sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, core.ErrParseFailure
	}

	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	header := make([]string, width)
	copy(header, rows[0])
	table := core.NewTable(core.HeaderNames(header)...)

	for i, r := range rows[1:] {
		if i%core.ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := make(core.Row, width)
		for j, cell := range r {
			if cell != "" {
				row[j] = core.Str(cell)
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return &core.ReadResult{
		Table: table,
		Parse: core.ParseStats{RowsRead: len(table.Rows)},
	}, nil
}

// WriteSpreadsheet renders t as an xlsx workbook with one sheet named
// SheetName: a header row followed by the data rows, without an index
// column. Missing cells are left empty.
func WriteSpreadsheet(t *core.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, fmt.Errorf("open sheet: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, name := range t.Columns {
		if err := checkCellLength(name); err != nil {
			return nil, fmt.Errorf("header %d: %w", i+1, err)
		}
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	values := make([]interface{}, len(t.Columns))
	for i, row := range t.Rows {
		for j := range values {
			values[j] = nil
			if j < len(row) && row[j].Valid {
				if err := checkCellLength(row[j].S); err != nil {
					return nil, fmt.Errorf("row %d column %q: %w", i+1, t.Columns[j], err)
				}
				values[j] = row[j].S
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := sw.SetRow(cell, values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// checkCellLength rejects values the xlsx format cannot hold. The stream
// writer would otherwise truncate them silently.
func checkCellLength(s string) error {
	if len(s) > excelize.TotalCellChars && utf8.RuneCountInString(s) > excelize.TotalCellChars {
		return excelize.ErrCellCharsLength
	}
	return nil
}
