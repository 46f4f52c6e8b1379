package formats

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/JonMunkholm/tabconvert/internal/core"
)

// utf8BOM prefixes every delimited export.
const utf8BOM = "\uFEFF"

func init() {
	registerDelimited()
}

func registerDelimited() {
	core.RegisterFormat(core.FormatDefinition{
		Format:      core.FormatDelimited,
		Label:       "Delimited text (CSV)",
		Extensions:  []string{".csv", ".tsv", ".txt"},
		Aliases:     []string{"csv", "text"},
		ContentType: "text/csv; charset=utf-8",
		Read:        core.ReadDelimited,
		Write:       WriteDelimited,
	})
}

// WriteDelimited renders t as comma-separated UTF-8 text with a byte-order
// mark. Missing cells are written as empty fields.
func WriteDelimited(t *core.Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j := range rec {
			rec[j] = ""
			if j < len(row) {
				rec[j] = row[j].String()
			}
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return buf.Bytes(), nil
}
