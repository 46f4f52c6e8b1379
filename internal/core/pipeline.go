package core

import (
	"context"
	"fmt"
)

// ReadDelimited runs the text pipeline over raw delimited bytes:
// normalization, delimiter sniffing and lenient parsing.
func ReadDelimited(ctx context.Context, raw []byte, opts ReadOptions) (*ReadResult, error) {
	norm := NormalizeText(raw, opts.Encoding)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dialect := DetectDialect(norm.Text)

	table, stats, err := ParseTableContext(ctx, norm.Text, dialect.Delimiter)
	if err != nil {
		return nil, err
	}

	return &ReadResult{
		Table:   table,
		Dialect: dialect,
		Parse:   stats,
		Text:    norm,
	}, nil
}

// ReadTable decodes raw using the registered reader for f.
func ReadTable(ctx context.Context, raw []byte, f Format, opts ReadOptions) (*ReadResult, error) {
	def, ok := LookupFormat(f)
	if !ok || def.Read == nil {
		return nil, fmt.Errorf("%w: cannot read %s", ErrUnsupportedFormat, f)
	}
	return def.Read(ctx, raw, opts)
}

// ExportTable serializes t with the registered writer for f.
// Backend errors are reported as ErrExportFailure.
func ExportTable(t *Table, f Format) ([]byte, error) {
	def, ok := LookupFormat(f)
	if !ok || def.Write == nil {
		return nil, fmt.Errorf("%w: cannot write %s", ErrUnsupportedFormat, f)
	}

	data, err := def.Write(t)
	if err != nil {
		return nil, NewExportError(f, err)
	}
	return data, nil
}

// Conversion is the in-memory outcome of Convert.
type Conversion struct {
	Data    []byte
	Read    *ReadResult
	Cleaned *Table
	Clean   CleanStats
}

// Convert reads raw as source, cleans the table and exports it as target.
// It holds no state between calls and touches no files.
func Convert(ctx context.Context, raw []byte, source, target Format, opts ReadOptions) (*Conversion, error) {
	read, err := ReadTable(ctx, raw, source, opts)
	if err != nil {
		return nil, err
	}

	cleaned, stats, err := CleanTableContext(ctx, read.Table)
	if err != nil {
		return nil, err
	}

	data, err := ExportTable(cleaned, target)
	if err != nil {
		return nil, err
	}

	return &Conversion{Data: data, Read: read, Cleaned: cleaned, Clean: stats}, nil
}
