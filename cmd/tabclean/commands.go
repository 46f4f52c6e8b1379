package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabconvert/internal/core"
)

type convertOptions struct {
	output   string
	from     string
	to       string
	encoding string
}

func newConvertCmd() *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Clean a file and write it in another format",
		Example: strings.TrimSpace(`
  tabclean convert sales.csv
  tabclean convert export.txt --to xlsx -o cleaned.xlsx --encoding auto
  tabclean convert book.xlsx --to csv`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, conv, err := runConvert(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d rows, %d columns (dropped %d malformed, %d empty, %d duplicate)\n",
				out, conv.Cleaned.Len(), len(conv.Cleaned.Columns),
				conv.Read.Parse.MalformedRows, conv.Clean.EmptyRowsDropped, conv.Clean.DuplicateRowsDropped)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: input name with the target extension)")
	f.StringVar(&opts.from, "from", "", "source format (default: from the input extension)")
	f.StringVar(&opts.to, "to", "", "target format: xlsx or csv (default: the other one)")
	f.StringVar(&opts.encoding, "encoding", "", `source text encoding, or "auto" to detect`)
	return cmd
}

// runConvert converts input and returns the path written.
func runConvert(ctx context.Context, input string, opts convertOptions) (string, *core.Conversion, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	source, err := resolveSource(input, opts.from)
	if err != nil {
		return "", nil, err
	}
	target, err := resolveTarget(source, opts.to)
	if err != nil {
		return "", nil, err
	}
	def, _ := core.LookupFormat(target)

	raw, err := os.ReadFile(input)
	if err != nil {
		return "", nil, err
	}
	if len(raw) == 0 {
		return "", nil, fmt.Errorf("%s: %w", input, core.ErrEmptyFile)
	}

	conv, err := core.Convert(ctx, raw, source, target, core.ReadOptions{Encoding: opts.encoding})
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", input, err)
	}

	out := opts.output
	if out == "" {
		out = filepath.Join(filepath.Dir(input), core.DownloadName(input, def.Extension()))
	}
	if sameFile(input, out) {
		return "", nil, fmt.Errorf("refusing to overwrite input %s", input)
	}
	if err := os.WriteFile(out, conv.Data, 0o644); err != nil {
		return "", nil, err
	}

	slog.Debug("converted",
		"input", input,
		"output", out,
		"delimiter", string(conv.Read.Dialect.Delimiter),
		"encoding", conv.Read.Text.Encoding,
	)
	return out, conv, nil
}

func resolveSource(input, from string) (core.Format, error) {
	if from != "" {
		return core.ParseFormat(from)
	}
	return core.FormatForFile(input)
}

// resolveTarget defaults to the opposite of the source format.
func resolveTarget(source core.Format, to string) (core.Format, error) {
	if to != "" {
		return core.ParseFormat(to)
	}
	if source == core.FormatSpreadsheet {
		return core.FormatDelimited, nil
	}
	return core.FormatSpreadsheet, nil
}

func sameFile(a, b string) bool {
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}

func newSniffCmd() *cobra.Command {
	var encoding string

	cmd := &cobra.Command{
		Use:   "sniff <input>",
		Short: "Show the delimiter and encoding inferred for a text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			norm := core.NormalizeText(raw, encoding)
			dialect := core.DetectDialect(norm.Text)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "delimiter\t%s\n", strconv.QuoteRune(dialect.Delimiter))
			fmt.Fprintf(w, "confident\t%t\n", dialect.Confident)
			fmt.Fprintf(w, "encoding\t%s\n", norm.Encoding)
			fmt.Fprintf(w, "replaced bytes\t%d\n", norm.Replacements)
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&encoding, "encoding", "", `source text encoding, or "auto" to detect`)
	return cmd
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FORMAT\tEXTENSIONS\tALIASES\tLABEL")
			for _, def := range core.Formats() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					def.Format,
					strings.Join(def.Extensions, ","),
					strings.Join(def.Aliases, ","),
					def.Label)
			}
			return w.Flush()
		},
	}
}
