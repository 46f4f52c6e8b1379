// Command tabclean converts and cleans tabular files from the command line.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	_ "github.com/JonMunkholm/tabconvert/internal/core/formats" // Register all formats
	"github.com/JonMunkholm/tabconvert/internal/logging"
)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "tabclean",
		Short: "Clean and convert CSV and Excel files",
		Long: `tabclean reads delimited text or xlsx workbooks, normalizes separators,
null markers and thousands grouping, drops blank and duplicate rows, and
writes the result as xlsx or BOM-prefixed CSV.`,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newConvertCmd(), newSniffCmd(), newFormatsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
