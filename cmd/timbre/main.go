// timbre extracts audio features with networks described by recipes.
//
// Usage:
//
//	timbre list [--standard]
//	timbre info <algorithm>
//	timbre analyze --recipe=<path> [--format=yaml|json] [--out=<dir>] [--aggregate] <files>...
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	successExitCode = 0
	errorExitCode   = 1
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "timbre",
		Short: "Audio feature extraction",
		Long:  "Timbre runs streaming networks of audio algorithms over files\nand writes extracted descriptors as YAML or JSON.",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
		Version:      version,
	}
	root.AddCommand(newListCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newAnalyzeCmd())
	return root
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return errorExitCode
	}
	return successExitCode
}

func main() {
	os.Exit(run(os.Args[1:]))
}
