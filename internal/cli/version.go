package cmd

import (
	"fmt"
	"io"

	"github.com/rohmanhakim/beu-result-proxy/internal/build"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the application version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "beu-result-proxy version %s (built %s)\n", build.FullVersion(), build.BuildTime)
	},
}

// RunVersionForTest executes the version subcommand and writes to out.
func RunVersionForTest(out io.Writer) error {
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)
	return rootCmd.Execute()
}
