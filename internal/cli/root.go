package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "searchdate",
	Short:         "Resolve Spanish date expressions and run date-scoped document search",
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
