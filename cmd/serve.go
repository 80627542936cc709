package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the native messaging loop on stdin/stdout",
	Long: `Run the native messaging loop on stdin/stdout.

The browser normally starts the host itself; serve is the same loop for
manual testing. Diagnostics go to the log file and stderr, never stdout.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	h, err := getRuntime(cmd).host()
	if err != nil {
		return err
	}
	return h.Serve(cmd.Context(), os.Stdin, os.Stdout)
}
