package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "maintenance-api",
	Short: "Maintenance ticketing HTTP service",
	Long: `maintenance-api serves the ticketing API: ticket intake, assignment,
expenses, preventive schedules and the per-ticket activity timeline.
Without a subcommand it runs the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
