package main

import (
	"fmt"
	"os"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "questd",
	Short: "Quest progression backend",
	Long: `questd serves the quest progression API: accounts, the game and quest
catalog, quest completion and XP levels.

Running it without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup(os.Stdout, logging.ParseLevel(os.Getenv("LOG_LEVEL")))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
