package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"newsagent/internal/app"
	"newsagent/internal/config"
	"newsagent/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "newsagent",
	Short: "Community discussion and newsletter analysis pipeline",
	Long: `newsagent fetches top community discussions and newsletter emails,
runs an LLM analysis over them, saves the artifacts of every run and pushes
the results to Telegram.

Examples:
  newsagent run                             # One run with configured defaults
  newsagent run --boards "LocalLLaMA:5"     # Override the board list
  newsagent schedule enable --time 07:00    # Persist a daily trigger
  newsagent serve                           # Run the background scheduler
  newsagent history --limit 5               # Show recent runs`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
}

// newApplication builds the wired application from .env, config file and
// environment.
func newApplication() (*app.Application, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: cannot load .env: %v\n", err)
	}

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	return app.New(cfg, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
