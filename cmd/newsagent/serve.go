package main

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background scheduler until interrupted",
	Long: `Load the persisted schedule record and keep the daily trigger loop
alive. The process exits cleanly on SIGINT or SIGTERM; an in-flight run is
allowed to finish.`,
	RunE: serve,
}

func serve(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}
	defer application.Close()

	printStatus(application)
	return application.Serve(cmd.Context())
}
