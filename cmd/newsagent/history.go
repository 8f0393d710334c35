package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from the database",
	RunE:  history,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of runs to show")
}

func history(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}
	defer application.Close()

	records, err := application.History(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  %s  %-9s  %3d posts  %s\n",
			rec.StartedAt.Format("2006-01-02 15:04"),
			rec.ID[:8],
			rec.TimeFilter,
			rec.PostCount,
			strings.Join(rec.Boards, ", "))
		fmt.Printf("    %s  (%s, %s)\n", rec.AnalysisPath, rec.Model, rec.Status)
	}
	return nil
}
