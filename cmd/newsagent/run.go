package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"newsagent/internal/domain"
)

var (
	runBoards     string
	runTimeFilter string
	runComments   int
	runReplies    int
	runModel      string
	runNotify     bool
	runNarrate    bool
	runEmails     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one analysis run",
	Long: `Execute the full pipeline once: fetch top posts and comment threads,
optionally fetch newsletter emails, run the LLM analysis, save the run
artifacts and optionally notify Telegram.

Boards use the "name:limit, name:limit" form, for example
"LocalLLaMA:10, MachineLearning:2".`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runBoards, "boards", "", "Boards to scan as \"name:limit, ...\" (default: configured)")
	runCmd.Flags().StringVar(&runTimeFilter, "time-filter", "", "Ranking period: hour, day, week, month, year, all")
	runCmd.Flags().IntVar(&runComments, "comments", 0, "Top comments per post (max 10)")
	runCmd.Flags().IntVar(&runReplies, "replies", 0, "Replies per comment (max 5)")
	runCmd.Flags().StringVar(&runModel, "model", "", "Analysis model override")
	runCmd.Flags().BoolVar(&runNotify, "notify", true, "Send results to Telegram")
	runCmd.Flags().BoolVar(&runNarrate, "narrate", false, "Generate an audio narration of the analysis")
	runCmd.Flags().BoolVar(&runEmails, "emails", false, "Include newsletter emails in the analysis")
}

func runOnce(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}
	defer application.Close()

	cfg := application.Config().Run.RunConfig()
	applyRunFlags(cmd, &cfg)

	artifacts, err := application.RunOnce(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Run complete: %d posts analyzed\n", artifacts.PostCount)
	fmt.Printf("  analysis:  %s\n", artifacts.AnalysisPath)
	fmt.Printf("  raw data:  %s\n", artifacts.RawDataPath)
	fmt.Printf("  llm input: %s\n", artifacts.LLMInputPath)
	if artifacts.EmailsPath != "" {
		fmt.Printf("  emails:    %s\n", artifacts.EmailsPath)
	}
	if artifacts.AudioPath != "" {
		fmt.Printf("  audio:     %s\n", artifacts.AudioPath)
	}
	return nil
}

func applyRunFlags(cmd *cobra.Command, cfg *domain.RunConfig) {
	if cmd.Flags().Changed("boards") {
		cfg.Boards = domain.ParseBoards(runBoards)
	}
	if cmd.Flags().Changed("time-filter") {
		cfg.TimeFilter = domain.TimeFilter(runTimeFilter)
	}
	if cmd.Flags().Changed("comments") {
		cfg.TopComments = runComments
	}
	if cmd.Flags().Changed("replies") {
		cfg.RepliesPerComment = runReplies
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = runModel
	}
	cfg.Notify = runNotify
	cfg.Narrate = runNarrate
	cfg.FetchEmails = runEmails
	cfg.Clamp()
}
