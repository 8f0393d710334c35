package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"newsagent/internal/app"
	"newsagent/internal/schedule"
)

var (
	scheduleTime     string
	scheduleTimezone string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage the persisted daily run schedule",
	Long: `Manage the daily trigger record. The record is persisted to disk and
survives restarts; a running "newsagent serve" process picks up changes on its
next restart.`,
}

var scheduleEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable the daily trigger",
	Long: `Enable the daily trigger at the given local time. The current run
defaults are snapshotted into the record, so scheduled runs keep using them
even if the configuration changes later.`,
	RunE: scheduleEnable,
}

var scheduleDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable the daily trigger",
	RunE:  scheduleDisable,
}

var scheduleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schedule record and next trigger time",
	RunE:  scheduleStatus,
}

func init() {
	scheduleEnableCmd.Flags().StringVar(&scheduleTime, "time", "", "Daily trigger time as HH:MM (default: keep persisted value)")
	scheduleEnableCmd.Flags().StringVar(&scheduleTimezone, "timezone", "", "IANA timezone name (default: keep persisted value)")

	scheduleCmd.AddCommand(scheduleEnableCmd)
	scheduleCmd.AddCommand(scheduleDisableCmd)
	scheduleCmd.AddCommand(scheduleStatusCmd)
}

func scheduleEnable(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}
	defer application.Close()

	sched := application.Scheduler()
	state := sched.Load()
	state.Enabled = true

	if scheduleTime != "" {
		hour, minute, err := parseClock(scheduleTime)
		if err != nil {
			return err
		}
		state.Hour, state.Minute = hour, minute
	}
	if scheduleTimezone != "" {
		if _, err := time.LoadLocation(scheduleTimezone); err != nil {
			return fmt.Errorf("unknown timezone %q: %w", scheduleTimezone, err)
		}
		state.Timezone = scheduleTimezone
	}
	state.Config = schedule.ConfigFromRun(application.Config().Run.RunConfig())

	if err := sched.Save(state); err != nil {
		return err
	}
	if sched.Running() {
		sched.Restart()
	}

	fmt.Printf("Schedule enabled: daily at %02d:%02d %s\n", state.Hour, state.Minute, state.Timezone)
	return nil
}

func scheduleDisable(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}
	defer application.Close()

	sched := application.Scheduler()
	state := sched.Load()
	state.Enabled = false

	if err := sched.Save(state); err != nil {
		return err
	}
	sched.Stop()

	fmt.Println("Schedule disabled")
	return nil
}

func scheduleStatus(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}
	defer application.Close()

	printStatus(application)
	return nil
}

func printStatus(application *app.Application) {
	st := application.Scheduler().Status()

	fmt.Printf("Enabled:        %v\n", st.Enabled)
	fmt.Printf("Timer running:  %v\n", st.Running)
	fmt.Printf("Scheduled time: %s %s\n", st.ScheduledTime, st.Timezone)
	if st.Message != "" {
		fmt.Printf("Status:         %s\n", st.Message)
		return
	}
	fmt.Printf("Current time:   %s\n", st.CurrentTime)
	fmt.Printf("Next run:       %s\n", st.NextRun)
}

// parseClock parses "HH:MM" into hour and minute.
func parseClock(s string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
