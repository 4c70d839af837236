package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"automationhub/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the job scheduler",
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the schedule daemon in the foreground",
	Long: `Run ticks once per second and executes every enabled job that is
due. Runs of distinct jobs may overlap; a job that is still running is
skipped until it finishes. Stop with Ctrl+C; in-flight runs are waited
for before exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		jobs, err := st.ListJobs()
		if err != nil {
			return err
		}
		enabled := 0
		for _, job := range jobs {
			if job.Enabled {
				enabled++
			}
		}
		fmt.Printf("Scheduler running: %d job(s), %d enabled (Ctrl+C to stop)\n", len(jobs), enabled)

		err = scheduler.New(cfg, st, newExecutor()).Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Println("Scheduler stopped")
		return nil
	},
}

func init() {
	scheduleCmd.AddCommand(scheduleRunCmd)
}
