package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"automationhub/internal/scheduler"
	"automationhub/internal/store"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage scheduled jobs",
	Long: `Jobs are shell commands repeated on a fixed interval (--every) or a
cron expression (--cron). Adding a job only stores it; the schedule
daemon ('hub schedule run') or the dashboard executes due jobs.`,
}

var (
	jobEvery int
	jobCron  string
	jobRunsN int
)

var jobAddCmd = &cobra.Command{
	Use:   "add <name> <command>",
	Short: "Add a job with an interval or cron schedule",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scheduleType := store.ScheduleInterval
		if jobCron != "" {
			scheduleType = store.ScheduleCron
		}
		if err := scheduler.ValidateSchedule(scheduleType, jobEvery, jobCron); err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		job := &store.Job{
			Name:            args[0],
			Command:         strings.Join(args[1:], " "),
			ScheduleType:    scheduleType,
			IntervalSeconds: jobEvery,
			CronExpr:        jobCron,
			Enabled:         true,
		}
		if err := st.CreateJob(job); err != nil {
			return err
		}
		fmt.Printf("Added job %s (%s)\n", job.Describe(), job.ID)
		return nil
	},
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs with their last run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		jobs, err := st.ListJobs()
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No jobs. Add one with: hub job add <name> <command> --every N")
			return nil
		}
		for _, job := range jobs {
			state := "enabled"
			if !job.Enabled {
				state = "disabled"
			}
			lastRun := "never"
			if job.LastRunAt != nil {
				lastRun = job.LastRunAt.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%-36s %-40s %-8s last run %s\n", job.ID, job.Describe(), state, lastRun)
		}
		return nil
	},
}

var jobRmCmd = &cobra.Command{
	Use:   "rm <job>",
	Short: "Delete a job and its run history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		job, err := st.FindJob(args[0])
		if err != nil {
			return err
		}
		if err := st.DeleteJob(job.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted job %q\n", job.Name)
		return nil
	},
}

var jobEnableCmd = &cobra.Command{
	Use:   "enable <job>",
	Short: "Enable a job",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setJobEnabled(args[0], true) },
}

var jobDisableCmd = &cobra.Command{
	Use:   "disable <job>",
	Short: "Disable a job without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setJobEnabled(args[0], false) },
}

var jobRunsCmd = &cobra.Command{
	Use:   "runs <job>",
	Short: "Show a job's recent runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		job, err := st.FindJob(args[0])
		if err != nil {
			return err
		}
		runs, err := st.ListRuns(job.ID, jobRunsN)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Printf("No runs recorded for %q\n", job.Name)
			return nil
		}
		for _, run := range runs {
			status := "ok"
			if !run.Success {
				status = fmt.Sprintf("FAILED (exit %d)", run.ExitCode)
			}
			fmt.Printf("%s  %-18s %s\n",
				run.StartedAt.Local().Format("2006-01-02 15:04:05"),
				status,
				firstLine(run.Output))
		}
		return nil
	},
}

func setJobEnabled(ref string, enabled bool) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	job, err := st.FindJob(ref)
	if err != nil {
		return err
	}
	if err := st.SetJobEnabled(job.ID, enabled); err != nil {
		return err
	}
	word := "Enabled"
	if !enabled {
		word = "Disabled"
	}
	fmt.Printf("%s job %q\n", word, job.Name)
	return nil
}

// firstLine trims output to its first line for list views.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}

func init() {
	jobAddCmd.Flags().IntVar(&jobEvery, "every", 0, "Run every N seconds")
	jobAddCmd.Flags().StringVar(&jobCron, "cron", "", `Cron expression, e.g. "*/5 * * * *"`)
	jobAddCmd.MarkFlagsMutuallyExclusive("every", "cron")

	jobRunsCmd.Flags().IntVarP(&jobRunsN, "limit", "n", 20, "Number of runs to show")

	jobCmd.AddCommand(jobAddCmd)
	jobCmd.AddCommand(jobListCmd)
	jobCmd.AddCommand(jobRmCmd)
	jobCmd.AddCommand(jobEnableCmd)
	jobCmd.AddCommand(jobDisableCmd)
	jobCmd.AddCommand(jobRunsCmd)
}
