// Package scheduler dispatches hub's stored jobs: shell commands
// repeated on a fixed interval or a cron expression. The dispatch loop
// ticks once per second; due jobs run through the executor with captured
// output, and every run lands in the job_runs history.
//
// Runs of distinct jobs may overlap. Two runs of the same job never do:
// a per-job in-flight guard skips the tick instead of queuing behind it.
package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/google/uuid"

	"automationhub/internal/config"
	"automationhub/internal/execute"
	"automationhub/internal/logging"
	"automationhub/internal/store"
)

// Scheduler owns the dispatch loop.
type Scheduler struct {
	store    *store.Store
	executor execute.Executor

	tickInterval time.Duration
	runTimeout   time.Duration
	maxOutput    int64

	mu       sync.Mutex
	inFlight map[string]bool
	wg       sync.WaitGroup
}

// New builds a scheduler over the given store and executor.
func New(cfg *config.Config, st *store.Store, executor execute.Executor) *Scheduler {
	maxOutput := int64(cfg.Scheduler.MaxOutputKB) * 1024
	if maxOutput <= 0 {
		maxOutput = 256 * 1024
	}
	return &Scheduler{
		store:        st,
		executor:     executor,
		tickInterval: cfg.GetTickInterval(),
		runTimeout:   cfg.GetRunTimeout(),
		maxOutput:    maxOutput,
		inFlight:     make(map[string]bool),
	}
}

// ValidateSchedule checks a job's schedule parameters at add time.
func ValidateSchedule(scheduleType string, intervalSeconds int, cronExpr string) error {
	switch scheduleType {
	case store.ScheduleInterval:
		if intervalSeconds < 1 {
			return fmt.Errorf("interval must be at least 1 second, got %d", intervalSeconds)
		}
	case store.ScheduleCron:
		if !gronx.New().IsValid(cronExpr) {
			return fmt.Errorf("invalid cron expression %q", cronExpr)
		}
	default:
		return fmt.Errorf("unknown schedule type %q", scheduleType)
	}
	return nil
}

// Run drives the dispatch loop until the context is canceled, then waits
// for in-flight runs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	logging.Sched("Scheduler started (tick=%s, run timeout=%s)", s.tickInterval, s.runTimeout)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Sched("Scheduler stopping, waiting for in-flight runs")
			s.wg.Wait()
			logging.Sched("Scheduler stopped")
			return ctx.Err()
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

// tick dispatches every enabled due job that is not already running.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	jobs, err := s.store.ListJobs()
	if err != nil {
		logging.SchedError("Failed to list jobs: %v", err)
		return
	}

	for i := range jobs {
		job := jobs[i]
		if !job.Enabled {
			continue
		}

		due, err := jobIsDue(&job, now)
		if err != nil {
			logging.SchedWarn("Job %s has a broken schedule: %v", job.ID, err)
			continue
		}
		if !due {
			continue
		}

		s.mu.Lock()
		if s.inFlight[job.ID] {
			s.mu.Unlock()
			logging.SchedDebug("Job %s still running, skipping tick", job.ID)
			continue
		}
		s.inFlight[job.ID] = true
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.inFlight, job.ID)
				s.mu.Unlock()
			}()
			s.runJob(ctx, job, now)
		}()
	}
}

// runJob executes one job and records the outcome.
func (s *Scheduler) runJob(ctx context.Context, job store.Job, now time.Time) {
	runID := uuid.NewString()
	runLog := logging.WithRunID(logging.CategorySched, runID)
	runLog.Info("Dispatching %s: %s", job.Describe(), job.Command)

	if err := s.store.MarkJobRun(job.ID, now, nextRunTime(&job, now)); err != nil {
		logging.SchedWarn("Failed to update run bookkeeping for %s: %v", job.ID, err)
	}

	bin, args := shellCommand(job.Command)
	started := time.Now().UTC()
	result, err := s.executor.Execute(ctx, execute.Command{
		Binary:         bin,
		Arguments:      args,
		Timeout:        s.runTimeout,
		MaxOutputBytes: s.maxOutput,
		RunID:          runID,
	})
	finished := time.Now().UTC()

	run := &store.JobRun{
		ID:         runID,
		JobID:      job.ID,
		StartedAt:  started,
		FinishedAt: finished,
	}
	switch {
	case err != nil:
		run.ExitCode = -1
		run.Output = err.Error()
		runLog.Error("Job %s failed to start: %v", job.ID, err)
	case result.IsError():
		run.ExitCode = result.ExitCode
		run.Output = result.Output()
		if run.Output == "" {
			run.Output = result.Error
		}
		runLog.Error("Job %s errored: %s", job.ID, result.Error)
	default:
		run.ExitCode = result.ExitCode
		run.Output = result.Output()
		run.Success = result.ExitCode == 0 && !result.Killed
		runLog.Info("Job %s finished: exit=%d killed=%v duration=%s",
			job.ID, result.ExitCode, result.Killed, result.Duration)
	}

	if err := s.store.RecordRun(run); err != nil {
		logging.SchedError("Failed to record run for %s: %v", job.ID, err)
	}
}

// jobIsDue decides whether a job should run at the given instant.
// Interval jobs are due when the interval has elapsed since the last run
// (or immediately when never run). Cron jobs are due when the next tick
// after the last run (or creation) is not in the future, which fires at
// most once per matching minute.
func jobIsDue(job *store.Job, now time.Time) (bool, error) {
	switch job.ScheduleType {
	case store.ScheduleInterval:
		if job.IntervalSeconds < 1 {
			return false, fmt.Errorf("interval job %s has no interval", job.ID)
		}
		if job.LastRunAt == nil {
			return true, nil
		}
		elapsed := now.Sub(*job.LastRunAt)
		return elapsed >= time.Duration(job.IntervalSeconds)*time.Second, nil

	case store.ScheduleCron:
		if !gronx.New().IsValid(job.CronExpr) {
			return false, fmt.Errorf("invalid cron expression %q", job.CronExpr)
		}
		reference := job.CreatedAt
		if job.LastRunAt != nil {
			reference = *job.LastRunAt
		}
		next, err := gronx.NextTickAfter(job.CronExpr, reference, false)
		if err != nil {
			return false, err
		}
		return !next.After(now), nil
	}
	return false, fmt.Errorf("unknown schedule type %q", job.ScheduleType)
}

// nextRunTime projects the following run for bookkeeping.
func nextRunTime(job *store.Job, now time.Time) time.Time {
	if job.ScheduleType == store.ScheduleCron {
		if next, err := gronx.NextTickAfter(job.CronExpr, now, false); err == nil {
			return next
		}
		return now
	}
	return now.Add(time.Duration(job.IntervalSeconds) * time.Second)
}

// shellCommand wraps a command line for the platform shell.
func shellCommand(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "sh", []string{"-c", command}
}
