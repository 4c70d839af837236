package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"automationhub/internal/logging"
)

// Schedule kinds accepted by the jobs table CHECK constraint.
const (
	ScheduleInterval = "interval"
	ScheduleCron     = "cron"
)

// Job is a scheduled shell command, repeated on an interval or a cron
// expression.
type Job struct {
	ID              string
	Name            string
	Command         string
	ScheduleType    string
	IntervalSeconds int
	CronExpr        string
	Enabled         bool
	CreatedAt       time.Time
	LastRunAt       *time.Time
	NextRunAt       *time.Time
}

// Describe renders the job's display form for lists and the dashboard.
func (j *Job) Describe() string {
	if j.ScheduleType == ScheduleCron {
		return fmt.Sprintf("%s - Cron %s", j.Name, j.CronExpr)
	}
	return fmt.Sprintf("%s - Every %ds", j.Name, j.IntervalSeconds)
}

// JobRun is one execution of a job.
type JobRun struct {
	ID         string
	JobID      string
	StartedAt  time.Time
	FinishedAt time.Time
	ExitCode   int
	Output     string
	Success    bool
}

// CreateJob inserts a new job, assigning a uuid when none is set.
func (s *Store) CreateJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	logging.StoreDebug("Creating job: id=%s name=%s type=%s", job.ID, job.Name, job.ScheduleType)

	_, err := s.db.Exec(
		`INSERT INTO jobs (id, name, command, schedule_type, interval_seconds, cron_expr, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Name, job.Command, job.ScheduleType,
		job.IntervalSeconds, job.CronExpr, job.Enabled, job.CreatedAt,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create job %s: %v", job.Name, err)
		return err
	}

	logging.Store("Job created: %s (%s)", job.Describe(), job.ID)
	return nil
}

// GetJob loads a job by id.
func (s *Store) GetJob(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanJob(s.db.QueryRow(
		`SELECT id, name, command, schedule_type, interval_seconds, cron_expr, enabled, created_at, last_run_at, next_run_at
		 FROM jobs WHERE id = ?`, id))
}

// FindJob resolves a job by exact id, then by unique name.
func (s *Store) FindJob(ref string) (*Job, error) {
	if job, err := s.GetJob(ref); err == nil {
		return job, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanJob(s.db.QueryRow(
		`SELECT id, name, command, schedule_type, interval_seconds, cron_expr, enabled, created_at, last_run_at, next_run_at
		 FROM jobs WHERE name = ?`, ref))
}

// ListJobs returns all jobs, oldest first.
func (s *Store) ListJobs() ([]Job, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListJobs")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, name, command, schedule_type, interval_seconds, cron_expr, enabled, created_at, last_run_at, next_run_at
		 FROM jobs ORDER BY created_at`)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to list jobs: %v", err)
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJobRow(rows)
		if err != nil {
			continue
		}
		jobs = append(jobs, *job)
	}

	logging.StoreDebug("Listed %d jobs", len(jobs))
	return jobs, rows.Err()
}

// SetJobEnabled flips a job's enabled flag.
func (s *Store) SetJobEnabled(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE jobs SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return nil
}

// DeleteJob removes a job; its run history goes with it.
func (s *Store) DeleteJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to delete job %s: %v", id, err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	logging.Store("Job deleted: id=%s", id)
	return nil
}

// MarkJobRun updates a job's run bookkeeping after a dispatch.
func (s *Store) MarkJobRun(id string, lastRun, nextRun time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`UPDATE jobs SET last_run_at = ?, next_run_at = ? WHERE id = ?`,
		lastRun.UTC(), nextRun.UTC(), id,
	)
	return err
}

// RecordRun persists one completed job execution, assigning a uuid when
// none is set.
func (s *Store) RecordRun(run *JobRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	_, err := s.db.Exec(
		`INSERT INTO job_runs (id, job_id, started_at, finished_at, exit_code, output, success)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.JobID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.ExitCode, run.Output, run.Success,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to record run for job %s: %v", run.JobID, err)
		return err
	}

	logging.StoreDebug("Run recorded: job=%s exit=%d success=%v", run.JobID, run.ExitCode, run.Success)
	return nil
}

// ListRuns returns a job's recent runs, newest first.
func (s *Store) ListRuns(jobID string, limit int) ([]JobRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, job_id, started_at, finished_at, exit_code, output, success
		 FROM job_runs WHERE job_id = ? ORDER BY started_at DESC LIMIT ?`,
		jobID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRuns(rows)
}

// LatestRuns returns the most recent runs across all jobs, newest first.
// The dashboard job table reads from here.
func (s *Store) LatestRuns(limit int) ([]JobRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, job_id, started_at, finished_at, exit_code, output, success
		 FROM job_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRuns(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanJob(row rowScanner) (*Job, error) {
	job, err := scanJobRow(row)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func scanJobRow(row rowScanner) (*Job, error) {
	var job Job
	var interval sql.NullInt64
	var cronExpr sql.NullString
	var lastRun, nextRun sql.NullTime

	err := row.Scan(
		&job.ID, &job.Name, &job.Command, &job.ScheduleType,
		&interval, &cronExpr, &job.Enabled, &job.CreatedAt,
		&lastRun, &nextRun,
	)
	if err != nil {
		return nil, err
	}

	job.IntervalSeconds = int(interval.Int64)
	job.CronExpr = cronExpr.String
	if lastRun.Valid {
		t := lastRun.Time
		job.LastRunAt = &t
	}
	if nextRun.Valid {
		t := nextRun.Time
		job.NextRunAt = &t
	}
	return &job, nil
}

func collectRuns(rows *sql.Rows) ([]JobRun, error) {
	var runs []JobRun
	for rows.Next() {
		var run JobRun
		var success sql.NullBool
		var exitCode sql.NullInt64
		if err := rows.Scan(&run.ID, &run.JobID, &run.StartedAt, &run.FinishedAt, &exitCode, &run.Output, &success); err != nil {
			continue
		}
		run.ExitCode = int(exitCode.Int64)
		run.Success = success.Bool
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
