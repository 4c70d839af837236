package store

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew(t *testing.T) {
	s := newTestStore(t)

	if s.db == nil {
		t.Error("Database connection is nil")
	}
	if s.DB() == nil {
		t.Error("DB returned nil")
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	for _, table := range []string{"templates", "fields", "jobs", "job_runs"} {
		if _, ok := stats[table]; !ok {
			t.Errorf("Stats missing table: %s", table)
		}
	}
}

func TestTemplateCRUD(t *testing.T) {
	s := newTestStore(t)

	tpl, err := s.CreateTemplate("invoice", 612, 792)
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if tpl.ID == 0 {
		t.Error("expected non-zero template id")
	}

	// Duplicate names surface the UNIQUE constraint.
	if _, err := s.CreateTemplate("invoice", 612, 792); err == nil {
		t.Error("duplicate template name should fail")
	}

	if _, err := s.AddField("invoice", TemplateField{Name: "total", X: 400, Y: 700, Width: 150, Height: 20}); err != nil {
		t.Fatalf("AddField failed: %v", err)
	}
	if _, err := s.AddField("invoice", TemplateField{Name: "date", X: 50, Y: 50, Width: 120, Height: 20}); err != nil {
		t.Fatalf("AddField failed: %v", err)
	}

	got, err := s.GetTemplate("invoice")
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if got.BaseWidth != 612 || got.BaseHeight != 792 {
		t.Errorf("unexpected base size: %.0fx%.0f", got.BaseWidth, got.BaseHeight)
	}
	if len(got.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(got.Fields))
	}
	// Field order is insertion order.
	if got.Fields[0].Name != "total" || got.Fields[1].Name != "date" {
		t.Errorf("unexpected field order: %s, %s", got.Fields[0].Name, got.Fields[1].Name)
	}

	templates, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(templates))
	}

	if err := s.DeleteTemplate("invoice"); err != nil {
		t.Fatalf("DeleteTemplate failed: %v", err)
	}
	if _, err := s.GetTemplate("invoice"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}

	// Delete cascades to fields.
	var orphans int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM fields").Scan(&orphans); err != nil {
		t.Fatal(err)
	}
	if orphans != 0 {
		t.Errorf("expected 0 fields after cascade delete, got %d", orphans)
	}
}

func TestTemplateNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetTemplate("nope"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
	if err := s.DeleteTemplate("nope"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
	if _, err := s.AddField("nope", TemplateField{Name: "f"}); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestJobCRUD(t *testing.T) {
	s := newTestStore(t)

	job := &Job{
		Name:            "backup",
		Command:         "tar czf backup.tgz data/",
		ScheduleType:    ScheduleInterval,
		IntervalSeconds: 300,
		Enabled:         true,
	}
	if err := s.CreateJob(job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if job.ID == "" {
		t.Fatal("CreateJob should assign an id")
	}

	got, err := s.GetJob(job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Describe() != "backup - Every 300s" {
		t.Errorf("unexpected display form: %s", got.Describe())
	}
	if got.LastRunAt != nil {
		t.Error("new job should have no last run")
	}

	// FindJob resolves by name as well as id.
	byName, err := s.FindJob("backup")
	if err != nil {
		t.Fatalf("FindJob by name failed: %v", err)
	}
	if byName.ID != job.ID {
		t.Errorf("FindJob resolved wrong job: %s", byName.ID)
	}

	cronJob := &Job{
		Name:         "report",
		Command:      "python report.py",
		ScheduleType: ScheduleCron,
		CronExpr:     "*/5 * * * *",
		Enabled:      true,
	}
	if err := s.CreateJob(cronJob); err != nil {
		t.Fatalf("CreateJob (cron) failed: %v", err)
	}
	if cronJob.ID == job.ID {
		t.Error("jobs should get distinct ids")
	}
	if got, _ := s.GetJob(cronJob.ID); got.Describe() != "report - Cron */5 * * * *" {
		t.Errorf("unexpected display form: %s", got.Describe())
	}

	jobs, err := s.ListJobs()
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	if err := s.SetJobEnabled(job.ID, false); err != nil {
		t.Fatalf("SetJobEnabled failed: %v", err)
	}
	if got, _ := s.GetJob(job.ID); got.Enabled {
		t.Error("job should be disabled")
	}

	if err := s.DeleteJob(cronJob.ID); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}
	if _, err := s.GetJob(cronJob.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestJobRunHistory(t *testing.T) {
	s := newTestStore(t)

	job := &Job{Name: "sync", Command: "rsync -a a/ b/", ScheduleType: ScheduleInterval, IntervalSeconds: 60, Enabled: true}
	if err := s.CreateJob(job); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := &JobRun{
			JobID:      job.ID,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + 5*time.Second),
			ExitCode:   i % 2,
			Output:     "done",
			Success:    i%2 == 0,
		}
		if err := s.RecordRun(run); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	if err := s.MarkJobRun(job.ID, base.Add(2*time.Minute), base.Add(3*time.Minute)); err != nil {
		t.Fatalf("MarkJobRun failed: %v", err)
	}
	got, err := s.GetJob(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.LastRunAt == nil || !got.LastRunAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("unexpected last_run_at: %v", got.LastRunAt)
	}
	if got.NextRunAt == nil || !got.NextRunAt.Equal(base.Add(3*time.Minute)) {
		t.Errorf("unexpected next_run_at: %v", got.NextRunAt)
	}

	runs, err := s.ListRuns(job.ID, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	// Newest first.
	if !runs[0].StartedAt.After(runs[2].StartedAt) {
		t.Errorf("runs not ordered newest first: %v then %v", runs[0].StartedAt, runs[2].StartedAt)
	}

	latest, err := s.LatestRuns(2)
	if err != nil {
		t.Fatalf("LatestRuns failed: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected 2 latest runs, got %d", len(latest))
	}

	// Deleting the job cascades to its runs.
	if err := s.DeleteJob(job.ID); err != nil {
		t.Fatal(err)
	}
	var orphans int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM job_runs").Scan(&orphans); err != nil {
		t.Fatal(err)
	}
	if orphans != 0 {
		t.Errorf("expected 0 runs after cascade delete, got %d", orphans)
	}
}
