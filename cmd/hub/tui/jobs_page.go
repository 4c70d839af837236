package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"automationhub/internal/store"
)

// JobsPageModel lists scheduled jobs and their last run in a table.
type JobsPageModel struct {
	width  int
	height int
	table  table.Model
	count  int
	active int
	styles Styles
}

// NewJobsPageModel creates the scheduler pane.
func NewJobsPageModel(styles Styles) JobsPageModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 20},
			{Title: "Schedule", Width: 18},
			{Title: "State", Width: 10},
			{Title: "Last Run", Width: 18},
			{Title: "Result", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	return JobsPageModel{table: t, styles: styles}
}

// Init initializes the model.
func (m JobsPageModel) Init() tea.Cmd {
	return nil
}

// Update forwards paging keys to the table.
func (m JobsPageModel) Update(msg tea.Msg) (JobsPageModel, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// UpdateContent replaces the rows. latest maps job id to its newest run.
func (m *JobsPageModel) UpdateContent(jobs []store.Job, latest map[string]store.JobRun) {
	rows := make([]table.Row, 0, len(jobs))
	active := 0
	for _, job := range jobs {
		state := "enabled"
		if !job.Enabled {
			state = "disabled"
		} else {
			active++
		}

		lastRun := "never"
		if job.LastRunAt != nil {
			lastRun = job.LastRunAt.Local().Format("2006-01-02 15:04")
		}

		result := "-"
		if run, ok := latest[job.ID]; ok {
			if run.Success {
				result = "ok"
			} else {
				result = fmt.Sprintf("exit %d", run.ExitCode)
			}
		}

		rows = append(rows, table.Row{
			job.Name,
			scheduleLabel(&job),
			state,
			lastRun,
			result,
		})
	}
	m.count = len(rows)
	m.active = active
	m.table.SetRows(rows)
}

// SetSize updates the size.
func (m *JobsPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetWidth(w - 2)
	m.table.SetHeight(h - 6)
}

// View renders the page.
func (m JobsPageModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Scheduler") + "\n\n")

	if m.count == 0 {
		sb.WriteString(m.styles.Muted.Render("No jobs. Add one with: hub job add <name> <command> --every N"))
		return sb.String()
	}

	sb.WriteString(m.table.View())
	sb.WriteString("\n" + m.styles.Muted.Render(
		fmt.Sprintf("%d job(s), %d enabled. Run due jobs with: hub schedule run", m.count, m.active)))
	return sb.String()
}

// scheduleLabel renders the schedule column.
func scheduleLabel(job *store.Job) string {
	if job.ScheduleType == store.ScheduleCron {
		return "cron " + job.CronExpr
	}
	return fmt.Sprintf("every %ds", job.IntervalSeconds)
}
