package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"automationhub/internal/launcher"
	"automationhub/internal/store"
)

// Section identifies one sidebar module.
type Section int

const (
	SectionEnvironment Section = iota
	SectionPDF
	SectionTemplates
	SectionScheduler
	SectionHelp
)

var sectionTitles = [...]string{
	SectionEnvironment: "Environment",
	SectionPDF:         "PDF Tools",
	SectionTemplates:   "Templates",
	SectionScheduler:   "Scheduler",
	SectionHelp:        "Help",
}

// refreshEvery is the job/template pane refresh period.
const refreshEvery = 2 * time.Second

// sidebarWidth is fixed; the content pane takes the rest.
const sidebarWidth = 18

// Deps carries everything the dashboard reads. EnvStatus runs external
// probes, so it is only called at startup and on manual refresh.
type Deps struct {
	AppName   string
	Version   string
	Store     *store.Store
	EnvStatus func(context.Context) launcher.EnvStatus
}

type (
	tickMsg      time.Time
	envStatusMsg launcher.EnvStatus
	templatesMsg []store.Template
	dataErrMsg   struct{ err error }
)

type jobsMsg struct {
	jobs   []store.Job
	latest map[string]store.JobRun
}

// Model is the root dashboard model.
type Model struct {
	deps   Deps
	styles Styles

	width  int
	height int
	active Section

	env       EnvPageModel
	pdf       PDFPageModel
	templates TemplatesPageModel
	jobs      JobsPageModel
	help      HelpPageModel

	lastErr error
}

// NewModel builds the dashboard model.
func NewModel(deps Deps) Model {
	styles := DefaultStyles()
	return Model{
		deps:      deps,
		styles:    styles,
		active:    SectionEnvironment,
		env:       NewEnvPageModel(styles),
		pdf:       NewPDFPageModel(styles),
		templates: NewTemplatesPageModel(styles),
		jobs:      NewJobsPageModel(styles),
		help:      NewHelpPageModel(styles),
	}
}

// Run starts the dashboard in the alternate screen and blocks until it
// exits.
func Run(deps Deps) error {
	p := tea.NewProgram(NewModel(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init starts the refresh timer and the initial data loads.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.refreshTick(),
		m.fetchEnv(),
		m.fetchTemplates(),
		m.fetchJobs(),
	)
}

// refreshTick re-arms the periodic store refresh.
func (m Model) refreshTick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchEnv probes the environment off the UI goroutine.
func (m Model) fetchEnv() tea.Cmd {
	if m.deps.EnvStatus == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return envStatusMsg(m.deps.EnvStatus(ctx))
	}
}

func (m Model) fetchTemplates() tea.Cmd {
	if m.deps.Store == nil {
		return nil
	}
	return func() tea.Msg {
		templates, err := m.deps.Store.ListTemplates()
		if err != nil {
			return dataErrMsg{err}
		}
		return templatesMsg(templates)
	}
}

func (m Model) fetchJobs() tea.Cmd {
	if m.deps.Store == nil {
		return nil
	}
	return func() tea.Msg {
		jobs, err := m.deps.Store.ListJobs()
		if err != nil {
			return dataErrMsg{err}
		}
		latest := make(map[string]store.JobRun, len(jobs))
		for _, job := range jobs {
			runs, err := m.deps.Store.ListRuns(job.ID, 1)
			if err != nil || len(runs) == 0 {
				continue
			}
			latest[job.ID] = runs[0]
		}
		return jobsMsg{jobs: jobs, latest: latest}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.setPageSizes()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.active > 0 {
				m.active--
			}
			return m, nil
		case "down", "j":
			if int(m.active) < len(sectionTitles)-1 {
				m.active++
			}
			return m, nil
		case "r":
			m.lastErr = nil
			return m, tea.Batch(m.fetchEnv(), m.fetchTemplates(), m.fetchJobs())
		}

	case tickMsg:
		return m, tea.Batch(m.refreshTick(), m.fetchTemplates(), m.fetchJobs())

	case envStatusMsg:
		m.env.UpdateContent(launcher.EnvStatus(msg))
		return m, nil

	case templatesMsg:
		m.templates.UpdateContent(msg)
		return m, nil

	case jobsMsg:
		m.jobs.UpdateContent(msg.jobs, msg.latest)
		return m, nil

	case dataErrMsg:
		m.lastErr = msg.err
		return m, nil
	}

	// Remaining messages go to the active page (table paging keys).
	var cmd tea.Cmd
	switch m.active {
	case SectionTemplates:
		m.templates, cmd = m.templates.Update(msg)
	case SectionScheduler:
		m.jobs, cmd = m.jobs.Update(msg)
	}
	return m, cmd
}

// setPageSizes propagates the content pane size to every page.
func (m *Model) setPageSizes() {
	contentW := m.width - sidebarWidth - 4
	if contentW < 20 {
		contentW = 20
	}
	contentH := m.height - 4
	if contentH < 5 {
		contentH = 5
	}
	m.env.SetSize(contentW, contentH)
	m.pdf.SetSize(contentW, contentH)
	m.templates.SetSize(contentW, contentH)
	m.jobs.SetSize(contentW, contentH)
	m.help.SetSize(contentW, contentH)
}

// View renders header, sidebar plus active pane, and footer.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.styles.Header.Render(m.deps.AppName)

	var content string
	switch m.active {
	case SectionEnvironment:
		content = m.env.View()
	case SectionPDF:
		content = m.pdf.View()
	case SectionTemplates:
		content = m.templates.View()
	case SectionScheduler:
		content = m.jobs.View()
	case SectionHelp:
		content = m.help.View()
	}

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderSidebar(),
		m.styles.Content.Render(content),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderFooter())
}

// renderSidebar lists the modules with the active one marked.
func (m Model) renderSidebar() string {
	var lines []string
	for i, title := range sectionTitles {
		if Section(i) == m.active {
			lines = append(lines, m.styles.Selected.Render("> "+title))
		} else {
			lines = append(lines, m.styles.Body.Render("  "+title))
		}
	}
	return m.styles.Sidebar.Width(sidebarWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderFooter shows key hints, the last data error, and the version.
func (m Model) renderFooter() string {
	hints := "up/down navigate | r refresh | q quit"
	if m.lastErr != nil {
		hints = m.styles.Error.Render(fmt.Sprintf("error: %v", m.lastErr))
	}
	version := fmt.Sprintf("v%s", m.deps.Version)

	gap := m.width - lipgloss.Width(hints) - lipgloss.Width(version) - 4
	if gap < 1 {
		gap = 1
	}
	return m.styles.Footer.Render(hints + strings.Repeat(" ", gap) + version)
}
