package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"automationhub/internal/store"
)

// TemplatesPageModel lists extraction templates in a table.
type TemplatesPageModel struct {
	width  int
	height int
	table  table.Model
	count  int
	styles Styles
}

// NewTemplatesPageModel creates the templates pane.
func NewTemplatesPageModel(styles Styles) TemplatesPageModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 24},
			{Title: "Base", Width: 12},
			{Title: "Fields", Width: 8},
			{Title: "Created", Width: 20},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	return TemplatesPageModel{table: t, styles: styles}
}

// Init initializes the model.
func (m TemplatesPageModel) Init() tea.Cmd {
	return nil
}

// Update forwards paging keys to the table.
func (m TemplatesPageModel) Update(msg tea.Msg) (TemplatesPageModel, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// UpdateContent replaces the table rows.
func (m *TemplatesPageModel) UpdateContent(templates []store.Template) {
	rows := make([]table.Row, 0, len(templates))
	for _, tpl := range templates {
		rows = append(rows, table.Row{
			tpl.Name,
			fmt.Sprintf("%.0fx%.0f", tpl.BaseWidth, tpl.BaseHeight),
			fmt.Sprintf("%d", len(tpl.Fields)),
			tpl.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	m.count = len(rows)
	m.table.SetRows(rows)
}

// SetSize updates the size.
func (m *TemplatesPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetWidth(w - 2)
	m.table.SetHeight(h - 6)
}

// View renders the page.
func (m TemplatesPageModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Templates") + "\n\n")

	if m.count == 0 {
		sb.WriteString(m.styles.Muted.Render("No templates. Create one with: hub template add <name>"))
		return sb.String()
	}

	sb.WriteString(m.table.View())
	sb.WriteString("\n" + m.styles.Muted.Render(fmt.Sprintf("%d template(s)", m.count)))
	return sb.String()
}
