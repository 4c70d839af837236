package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// pdfTools lists the toolbox commands shown on the PDF pane.
var pdfTools = []struct {
	command string
	summary string
}{
	{"hub pdf merge -o out.pdf a.pdf b.pdf", "Merge PDFs, input order preserved"},
	{"hub pdf split in.pdf --pages \"1-3,5\"", "Extract a page selection"},
	{"hub pdf split in.pdf --span 2", "Burst into 2-page documents"},
	{"hub pdf compress in.pdf", "Drop unused objects, recompress streams"},
	{"hub pdf rm-numbers in.pdf", "Cover standalone page-number lines"},
	{"hub pdf add-numbers in.pdf --exclude 1", "Stamp 'Page N of M'"},
	{"hub pdf stamp in.pdf \"DRAFT\" --band header", "Header/footer text stamp"},
	{"hub extract -t invoice *.pdf --xlsx out.xlsx", "Template field extraction"},
}

// PDFPageModel is a static quick reference for the PDF toolbox.
type PDFPageModel struct {
	width  int
	height int
	styles Styles
}

// NewPDFPageModel creates the PDF tools pane.
func NewPDFPageModel(styles Styles) PDFPageModel {
	return PDFPageModel{styles: styles}
}

// Init initializes the model.
func (m PDFPageModel) Init() tea.Cmd {
	return nil
}

// Update handles messages. The pane is read-only.
func (m PDFPageModel) Update(msg tea.Msg) (PDFPageModel, tea.Cmd) {
	return m, nil
}

// SetSize updates the size.
func (m *PDFPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// View renders the page.
func (m PDFPageModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("PDF Tools") + "\n\n")

	for _, tool := range pdfTools {
		sb.WriteString(fmt.Sprintf("%s\n  %s\n",
			m.styles.Bold.Render(tool.command),
			m.styles.Muted.Render(tool.summary)))
	}

	sb.WriteString("\n" + m.styles.Muted.Render("Outputs default to <input>_<op>.pdf next to the input."))
	return sb.String()
}
