// Package extract pulls named field values out of PDFs using stored
// templates. A template's field rectangles live in the coordinate space
// of the page image the template was traced on (top-left origin, y
// down); extraction rescales them to each target page and reads the
// glyphs inside.
package extract

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"automationhub/internal/logging"
	"automationhub/internal/pdfops"
	"automationhub/internal/store"
)

// rectPadding widens every scaled field rect by this many points per
// side, absorbing template tracing jitter.
const rectPadding = 2.0

// defaultConcurrency bounds the multi-file fan-out.
const defaultConcurrency = 4

// Result is the extraction outcome for one input PDF.
type Result struct {
	Source string
	Values map[string]string
	Err    error
}

// Extractor applies one template to PDF files.
type Extractor struct {
	Template    *store.Template
	Concurrency int
}

// New builds an extractor for a template.
func New(tpl *store.Template) *Extractor {
	return &Extractor{Template: tpl, Concurrency: defaultConcurrency}
}

// File extracts all template fields from the first page of one PDF.
// Empty regions produce empty strings; only an unreadable file is an
// error.
func (e *Extractor) File(path string) Result {
	timer := logging.StartTimer(logging.CategoryExtract, "File")
	defer timer.Stop()

	page, err := pdfops.ReadPageText(path, 1)
	if err != nil {
		logging.ExtractError("Failed to read %s: %v", path, err)
		return Result{Source: path, Err: err}
	}

	values := e.extractPage(page)
	logging.Extract("Extracted %d fields from %s", len(values), path)
	return Result{Source: path, Values: values}
}

// Files extracts from several PDFs concurrently, bounded by Concurrency.
// Results keep input order; per-file failures are recorded in the
// corresponding Result, never aborting the batch.
func (e *Extractor) Files(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))

	limit := e.Concurrency
	if limit < 1 {
		limit = 1
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				results[i] = Result{Source: path, Err: err}
				return nil
			}
			results[i] = e.File(path)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

// extractPage scales every field rect from template base space to the
// page, converts to PDF space, and captures the text inside.
func (e *Extractor) extractPage(page *pdfops.PageText) map[string]string {
	sx, sy := 1.0, 1.0
	if e.Template.BaseWidth > 0 {
		sx = page.Width / e.Template.BaseWidth
	}
	if e.Template.BaseHeight > 0 {
		sy = page.Height / e.Template.BaseHeight
	}

	values := make(map[string]string, len(e.Template.Fields))
	for _, field := range e.Template.Fields {
		x0 := field.X*sx - rectPadding
		x1 := (field.X+field.Width)*sx + rectPadding

		// Template y grows downward from the top edge; PDF y grows
		// upward from the bottom.
		top := field.Y * sy
		bottom := (field.Y + field.Height) * sy
		y0 := page.Height - bottom - rectPadding
		y1 := page.Height - top + rectPadding

		raw := page.TextInRect(x0, y0, x1, y1)
		values[field.Name] = CleanPrefix(field.Name, raw)
	}
	return values
}

// CleanPrefix strips a leaked label prefix from a captured value: a
// leading case-insensitive field name plus any run of colons, dashes,
// and whitespace.
func CleanPrefix(fieldName, value string) string {
	value = strings.TrimSpace(value)
	if value == "" || fieldName == "" {
		return value
	}
	re, err := regexp.Compile(`(?i)^` + regexp.QuoteMeta(fieldName) + `[:\-\s]*`)
	if err != nil {
		return value
	}
	return strings.TrimSpace(re.ReplaceAllString(value, ""))
}
