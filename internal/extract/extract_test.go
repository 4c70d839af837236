package extract

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"

	"automationhub/internal/pdfops"
	"automationhub/internal/store"
)

func TestCleanPrefix(t *testing.T) {
	tests := []struct {
		field string
		value string
		want  string
	}{
		{"invoice_no", "Invoice_No: 12345", "12345"},
		{"total", "TOTAL - 99.50", "99.50"},
		{"total", "total99.50", "99.50"},
		{"date", "Date 2026-08-25", "2026-08-25"},
		{"date", "2026-08-25", "2026-08-25"},
		{"name", "  Acme Corp  ", "Acme Corp"},
		{"name", "", ""},
		{"", "value", "value"},
		// Prefix only strips at the start.
		{"total", "grand total: 10", "grand total: 10"},
	}
	for _, tt := range tests {
		if got := CleanPrefix(tt.field, tt.value); got != tt.want {
			t.Errorf("CleanPrefix(%q, %q) = %q, want %q", tt.field, tt.value, got, tt.want)
		}
	}
}

func glyph(s string, x, y, w, size float64) pdf.Text {
	return pdf.Text{Font: "Helvetica", FontSize: size, X: x, Y: y, W: w, S: s}
}

func testPage() *pdfops.PageText {
	// One glyph row at PDF baseline y=700 (92pt from the top of a
	// 792pt page), columns at x=60 and x=400.
	return &pdfops.PageText{
		Number: 1,
		Width:  612,
		Height: 792,
		Texts: []pdf.Text{
			glyph("Name:", 60, 700, 30, 10),
			glyph("Acme", 96, 700, 28, 10),
			glyph("42", 400, 700, 14, 10),
		},
	}
}

func TestExtractPageSameSpace(t *testing.T) {
	// Template traced at page scale: rects map 1:1.
	tpl := &store.Template{
		Name:       "t",
		BaseWidth:  612,
		BaseHeight: 792,
		Fields: []store.TemplateField{
			{Name: "name", X: 55, Y: 85, Width: 90, Height: 14},
			{Name: "count", X: 395, Y: 85, Width: 30, Height: 14},
			{Name: "missing", X: 10, Y: 400, Width: 50, Height: 20},
		},
	}

	values := New(tpl).extractPage(testPage())

	if values["name"] != "Acme" {
		t.Errorf("name = %q, want %q", values["name"], "Acme")
	}
	if values["count"] != "42" {
		t.Errorf("count = %q, want %q", values["count"], "42")
	}
	if values["missing"] != "" {
		t.Errorf("empty region should capture empty string, got %q", values["missing"])
	}
}

func TestExtractPageScaled(t *testing.T) {
	// Template traced on a half-size page image: rects scale up 2x.
	tpl := &store.Template{
		Name:       "t",
		BaseWidth:  306,
		BaseHeight: 396,
		Fields: []store.TemplateField{
			{Name: "name", X: 27.5, Y: 42.5, Width: 45, Height: 7},
		},
	}

	values := New(tpl).extractPage(testPage())
	if values["name"] != "Acme" {
		t.Errorf("name = %q, want %q", values["name"], "Acme")
	}
}

func TestFilesKeepsInputOrderAndIsolatesErrors(t *testing.T) {
	tpl := &store.Template{Name: "t", BaseWidth: 612, BaseHeight: 792}
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "c.pdf"),
	}

	results := New(tpl).Files(context.Background(), paths)
	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, res := range results {
		if res.Source != paths[i] {
			t.Errorf("result %d out of order: %s", i, res.Source)
		}
		// The files do not exist; each result carries its own error.
		if res.Err == nil {
			t.Errorf("result %d should carry a read error", i)
		}
	}
}
