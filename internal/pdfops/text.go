package pdfops

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageText is the glyph-level text content of one page, in PDF user
// space (origin bottom-left, y up, units points).
type PageText struct {
	Number int
	Width  float64
	Height float64
	Texts  []pdf.Text
	Lines  []Line
}

// Line is a baseline-grouped run of text.
type Line struct {
	Text     string
	X        float64 // left edge
	Y        float64 // baseline
	Width    float64
	FontSize float64
}

// ReadPageText opens a PDF and reads one page's text with coordinates.
// Pages are 1-based.
func ReadPageText(path string, pageNum int) (*PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if pageNum < 1 || pageNum > reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", pageNum, reader.NumPage())
	}

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d is empty", pageNum)
	}

	width, height := mediaBoxSize(page)
	content := page.Content()

	pt := &PageText{
		Number: pageNum,
		Width:  width,
		Height: height,
		Texts:  content.Text,
	}
	pt.Lines = assembleLines(content.Text)
	return pt, nil
}

// ReadAllPages reads every page's text with coordinates.
func ReadAllPages(path string) ([]*PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var pages []*PageText
	for n := 1; n <= reader.NumPage(); n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		width, height := mediaBoxSize(page)
		content := page.Content()
		pt := &PageText{
			Number: n,
			Width:  width,
			Height: height,
			Texts:  content.Text,
		}
		pt.Lines = assembleLines(content.Text)
		pages = append(pages, pt)
	}
	return pages, nil
}

// TextInRect assembles the text whose glyph centers fall inside the given
// PDF-space rectangle, in reading order.
func (pt *PageText) TextInRect(x0, y0, x1, y1 float64) string {
	var hits []pdf.Text
	for _, t := range pt.Texts {
		cx := t.X + t.W/2
		if cx >= x0 && cx <= x1 && t.Y >= y0 && t.Y <= y1 {
			hits = append(hits, t)
		}
	}
	lines := assembleLines(hits)

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if s := strings.TrimSpace(line.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// lineTolerance is the baseline distance (points) within which glyphs are
// considered part of the same line.
const lineTolerance = 2.0

// assembleLines groups glyph runs into lines: top-to-bottom, then
// left-to-right within each line. A space is inserted where the
// horizontal gap between runs exceeds a third of the font size.
func assembleLines(texts []pdf.Text) []Line {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // larger y is higher on the page
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []Line
	var group []pdf.Text
	flush := func() {
		if len(group) == 0 {
			return
		}
		lines = append(lines, buildLine(group))
		group = nil
	}

	for _, t := range sorted {
		if len(group) > 0 && group[0].Y-t.Y > lineTolerance {
			flush()
		}
		group = append(group, t)
	}
	flush()
	return lines
}

func buildLine(group []pdf.Text) Line {
	sort.SliceStable(group, func(i, j int) bool { return group[i].X < group[j].X })

	var sb strings.Builder
	line := Line{X: group[0].X, Y: group[0].Y, FontSize: group[0].FontSize}

	var prevEnd float64
	for i, t := range group {
		if i > 0 {
			gap := t.X - prevEnd
			threshold := t.FontSize / 3
			if threshold <= 0 {
				threshold = 1
			}
			if gap > threshold {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
		if t.FontSize > line.FontSize {
			line.FontSize = t.FontSize
		}
	}

	line.Text = sb.String()
	line.Width = prevEnd - line.X
	return line
}

// mediaBoxSize walks the page tree for the (possibly inherited) MediaBox
// and returns its width and height. Falls back to US Letter when absent.
func mediaBoxSize(page pdf.Page) (float64, float64) {
	for v := page.V; !v.IsNull(); v = v.Key("Parent") {
		mb := v.Key("MediaBox")
		if mb.IsNull() || mb.Len() != 4 {
			continue
		}
		w := mb.Index(2).Float64() - mb.Index(0).Float64()
		h := mb.Index(3).Float64() - mb.Index(1).Float64()
		if w > 0 && h > 0 {
			return w, h
		}
	}
	return 612, 792
}
