package pdfops

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"automationhub/internal/logging"
)

// pageNumberBand is the fraction of page height (from the bottom) scanned
// for standalone page-number lines.
const pageNumberBand = 0.10

// pageNumberPatterns match a whole line that is nothing but a page
// number, in its common shapes.
var pageNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\d+$`),
	regexp.MustCompile(`(?i)^page\s+\d+$`),
	regexp.MustCompile(`(?i)^\d+\s+of\s+\d+$`),
	regexp.MustCompile(`(?i)^page\s+\d+\s+of\s+\d+$`),
}

// isPageNumberText reports whether a line consists solely of a page
// number in one of the recognized shapes.
func isPageNumberText(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, re := range pageNumberPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// NumberHit is one detected page-number line.
type NumberHit struct {
	Page     int
	Text     string
	X        float64 // left edge, PDF space
	Y        float64 // baseline, PDF space
	Width    float64
	FontSize float64
}

// DetectPageNumbers scans the bottom band of every page for standalone
// page-number lines.
func DetectPageNumbers(path string) ([]NumberHit, error) {
	timer := logging.StartTimer(logging.CategoryPDF, "DetectPageNumbers")
	defer timer.Stop()

	pages, err := ReadAllPages(path)
	if err != nil {
		return nil, err
	}

	var hits []NumberHit
	for _, page := range pages {
		hits = append(hits, detectInPage(page)...)
	}

	logging.PDF("Detected %d page-number lines in %s", len(hits), path)
	return hits, nil
}

// detectInPage finds the standalone page-number lines on one page.
func detectInPage(page *PageText) []NumberHit {
	band := page.Height * pageNumberBand

	var hits []NumberHit
	for _, line := range page.Lines {
		if line.Y > band {
			continue
		}
		if !isPageNumberText(line.Text) {
			continue
		}
		hits = append(hits, NumberHit{
			Page:     page.Number,
			Text:     strings.TrimSpace(line.Text),
			X:        line.X,
			Y:        line.Y,
			Width:    line.Width,
			FontSize: line.FontSize,
		})
	}
	return hits
}

// RemovePageNumbers covers every detected page-number line with an opaque
// page-colored box and writes the result to output. Returns the number of
// covered lines. With nothing detected the input is copied through
// unchanged.
func RemovePageNumbers(input, output string) (int, error) {
	timer := logging.StartTimer(logging.CategoryPDF, "RemovePageNumbers")
	defer timer.Stop()

	hits, err := DetectPageNumbers(input)
	if err != nil {
		return 0, err
	}
	if len(hits) == 0 {
		if input != output {
			if err := copyFile(input, output); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}

	byPage := make(map[int][]NumberHit)
	maxPerPage := 0
	for _, hit := range hits {
		byPage[hit.Page] = append(byPage[hit.Page], hit)
		if len(byPage[hit.Page]) > maxPerPage {
			maxPerPage = len(byPage[hit.Page])
		}
	}

	// One watermark per page per pass; pages with several hits take
	// additional passes over the already-covered output.
	src := input
	for pass := 0; pass < maxPerPage; pass++ {
		covers := make(map[int]*model.Watermark)
		for page, pageHits := range byPage {
			if pass >= len(pageHits) {
				continue
			}
			wm, err := coverWatermark(pageHits[pass])
			if err != nil {
				return 0, err
			}
			covers[page] = wm
		}
		if err := api.AddWatermarksMapFile(src, output, covers, nil); err != nil {
			logging.PDFError("Cover pass %d failed: %v", pass+1, err)
			return 0, fmt.Errorf("failed to cover page numbers: %w", err)
		}
		src = output
	}

	logging.PDF("Covered %d page-number lines (%s -> %s)", len(hits), input, output)
	return len(hits), nil
}

// coverWatermark builds an opaque white stamp that repaints the detected
// text white-on-white at its own position, with margins wide enough to
// hide the original glyphs.
func coverWatermark(hit NumberHit) (*model.Watermark, error) {
	size := hit.FontSize
	if size <= 0 {
		size = 10
	}
	desc := fmt.Sprintf(
		"fontname:Helvetica, points:%.0f, pos:bl, off:%.0f %.0f, rot:0, sc:1 abs, fillc:#ffffff, bgcol:#ffffff, margins:3, op:1",
		size, hit.X, hit.Y,
	)
	return api.TextWatermark(hit.Text, desc, true, false, types.POINTS)
}

// Anchor is a page-number stamp position.
type Anchor string

const (
	AnchorBottomCenter Anchor = "bc"
	AnchorBottomLeft   Anchor = "bl"
	AnchorBottomRight  Anchor = "br"
	AnchorTopCenter    Anchor = "tc"
	AnchorTopRight     Anchor = "tr"
)

// ParseAnchor accepts the long names used by the CLI and the short
// position codes.
func ParseAnchor(s string) (Anchor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bottom-center", "bc", "":
		return AnchorBottomCenter, nil
	case "bottom-left", "bl":
		return AnchorBottomLeft, nil
	case "bottom-right", "br":
		return AnchorBottomRight, nil
	case "top-center", "tc":
		return AnchorTopCenter, nil
	case "top-right", "tr":
		return AnchorTopRight, nil
	}
	return "", fmt.Errorf("unknown position %q (use bottom-center, bottom-left, bottom-right, top-center, top-right)", s)
}

func (a Anchor) isTop() bool {
	return a == AnchorTopCenter || a == AnchorTopRight
}

// pagesToStamp returns 1..total minus the excluded selection.
func pagesToStamp(total int, exclude string) ([]int, error) {
	excluded := make(map[int]bool)
	if strings.TrimSpace(exclude) != "" {
		pages, err := ParsePageRanges(exclude, total)
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion list: %w", err)
		}
		for _, p := range pages {
			excluded[p] = true
		}
	}

	var pages []int
	for p := 1; p <= total; p++ {
		if !excluded[p] {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

// AddPageNumbers stamps "Page N of M" on every page not named in the
// exclusion list ("1, 3-5" syntax). Returns the number of stamped pages.
func AddPageNumbers(input, output string, anchor Anchor, exclude string) (int, error) {
	timer := logging.StartTimer(logging.CategoryPDF, "AddPageNumbers")
	defer timer.Stop()

	total, err := PageCount(input)
	if err != nil {
		return 0, err
	}
	pages, err := pagesToStamp(total, exclude)
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 {
		return 0, fmt.Errorf("exclusion list covers all %d pages", total)
	}

	offY := 20
	if anchor.isTop() {
		offY = -20
	}
	desc := fmt.Sprintf(
		"fontname:Helvetica, points:10, pos:%s, off:0 %d, rot:0, sc:1 abs, fillc:#000000, op:1",
		string(anchor), offY,
	)
	wm, err := api.TextWatermark("Page %p of %P", desc, true, false, types.POINTS)
	if err != nil {
		return 0, err
	}

	if err := api.AddWatermarksFile(input, output, pageStrings(pages), wm, nil); err != nil {
		logging.PDFError("Page numbering failed: %v", err)
		return 0, fmt.Errorf("page numbering failed: %w", err)
	}

	logging.PDF("Stamped page numbers on %d/%d pages (%s)", len(pages), total, anchor)
	return len(pages), nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
