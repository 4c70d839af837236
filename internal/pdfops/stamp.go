package pdfops

import (
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"automationhub/internal/logging"
)

// Band selects the header (top) or footer (bottom) stripe for a stamp.
type Band string

const (
	BandHeader Band = "header"
	BandFooter Band = "footer"
)

// ParseBand accepts "header" or "footer".
func ParseBand(s string) (Band, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "header":
		return BandHeader, nil
	case "footer", "":
		return BandFooter, nil
	}
	return "", fmt.Errorf("unknown band %q (use header or footer)", s)
}

// Alignment is the horizontal placement of a header/footer stamp.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// ParseAlignment accepts "left", "center", or "right".
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return AlignLeft, nil
	case "center", "":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	}
	return "", fmt.Errorf("unknown alignment %q (use left, center, or right)", s)
}

// stampPosition maps band and alignment onto a position anchor.
func stampPosition(band Band, align Alignment) string {
	row := "b"
	if band == BandHeader {
		row = "t"
	}
	col := "c"
	switch align {
	case AlignLeft:
		col = "l"
	case AlignRight:
		col = "r"
	}
	return row + col
}

// StampText stamps one line of text in the header or footer band of the
// selected pages (empty selection means every page).
func StampText(input, output, text string, band Band, align Alignment, selection string) error {
	timer := logging.StartTimer(logging.CategoryPDF, "StampText")
	defer timer.Stop()

	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("stamp text is empty")
	}

	var selected []string
	if strings.TrimSpace(selection) != "" {
		total, err := PageCount(input)
		if err != nil {
			return err
		}
		pages, err := ParsePageRanges(selection, total)
		if err != nil {
			return err
		}
		selected = pageStrings(pages)
	}

	offY := 20
	if band == BandHeader {
		offY = -20
	}
	desc := fmt.Sprintf(
		"fontname:Helvetica, points:10, pos:%s, off:0 %d, rot:0, sc:1 abs, fillc:#000000, op:1",
		stampPosition(band, align), offY,
	)
	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return err
	}

	if err := api.AddWatermarksFile(input, output, selected, wm, nil); err != nil {
		logging.PDFError("Stamp failed: %v", err)
		return fmt.Errorf("stamp failed: %w", err)
	}

	logging.PDF("Stamped %q in the %s band (%s) of %s", text, band, align, output)
	return nil
}
