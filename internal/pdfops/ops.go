// Package pdfops implements hub's PDF toolbox: merge, split, compress,
// page-number removal and stamping, and header/footer stamps.
//
// Structural mutation goes through pdfcpu. Text geometry (needed for
// page-number detection and field extraction) is read glyph-by-glyph
// with ledongthuc/pdf, which preserves coordinates the pdfcpu text
// extractor discards.
package pdfops

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"automationhub/internal/logging"
)

// Merge combines the input PDFs into one output, preserving input order.
func Merge(inputs []string, output string) error {
	timer := logging.StartTimer(logging.CategoryPDF, "Merge")
	defer timer.Stop()

	if len(inputs) < 2 {
		return fmt.Errorf("merge needs at least 2 input files, got %d", len(inputs))
	}
	for _, in := range inputs {
		if _, err := os.Stat(in); err != nil {
			return fmt.Errorf("input not readable: %w", err)
		}
	}

	logging.PDF("Merging %d files into %s", len(inputs), output)
	if err := api.MergeCreateFile(inputs, output, false, nil); err != nil {
		logging.PDFError("Merge failed: %v", err)
		return fmt.Errorf("merge failed: %w", err)
	}
	return nil
}

// ExtractPages writes the selected pages (parsed "1, 3-5" syntax) of the
// input into a new PDF, preserving page order.
func ExtractPages(input, output, selection string) error {
	timer := logging.StartTimer(logging.CategoryPDF, "ExtractPages")
	defer timer.Stop()

	total, err := PageCount(input)
	if err != nil {
		return err
	}
	pages, err := ParsePageRanges(selection, total)
	if err != nil {
		return err
	}

	logging.PDF("Extracting %d pages from %s into %s", len(pages), input, output)
	if err := api.TrimFile(input, output, pageStrings(pages), nil); err != nil {
		logging.PDFError("Page extraction failed: %v", err)
		return fmt.Errorf("page extraction failed: %w", err)
	}
	return nil
}

// Burst splits the input into documents of span pages each under outDir.
func Burst(input, outDir string, span int) error {
	timer := logging.StartTimer(logging.CategoryPDF, "Burst")
	defer timer.Stop()

	if span < 1 {
		span = 1
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logging.PDF("Splitting %s into %d-page documents under %s", input, span, outDir)
	if err := api.SplitFile(input, outDir, span, nil); err != nil {
		logging.PDFError("Split failed: %v", err)
		return fmt.Errorf("split failed: %w", err)
	}
	return nil
}

// Compress rewrites the input with unused objects garbage-collected and
// streams recompressed.
func Compress(input, output string) error {
	timer := logging.StartTimer(logging.CategoryPDF, "Compress")
	defer timer.Stop()

	logging.PDF("Compressing %s into %s", input, output)
	if err := api.OptimizeFile(input, output, nil); err != nil {
		logging.PDFError("Compression failed: %v", err)
		return fmt.Errorf("compression failed: %w", err)
	}

	if in, err := os.Stat(input); err == nil {
		if out, err := os.Stat(output); err == nil && in.Size() > 0 {
			saved := 100 - out.Size()*100/in.Size()
			logging.PDF("Compression done: %d -> %d bytes (%d%% saved)", in.Size(), out.Size(), saved)
		}
	}
	return nil
}

// PageCount returns the number of pages in a PDF.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read page count: %w", err)
	}
	return n, nil
}
