// Package export writes extraction results to XLSX or CSV. One row per
// successfully processed input, first column the source path, remaining
// columns the template's fields in field-ID order.
package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"automationhub/internal/extract"
	"automationhub/internal/logging"
	"automationhub/internal/store"
)

// SheetName is the default sheet extraction results land on.
const SheetName = "Extraction"

// header returns the column names: source, then field names in field-ID
// order.
func header(tpl *store.Template) []string {
	columns := make([]string, 0, len(tpl.Fields)+1)
	columns = append(columns, "source")
	for _, f := range tpl.Fields {
		columns = append(columns, f.Name)
	}
	return columns
}

// rows renders one row per successful result, in result order.
func rows(tpl *store.Template, results []extract.Result) [][]string {
	var out [][]string
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		row := make([]string, 0, len(tpl.Fields)+1)
		row = append(row, res.Source)
		for _, f := range tpl.Fields {
			row = append(row, res.Values[f.Name])
		}
		out = append(out, row)
	}
	return out
}

// WriteCSV writes results as CSV.
func WriteCSV(path string, tpl *store.Template, results []extract.Result) error {
	timer := logging.StartTimer(logging.CategoryExport, "WriteCSV")
	defer timer.Stop()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header(tpl)); err != nil {
		return err
	}
	body := rows(tpl, results)
	for _, row := range body {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv write failed: %w", err)
	}

	logging.Export("Wrote %d rows to %s", len(body), path)
	return nil
}

// WriteXLSX writes results as an XLSX workbook with a bold header row.
// An empty sheet name falls back to SheetName.
func WriteXLSX(path, sheet string, tpl *store.Template, results []extract.Result) error {
	timer := logging.StartTimer(logging.CategoryExport, "WriteXLSX")
	defer timer.Stop()

	if sheet == "" {
		sheet = SheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheet)

	cols := header(tpl)
	headerRow := make([]interface{}, len(cols))
	for i, c := range cols {
		headerRow[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}

	body := rows(tpl, results)
	for i, row := range body {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	logging.Export("Wrote %d rows to %s", len(body), path)
	return nil
}
