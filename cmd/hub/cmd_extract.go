package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"automationhub/internal/export"
	"automationhub/internal/extract"
	"automationhub/internal/store"
)

var (
	extractTemplate string
	extractCSV      string
	extractXLSX     string
)

var extractCmd = &cobra.Command{
	Use:   "extract --template <name> <input.pdf>...",
	Short: "Extract template fields from PDFs",
	Long: `Extract reads the first page of each input PDF and captures the text
inside every field of the template, rescaled to the page size. Inputs
are processed concurrently; results keep input order. Empty regions
produce empty values, and a per-file read failure never aborts the
batch.

With --csv or --xlsx the results are written as one row per input,
first column "source". Otherwise a summary is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		tpl, err := st.GetTemplate(extractTemplate)
		if err != nil {
			return err
		}
		if len(tpl.Fields) == 0 {
			return fmt.Errorf("template %q has no fields", tpl.Name)
		}

		results := extract.New(tpl).Files(ctx, args)

		failed := 0
		for _, res := range results {
			if res.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", res.Source, res.Err)
			}
		}

		switch {
		case extractCSV != "":
			if err := export.WriteCSV(extractCSV, tpl, results); err != nil {
				return err
			}
			fmt.Printf("Wrote %d row(s) to %s\n", len(results)-failed, extractCSV)
		case extractXLSX != "":
			if err := export.WriteXLSX(extractXLSX, cfg.Export.SheetName, tpl, results); err != nil {
				return err
			}
			fmt.Printf("Wrote %d row(s) to %s\n", len(results)-failed, extractXLSX)
		default:
			printResults(tpl.Fields, results)
		}

		if failed == len(results) {
			return fmt.Errorf("no input could be read")
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractTemplate, "template", "t", "", "Template name (required)")
	extractCmd.Flags().StringVar(&extractCSV, "csv", "", "Write results to a CSV file")
	extractCmd.Flags().StringVar(&extractXLSX, "xlsx", "", "Write results to an XLSX workbook")
	_ = extractCmd.MarkFlagRequired("template")
	extractCmd.MarkFlagsMutuallyExclusive("csv", "xlsx")
}

// printResults renders extraction values per source on stdout.
func printResults(fields []store.TemplateField, results []extract.Result) {
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		fmt.Printf("%s\n", res.Source)
		for _, f := range fields {
			fmt.Printf("  %-16s %s\n", f.Name+":", res.Values[f.Name])
		}
	}
}
