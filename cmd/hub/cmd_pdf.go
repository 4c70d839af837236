package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"automationhub/internal/pdfops"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf",
	Short: "PDF toolbox: merge, split, compress, page numbers, stamps",
}

var (
	pdfOut     string
	pdfPages   string
	pdfSpan    int
	pdfOutDir  string
	pdfAnchor  string
	pdfExclude string
	pdfBand    string
	pdfAlign   string
)

var pdfMergeCmd = &cobra.Command{
	Use:   "merge <input.pdf> <input.pdf>...",
	Short: "Merge PDFs into one document, preserving input order",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pdfops.Merge(args, pdfOut); err != nil {
			return err
		}
		fmt.Printf("Merged %d files into %s\n", len(args), pdfOut)
		return nil
	},
}

var pdfSplitCmd = &cobra.Command{
	Use:   "split <input.pdf>",
	Short: "Extract a page selection, or burst into fixed-size spans",
	Long: `Split extracts pages from a PDF. With --pages, the selected pages
("1-3,5" syntax) are written to a single output file. With --span N,
the document is burst into N-page files under --out-dir.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		switch {
		case pdfPages != "":
			out := pdfOut
			if out == "" {
				out = derivedName(input, "_pages")
			}
			if err := pdfops.ExtractPages(input, out, pdfPages); err != nil {
				return err
			}
			fmt.Printf("Extracted pages %s into %s\n", pdfPages, out)
			return nil
		case pdfSpan > 0:
			dir := pdfOutDir
			if dir == "" {
				dir = strings.TrimSuffix(input, ".pdf") + "_split"
			}
			if err := pdfops.Burst(input, dir, pdfSpan); err != nil {
				return err
			}
			fmt.Printf("Split %s into %d-page documents under %s\n", input, pdfSpan, dir)
			return nil
		default:
			return fmt.Errorf("split needs --pages or --span")
		}
	},
}

var pdfCompressCmd = &cobra.Command{
	Use:   "compress <input.pdf>",
	Short: "Rewrite a PDF with unused objects dropped and streams recompressed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := pdfOut
		if out == "" {
			out = derivedName(args[0], "_compressed")
		}
		if err := pdfops.Compress(args[0], out); err != nil {
			return err
		}
		fmt.Printf("Compressed %s into %s\n", args[0], out)
		return nil
	},
}

var pdfRmNumbersCmd = &cobra.Command{
	Use:   "rm-numbers <input.pdf>",
	Short: "Cover standalone page-number lines near the bottom of each page",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := pdfOut
		if out == "" {
			out = derivedName(args[0], "_clean")
		}
		n, err := pdfops.RemovePageNumbers(args[0], out)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d page number(s), wrote %s\n", n, out)
		return nil
	},
	Args: cobra.ExactArgs(1),
}

var pdfAddNumbersCmd = &cobra.Command{
	Use:   "add-numbers <input.pdf>",
	Short: "Stamp 'Page N of M' on each page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		anchor, err := pdfops.ParseAnchor(pdfAnchor)
		if err != nil {
			return err
		}
		out := pdfOut
		if out == "" {
			out = derivedName(args[0], "_numbered")
		}
		n, err := pdfops.AddPageNumbers(args[0], out, anchor, pdfExclude)
		if err != nil {
			return err
		}
		fmt.Printf("Numbered %d page(s), wrote %s\n", n, out)
		return nil
	},
}

var pdfStampCmd = &cobra.Command{
	Use:   "stamp <input.pdf> <text>",
	Short: "Stamp one line of text in the header or footer band",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		band, err := pdfops.ParseBand(pdfBand)
		if err != nil {
			return err
		}
		align, err := pdfops.ParseAlignment(pdfAlign)
		if err != nil {
			return err
		}
		out := pdfOut
		if out == "" {
			out = derivedName(args[0], "_stamped")
		}
		if err := pdfops.StampText(args[0], out, args[1], band, align, pdfPages); err != nil {
			return err
		}
		fmt.Printf("Stamped %q (%s, %s), wrote %s\n", args[1], band, align, out)
		return nil
	},
}

var pdfInfoCmd = &cobra.Command{
	Use:   "info <input.pdf>...",
	Short: "Print page counts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			n, err := pdfops.PageCount(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Printf("%s: %d page(s)\n", path, n)
		}
		return nil
	},
}

func init() {
	pdfMergeCmd.Flags().StringVarP(&pdfOut, "out", "o", "", "Output file (required)")
	_ = pdfMergeCmd.MarkFlagRequired("out")

	pdfSplitCmd.Flags().StringVar(&pdfPages, "pages", "", `Page selection, e.g. "1-3,5"`)
	pdfSplitCmd.Flags().IntVar(&pdfSpan, "span", 0, "Burst into documents of N pages each")
	pdfSplitCmd.Flags().StringVarP(&pdfOut, "out", "o", "", "Output file for --pages")
	pdfSplitCmd.Flags().StringVar(&pdfOutDir, "out-dir", "", "Output directory for --span")

	pdfCompressCmd.Flags().StringVarP(&pdfOut, "out", "o", "", "Output file (default <input>_compressed.pdf)")

	pdfRmNumbersCmd.Flags().StringVarP(&pdfOut, "out", "o", "", "Output file (default <input>_clean.pdf)")

	pdfAddNumbersCmd.Flags().StringVarP(&pdfOut, "out", "o", "", "Output file (default <input>_numbered.pdf)")
	pdfAddNumbersCmd.Flags().StringVar(&pdfAnchor, "anchor", "bottom-center",
		"Position: bottom-center, bottom-left, bottom-right, top-center, top-right")
	pdfAddNumbersCmd.Flags().StringVar(&pdfExclude, "exclude", "", `Pages to skip, e.g. "1, 3-5"`)

	pdfStampCmd.Flags().StringVarP(&pdfOut, "out", "o", "", "Output file (default <input>_stamped.pdf)")
	pdfStampCmd.Flags().StringVar(&pdfBand, "band", "footer", "Band: header or footer")
	pdfStampCmd.Flags().StringVar(&pdfAlign, "align", "center", "Alignment: left, center, or right")
	pdfStampCmd.Flags().StringVar(&pdfPages, "pages", "", "Page selection (default all pages)")

	pdfCmd.AddCommand(pdfMergeCmd)
	pdfCmd.AddCommand(pdfSplitCmd)
	pdfCmd.AddCommand(pdfCompressCmd)
	pdfCmd.AddCommand(pdfRmNumbersCmd)
	pdfCmd.AddCommand(pdfAddNumbersCmd)
	pdfCmd.AddCommand(pdfStampCmd)
	pdfCmd.AddCommand(pdfInfoCmd)
}

// derivedName appends a suffix before the .pdf extension.
func derivedName(input, suffix string) string {
	base := strings.TrimSuffix(input, ".pdf")
	return base + suffix + ".pdf"
}
