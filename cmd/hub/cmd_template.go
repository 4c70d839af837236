package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"automationhub/internal/store"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"tpl"},
	Short:   "Manage field-extraction templates",
	Long: `Templates describe where named fields sit on a reference page.
Field rectangles are stored in the template's base coordinate space
and rescaled to each PDF page at extraction time.`,
}

var (
	tplWidth  float64
	tplHeight float64
	fieldX    float64
	fieldY    float64
	fieldW    float64
	fieldH    float64
)

var templateAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a template with a base page size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		tpl, err := st.CreateTemplate(args[0], tplWidth, tplHeight)
		if err != nil {
			return err
		}
		fmt.Printf("Created template %q (base %.0fx%.0f)\n", tpl.Name, tpl.BaseWidth, tpl.BaseHeight)
		return nil
	},
}

var fieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Manage template fields",
}

var fieldAddCmd = &cobra.Command{
	Use:   "add <template> <field>",
	Short: "Append a named region to a template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		f, err := st.AddField(args[0], store.TemplateField{
			Name:   args[1],
			X:      fieldX,
			Y:      fieldY,
			Width:  fieldW,
			Height: fieldH,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added field %q to %s at (%.1f, %.1f) %gx%g\n",
			f.Name, args[0], f.X, f.Y, f.Width, f.Height)
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		templates, err := st.ListTemplates()
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			fmt.Println("No templates. Create one with: hub template add <name> --width W --height H")
			return nil
		}
		for _, tpl := range templates {
			fmt.Printf("%-20s base %.0fx%.0f, %d field(s)\n",
				tpl.Name, tpl.BaseWidth, tpl.BaseHeight, len(tpl.Fields))
		}
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a template and its fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		tpl, err := st.GetTemplate(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Template: %s\n", tpl.Name)
		fmt.Printf("Base:     %.0fx%.0f\n", tpl.BaseWidth, tpl.BaseHeight)
		fmt.Printf("Created:  %s\n", tpl.CreatedAt.Format("2006-01-02 15:04:05"))
		if len(tpl.Fields) == 0 {
			fmt.Println("Fields:   none")
			return nil
		}
		fmt.Println("Fields:")
		for _, f := range tpl.Fields {
			fmt.Printf("  %-16s x=%-8.1f y=%-8.1f w=%-8.1f h=%.1f\n",
				f.Name, f.X, f.Y, f.Width, f.Height)
		}
		return nil
	},
}

var templateRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a template and its fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteTemplate(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted template %q\n", args[0])
		return nil
	},
}

func init() {
	templateAddCmd.Flags().Float64Var(&tplWidth, "width", 612, "Base page width in points")
	templateAddCmd.Flags().Float64Var(&tplHeight, "height", 792, "Base page height in points")

	fieldAddCmd.Flags().Float64Var(&fieldX, "x", 0, "Left edge in base coordinates")
	fieldAddCmd.Flags().Float64Var(&fieldY, "y", 0, "Top edge in base coordinates")
	fieldAddCmd.Flags().Float64Var(&fieldW, "width", 0, "Width in base coordinates")
	fieldAddCmd.Flags().Float64Var(&fieldH, "height", 0, "Height in base coordinates")
	_ = fieldAddCmd.MarkFlagRequired("width")
	_ = fieldAddCmd.MarkFlagRequired("height")

	fieldCmd.AddCommand(fieldAddCmd)

	templateCmd.AddCommand(templateAddCmd)
	templateCmd.AddCommand(fieldCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateRmCmd)
}
