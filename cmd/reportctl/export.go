package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/reportd/internal/codec"
	"github.com/fyrsmithlabs/reportd/internal/deck"
	"github.com/fyrsmithlabs/reportd/internal/export"
	"github.com/fyrsmithlabs/reportd/internal/project"
)

var exportOut string

// exportCmd renders a report JSON document to a deck or workbook.
var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Render a report JSON document to .pptx or .xlsx",
	Long: `Render a report JSON document to a slide deck or workbook. The
output format follows the -o extension. Reads stdin when no file is
given or the file is -.

Examples:
  # Render a deck
  reportctl export -o status.pptx report.json

  # Render a workbook from stdin
  cat report.json | reportctl export -o status.xlsx -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, .pptx or .xlsx (required)")
	_ = exportCmd.MarkFlagRequired("out")
}

func runExport(cmd *cobra.Command, args []string) error {
	r, err := readReport(args)
	if err != nil {
		return err
	}
	r.Normalize()

	rc := &codec.ResolveContext{
		CurrentUserID: r.CreatedBy,
		Projects:      project.NewRegistry(project.Defaults()),
	}

	switch {
	case strings.HasSuffix(exportOut, ".pptx"):
		blob, err := deck.NewRenderer(codec.NewRegistry()).Render(r, rc)
		if err != nil {
			return fmt.Errorf("failed to render deck: %w", err)
		}
		if err := os.WriteFile(exportOut, blob, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOut, err)
		}

	case strings.HasSuffix(exportOut, ".xlsx"):
		wb, err := export.Workbook(r, rc)
		if err != nil {
			return fmt.Errorf("failed to build workbook: %w", err)
		}
		if err := wb.SaveAs(exportOut); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOut, err)
		}

	default:
		return fmt.Errorf("output file must end in .pptx or .xlsx, got %s", exportOut)
	}

	fmt.Printf("Wrote %s\n", exportOut)
	return nil
}
