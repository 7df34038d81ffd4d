package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/reportd/internal/report"
)

var validatePublishGate bool

// validateCmd runs the validation gates over a report JSON document.
var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a report JSON document",
	Long: `Validate a report JSON document against the save gate, and with
--publish against the publish gate as well. Reads stdin when no file is
given or the file is -.

Examples:
  # Check whether a draft would save
  reportctl validate report.json

  # Check whether it could be published
  reportctl validate --publish report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validatePublishGate, "publish", false, "also run the publish gate")
}

func runValidate(cmd *cobra.Command, args []string) error {
	r, err := readReport(args)
	if err != nil {
		return err
	}
	r.Normalize()

	issues := gateIssues(r, validatePublishGate)
	if len(issues) == 0 {
		fmt.Println("OK")
		return nil
	}

	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s\n", issue.Field, issue.Message)
	}
	return fmt.Errorf("%d validation issue(s)", len(issues))
}

// gateIssues runs the requested gate. The publish gate already includes
// every draft-gate check, so each issue is reported once.
func gateIssues(r *report.WeeklyReport, publish bool) report.Issues {
	if publish {
		return r.ValidatePublish()
	}
	return r.ValidateDraft()
}

// readReport loads a report document from the named file or stdin.
func readReport(args []string) (*report.WeeklyReport, error) {
	var data []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	var r report.WeeklyReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report JSON: %w", err)
	}
	return &r, nil
}
