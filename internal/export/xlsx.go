// Package export renders a weekly report as an XLSX workbook.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/fyrsmithlabs/reportd/internal/codec"
	"github.com/fyrsmithlabs/reportd/internal/report"
)

const (
	sheetSummary     = "Summary"
	sheetGoals       = "Goals"
	sheetHealth      = "Team Health"
	sheetBottlenecks = "Bottlenecks"
	sheetDecisions   = "Decisions"
	sheetThreads     = "Threads"
	sheetReadiness   = "Execution Readiness"
)

// Workbook builds an XLSX workbook for a report. Owner and project ids
// are resolved to display names through rc.
func Workbook(r *report.WeeklyReport, rc *codec.ResolveContext) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSummary(f, r, rc); err != nil {
		return nil, err
	}
	if err := writeRows(f, sheetGoals, []string{"#", "Goal", "Success Metric", "Health", "Confidence"}, len(r.Goals), func(i int) []any {
		g := r.Goals[i]
		return []any{i + 1, g.Goal, g.SuccessMetric, string(g.Health), string(g.Confidence)}
	}); err != nil {
		return nil, err
	}
	if err := writeHealth(f, r); err != nil {
		return nil, err
	}
	if err := writeRows(f, sheetBottlenecks, []string{"#", "Bottleneck"}, len(r.Bottlenecks), func(i int) []any {
		return []any{i + 1, r.Bottlenecks[i]}
	}); err != nil {
		return nil, err
	}
	if err := writeRows(f, sheetDecisions, []string{"#", "Decision", "Owner Role", "Due"}, len(r.Decisions), func(i int) []any {
		d := r.Decisions[i]
		return []any{i + 1, d.DecisionText, string(d.OwnerRole), d.DueDate}
	}); err != nil {
		return nil, err
	}
	if err := writeRows(f, sheetThreads, []string{"#", "Product", "Thread", "Owner", "Status"}, len(r.Threads), func(i int) []any {
		th := r.Threads[i]
		return []any{i + 1, th.Product, th.Thread, rc.OwnerName(th.OwnerID), codec.ThreadStatusLabel(th.Status)}
	}); err != nil {
		return nil, err
	}
	if err := writeReadiness(f, r, rc); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeSummary(f *excelize.File, r *report.WeeklyReport, rc *codec.ResolveContext) error {
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	scope := "All projects"
	if r.Scope == report.ScopeProject {
		scope = rc.ProjectName(r.ProjectID)
	}
	pairs := [][2]any{
		{"Report", r.ID},
		{"Scope", scope},
		{"Week", fmt.Sprintf("%d-W%02d", r.Year, r.ISOWeek)},
		{"Start", r.StartDate},
		{"End", r.EndDate},
		{"Status", string(r.Status)},
		{"Sprint goal clarity", string(r.SprintHealth.GoalClarity)},
		{"Sprint readiness", string(r.SprintHealth.Readiness)},
		{"UED status", string(r.UEDHealth.Status)},
	}
	for i, p := range pairs {
		cell := fmt.Sprintf("A%d", i+1)
		row := []any{p[0], p[1]}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeHealth(f *excelize.File, r *report.WeeklyReport) error {
	if _, err := f.NewSheet(sheetHealth); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetHealth, err)
	}
	rows := [][]any{
		{"Planned hours", r.Capacity.PlannedHours},
		{"Committed hours", r.Capacity.CommittedHours},
		{"Surplus / deficit", r.Capacity.SurplusDeficitHours},
		{"Load status", string(r.Capacity.LoadStatus)},
		nil,
		{"Contributors", r.Strength.ActiveContributorNames},
		{"Active contributors", r.Strength.ActiveContributors},
		{"Critical role gaps", r.Strength.CriticalRoleGaps},
		{"Gap notes", r.Strength.GapNotes},
	}
	for i, row := range rows {
		if row == nil {
			continue
		}
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheetHealth, cell, &row); err != nil {
			return fmt.Errorf("write health row %d: %w", i+1, err)
		}
	}
	return nil
}

// writeReadiness adds the per-project sheet. ALL-scope reports get one
// row per slide; PROJECT reports get a single row from the top-level
// sections.
func writeReadiness(f *excelize.File, r *report.WeeklyReport, rc *codec.ResolveContext) error {
	header := []string{"Project", "Planned", "Committed", "Surplus", "Load", "Contributors", "Goal Clarity", "Sprint Readiness"}
	slides := r.ExecutionReadinessSlides
	if len(slides) == 0 {
		slides = []report.ExecutionReadinessSlide{{
			ProjectID:    r.ProjectID,
			Capacity:     r.Capacity,
			Strength:     r.Strength,
			SprintHealth: r.SprintHealth,
		}}
	}
	return writeRows(f, sheetReadiness, header, len(slides), func(i int) []any {
		s := slides[i]
		name := s.ProjectNameOverride
		if name == "" {
			name = rc.ProjectName(s.ProjectID)
		}
		return []any{
			name,
			s.Capacity.PlannedHours,
			s.Capacity.CommittedHours,
			s.Capacity.SurplusDeficitHours,
			string(s.Capacity.LoadStatus),
			s.Strength.ActiveContributors,
			string(s.SprintHealth.GoalClarity),
			string(s.SprintHealth.Readiness),
		}
	})
}

// writeRows creates a sheet with a header row and one row per item.
func writeRows(f *excelize.File, sheet string, header []string, n int, row func(i int) []any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i := 0; i < n; i++ {
		cell := fmt.Sprintf("A%d", i+2)
		values := row(i)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
