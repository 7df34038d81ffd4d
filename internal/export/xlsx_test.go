package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/reportd/internal/codec"
	"github.com/fyrsmithlabs/reportd/internal/project"
	"github.com/fyrsmithlabs/reportd/internal/report"
)

func resolveCtx() *codec.ResolveContext {
	return &codec.ResolveContext{
		CurrentUserID: "u-1",
		Users: []codec.UserRef{
			{ID: "u-1", Name: "Priya Patel"},
			{ID: "u-2", Name: "Wei Chen"},
		},
		Projects: project.NewRegistry([]project.Project{
			{ID: "p-checkout", Name: "Checkout"},
			{ID: "p-search", Name: "Search"},
		}),
	}
}

func sampleReport() *report.WeeklyReport {
	r := &report.WeeklyReport{
		ID:        "r-1",
		Scope:     report.ScopeProject,
		ProjectID: "p-checkout",
		StartDate: "2024-05-13",
		EndDate:   "2024-05-17",
		Status:    report.StatusDraft,
		CreatedBy: "u-1",
		Goals: []report.GoalRow{
			{Goal: "Stabilize checkout flow", SuccessMetric: "Error rate under 0.1%", Health: report.HealthGreen, Confidence: report.ConfidenceHigh},
		},
		Capacity: report.Capacity{PlannedHours: 120, CommittedHours: 130, LoadStatus: report.LoadOverloaded},
		Strength: report.Strength{ActiveContributorNames: "Priya Patel, Wei Chen"},
		Bottlenecks: []string{"Staging environment flaky"},
		Decisions: []report.DecisionItem{
			{DecisionText: "Approve load test budget", OwnerRole: report.RolePM, DueDate: "2024-05-20"},
		},
		Threads: []report.ThreadRow{
			{Product: "Checkout", Thread: "Hiring loop", OwnerID: "u-2", Status: report.ThreadBlocked},
		},
	}
	r.Normalize()
	return r
}

func TestWorkbookSheets(t *testing.T) {
	f, err := Workbook(sampleReport(), resolveCtx())
	require.NoError(t, err)

	names := f.GetSheetList()
	assert.Contains(t, names, "Summary")
	assert.Contains(t, names, "Goals")
	assert.Contains(t, names, "Team Health")
	assert.Contains(t, names, "Bottlenecks")
	assert.Contains(t, names, "Decisions")
	assert.Contains(t, names, "Threads")
	assert.Contains(t, names, "Execution Readiness")
	assert.NotContains(t, names, "Sheet1")
}

func TestWorkbookCellValues(t *testing.T) {
	f, err := Workbook(sampleReport(), resolveCtx())
	require.NoError(t, err)

	scope, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Checkout", scope, "project id resolved to name")

	goal, err := f.GetCellValue("Goals", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Stabilize checkout flow", goal)

	surplus, err := f.GetCellValue("Team Health", "B3")
	require.NoError(t, err)
	assert.Equal(t, "-10", surplus, "surplus recomputed before export")

	owner, err := f.GetCellValue("Threads", "D2")
	require.NoError(t, err)
	assert.Equal(t, "Wei Chen", owner)
}

func TestWorkbookAllScopeReadinessRows(t *testing.T) {
	r := sampleReport()
	r.Scope = report.ScopeAll
	r.ProjectID = ""
	r.ExecutionReadinessSlides = []report.ExecutionReadinessSlide{
		{ProjectID: "p-checkout", Capacity: report.Capacity{PlannedHours: 80, CommittedHours: 60}},
		{ProjectNameOverride: "Skunkworks", Capacity: report.Capacity{PlannedHours: 40, CommittedHours: 40}},
	}
	r.Normalize()

	f, err := Workbook(r, resolveCtx())
	require.NoError(t, err)

	first, err := f.GetCellValue("Execution Readiness", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Checkout", first)

	second, err := f.GetCellValue("Execution Readiness", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Skunkworks", second, "unresolved projects keep their override name")
}
