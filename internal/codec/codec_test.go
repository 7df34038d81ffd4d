package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/reportd/internal/project"
	"github.com/fyrsmithlabs/reportd/internal/report"
)

func testResolveContext() *ResolveContext {
	return &ResolveContext{
		CurrentUserID: "u-self",
		Users: []UserRef{
			{ID: "u1", Name: "Priya Shah"},
			{ID: "u2", Name: "Wei Chen"},
		},
		Projects: project.NewRegistry([]project.Project{
			{ID: "proj-atlas", Name: "Atlas"},
			{ID: "proj-beacon", Name: "Beacon Mobile"},
		}),
	}
}

func sampleReport() *report.WeeklyReport {
	r := &report.WeeklyReport{
		ID:        "r1",
		ProjectID: "proj-atlas",
		Scope:     report.ScopeProject,
		StartDate: "2024-05-13",
		EndDate:   "2024-05-17",
		Goals: []report.GoalRow{
			{Goal: "A", SuccessMetric: "B", Health: report.HealthGreen, Confidence: report.ConfidenceMed},
			{Goal: "Cut flake rate", SuccessMetric: "below 1%", Health: report.HealthYellow, Confidence: report.ConfidenceHigh},
		},
		Capacity: report.Capacity{PlannedHours: 120, CommittedHours: 110, LoadStatus: report.LoadNormal},
		Strength: report.Strength{ActiveContributorNames: "Priya Shah, Wei Chen", CriticalRoleGaps: true, GapNotes: "no perf specialist"},
		SprintHealth: report.SprintHealth{
			StartDate:   "2024-05-20",
			GoalClarity: report.HealthGreen,
			Readiness:   report.HealthYellow,
		},
		UEDHealth: report.UEDHealth{
			LastDiscussion: "2024-05-06",
			DaysSinceLast:  7,
			NextScheduled:  "2024-05-20",
			DataAvailable:  true,
			Status:         report.HealthGreen,
		},
		Bottlenecks: []string{"env provisioning", "test data refresh", "review latency"},
		Decisions: []report.DecisionItem{
			{DecisionText: "Adopt contract tests", OwnerRole: report.RoleQA, DueDate: "2024-05-21"},
			{DecisionText: "Freeze date for 2.4", OwnerRole: report.RolePM},
			{DecisionText: "Retire legacy smoke job", OwnerRole: report.RoleDev},
		},
		Threads: []report.ThreadRow{
			{Product: "Atlas", Thread: "Perf baseline", OwnerID: "u1", Status: report.ThreadInProgress},
			{Product: "", Thread: "Hiring loop", OwnerID: "u2", Status: report.ThreadBlocked},
		},
	}
	r.Normalize()
	return r
}

func slideTexts(slides []Slide) []string {
	out := make([]string, len(slides))
	for i, s := range slides {
		out[i] = s.Text()
	}
	return out
}

func TestRoundTrip_Goals(t *testing.T) {
	rc := testResolveContext()
	r := sampleReport()
	reg := NewRegistry()

	parsed := reg.ParseSlides(slideTexts(reg.RenderAll(r, rc)), rc)

	require.Len(t, parsed.Goals, 2)
	assert.Equal(t, r.Goals[0], parsed.Goals[0])
	assert.Equal(t, r.Goals[1], parsed.Goals[1])
}

func TestRoundTrip_SingleGoalKeepsMed(t *testing.T) {
	rc := testResolveContext()
	r := &report.WeeklyReport{
		Scope:     report.ScopeProject,
		ProjectID: "proj-atlas",
		Goals: []report.GoalRow{
			{Goal: "A", SuccessMetric: "B", Health: report.HealthGreen, Confidence: report.ConfidenceMed},
		},
	}
	c := GoalsCodec{}

	var out Partial
	for _, s := range c.Render(r, rc) {
		require.True(t, c.Detect(NormalizeText(s.Text())))
		c.Parse(NormalizeText(s.Text()), rc, &out)
	}

	require.Len(t, out.Goals, 1)
	assert.Equal(t, report.ConfidenceMed, out.Goals[0].Confidence)
	assert.Equal(t, r.Goals[0], out.Goals[0])
}

func TestRoundTrip_Threads(t *testing.T) {
	rc := testResolveContext()
	r := sampleReport()
	reg := NewRegistry()

	parsed := reg.ParseSlides(slideTexts(reg.RenderAll(r, rc)), rc)

	require.Len(t, parsed.Threads, 2)
	assert.Equal(t, r.Threads[0], parsed.Threads[0])
	assert.Equal(t, r.Threads[1], parsed.Threads[1])
}

func TestRoundTrip_ExecutionReadiness(t *testing.T) {
	rc := testResolveContext()
	r := sampleReport()
	reg := NewRegistry()

	parsed := reg.ParseSlides(slideTexts(reg.RenderAll(r, rc)), rc)

	require.Len(t, parsed.Slides, 1)
	s := parsed.Slides[0]
	assert.Equal(t, "proj-atlas", s.ProjectID)
	assert.Equal(t, r.Capacity.PlannedHours, s.Capacity.PlannedHours)
	assert.Equal(t, r.Capacity.CommittedHours, s.Capacity.CommittedHours)
	assert.Equal(t, r.Capacity.LoadStatus, s.Capacity.LoadStatus)
	assert.Equal(t, r.Strength.ActiveContributorNames, s.Strength.ActiveContributorNames)
	assert.Equal(t, r.Strength.CriticalRoleGaps, s.Strength.CriticalRoleGaps)
	assert.Equal(t, r.Strength.GapNotes, s.Strength.GapNotes)
	assert.Equal(t, r.SprintHealth, s.SprintHealth)
	assert.Equal(t, []string{"env provisioning", "test data refresh", "review latency"}, s.Bottlenecks)
	assert.Equal(t, r.Decisions, s.Decisions)

	require.NotNil(t, parsed.UED)
	assert.Equal(t, r.UEDHealth, *parsed.UED)
}

func TestRoundTrip_AllScopeSlides(t *testing.T) {
	rc := testResolveContext()
	slide := report.ExecutionReadinessSlide{
		ProjectID:    "proj-beacon",
		Capacity:     report.Capacity{PlannedHours: 40, CommittedHours: 38, LoadStatus: report.LoadOverloaded},
		Strength:     report.Strength{ActiveContributorNames: "Ana"},
		SprintHealth: report.SprintHealth{StartDate: "2024-05-20", GoalClarity: report.HealthGreen, Readiness: report.HealthGreen},
		Bottlenecks:  []string{"b1", "b2", "b3"},
		Decisions: []report.DecisionItem{
			{DecisionText: "d1", OwnerRole: report.RoleQA},
			{DecisionText: "d2", OwnerRole: report.RoleDev},
			{DecisionText: "d3", OwnerRole: report.RolePM},
		},
	}
	r := sampleReport()
	r.Scope = report.ScopeAll
	r.ProjectID = ""
	r.ExecutionReadinessSlides = []report.ExecutionReadinessSlide{slide}
	r.Normalize()

	reg := NewRegistry()
	parsed := reg.ParseSlides(slideTexts(reg.RenderAll(r, rc)), rc)

	require.Len(t, parsed.Slides, 1)
	assert.Equal(t, "proj-beacon", parsed.Slides[0].ProjectID)
	assert.Equal(t, report.LoadOverloaded, parsed.Slides[0].Capacity.LoadStatus)
}

func TestParse_UnresolvedProjectKeepsOverrideName(t *testing.T) {
	rc := testResolveContext()
	r := sampleReport()
	r.Scope = report.ScopeAll
	r.ProjectID = ""
	r.ExecutionReadinessSlides = []report.ExecutionReadinessSlide{{
		ProjectNameOverride: "Skunkworks",
		Capacity:            report.Capacity{PlannedHours: 10, CommittedHours: 10, LoadStatus: report.LoadNormal},
		Strength:            report.Strength{ActiveContributorNames: "Bo"},
		SprintHealth:        report.SprintHealth{GoalClarity: report.HealthGreen, Readiness: report.HealthGreen},
	}}
	r.Normalize()

	reg := NewRegistry()
	parsed := reg.ParseSlides(slideTexts(reg.RenderAll(r, rc)), rc)

	require.Len(t, parsed.Slides, 1)
	assert.Equal(t, "", parsed.Slides[0].ProjectID)
	assert.Equal(t, "Skunkworks", parsed.Slides[0].ProjectNameOverride)
}

func TestParse_UnknownOwnerDefaultsToCurrentUser(t *testing.T) {
	rc := testResolveContext()
	var out Partial
	ok := ThreadsCodec{}.Parse("Top Team Threads\n1. Atlas — Perf — Somebody Else (Blocked)", rc, &out)
	require.True(t, ok)
	require.Len(t, out.Threads, 1)
	assert.Equal(t, "u-self", out.Threads[0].OwnerID)
}

func TestParse_TableFallback(t *testing.T) {
	text := NormalizeText(strings.Join([]string{
		"Top Team Threads",
		"Product", "Thread", "Owner", "Status",
		"Atlas", "Perf baseline", "Priya Shah", "In Progress",
		"Beacon Mobile", "Release checklist", "Wei Chen", "Completed",
	}, "\n"))

	rc := testResolveContext()
	var out Partial
	ok := ThreadsCodec{}.Parse(text, rc, &out)

	require.True(t, ok)
	require.Len(t, out.Threads, 2)
	assert.Equal(t, report.ThreadRow{Product: "Atlas", Thread: "Perf baseline", OwnerID: "u1", Status: report.ThreadInProgress}, out.Threads[0])
	assert.Equal(t, report.ThreadRow{Product: "Beacon Mobile", Thread: "Release checklist", OwnerID: "u2", Status: report.ThreadCompleted}, out.Threads[1])
}

func TestParse_GoalsTableFallback(t *testing.T) {
	text := NormalizeText(strings.Join([]string{
		"Goals",
		"Goal", "Success Metric", "Health", "Confidence",
		"Ship importer", "zero escapes", "Green", "High",
	}, "\n"))

	rc := testResolveContext()
	var out Partial
	ok := GoalsCodec{}.Parse(text, rc, &out)

	require.True(t, ok)
	require.Len(t, out.Goals, 1)
	assert.Equal(t, report.GoalRow{Goal: "Ship importer", SuccessMetric: "zero escapes", Health: report.HealthGreen, Confidence: report.ConfidenceHigh}, out.Goals[0])
}

func TestParseSlides_UnrecognizedBlockSkipped(t *testing.T) {
	rc := testResolveContext()
	reg := NewRegistry()

	parsed := reg.ParseSlides([]string{"Quarterly budget review\nnothing to see here"}, rc)
	assert.Empty(t, parsed.Goals)
	assert.Empty(t, parsed.Threads)
	assert.Empty(t, parsed.Slides)
}

func TestApply_KeepsPriorSectionsWhenAbsent(t *testing.T) {
	r := sampleReport()
	priorGoals := r.Goals

	p := &Partial{Threads: []report.ThreadRow{{Thread: "only threads", OwnerID: "u1", Status: report.ThreadBlocked}}}
	p.Apply(r)

	assert.Equal(t, priorGoals, r.Goals)
	assert.Equal(t, "only threads", r.Threads[0].Thread)
	// Derived recomputation always runs after parse.
	assert.Equal(t, float64(10), r.Capacity.SurplusDeficitHours)
}

func TestApply_ProjectScopeTakesFirstSlide(t *testing.T) {
	r := sampleReport()
	p := &Partial{Slides: []report.ExecutionReadinessSlide{{
		ProjectID: "proj-atlas",
		Capacity:  report.Capacity{PlannedHours: 50, CommittedHours: 60, LoadStatus: report.LoadOverloaded},
		Strength:  report.Strength{ActiveContributorNames: "Ana, Bo"},
		SprintHealth: report.SprintHealth{
			GoalClarity: report.HealthYellow, Readiness: report.HealthRed,
		},
		Bottlenecks: []string{"x", "y", "z"},
		Decisions:   []report.DecisionItem{{DecisionText: "d", OwnerRole: report.RoleQA}},
	}}}
	p.Apply(r)

	assert.Equal(t, float64(-10), r.Capacity.SurplusDeficitHours)
	assert.Equal(t, 2, r.Strength.ActiveContributors)
	assert.Equal(t, report.HealthRed, r.SprintHealth.Readiness)
}

func TestPaginate_ChunksWithContinuationTitles(t *testing.T) {
	rc := testResolveContext()
	r := sampleReport()
	r.Goals = nil
	for i := 0; i < 10; i++ {
		r.Goals = append(r.Goals, report.GoalRow{
			Goal: "G", SuccessMetric: "M",
			Health: report.HealthGreen, Confidence: report.ConfidenceMed,
		})
	}

	slides := GoalsCodec{}.Render(r, rc)
	require.Len(t, slides, 2)
	assert.Equal(t, TitleGoals, slides[0].Title)
	assert.Equal(t, TitleGoals+ContSuffix, slides[1].Title)
	assert.Len(t, slides[0].Body, GoalRowsPerPage)
	assert.Len(t, slides[1].Body, 3)

	// Numbering continues across pages.
	assert.True(t, strings.HasPrefix(slides[1].Body[0], "8. "))
}

func TestNormalizeText(t *testing.T) {
	in := "  a   b \n\n\t c\td \n"
	assert.Equal(t, "a b\nc d", NormalizeText(in))
}
