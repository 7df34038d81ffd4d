package deck

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/reportd/internal/codec"
	"github.com/fyrsmithlabs/reportd/internal/project"
	"github.com/fyrsmithlabs/reportd/internal/report"
)

func testResolveContext() *codec.ResolveContext {
	return &codec.ResolveContext{
		CurrentUserID: "u-self",
		Users: []codec.UserRef{
			{ID: "u1", Name: "Priya Shah"},
		},
		Projects: project.NewRegistry([]project.Project{
			{ID: "proj-atlas", Name: "Atlas"},
		}),
	}
}

func testReport() *report.WeeklyReport {
	r := &report.WeeklyReport{
		ID:        "r1",
		ProjectID: "proj-atlas",
		Scope:     report.ScopeProject,
		StartDate: "2024-05-13",
		EndDate:   "2024-05-17",
		Goals: []report.GoalRow{
			{Goal: "Ship importer", SuccessMetric: "zero escapes", Health: report.HealthGreen, Confidence: report.ConfidenceMed},
		},
		Capacity:     report.Capacity{PlannedHours: 120, CommittedHours: 110, LoadStatus: report.LoadNormal},
		Strength:     report.Strength{ActiveContributorNames: "Priya Shah"},
		SprintHealth: report.SprintHealth{StartDate: "2024-05-20", GoalClarity: report.HealthGreen, Readiness: report.HealthYellow},
		Bottlenecks:  []string{"env provisioning", "test data", "review latency"},
		Decisions: []report.DecisionItem{
			{DecisionText: "d1", OwnerRole: report.RoleQA},
			{DecisionText: "d2", OwnerRole: report.RoleDev},
			{DecisionText: "d3", OwnerRole: report.RolePM},
		},
		Threads: []report.ThreadRow{
			{Product: "Atlas", Thread: "Perf baseline", OwnerID: "u1", Status: report.ThreadInProgress},
		},
	}
	r.Normalize()
	return r
}

func TestCheckFilename(t *testing.T) {
	assert.NoError(t, CheckFilename("report.pptx"))
	assert.NoError(t, CheckFilename("Weekly Report.PPTX"))
	assert.ErrorIs(t, CheckFilename("report.ppt"), ErrLegacyFormat)
	assert.ErrorIs(t, CheckFilename("report.pdf"), ErrUnsupportedFormat)
	assert.ErrorIs(t, CheckFilename("report"), ErrUnsupportedFormat)
}

func TestExtract_RejectsLegacyBinary(t *testing.T) {
	legacy := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 64)...)
	_, err := ExtractSlideTexts(legacy)
	assert.ErrorIs(t, err, ErrLegacyFormat)
}

func TestExtract_RejectsNonArchive(t *testing.T) {
	_, err := ExtractSlideTexts([]byte("not a zip at all"))
	assert.ErrorIs(t, err, ErrNotArchive)
}

func TestExtract_RejectsArchiveWithoutSlides(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("docProps/core.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ExtractSlideTexts(buf.Bytes())
	assert.ErrorIs(t, err, ErrNotArchive)
}

func TestRender_ProducesSlideParts(t *testing.T) {
	r := testReport()
	rc := testResolveContext()

	data, err := NewRenderer(nil).Render(r, rc)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["[Content_Types].xml"])
	assert.True(t, names["ppt/presentation.xml"])
	assert.True(t, names["ppt/slides/slide1.xml"])
	assert.True(t, names["ppt/slides/slide2.xml"])
	assert.True(t, names["ppt/slides/slide3.xml"])
}

func TestRoundTrip_RenderThenExtractThenParse(t *testing.T) {
	r := testReport()
	rc := testResolveContext()
	reg := codec.NewRegistry()

	data, err := NewRenderer(reg).Render(r, rc)
	require.NoError(t, err)

	texts, err := ExtractSlideTexts(data)
	require.NoError(t, err)
	require.Len(t, texts, 3) // goals, readiness, threads

	parsed := reg.ParseSlides(texts, rc)

	require.Len(t, parsed.Goals, 1)
	assert.Equal(t, r.Goals[0], parsed.Goals[0])

	require.Len(t, parsed.Threads, 1)
	assert.Equal(t, r.Threads[0], parsed.Threads[0])

	require.Len(t, parsed.Slides, 1)
	assert.Equal(t, "proj-atlas", parsed.Slides[0].ProjectID)
	assert.Equal(t, []string{"env provisioning", "test data", "review latency"}, parsed.Slides[0].Bottlenecks)
	assert.Equal(t, r.Decisions, parsed.Slides[0].Decisions)
}

func TestRoundTrip_EscapedCharacters(t *testing.T) {
	r := testReport()
	r.Goals[0].SuccessMetric = "flake < 1% & p95 > baseline"
	rc := testResolveContext()
	reg := codec.NewRegistry()

	data, err := NewRenderer(reg).Render(r, rc)
	require.NoError(t, err)
	texts, err := ExtractSlideTexts(data)
	require.NoError(t, err)

	parsed := reg.ParseSlides(texts, rc)
	require.Len(t, parsed.Goals, 1)
	assert.Equal(t, "flake < 1% & p95 > baseline", parsed.Goals[0].SuccessMetric)
}

func TestImport_NoGoalTextLeavesGoalsAtPrior(t *testing.T) {
	// A deck whose only slide carries no goal-shaped text must leave the
	// goals section at its prior template value rather than clearing it.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("ppt/slides/slide1.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<p:sld xmlns:p="p" xmlns:a="a"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>Quarterly budget review</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	texts, err := ExtractSlideTexts(buf.Bytes())
	require.NoError(t, err)

	r := testReport()
	prior := r.Goals

	reg := codec.NewRegistry()
	parsed := reg.ParseSlides(texts, testResolveContext())
	parsed.Apply(r)

	assert.Equal(t, prior, r.Goals)
}

func TestSlideText_JoinsRunsWithoutSeparator(t *testing.T) {
	part := `<p:sld xmlns:p="p" xmlns:a="a"><p:cSld><p:spTree><p:sp><p:txBody>` +
		`<a:p><a:r><a:t>Hello </a:t></a:r><a:r><a:t>world</a:t></a:r></a:p>` +
		`<a:p><a:r><a:t>second line</a:t></a:r></a:p>` +
		`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`

	text, err := slideText(strings.NewReader(part))
	require.NoError(t, err)
	assert.Equal(t, "Hello world\nsecond line", text)
}
