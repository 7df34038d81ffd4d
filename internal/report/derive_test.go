package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecompute_SurplusDeficit(t *testing.T) {
	r := &WeeklyReport{
		Capacity: Capacity{PlannedHours: 120, CommittedHours: 130, SurplusDeficitHours: 999},
	}
	r.Recompute()
	assert.Equal(t, float64(-10), r.Capacity.SurplusDeficitHours)
}

func TestRecompute_ActiveContributors(t *testing.T) {
	tests := []struct {
		name  string
		names string
		want  int
	}{
		{"empty", "", 0},
		{"single", "Priya", 1},
		{"trims and drops blanks", " Priya , , Wei,  ", 2},
		{"trailing comma", "a,b,c,", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &WeeklyReport{Strength: Strength{ActiveContributorNames: tt.names, ActiveContributors: -1}}
			r.Recompute()
			assert.Equal(t, tt.want, r.Strength.ActiveContributors)
		})
	}
}

func TestRecompute_TemporalIndices(t *testing.T) {
	r := &WeeklyReport{StartDate: "2024-05-13"}
	r.Recompute()

	assert.Equal(t, 20, r.ISOWeek)
	assert.Equal(t, 2024, r.Year)
	assert.Equal(t, 5, r.Month)
	assert.Equal(t, 3, r.WeekOfMonth)
}

func TestRecompute_BadStartDateLeavesIndices(t *testing.T) {
	r := &WeeklyReport{StartDate: "not-a-date", ISOWeek: 7, Year: 2023}
	r.Recompute()
	assert.Equal(t, 7, r.ISOWeek)
	assert.Equal(t, 2023, r.Year)
}

func TestRecompute_SlideDerivations(t *testing.T) {
	r := &WeeklyReport{
		Scope: ScopeAll,
		ExecutionReadinessSlides: []ExecutionReadinessSlide{
			{
				Capacity: Capacity{PlannedHours: 40, CommittedHours: 35},
				Strength: Strength{ActiveContributorNames: "Ana, Bo"},
			},
		},
	}
	r.Recompute()
	assert.Equal(t, float64(5), r.ExecutionReadinessSlides[0].Capacity.SurplusDeficitHours)
	assert.Equal(t, 2, r.ExecutionReadinessSlides[0].Strength.ActiveContributors)
}

func TestValidDateRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"same monday", "2024-05-13", "2024-05-13", true},
		{"mon to fri", "2024-05-13", "2024-05-17", true},
		{"wed to fri", "2024-05-15", "2024-05-17", true},
		{"end before start", "2024-05-15", "2024-05-14", false},
		{"end in next week", "2024-05-13", "2024-05-20", false},
		{"saturday start", "2024-05-11", "2024-05-13", false},
		{"sunday end", "2024-05-13", "2024-05-19", false},
		{"garbage start", "nope", "2024-05-17", false},
		{"garbage end", "2024-05-13", "nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidDateRange(tt.start, tt.end))
		})
	}
}

func TestPad_AppendsUpToMinimums(t *testing.T) {
	r := &WeeklyReport{
		Bottlenecks: []string{"ci flakiness"},
	}
	r.Pad()

	assert.Len(t, r.Goals, MinGoals)
	assert.Len(t, r.Bottlenecks, MinBottlenecks)
	assert.Len(t, r.Decisions, MinDecisions)
	assert.Len(t, r.Threads, MinThreads)
	// Padding never truncates or replaces user data.
	assert.Equal(t, "ci flakiness", r.Bottlenecks[0])
}

func TestPad_NeverTruncates(t *testing.T) {
	r := &WeeklyReport{Bottlenecks: []string{"a", "b", "c", "d", "e"}}
	r.Pad()
	assert.Len(t, r.Bottlenecks, 5)
}

func TestPad_SlideSections(t *testing.T) {
	r := &WeeklyReport{
		Scope:                    ScopeAll,
		ExecutionReadinessSlides: []ExecutionReadinessSlide{{ProjectID: "p1"}},
	}
	r.Pad()
	require.Len(t, r.ExecutionReadinessSlides, 1)
	assert.Len(t, r.ExecutionReadinessSlides[0].Bottlenecks, MinBottlenecks)
	assert.Len(t, r.ExecutionReadinessSlides[0].Decisions, MinDecisions)
}

func TestMondayOf_Sunday(t *testing.T) {
	d, err := ParseDate("2024-05-19") // Sunday
	require.NoError(t, err)
	assert.Equal(t, "2024-05-13", MondayOf(d).Format(DateLayout))
}
