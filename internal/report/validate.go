package report

import (
	"fmt"
	"math"
	"strings"
)

// Issue is one validation failure, addressed by a dotted field path so
// callers can report it inline.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Issues is the result of a validation gate. An empty list means the gate
// passed.
type Issues []Issue

func (is Issues) OK() bool { return len(is) == 0 }

func (is Issues) Error() string {
	if len(is) == 0 {
		return ""
	}
	msgs := make([]string, len(is))
	for i, it := range is {
		msgs[i] = it.Field + ": " + it.Message
	}
	return strings.Join(msgs, "; ")
}

func (is *Issues) add(field, format string, args ...any) {
	*is = append(*is, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// RowRules adapts a section's row type to the shared min-then-all-or-nothing
// check.
type RowRules struct {
	IsFilled func(i int) bool
	IsEmpty  func(i int) bool
}

// ValidateMinRequiredThenAllOrNothing enforces the recurring row pattern:
// the first min rows must be fully filled, and every row past the minimum
// must be either fully filled or fully empty. Violations are appended to
// issues under section-indexed field paths.
func ValidateMinRequiredThenAllOrNothing(issues *Issues, section string, count, min int, rules RowRules) {
	for i := 0; i < min && i < count; i++ {
		if !rules.IsFilled(i) {
			issues.add(fmt.Sprintf("%s[%d]", section, i), "required row is incomplete")
		}
	}
	if count < min {
		issues.add(section, "at least %d entries required, have %d", min, count)
	}
	for i := min; i < count; i++ {
		if !rules.IsFilled(i) && !rules.IsEmpty(i) {
			issues.add(fmt.Sprintf("%s[%d]", section, i), "optional row must be fully filled or left empty")
		}
	}
}

// HasAnyContent reports whether any section carries user content: goal or
// thread text, a bottleneck, a decision, or contributor names.
func (r *WeeklyReport) HasAnyContent() bool {
	for _, g := range r.Goals {
		if g.Goal != "" {
			return true
		}
	}
	for _, t := range r.Threads {
		if t.Thread != "" {
			return true
		}
	}
	for _, b := range r.Bottlenecks {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	for _, d := range r.Decisions {
		if d.DecisionText != "" {
			return true
		}
	}
	return strings.TrimSpace(r.Strength.ActiveContributorNames) != ""
}

// ValidateDraft is the permissive save gate: scope and dates must be
// present and well-formed, and at least one section must hold content.
// Partially filled sections are fine in a draft.
func (r *WeeklyReport) ValidateDraft() Issues {
	var issues Issues
	if r.Scope != ScopeProject && r.Scope != ScopeAll {
		issues.add("scope", "scope must be PROJECT or ALL")
	}
	if r.Scope == ScopeProject && r.ProjectID == "" {
		issues.add("projectId", "a project-scoped report needs a project")
	}
	if r.StartDate == "" || r.EndDate == "" {
		issues.add("startDate", "start and end dates are required")
	} else if !ValidDateRange(r.StartDate, r.EndDate) {
		issues.add("endDate", "dates must be weekdays within one Mon-Fri window, end on or after start")
	}
	if !r.HasAnyContent() {
		issues.add("report", "report has no content to save")
	}
	return issues
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func validateCapacity(issues *Issues, prefix string, c Capacity) {
	if !positiveFinite(c.PlannedHours) {
		issues.add(prefix+".plannedHours", "planned hours must be a positive number")
	}
	if !positiveFinite(c.CommittedHours) {
		issues.add(prefix+".committedHours", "committed hours must be a positive number")
	}
	if c.LoadStatus == "" {
		issues.add(prefix+".loadStatus", "load status must be chosen")
	}
}

func validateStrength(issues *Issues, prefix string, s Strength) {
	if strings.TrimSpace(s.ActiveContributorNames) == "" || len(SplitContributorNames(s.ActiveContributorNames)) == 0 {
		issues.add(prefix+".activeContributorNames", "active contributor names are required")
	}
}

func validateSprintHealth(issues *Issues, prefix string, sh SprintHealth) {
	if sh.GoalClarity == "" || sh.GoalClarity == HealthNA {
		issues.add(prefix+".goalClarity", "sprint goal clarity must be assessed")
	}
	if sh.Readiness == "" || sh.Readiness == HealthNA {
		issues.add(prefix+".readiness", "sprint readiness must be assessed")
	}
}

func bottleneckRules(rows []string) RowRules {
	return RowRules{
		IsFilled: func(i int) bool { return strings.TrimSpace(rows[i]) != "" },
		IsEmpty:  func(i int) bool { return strings.TrimSpace(rows[i]) == "" },
	}
}

// ValidatePublish is the strict publish gate, a superset of the draft
// gate. Publish must be refused (a no-op, no partial persistence) while
// any issue remains.
func (r *WeeklyReport) ValidatePublish() Issues {
	issues := r.ValidateDraft()

	ValidateMinRequiredThenAllOrNothing(&issues, "goals", len(r.Goals), MinGoals, RowRules{
		IsFilled: func(i int) bool { return r.Goals[i].IsFilled() },
		IsEmpty:  func(i int) bool { return r.Goals[i].IsEmpty() },
	})
	ValidateMinRequiredThenAllOrNothing(&issues, "bottlenecks", len(r.Bottlenecks), MinBottlenecks, bottleneckRules(r.Bottlenecks))
	ValidateMinRequiredThenAllOrNothing(&issues, "decisions", len(r.Decisions), MinDecisions, RowRules{
		IsFilled: func(i int) bool { return r.Decisions[i].IsFilled() },
		IsEmpty:  func(i int) bool { return r.Decisions[i].IsEmpty() },
	})
	ValidateMinRequiredThenAllOrNothing(&issues, "threads", len(r.Threads), MinThreads, RowRules{
		IsFilled: func(i int) bool { return r.Threads[i].IsFilled() },
		IsEmpty:  func(i int) bool { return r.Threads[i].IsEmpty() },
	})

	if r.Scope == ScopeAll && len(r.ExecutionReadinessSlides) > 0 {
		for i, s := range r.ExecutionReadinessSlides {
			prefix := fmt.Sprintf("executionReadinessSlides[%d]", i)
			if s.ProjectID == "" && s.ProjectNameOverride == "" {
				issues.add(prefix, "slide needs a project reference or an override name")
			}
			validateCapacity(&issues, prefix+".capacity", s.Capacity)
			validateStrength(&issues, prefix+".strength", s.Strength)
			validateSprintHealth(&issues, prefix+".sprintHealth", s.SprintHealth)
			ValidateMinRequiredThenAllOrNothing(&issues, prefix+".bottlenecks", len(s.Bottlenecks), MinBottlenecks, bottleneckRules(s.Bottlenecks))
			ValidateMinRequiredThenAllOrNothing(&issues, prefix+".decisions", len(s.Decisions), MinDecisions, RowRules{
				IsFilled: func(i int) bool { return s.Decisions[i].IsFilled() },
				IsEmpty:  func(i int) bool { return s.Decisions[i].IsEmpty() },
			})
		}
	} else {
		validateCapacity(&issues, "capacity", r.Capacity)
		validateStrength(&issues, "strength", r.Strength)
		validateSprintHealth(&issues, "sprintHealth", r.SprintHealth)
	}

	return issues
}
