// Package report defines the weekly status report document, its derived
// fields, and the draft/publish validation gates.
package report

import (
	"time"
)

// Scope indicates whether a report covers one project or all of them.
type Scope string

const (
	// ScopeProject covers a single project.
	ScopeProject Scope = "PROJECT"
	// ScopeAll aggregates every project via execution-readiness slides.
	ScopeAll Scope = "ALL"
)

// Status is the report lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusApproved  Status = "APPROVED"
)

// Health is a traffic-light status with an NA sentinel for unassessed items.
type Health string

const (
	HealthGreen  Health = "GREEN"
	HealthYellow Health = "YELLOW"
	HealthRed    Health = "RED"
	HealthNA     Health = "NA"
)

// Confidence is the goal confidence level. The canonical stored and
// displayed form is MED, never MEDIUM.
type Confidence string

const (
	ConfidenceHigh Confidence = "HIGH"
	ConfidenceMed  Confidence = "MED"
	ConfidenceLow  Confidence = "LOW"
)

// LoadStatus is the team capacity load assessment. It is user-chosen, not
// derived from the hours delta.
type LoadStatus string

const (
	LoadNormal        LoadStatus = "NORMAL"
	LoadOverloaded    LoadStatus = "OVERLOADED"
	LoadUnderutilized LoadStatus = "UNDERUTILIZED"
)

// ThreadStatus tracks a team thread's progress.
type ThreadStatus string

const (
	ThreadNotStarted ThreadStatus = "NOT_STARTED"
	ThreadInProgress ThreadStatus = "IN_PROGRESS"
	ThreadCompleted  ThreadStatus = "COMPLETED"
	ThreadBlocked    ThreadStatus = "BLOCKED"
)

// OwnerRole identifies who owns a pending decision.
type OwnerRole string

const (
	RoleQA    OwnerRole = "QA"
	RoleDev   OwnerRole = "DEV"
	RolePM    OwnerRole = "PM"
	RoleOther OwnerRole = "OTHER"
)

// Section minimum row counts. Padding appends empty template rows up to
// these, and the publish gate requires the first N rows fully filled.
const (
	MinGoals       = 1
	MinBottlenecks = 3
	MinDecisions   = 3
	MinThreads     = 1
)

// GoalRow is one weekly goal with its success metric and assessment.
type GoalRow struct {
	Goal          string     `json:"goal" bson:"goal"`
	SuccessMetric string     `json:"successMetric" bson:"success_metric"`
	Health        Health     `json:"health" bson:"health"`
	Confidence    Confidence `json:"confidence" bson:"confidence"`
}

// Capacity holds planned vs committed team hours. SurplusDeficitHours is
// always recomputed as planned minus committed.
type Capacity struct {
	PlannedHours        float64    `json:"plannedHours" bson:"planned_hours"`
	CommittedHours      float64    `json:"committedHours" bson:"committed_hours"`
	SurplusDeficitHours float64    `json:"surplusDeficitHours" bson:"surplus_deficit_hours"`
	LoadStatus          LoadStatus `json:"loadStatus" bson:"load_status"`
}

// Strength describes who is actively contributing. ActiveContributors is
// always the parsed count of ActiveContributorNames.
type Strength struct {
	ActiveContributors     int    `json:"activeContributors" bson:"active_contributors"`
	ActiveContributorNames string `json:"activeContributorNames" bson:"active_contributor_names"`
	CriticalRoleGaps       bool   `json:"criticalRoleGaps" bson:"critical_role_gaps"`
	GapNotes               string `json:"gapNotes" bson:"gap_notes"`
}

// SprintHealth assesses the upcoming sprint.
type SprintHealth struct {
	StartDate   string `json:"startDate" bson:"start_date"`
	GoalClarity Health `json:"goalClarity" bson:"goal_clarity"`
	Readiness   Health `json:"readiness" bson:"readiness"`
}

// UEDHealth tracks the user-experience-data discussion cadence.
type UEDHealth struct {
	LastDiscussion string `json:"lastDiscussion" bson:"last_discussion"`
	DaysSinceLast  int    `json:"daysSinceLast" bson:"days_since_last"`
	NextScheduled  string `json:"nextScheduled" bson:"next_scheduled"`
	DataAvailable  bool   `json:"dataAvailable" bson:"data_available"`
	Status         Health `json:"status" bson:"status"`
}

// DecisionItem is one decision pending from a named role.
type DecisionItem struct {
	DecisionText string    `json:"decisionText" bson:"decision_text"`
	OwnerRole    OwnerRole `json:"ownerRole" bson:"owner_role"`
	DueDate      string    `json:"dueDate,omitempty" bson:"due_date,omitempty"`
}

// ThreadRow is one top team thread.
type ThreadRow struct {
	Product string       `json:"product,omitempty" bson:"product,omitempty"`
	Thread  string       `json:"thread" bson:"thread"`
	OwnerID string       `json:"ownerId" bson:"owner_id"`
	Status  ThreadStatus `json:"status" bson:"status"`
}

// ExecutionReadinessSlide repeats the per-project execution sections for
// one project inside an ALL-scope report.
type ExecutionReadinessSlide struct {
	ProjectID           string         `json:"projectId" bson:"project_id"`
	ProjectNameOverride string         `json:"projectNameOverride,omitempty" bson:"project_name_override,omitempty"`
	Capacity            Capacity       `json:"capacity" bson:"capacity"`
	Strength            Strength       `json:"strength" bson:"strength"`
	SprintHealth        SprintHealth   `json:"sprintHealth" bson:"sprint_health"`
	Bottlenecks         []string       `json:"bottlenecks" bson:"bottlenecks"`
	Decisions           []DecisionItem `json:"decisions" bson:"decisions"`
}

// WeeklyReport is one report document. Temporal indices are derived from
// StartDate at save time and never independently edited.
type WeeklyReport struct {
	ID        string `json:"id" bson:"report_id"`
	ProjectID string `json:"projectId,omitempty" bson:"project_id,omitempty"`
	Scope     Scope  `json:"scope" bson:"scope"`

	StartDate   string `json:"startDate" bson:"start_date"`
	EndDate     string `json:"endDate" bson:"end_date"`
	ISOWeek     int    `json:"isoWeek" bson:"iso_week"`
	Year        int    `json:"year" bson:"year"`
	Month       int    `json:"month" bson:"month"`
	WeekOfMonth int    `json:"weekOfMonth" bson:"week_of_month"`

	Status      Status `json:"status" bson:"status"`
	RevisionOf  string `json:"revisionOf,omitempty" bson:"revision_of,omitempty"`
	CreatedBy   string `json:"createdBy" bson:"created_by"`
	UpdatedBy   string `json:"updatedBy" bson:"updated_by"`
	PublishedBy string `json:"publishedBy,omitempty" bson:"published_by,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`

	Goals        []GoalRow      `json:"goals" bson:"goals"`
	Capacity     Capacity       `json:"capacity" bson:"capacity"`
	Strength     Strength       `json:"strength" bson:"strength"`
	SprintHealth SprintHealth   `json:"sprintHealth" bson:"sprint_health"`
	UEDHealth    UEDHealth      `json:"uedHealth" bson:"ued_health"`
	Bottlenecks  []string       `json:"bottlenecks" bson:"bottlenecks"`
	Decisions    []DecisionItem `json:"decisions" bson:"decisions"`
	Threads      []ThreadRow    `json:"threads" bson:"threads"`

	// Only populated when Scope is ALL. When empty, the top-level
	// execution sections act as an implicit single slide.
	ExecutionReadinessSlides []ExecutionReadinessSlide `json:"executionReadinessSlides,omitempty" bson:"execution_readiness_slides,omitempty"`
}

// IsEmpty reports whether the goal row carries no user content.
func (g GoalRow) IsEmpty() bool {
	return g.Goal == "" && g.SuccessMetric == ""
}

// IsFilled reports whether every required goal field is set.
func (g GoalRow) IsFilled() bool {
	return g.Goal != "" && g.SuccessMetric != "" && g.Health != "" && g.Health != HealthNA && g.Confidence != ""
}

// IsEmpty reports whether the thread row carries no user content.
func (t ThreadRow) IsEmpty() bool {
	return t.Thread == "" && t.Product == ""
}

// IsFilled reports whether every required thread field is set.
func (t ThreadRow) IsFilled() bool {
	return t.Thread != "" && t.OwnerID != "" && t.Status != ""
}

// IsEmpty reports whether the decision carries no user content.
func (d DecisionItem) IsEmpty() bool {
	return d.DecisionText == ""
}

// IsFilled reports whether every required decision field is set.
func (d DecisionItem) IsFilled() bool {
	return d.DecisionText != "" && d.OwnerRole != ""
}
