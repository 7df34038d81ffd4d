package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/reportd/internal/report"
)

// readinessSubtitle carries the project display name and the "friction"
// token the detector sniffs for.
const readinessSubtitle = "Friction and readiness snapshot"

// decisionLineRe matches the rendered decision shape:
//
//	1. Adopt contract tests — QA (due 2024-05-21)
//
// Role and due date are both optional on the way back in.
var decisionLineRe = regexp.MustCompile(`^\d+\.\s+(.+?)(?:\s+—\s+([A-Za-z]+))?(?:\s+\(due\s+([^)]+)\))?$`)

var numberedLineRe = regexp.MustCompile(`^\d+\.\s+(.*)$`)

// ReadinessCodec renders and parses per-project execution readiness
// slides: a key/value block per section plus numbered bottleneck and
// decision lists.
type ReadinessCodec struct{}

func (ReadinessCodec) Name() string { return "readiness" }

// Detect requires both the slide title and the friction subtitle token.
func (ReadinessCodec) Detect(text string) bool {
	t := lower(text)
	return strings.Contains(t, "execution readiness") && strings.Contains(t, "friction")
}

// Render emits one slide per execution-readiness slide. For ALL-scope
// reports without explicit slides, and for project-scoped reports, the
// top-level execution sections render as a single implicit slide.
func (ReadinessCodec) Render(r *report.WeeklyReport, rc *ResolveContext) []Slide {
	slides := r.ExecutionReadinessSlides
	if len(slides) == 0 {
		slides = []report.ExecutionReadinessSlide{{
			ProjectID:    r.ProjectID,
			Capacity:     r.Capacity,
			Strength:     r.Strength,
			SprintHealth: r.SprintHealth,
			Bottlenecks:  r.Bottlenecks,
			Decisions:    r.Decisions,
		}}
	}

	out := make([]Slide, 0, len(slides))
	for _, s := range slides {
		name := s.ProjectNameOverride
		if name == "" {
			name = rc.ProjectName(s.ProjectID)
		}
		out = append(out, renderReadinessSlide(name, s, r.UEDHealth))
	}
	return out
}

func renderReadinessSlide(projectName string, s report.ExecutionReadinessSlide, ued report.UEDHealth) Slide {
	body := []string{
		readinessSubtitle + " — " + projectName,
		HeaderCapacity,
		"Sprint start date: " + s.SprintHealth.StartDate,
		"Planned team hours: " + formatHours(s.Capacity.PlannedHours),
		"Committed team hours: " + formatHours(s.Capacity.CommittedHours),
		"Surplus/deficit hours: " + formatHours(s.Capacity.SurplusDeficitHours),
		"Load status: " + string(s.Capacity.LoadStatus),
		HeaderStrength,
		"Active contributors: " + s.Strength.ActiveContributorNames,
		"Critical role gaps: " + YesNo(s.Strength.CriticalRoleGaps),
		"Gap notes: " + s.Strength.GapNotes,
		HeaderSprint,
		"Sprint goal clarity: " + string(s.SprintHealth.GoalClarity),
		"Sprint readiness: " + string(s.SprintHealth.Readiness),
		HeaderUED,
		"Last UED discussion: " + ued.LastDiscussion,
		"Days since last: " + strconv.Itoa(ued.DaysSinceLast),
		"Next UED scheduled: " + ued.NextScheduled,
		"UED data available: " + YesNo(ued.DataAvailable),
		"UED status: " + string(ued.Status),
		HeaderBottlenecks,
	}
	n := 0
	for _, b := range s.Bottlenecks {
		if strings.TrimSpace(b) == "" {
			continue
		}
		n++
		body = append(body, fmt.Sprintf("%d. %s", n, b))
	}
	body = append(body, HeaderDecisions)
	n = 0
	for _, d := range s.Decisions {
		if d.IsEmpty() {
			continue
		}
		n++
		line := fmt.Sprintf("%d. %s — %s", n, d.DecisionText, d.OwnerRole)
		if d.DueDate != "" {
			line += fmt.Sprintf(" (due %s)", d.DueDate)
		}
		body = append(body, line)
	}
	return Slide{Title: TitleReadiness + " — " + projectName, Body: body}
}

// Parse walks the slide line by line, switching sections on the anchor
// headers and reading key:value pairs inside them. A slide with no
// extractable content is discarded rather than appended blank.
func (ReadinessCodec) Parse(text string, rc *ResolveContext, out *Partial) bool {
	var slide report.ExecutionReadinessSlide
	var ued report.UEDHealth
	uedSeen := false
	projectName := ""
	section := ""

	for _, line := range strings.Split(text, "\n") {
		switch {
		case isStopHeader(line):
			section = lower(line)
			continue
		case strings.HasPrefix(lower(line), lower(TitleReadiness)):
			if _, after, ok := strings.Cut(line, "—"); ok {
				projectName = strings.TrimSpace(after)
			}
			continue
		case strings.HasPrefix(lower(line), lower(readinessSubtitle)):
			if _, after, ok := strings.Cut(line, "—"); ok && projectName == "" {
				projectName = strings.TrimSpace(after)
			}
			continue
		}

		switch section {
		case lower(HeaderBottlenecks):
			if m := numberedLineRe.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
				slide.Bottlenecks = append(slide.Bottlenecks, strings.TrimSpace(m[1]))
			}
		case lower(HeaderDecisions):
			if m := decisionLineRe.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
				slide.Decisions = append(slide.Decisions, report.DecisionItem{
					DecisionText: strings.TrimSpace(m[1]),
					OwnerRole:    ClassifyRole(m[2]),
					DueDate:      strings.TrimSpace(m[3]),
				})
			}
		default:
			if parseReadinessField(line, &slide, &ued) {
				uedSeen = true
			}
		}
	}

	if readinessSlideEmpty(slide) {
		return false
	}

	if id := rc.ResolveProject(projectName); id != "" {
		slide.ProjectID = id
	} else {
		slide.ProjectNameOverride = projectName
	}
	out.Slides = append(out.Slides, slide)
	out.SlideTitles = append(out.SlideTitles, projectName)
	if uedSeen && out.UED == nil {
		out.UED = &ued
	}
	return true
}

// parseReadinessField reads one key:value line into the slide or the
// report-level UED block, reporting whether it touched the latter.
func parseReadinessField(line string, slide *report.ExecutionReadinessSlide, ued *report.UEDHealth) bool {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return false
	}
	value = strings.TrimSpace(value)
	switch lower(strings.TrimSpace(key)) {
	case "sprint start date":
		slide.SprintHealth.StartDate = value
	case "planned team hours":
		slide.Capacity.PlannedHours = parseHours(value)
	case "committed team hours":
		slide.Capacity.CommittedHours = parseHours(value)
	case "load status":
		slide.Capacity.LoadStatus = ClassifyLoad(value)
	case "active contributors":
		slide.Strength.ActiveContributorNames = value
	case "critical role gaps":
		slide.Strength.CriticalRoleGaps = ParseYesNo(value)
	case "gap notes":
		slide.Strength.GapNotes = value
	case "sprint goal clarity":
		slide.SprintHealth.GoalClarity = ClassifyHealth(value)
	case "sprint readiness":
		slide.SprintHealth.Readiness = ClassifyHealth(value)
	case "last ued discussion":
		ued.LastDiscussion = value
		return true
	case "days since last":
		if n, err := strconv.Atoi(value); err == nil {
			ued.DaysSinceLast = n
		}
		return true
	case "next ued scheduled":
		ued.NextScheduled = value
		return true
	case "ued data available":
		ued.DataAvailable = ParseYesNo(value)
		return true
	case "ued status":
		ued.Status = ClassifyHealth(value)
		return true
	}
	// Surplus/deficit is never read back: it is derived again after
	// parse.
	return false
}

func readinessSlideEmpty(s report.ExecutionReadinessSlide) bool {
	return s.Capacity.PlannedHours == 0 &&
		s.Capacity.CommittedHours == 0 &&
		s.Strength.ActiveContributorNames == "" &&
		s.SprintHealth.StartDate == "" &&
		(s.SprintHealth.GoalClarity == "" || s.SprintHealth.GoalClarity == report.HealthNA) &&
		(s.SprintHealth.Readiness == "" || s.SprintHealth.Readiness == report.HealthNA) &&
		len(s.Bottlenecks) == 0 &&
		len(s.Decisions) == 0
}

func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseHours(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
