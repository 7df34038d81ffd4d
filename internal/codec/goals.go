package codec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/reportd/internal/report"
)

// goalLineRe matches the rendered goal shape:
//
//	1. Stabilize suite — flake rate < 1% (Health: GREEN, Conf: MED)
var goalLineRe = regexp.MustCompile(`^\d+\.\s+(.+?)\s+—\s+(.+?)\s+\(Health:\s*([^,)]+),\s*Conf:\s*([^)]+)\)$`)

// goalsTableHeader is the token sequence anchoring the table-extraction
// fallback path.
var goalsTableHeader = []string{"goal", "success metric", "health", "confidence"}

// GoalsCodec renders and parses the weekly goals section.
type GoalsCodec struct{}

func (GoalsCodec) Name() string { return "goals" }

// Detect sniffs goal content: the word "goals", or both "success metric"
// and "confidence".
func (GoalsCodec) Detect(text string) bool {
	t := lower(text)
	if strings.Contains(t, "goals") {
		return true
	}
	return strings.Contains(t, "success metric") && strings.Contains(t, "confidence")
}

// Render emits numbered goal lines chunked into pages, numbering
// continuing across pages. Empty template rows are not rendered.
func (GoalsCodec) Render(r *report.WeeklyReport, _ *ResolveContext) []Slide {
	var lines []string
	n := 0
	for _, g := range r.Goals {
		if g.IsEmpty() {
			continue
		}
		n++
		lines = append(lines, fmt.Sprintf("%d. %s — %s (Health: %s, Conf: %s)", n, g.Goal, g.SuccessMetric, g.Health, g.Confidence))
	}
	return paginate(TitleGoals, lines, GoalRowsPerPage)
}

// Parse tries the strict line regex first and falls back to the table
// header shape when no line matches. Rows with no goal text are
// discarded rather than inserted blank.
func (GoalsCodec) Parse(text string, _ *ResolveContext, out *Partial) bool {
	found := false
	for _, line := range strings.Split(text, "\n") {
		m := goalLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		row := report.GoalRow{
			Goal:          strings.TrimSpace(m[1]),
			SuccessMetric: strings.TrimSpace(m[2]),
			Health:        ClassifyHealth(m[3]),
			Confidence:    ClassifyConfidence(m[4]),
		}
		if row.Goal == "" && row.SuccessMetric == "" {
			continue
		}
		out.Goals = append(out.Goals, row)
		found = true
	}
	if found {
		return true
	}

	for _, group := range tableGroups(text, goalsTableHeader) {
		row := report.GoalRow{
			Goal:          group[0],
			SuccessMetric: group[1],
			Health:        ClassifyHealth(group[2]),
			Confidence:    ClassifyConfidence(group[3]),
		}
		if row.Goal == "" && row.SuccessMetric == "" {
			continue
		}
		out.Goals = append(out.Goals, row)
		found = true
	}
	return found
}

// paginate splits lines into slides of at most perPage rows, suffixing
// overflow pages with the continuation marker.
func paginate(title string, lines []string, perPage int) []Slide {
	if len(lines) == 0 {
		return nil
	}
	var slides []Slide
	for start := 0; start < len(lines); start += perPage {
		end := start + perPage
		if end > len(lines) {
			end = len(lines)
		}
		t := title
		if start > 0 {
			t += ContSuffix
		}
		slides = append(slides, Slide{Title: t, Body: lines[start:end]})
	}
	return slides
}

// stopHeaders are the lowercased tokens that terminate a table row scan.
var stopHeaders = []string{
	lower(TitleGoals),
	lower(TitleThreads),
	lower(TitleReadiness),
	lower(HeaderCapacity),
	lower(HeaderStrength),
	lower(HeaderSprint),
	lower(HeaderUED),
	lower(HeaderBottlenecks),
	lower(HeaderDecisions),
}

func isStopHeader(line string) bool {
	l := lower(line)
	for _, h := range stopHeaders {
		if l == h || strings.HasPrefix(l, h+" (cont") {
			return true
		}
	}
	return false
}

// tableGroups finds the header token sequence within the text (one token
// per line, case-insensitive) and consumes fixed-arity groups of the
// following lines until a stop header or end of input. Returns nil when
// the header sequence is absent.
func tableGroups(text string, header []string) [][]string {
	lines := strings.Split(text, "\n")
	start := -1
	for i := 0; i+len(header) <= len(lines); i++ {
		match := true
		for j, h := range header {
			if lower(strings.TrimSpace(lines[i+j])) != h {
				match = false
				break
			}
		}
		if match {
			start = i + len(header)
			break
		}
	}
	if start < 0 {
		return nil
	}

	var groups [][]string
	group := make([]string, 0, len(header))
	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if isStopHeader(line) {
			break
		}
		group = append(group, line)
		if len(group) == len(header) {
			groups = append(groups, group)
			group = make([]string, 0, len(header))
		}
	}
	// A trailing partial group is dropped: the table path only accepts
	// complete rows.
	return groups
}
