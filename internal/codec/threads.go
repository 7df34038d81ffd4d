package codec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/reportd/internal/report"
)

// threadLineRe matches the rendered thread shape:
//
//	1. Atlas — Perf baseline — Priya Shah (In Progress)
//
// The product field may be empty, leaving the line starting at the first
// separator.
var threadLineRe = regexp.MustCompile(`^\d+\.\s*(.*?)\s*—\s*(.+?)\s+—\s+(.+?)\s+\(([^)]+)\)$`)

// threadsTableHeader anchors the table-extraction fallback path.
var threadsTableHeader = []string{"product", "thread", "owner", "status"}

// ThreadsCodec renders and parses the top team threads section.
type ThreadsCodec struct{}

func (ThreadsCodec) Name() string { return "threads" }

// Detect sniffs thread content: the section title, or all three of
// product, owner and status.
func (ThreadsCodec) Detect(text string) bool {
	t := lower(text)
	if strings.Contains(t, "top team threads") {
		return true
	}
	return strings.Contains(t, "product") && strings.Contains(t, "owner") && strings.Contains(t, "status")
}

// Render emits numbered thread lines chunked into pages. Owner ids are
// rendered as display names so the deck is readable; the parser resolves
// them back by name match.
func (ThreadsCodec) Render(r *report.WeeklyReport, rc *ResolveContext) []Slide {
	var lines []string
	n := 0
	for _, t := range r.Threads {
		if t.IsEmpty() {
			continue
		}
		n++
		lines = append(lines, fmt.Sprintf("%d. %s — %s — %s (%s)", n, t.Product, t.Thread, rc.OwnerName(t.OwnerID), ThreadStatusLabel(t.Status)))
	}
	return paginate(TitleThreads, lines, ThreadRowsPerPage)
}

// Parse tries the strict line regex, then the header-anchored table
// shape. Owners resolve by case-insensitive exact name, defaulting to
// the current user; rows with no thread text are discarded.
func (ThreadsCodec) Parse(text string, rc *ResolveContext, out *Partial) bool {
	found := false
	for _, line := range strings.Split(text, "\n") {
		m := threadLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		row := report.ThreadRow{
			Product: strings.TrimSpace(m[1]),
			Thread:  strings.TrimSpace(m[2]),
			OwnerID: rc.ResolveOwner(m[3]),
			Status:  ClassifyThreadStatus(m[4]),
		}
		if row.Thread == "" && row.Product == "" {
			continue
		}
		out.Threads = append(out.Threads, row)
		found = true
	}
	if found {
		return true
	}

	for _, group := range tableGroups(text, threadsTableHeader) {
		row := report.ThreadRow{
			Product: group[0],
			Thread:  group[1],
			OwnerID: rc.ResolveOwner(group[2]),
			Status:  ClassifyThreadStatus(group[3]),
		}
		if row.Thread == "" && row.Product == "" {
			continue
		}
		out.Threads = append(out.Threads, row)
		found = true
	}
	return found
}
