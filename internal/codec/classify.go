package codec

import (
	"strings"

	"github.com/fyrsmithlabs/reportd/internal/report"
)

// Field-level parsing is forgiving: imported text has been through a
// slide layout and back, so classification keys on the first letter or a
// substring rather than the exact enum string.

// ClassifyHealth maps arbitrary health text onto the traffic-light enum by
// first letter: g, y, r. Anything else is the NA sentinel.
func ClassifyHealth(s string) report.Health {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return report.HealthNA
	}
	switch s[0] {
	case 'g':
		return report.HealthGreen
	case 'y':
		return report.HealthYellow
	case 'r':
		return report.HealthRed
	default:
		return report.HealthNA
	}
}

// ClassifyConfidence maps confidence text by first letter: h is HIGH, l is
// LOW, everything else (including "MEDIUM") is MED.
func ClassifyConfidence(s string) report.Confidence {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return report.ConfidenceMed
	}
	switch s[0] {
	case 'h':
		return report.ConfidenceHigh
	case 'l':
		return report.ConfidenceLow
	default:
		return report.ConfidenceMed
	}
}

// ClassifyLoad maps load-status text by substring: "over" is OVERLOADED,
// "under" is UNDERUTILIZED, anything else NORMAL.
func ClassifyLoad(s string) report.LoadStatus {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "over"):
		return report.LoadOverloaded
	case strings.Contains(s, "under"):
		return report.LoadUnderutilized
	default:
		return report.LoadNormal
	}
}

// ClassifyThreadStatus maps thread-status text by substring, defaulting
// to NOT_STARTED.
func ClassifyThreadStatus(s string) report.ThreadStatus {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "block"):
		return report.ThreadBlocked
	case strings.Contains(s, "complete"), strings.Contains(s, "done"):
		return report.ThreadCompleted
	case strings.Contains(s, "progress"):
		return report.ThreadInProgress
	default:
		return report.ThreadNotStarted
	}
}

// ClassifyRole maps decision owner-role text, defaulting to OTHER.
func ClassifyRole(s string) report.OwnerRole {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "QA":
		return report.RoleQA
	case "DEV":
		return report.RoleDev
	case "PM":
		return report.RolePM
	default:
		return report.RoleOther
	}
}

// ParseYesNo reads the Yes/No strings the renderer emits for booleans.
func ParseYesNo(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true":
		return true
	default:
		return false
	}
}

// YesNo renders a boolean the way ParseYesNo reads it back.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// ThreadStatusLabel is the display form rendered into slides; the
// classifier maps each label back to its enum.
func ThreadStatusLabel(s report.ThreadStatus) string {
	switch s {
	case report.ThreadInProgress:
		return "In Progress"
	case report.ThreadCompleted:
		return "Completed"
	case report.ThreadBlocked:
		return "Blocked"
	default:
		return "Not Started"
	}
}
