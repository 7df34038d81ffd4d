// Package codec renders report sections into the deterministic slide-text
// shapes used on export and best-effort parses that same text back on
// import. Each section has a named codec implementing detect/render/parse;
// a registry tries each codec's detect in a fixed priority order, so the
// round trip is testable per codec.
package codec

import (
	"strings"

	"github.com/fyrsmithlabs/reportd/internal/project"
	"github.com/fyrsmithlabs/reportd/internal/report"
)

// Section header strings. These are the parser's anchor tokens and must
// be reproduced byte-for-byte on render for round-trip parsing to work.
const (
	TitleGoals     = "Goals"
	TitleThreads   = "Top Team Threads"
	TitleReadiness = "Execution Readiness"

	HeaderCapacity    = "Team Health (Capacity)"
	HeaderStrength    = "Team Strength"
	HeaderSprint      = "Sprint Health"
	HeaderUED         = "UED Health"
	HeaderBottlenecks = "Bottlenecks"
	HeaderDecisions   = "Decisions Pending"

	// ContSuffix marks overflow pages of a chunked section.
	ContSuffix = " (cont.)"
)

// Page row budgets before a section spills onto a continuation slide.
const (
	GoalRowsPerPage   = 7
	ThreadRowsPerPage = 10
)

// UserRef is the minimal user identity the codec needs for owner
// resolution.
type UserRef struct {
	ID   string
	Name string
}

// ResolveContext supplies the lookups used while parsing: owner names are
// resolved against Users (case-insensitive exact match, defaulting to
// CurrentUserID), and project names against the registry.
type ResolveContext struct {
	CurrentUserID string
	Users         []UserRef
	Projects      *project.Registry
}

// ResolveOwner maps a display name to a user id. Unmatched names fall
// back to the current user.
func (rc *ResolveContext) ResolveOwner(name string) string {
	name = strings.TrimSpace(name)
	for _, u := range rc.Users {
		if strings.EqualFold(u.Name, name) {
			return u.ID
		}
	}
	return rc.CurrentUserID
}

// OwnerName maps a user id back to its display name, falling back to the
// id itself.
func (rc *ResolveContext) OwnerName(id string) string {
	for _, u := range rc.Users {
		if u.ID == id {
			return u.Name
		}
	}
	return id
}

// ResolveProject maps a display name to a project id, or "" when nothing
// matches.
func (rc *ResolveContext) ResolveProject(name string) string {
	if rc.Projects == nil {
		return ""
	}
	return rc.Projects.ResolveName(name)
}

// ProjectName maps a project id to its display name.
func (rc *ResolveContext) ProjectName(id string) string {
	if rc.Projects == nil {
		return id
	}
	return rc.Projects.NameByID(id)
}

// Partial accumulates the sections recovered from an imported document.
// Sections absent from the input stay nil so the caller can leave the
// corresponding report section at its prior state.
type Partial struct {
	Goals       []report.GoalRow
	Threads     []report.ThreadRow
	Slides      []report.ExecutionReadinessSlide
	SlideTitles []string
	UED         *report.UEDHealth
}

// SectionCodec is one named section's render/parse pair. Render returns
// pages of body lines sized to the section's row budget; Parse consumes
// one slide's normalized text and appends whatever it recovers to the
// partial, reporting whether it found anything.
type SectionCodec interface {
	Name() string
	Detect(text string) bool
	Render(r *report.WeeklyReport, rc *ResolveContext) []Slide
	Parse(text string, rc *ResolveContext, out *Partial) bool
}

// Slide is one rendered slide: a title plus body lines.
type Slide struct {
	Title string
	Body  []string
}

// Text joins the slide into the newline-delimited shape the extractor
// produces from the slide XML.
func (s Slide) Text() string {
	return s.Title + "\n" + strings.Join(s.Body, "\n")
}

// Registry dispatches slide text to section codecs in priority order.
type Registry struct {
	codecs []SectionCodec
}

// NewRegistry returns the default registry: goals, execution readiness,
// threads — the fixed priority order the importer tries.
func NewRegistry() *Registry {
	return &Registry{codecs: []SectionCodec{
		&GoalsCodec{},
		&ReadinessCodec{},
		&ThreadsCodec{},
	}}
}

// Codecs exposes the registry's codecs in priority order.
func (g *Registry) Codecs() []SectionCodec { return g.codecs }

// RenderAll renders every section of the report into slides, in deck
// order: goals pages, one readiness slide per project (or the implicit
// top-level slide), then thread pages.
func (g *Registry) RenderAll(r *report.WeeklyReport, rc *ResolveContext) []Slide {
	var slides []Slide
	for _, c := range g.codecs {
		slides = append(slides, c.Render(r, rc)...)
	}
	return slides
}

// ParseSlides feeds each slide's extracted text through the codecs in
// priority order. The first codec whose Detect matches gets to parse;
// slides no codec recognizes are skipped. Parsing is never fatal.
func (g *Registry) ParseSlides(slideTexts []string, rc *ResolveContext) *Partial {
	out := &Partial{}
	for _, raw := range slideTexts {
		text := NormalizeText(raw)
		if text == "" {
			continue
		}
		for _, c := range g.codecs {
			if c.Detect(text) {
				c.Parse(text, rc, out)
				break
			}
		}
	}
	return out
}

// Apply merges the recovered sections into the report. Sections the
// import produced nothing for keep their prior (template) state. Derived
// fields are recomputed afterwards in all cases.
func (p *Partial) Apply(r *report.WeeklyReport) {
	if len(p.Goals) > 0 {
		r.Goals = p.Goals
	}
	if len(p.Threads) > 0 {
		r.Threads = p.Threads
	}
	if p.UED != nil {
		r.UEDHealth = *p.UED
	}
	if len(p.Slides) > 0 {
		if r.Scope == report.ScopeAll {
			r.ExecutionReadinessSlides = p.Slides
		} else {
			// A project-scoped report takes the first slide as its
			// top-level execution sections.
			s := p.Slides[0]
			r.Capacity = s.Capacity
			r.Strength = s.Strength
			r.SprintHealth = s.SprintHealth
			r.Bottlenecks = s.Bottlenecks
			r.Decisions = s.Decisions
		}
	}
	r.Normalize()
}

// NormalizeText collapses each line's whitespace runs to single spaces,
// trims the edges, and drops empty lines.
func NormalizeText(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// lower is a shorthand for the case-folded sniffing the detectors use.
func lower(s string) string { return strings.ToLower(s) }
