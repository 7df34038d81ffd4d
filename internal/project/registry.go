// Package project holds the known-project registry used for seed defaults
// and for resolving display names back to project ids during import.
package project

import "strings"

// Project is one known project.
type Project struct {
	ID   string `json:"id" bson:"project_id"`
	Name string `json:"name" bson:"name"`
}

// Registry resolves project names and ids. It is a small in-memory list;
// the full project catalog for this tool is known at seed time.
type Registry struct {
	projects []Project
}

// NewRegistry creates a registry over the given projects.
func NewRegistry(projects []Project) *Registry {
	return &Registry{projects: projects}
}

// Defaults returns the seed project catalog.
func Defaults() []Project {
	return []Project{
		{ID: "p-checkout", Name: "Checkout"},
		{ID: "p-search", Name: "Search"},
		{ID: "p-payments", Name: "Payments"},
		{ID: "p-mobile", Name: "Mobile App"},
		{ID: "p-platform", Name: "Platform"},
	}
}

// All returns every known project.
func (r *Registry) All() []Project {
	out := make([]Project, len(r.projects))
	copy(out, r.projects)
	return out
}

// IDs returns every known project id, in registry order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.projects))
	for i, p := range r.projects {
		ids[i] = p.ID
	}
	return ids
}

// NameByID returns the display name for a project id, or the id itself
// when unknown.
func (r *Registry) NameByID(id string) string {
	for _, p := range r.projects {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

// ResolveName maps a display name to a project id: case-insensitive exact
// match first, then substring match. Returns "" when nothing matches,
// leaving the field unset.
func (r *Registry) ResolveName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)
	for _, p := range r.projects {
		if strings.ToLower(p.Name) == lower {
			return p.ID
		}
	}
	for _, p := range r.projects {
		if strings.Contains(strings.ToLower(p.Name), lower) || strings.Contains(lower, strings.ToLower(p.Name)) {
			return p.ID
		}
	}
	return ""
}
